package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"

	"github.com/badil-app/substitute-api/internal/models"
)

// memScheduleRepo is an in-memory schedule store used across the service tests.
type memScheduleRepo struct {
	mu      sync.Mutex
	entries []models.ScheduleEntry
	nextID  int
	failAll error
}

func (m *memScheduleRepo) add(sectionID string, period, day int, teacherID string) models.ScheduleEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	entry := models.ScheduleEntry{
		ID:        fmt.Sprintf("e%d", m.nextID),
		SectionID: sectionID,
		Period:    period,
		DayOfWeek: day,
		TeacherID: teacherID,
	}
	m.entries = append(m.entries, entry)
	return entry
}

func (m *memScheduleRepo) ListAll(ctx context.Context) ([]models.ScheduleEntry, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.ScheduleEntry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

func (m *memScheduleRepo) ListDetailed(ctx context.Context) ([]models.ScheduleEntryDetail, error) {
	entries, err := m.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.ScheduleEntryDetail, 0, len(entries))
	for _, entry := range entries {
		out = append(out, models.ScheduleEntryDetail{ScheduleEntry: entry})
	}
	return out, nil
}

func (m *memScheduleRepo) ListBySection(ctx context.Context, sectionID string) ([]models.ScheduleEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ScheduleEntry
	for _, entry := range m.entries {
		if entry.SectionID == sectionID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (m *memScheduleRepo) ListByPeriod(ctx context.Context, period, dayOfWeek int) ([]models.ScheduleEntry, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ScheduleEntry
	for _, entry := range m.entries {
		if entry.Period == period && entry.DayOfWeek == dayOfWeek {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (m *memScheduleRepo) FindSlot(ctx context.Context, sectionID string, period, dayOfWeek int) (*models.ScheduleEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, entry := range m.entries {
		if entry.SectionID == sectionID && entry.Period == period && entry.DayOfWeek == dayOfWeek {
			found := entry
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memScheduleRepo) Upsert(ctx context.Context, entry *models.ScheduleEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.entries {
		existing := &m.entries[i]
		if existing.SectionID == entry.SectionID && existing.Period == entry.Period && existing.DayOfWeek == entry.DayOfWeek {
			existing.TeacherID = entry.TeacherID
			entry.ID = existing.ID
			entry.CreatedAt = existing.CreatedAt
			return nil
		}
	}
	m.nextID++
	entry.ID = fmt.Sprintf("e%d", m.nextID)
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memScheduleRepo) SetTeacher(ctx context.Context, q sqlx.ExtContext, entryID, teacherID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.entries {
		if m.entries[i].ID == entryID {
			m.entries[i].TeacherID = teacherID
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memScheduleRepo) RemoveSlot(ctx context.Context, sectionID string, period, dayOfWeek int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, entry := range m.entries {
		if entry.SectionID == sectionID && entry.Period == period && entry.DayOfWeek == dayOfWeek {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memScheduleRepo) DeleteBySection(ctx context.Context, q sqlx.ExtContext, sectionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.entries[:0]
	for _, entry := range m.entries {
		if entry.SectionID != sectionID {
			kept = append(kept, entry)
		}
	}
	m.entries = kept
	return nil
}

func (m *memScheduleRepo) DeleteByTeacher(ctx context.Context, q sqlx.ExtContext, teacherID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.entries[:0]
	for _, entry := range m.entries {
		if entry.TeacherID != teacherID {
			kept = append(kept, entry)
		}
	}
	m.entries = kept
	return nil
}

func (m *memScheduleRepo) teacherAt(entryID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, entry := range m.entries {
		if entry.ID == entryID {
			return entry.TeacherID
		}
	}
	return ""
}

// teacherStoreStub serves both lookups and roster listings in creation order.
type teacherStoreStub struct {
	order []models.Teacher
}

func (s *teacherStoreStub) add(id, name string) {
	s.order = append(s.order, models.Teacher{ID: id, Name: name})
}

func (s *teacherStoreStub) List(ctx context.Context) ([]models.Teacher, error) {
	out := make([]models.Teacher, len(s.order))
	copy(out, s.order)
	return out, nil
}

func (s *teacherStoreStub) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	for _, teacher := range s.order {
		if teacher.ID == id {
			found := teacher
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

type sectionFinderStub struct {
	sections map[string]*models.Section
}

func (s sectionFinderStub) FindByID(ctx context.Context, id string) (*models.Section, error) {
	if section, ok := s.sections[id]; ok {
		return section, nil
	}
	return nil, sql.ErrNoRows
}

// txRunnerStub invokes the callback with a nil transaction; the in-memory
// repos ignore the q argument entirely.
type txRunnerStub struct {
	calls    int
	beginErr error
}

func (s *txRunnerStub) WithTx(ctx context.Context, fn func(ctx context.Context, tx *sqlx.Tx) error) error {
	if s.beginErr != nil {
		return s.beginErr
	}
	s.calls++
	return fn(ctx, nil)
}
