package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/badil-app/substitute-api/internal/models"
	appErrors "github.com/badil-app/substitute-api/pkg/errors"
)

func newTimetableFixture() (*TimetableService, *memScheduleRepo, *teacherStoreStub) {
	schedule := &memScheduleRepo{}
	teachers := &teacherStoreStub{}
	teachers.add("t1", "أحمد")
	teachers.add("t2", "سارة")
	sections := sectionFinderStub{sections: map[string]*models.Section{
		"s1": {ID: "s1", ClassID: "c1", Name: "الأول أ", SectionLetter: "أ"},
		"s2": {ID: "s2", ClassID: "c1", Name: "الأول ب", SectionLetter: "ب"},
	}}
	svc := NewTimetableService(schedule, sections, teachers, nil, nil, nil)
	return svc, schedule, teachers
}

func TestAssignCreatesEntry(t *testing.T) {
	svc, schedule, _ := newTimetableFixture()

	entry, warnings, err := svc.Assign(context.Background(), AssignScheduleRequest{
		SectionID: "s1", Period: 1, DayOfWeek: 0, TeacherID: "t1",
	})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.NotEmpty(t, entry.ID)
	assert.Len(t, schedule.entries, 1)
}

func TestAssignOverwritesOccupiedSlot(t *testing.T) {
	svc, schedule, _ := newTimetableFixture()
	existing := schedule.add("s1", 1, 0, "t1")

	entry, _, err := svc.Assign(context.Background(), AssignScheduleRequest{
		SectionID: "s1", Period: 1, DayOfWeek: 0, TeacherID: "t2",
	})
	require.NoError(t, err)

	// same slot keeps its entry identity; only the teacher changes
	assert.Equal(t, existing.ID, entry.ID)
	assert.Len(t, schedule.entries, 1)
	assert.Equal(t, "t2", schedule.entries[0].TeacherID)
}

func TestAssignReportsTeacherOverlapAsWarning(t *testing.T) {
	svc, schedule, _ := newTimetableFixture()
	other := schedule.add("s2", 1, 0, "t1")

	entry, warnings, err := svc.Assign(context.Background(), AssignScheduleRequest{
		SectionID: "s1", Period: 1, DayOfWeek: 0, TeacherID: "t1",
	})
	require.NoError(t, err)
	require.NotNil(t, entry)

	// double-booking is allowed on direct assignment, but flagged
	require.Len(t, warnings, 1)
	assert.Equal(t, "TEACHER_OVERLAP", warnings[0].Code)
	assert.Equal(t, "s2", warnings[0].SectionID)
	assert.Equal(t, other.ID, warnings[0].EntryID)
	assert.Contains(t, warnings[0].Message, "أحمد")
	assert.Len(t, schedule.entries, 2)
}

func TestAssignRejectsOutOfRangeSlot(t *testing.T) {
	svc, _, _ := newTimetableFixture()

	_, _, err := svc.Assign(context.Background(), AssignScheduleRequest{
		SectionID: "s1", Period: 9, DayOfWeek: 0, TeacherID: "t1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, _, err = svc.Assign(context.Background(), AssignScheduleRequest{
		SectionID: "s1", Period: 1, DayOfWeek: 5, TeacherID: "t1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAssignUnknownSectionOrTeacher(t *testing.T) {
	svc, _, _ := newTimetableFixture()

	_, _, err := svc.Assign(context.Background(), AssignScheduleRequest{
		SectionID: "nope", Period: 1, DayOfWeek: 0, TeacherID: "t1",
	})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, _, err = svc.Assign(context.Background(), AssignScheduleRequest{
		SectionID: "s1", Period: 1, DayOfWeek: 0, TeacherID: "nope",
	})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestFindSlotEmptyReturnsNotFound(t *testing.T) {
	svc, _, _ := newTimetableFixture()

	_, err := svc.FindSlot(context.Background(), "s1", 1, 0)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRemoveSlotReportsExistence(t *testing.T) {
	svc, schedule, _ := newTimetableFixture()
	schedule.add("s1", 2, 1, "t1")

	removed, err := svc.RemoveSlot(context.Background(), "s1", 2, 1)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = svc.RemoveSlot(context.Background(), "s1", 2, 1)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestRemoveAllForTeacherLeavesOthers(t *testing.T) {
	svc, schedule, _ := newTimetableFixture()
	schedule.add("s1", 1, 0, "t1")
	schedule.add("s1", 2, 0, "t2")
	schedule.add("s2", 3, 1, "t1")

	require.NoError(t, svc.RemoveAllForTeacher(context.Background(), "t1"))
	require.Len(t, schedule.entries, 1)
	assert.Equal(t, "t2", schedule.entries[0].TeacherID)
}
