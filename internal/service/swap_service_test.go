package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/badil-app/substitute-api/internal/models"
)

func newSwapFixture() (*SwapService, *memScheduleRepo, *teacherStoreStub, *txRunnerStub) {
	schedule := &memScheduleRepo{}
	teachers := &teacherStoreStub{}
	teachers.add("t1", "أحمد")
	teachers.add("t2", "سارة")
	teachers.add("t3", "خالد")
	tx := &txRunnerStub{}
	svc := NewSwapService(schedule, teachers, tx, nil, nil, nil, nil)
	return svc, schedule, teachers, tx
}

func slot(sectionID string, period, day int) models.SlotRef {
	return models.SlotRef{SectionID: sectionID, Period: period, DayOfWeek: day}
}

func TestSwapCommitsBothWrites(t *testing.T) {
	svc, schedule, _, tx := newSwapFixture()
	a := schedule.add("s1", 1, 0, "t1")
	b := schedule.add("s2", 3, 0, "t2")

	result, err := svc.Swap(context.Background(), SwapRequest{
		First: slot("s1", 1, 0), Second: slot("s2", 3, 0),
	})
	require.NoError(t, err)

	assert.Equal(t, "t2", schedule.teacherAt(a.ID))
	assert.Equal(t, "t1", schedule.teacherAt(b.ID))
	assert.Equal(t, "t2", result.First.TeacherID)
	assert.Equal(t, "t1", result.Second.TeacherID)
	assert.Equal(t, 1, tx.calls)
}

func TestSwapIsSelfInverse(t *testing.T) {
	svc, schedule, _, _ := newSwapFixture()
	a := schedule.add("s1", 1, 0, "t1")
	b := schedule.add("s2", 3, 0, "t2")

	req := SwapRequest{First: slot("s1", 1, 0), Second: slot("s2", 3, 0)}
	_, err := svc.Swap(context.Background(), req)
	require.NoError(t, err)
	_, err = svc.Swap(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "t1", schedule.teacherAt(a.ID))
	assert.Equal(t, "t2", schedule.teacherAt(b.ID))
}

func TestSwapMissingAssignment(t *testing.T) {
	svc, schedule, _, _ := newSwapFixture()
	schedule.add("s1", 1, 0, "t1")

	_, err := svc.Swap(context.Background(), SwapRequest{
		First: slot("s1", 1, 0), Second: slot("s2", 3, 0),
	})
	var rejected *models.SwapRejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, models.SwapReasonMissingAssignment, rejected.Reason)
}

func TestSwapRejectsCrossDay(t *testing.T) {
	svc, schedule, _, _ := newSwapFixture()
	schedule.add("s1", 1, 0, "t1")
	schedule.add("s2", 1, 1, "t2")

	_, err := svc.Swap(context.Background(), SwapRequest{
		First: slot("s1", 1, 0), Second: slot("s2", 1, 1),
	})
	var rejected *models.SwapRejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, models.SwapReasonCrossDay, rejected.Reason)
	// nothing moved
	assert.Equal(t, "t1", schedule.entries[0].TeacherID)
	assert.Equal(t, "t2", schedule.entries[1].TeacherID)
}

func TestSwapRejectsSelfSwap(t *testing.T) {
	svc, schedule, _, _ := newSwapFixture()
	schedule.add("s1", 1, 0, "t1")

	_, err := svc.Swap(context.Background(), SwapRequest{
		First: slot("s1", 1, 0), Second: slot("s1", 1, 0),
	})
	var rejected *models.SwapRejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, models.SwapReasonSelfSwap, rejected.Reason)
}

func TestSwapSameTeacherDistinctSlots(t *testing.T) {
	svc, schedule, _, _ := newSwapFixture()
	// t1 holds both slots; exchanging them is a no-op but not a self-swap
	a := schedule.add("s1", 1, 0, "t1")
	b := schedule.add("s2", 3, 0, "t1")

	_, err := svc.Swap(context.Background(), SwapRequest{
		First: slot("s1", 1, 0), Second: slot("s2", 3, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, "t1", schedule.teacherAt(a.ID))
	assert.Equal(t, "t1", schedule.teacherAt(b.ID))
}

func TestSwapRejectsConflictAtDestination(t *testing.T) {
	svc, schedule, _, _ := newSwapFixture()
	schedule.add("s1", 1, 0, "t1")
	schedule.add("s2", 3, 0, "t2")
	// t1 already teaches elsewhere at period 3, where the swap would move them
	conflict := schedule.add("s3", 3, 0, "t1")

	_, err := svc.Swap(context.Background(), SwapRequest{
		First: slot("s1", 1, 0), Second: slot("s2", 3, 0),
	})
	var rejected *models.SwapRejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, models.SwapReasonTeacherConflict, rejected.Reason)
	require.NotNil(t, rejected.Conflict)
	assert.Equal(t, "t1", rejected.Conflict.TeacherID)
	assert.Equal(t, "أحمد", rejected.Conflict.TeacherName)
	assert.Equal(t, conflict.SectionID, rejected.Conflict.SectionID)
	assert.Equal(t, 3, rejected.Conflict.Period)
	assert.Contains(t, rejected.Message, "أحمد")
	// rejection leaves the schedule untouched
	assert.Equal(t, "t1", schedule.entries[0].TeacherID)
	assert.Equal(t, "t2", schedule.entries[1].TeacherID)
}

func TestSwapSamePeriodDifferentSections(t *testing.T) {
	svc, schedule, _, _ := newSwapFixture()
	a := schedule.add("s1", 2, 1, "t1")
	b := schedule.add("s2", 2, 1, "t2")

	// t1 would land in s2 at the same period they still hold s1; only the
	// destination entry is discounted, so this is a conflict
	_, err := svc.Swap(context.Background(), SwapRequest{
		First: slot("s1", 2, 1), Second: slot("s2", 2, 1),
	})
	var rejected *models.SwapRejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, models.SwapReasonTeacherConflict, rejected.Reason)
	require.NotNil(t, rejected.Conflict)
	assert.Equal(t, "t1", rejected.Conflict.TeacherID)
	assert.Equal(t, "t1", schedule.teacherAt(a.ID))
	assert.Equal(t, "t2", schedule.teacherAt(b.ID))
}

func TestSwapSymmetricConflictCheck(t *testing.T) {
	svc, schedule, _, _ := newSwapFixture()
	schedule.add("s1", 1, 0, "t1")
	schedule.add("s2", 3, 0, "t2")
	// t2 is busy at period 1, the slot they would move into
	schedule.add("s3", 1, 0, "t2")

	_, err := svc.Swap(context.Background(), SwapRequest{
		First: slot("s1", 1, 0), Second: slot("s2", 3, 0),
	})
	var rejected *models.SwapRejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, models.SwapReasonTeacherConflict, rejected.Reason)
	assert.Equal(t, "t2", rejected.Conflict.TeacherID)
}
