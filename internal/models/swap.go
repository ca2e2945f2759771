package models

import "fmt"

// Swap rejection reason codes.
const (
	SwapReasonMissingAssignment = "MISSING_ASSIGNMENT"
	SwapReasonCrossDay          = "CROSS_DAY_NOT_ALLOWED"
	SwapReasonSelfSwap          = "SELF_SWAP"
	SwapReasonTeacherConflict   = "TEACHER_CONFLICT"
)

// SwapConflict identifies the teacher and slot that block a swap.
type SwapConflict struct {
	TeacherID   string `json:"teacher_id"`
	TeacherName string `json:"teacher_name"`
	SectionID   string `json:"section_id"`
	Period      int    `json:"period"`
	DayOfWeek   int    `json:"day_of_week"`
}

// SwapRejectedError is returned when a proposed swap violates one of the
// protocol rules. No mutation happens once it is raised.
type SwapRejectedError struct {
	Reason   string        `json:"reason"`
	Message  string        `json:"message"`
	Conflict *SwapConflict `json:"conflict,omitempty"`
}

// Error implements the error interface.
func (e *SwapRejectedError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// NewSwapConflictError builds the rejection for a post-swap double-booking.
func NewSwapConflictError(teacherID, teacherName, sectionID string, period, day int) *SwapRejectedError {
	return &SwapRejectedError{
		Reason: SwapReasonTeacherConflict,
		Message: fmt.Sprintf("لا يمكن التبديل: المعلم %s لديه حصة أخرى في %s %s",
			teacherName, DayLabel(day), PeriodLabel(period)),
		Conflict: &SwapConflict{
			TeacherID:   teacherID,
			TeacherName: teacherName,
			SectionID:   sectionID,
			Period:      period,
			DayOfWeek:   day,
		},
	}
}
