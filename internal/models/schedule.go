package models

import "time"

// ScheduleEntry assigns a teacher to one slot: a (section, period, day) triple.
// At most one entry exists per triple; assigning an occupied triple overwrites
// the teacher instead of inserting a duplicate.
type ScheduleEntry struct {
	ID        string    `db:"id" json:"id"`
	SectionID string    `db:"section_id" json:"section_id"`
	Period    int       `db:"period" json:"period"`
	DayOfWeek int       `db:"day_of_week" json:"day_of_week"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ScheduleEntryDetail joins teacher, section and class names onto an entry for
// grid views and exports.
type ScheduleEntryDetail struct {
	ScheduleEntry
	TeacherName string `db:"teacher_name" json:"teacher_name"`
	SectionName string `db:"section_name" json:"section_name"`
	ClassName   string `db:"class_name" json:"class_name"`
}

// SlotRef identifies one timetable slot.
type SlotRef struct {
	SectionID string `json:"section_id" validate:"required"`
	Period    int    `json:"period" validate:"required,min=1"`
	DayOfWeek int    `json:"day_of_week" validate:"min=0"`
}

// AssignmentWarning flags a non-fatal overlap detected during direct
// assignment: the teacher already holds another section at the same period
// and day. Direct assignment allows the overlap; only the swap path rejects it.
type AssignmentWarning struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	SectionID string `json:"section_id"`
	EntryID   string `json:"entry_id"`
}
