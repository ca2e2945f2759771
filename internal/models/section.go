package models

import "time"

// Section is a class-group with its own weekly timetable (e.g. "الصف السادس أ").
// ClassID is a back-reference to the owning class; the class is never deleted
// through a section.
type Section struct {
	ID            string    `db:"id" json:"id"`
	ClassID       string    `db:"class_id" json:"class_id"`
	Name          string    `db:"name" json:"name"`
	SectionLetter string    `db:"section_letter" json:"section_letter"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// SectionWithClass extends Section with the owning class name for display.
type SectionWithClass struct {
	Section
	ClassName string `db:"class_name" json:"class_name"`
}
