package models

import "time"

// Teacher represents a member of the teaching staff.
type Teacher struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AvailableTeacher is the projection returned by the substitution finder.
type AvailableTeacher struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
