package models

import "time"

// Snapshot is the full-state export document. Key names match the exchange
// format consumed by the web client.
type Snapshot struct {
	Teachers        []Teacher        `json:"teachers"`
	Classes         []Class          `json:"classes"`
	Sections        []Section        `json:"sections"`
	Schedule        []ScheduleEntry  `json:"schedule"`
	Tasks           []Task           `json:"tasks"`
	TaskCompletions []TaskCompletion `json:"taskCompletions"`
	ExportedAt      time.Time        `json:"exportedAt"`
}

// ImportRequest mirrors Snapshot with optional keys: a nil slice means the key
// was absent and the existing collection is left untouched. Imported data is
// not cross-validated; it must already satisfy the referential invariants.
type ImportRequest struct {
	Teachers        *[]Teacher        `json:"teachers"`
	Classes         *[]Class          `json:"classes"`
	Sections        *[]Section        `json:"sections"`
	Schedule        *[]ScheduleEntry  `json:"schedule"`
	Tasks           *[]Task           `json:"tasks"`
	TaskCompletions *[]TaskCompletion `json:"taskCompletions"`
}
