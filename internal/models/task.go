package models

import "time"

// Task is a trackable duty assigned to every teacher (e.g. "دفتر الحضور").
type Task struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// TaskCompletion is one cell of the task×teacher matrix.
type TaskCompletion struct {
	ID          string     `db:"id" json:"id"`
	TaskID      string     `db:"task_id" json:"task_id"`
	TeacherID   string     `db:"teacher_id" json:"teacher_id"`
	Completed   bool       `db:"completed" json:"completed"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	Notes       *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// TaskWithStats carries completion statistics for one task.
type TaskWithStats struct {
	Task
	Completions          []TaskCompletion `json:"completions"`
	CompletedCount       int              `json:"completed_count"`
	TotalTeachers        int              `json:"total_teachers"`
	CompletionPercentage int              `json:"completion_percentage"`
}

// TeacherCompletionRow is one row of the grid view: a teacher and their
// completion state across all tasks.
type TeacherCompletionRow struct {
	Teacher              Teacher          `json:"teacher"`
	Completions          []TaskCompletion `json:"completions"`
	CompletedCount       int              `json:"completed_count"`
	TotalTasks           int              `json:"total_tasks"`
	CompletionPercentage int              `json:"completion_percentage"`
}
