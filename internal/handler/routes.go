package handler

import "github.com/gin-gonic/gin"

// Handlers bundles every HTTP handler for route registration.
type Handlers struct {
	Teachers      *TeacherHandler
	Classes       *ClassHandler
	Sections      *SectionHandler
	Schedule      *ScheduleHandler
	Substitutions *SubstitutionHandler
	Tasks         *TaskHandler
	Exports       *ExportHandler
}

// Register mounts all API routes under the given prefix.
func Register(r *gin.Engine, prefix string, h *Handlers) {
	api := r.Group(prefix)

	teachers := api.Group("/teachers")
	teachers.GET("", h.Teachers.List)
	teachers.POST("", h.Teachers.Create)
	teachers.GET("/:id", h.Teachers.Get)
	teachers.PUT("/:id", h.Teachers.Update)
	teachers.DELETE("/:id", h.Teachers.Delete)
	teachers.DELETE("/:id/schedule", h.Teachers.ClearSchedule)

	classes := api.Group("/classes")
	classes.GET("", h.Classes.List)
	classes.POST("", h.Classes.Create)
	classes.GET("/:id", h.Classes.Get)
	classes.PUT("/:id", h.Classes.Update)
	classes.DELETE("/:id", h.Classes.Delete)
	classes.GET("/:id/sections", h.Classes.Sections)

	sections := api.Group("/sections")
	sections.GET("", h.Sections.List)
	sections.POST("", h.Sections.Create)
	sections.GET("/:id", h.Sections.Get)
	sections.PUT("/:id", h.Sections.Update)
	sections.DELETE("/:id", h.Sections.Delete)
	sections.GET("/:id/schedule", h.Sections.Schedule)
	sections.DELETE("/:id/schedule", h.Sections.ClearSchedule)

	schedule := api.Group("/schedule")
	schedule.GET("", h.Schedule.List)
	schedule.POST("", h.Schedule.Assign)
	schedule.GET("/period", h.Schedule.ListByPeriod)
	schedule.GET("/slot", h.Schedule.GetSlot)
	schedule.DELETE("/slot", h.Schedule.RemoveSlot)
	schedule.PUT("/entries/:id/teacher", h.Schedule.SetTeacher)
	schedule.POST("/swap", h.Schedule.Swap)

	api.GET("/substitutions/available", h.Substitutions.Available)

	tasks := api.Group("/tasks")
	tasks.GET("", h.Tasks.List)
	tasks.POST("", h.Tasks.Create)
	tasks.GET("/grid", h.Tasks.Grid)
	tasks.GET("/:id", h.Tasks.Get)
	tasks.PUT("/:id", h.Tasks.Update)
	tasks.DELETE("/:id", h.Tasks.Delete)
	tasks.PUT("/:id/completions", h.Tasks.ToggleCompletion)
	tasks.POST("/:id/completions/complete-all", h.Tasks.MarkAllComplete)
	tasks.POST("/:id/completions/reset", h.Tasks.ResetAll)

	api.GET("/export", h.Exports.Export)
	api.POST("/import", h.Exports.Import)
	api.GET("/export/timetable.csv", h.Exports.TimetableCSV)
	api.GET("/export/timetable.pdf", h.Exports.TimetablePDF)
}
