package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/badil-app/substitute-api/internal/service"
	appErrors "github.com/badil-app/substitute-api/pkg/errors"
	"github.com/badil-app/substitute-api/pkg/response"
)

// TaskHandler wires the task tracker to HTTP routes.
type TaskHandler struct {
	tasks *service.TaskService
}

// NewTaskHandler constructs a new TaskHandler.
func NewTaskHandler(tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// List godoc
// @Summary List tasks
// @Tags Tasks
// @Produce json
// @Param stats query bool false "Include completion statistics"
// @Success 200 {object} response.Envelope
// @Router /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	if c.Query("stats") == "true" {
		tasks, err := h.tasks.ListWithStats(c.Request.Context())
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, tasks, nil)
		return
	}
	tasks, err := h.tasks.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tasks, nil)
}

// Get godoc
// @Summary Get task with completion statistics
// @Tags Tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} response.Envelope
// @Router /tasks/{id} [get]
func (h *TaskHandler) Get(c *gin.Context) {
	task, err := h.tasks.GetWithStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, task, nil)
}

// Grid godoc
// @Summary Per-teacher completion grid across all tasks
// @Tags Tasks
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /tasks/grid [get]
func (h *TaskHandler) Grid(c *gin.Context) {
	rows, err := h.tasks.TeacherGrid(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Create godoc
// @Summary Create task, seeding a cell for every teacher
// @Tags Tasks
// @Accept json
// @Produce json
// @Param payload body service.CreateTaskRequest true "Task payload"
// @Success 201 {object} response.Envelope
// @Router /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	var req service.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid task payload"))
		return
	}
	task, err := h.tasks.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, task)
}

// Update godoc
// @Summary Edit task name and description
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param payload body service.UpdateTaskRequest true "Task payload"
// @Success 200 {object} response.Envelope
// @Router /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	var req service.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid task payload"))
		return
	}
	task, err := h.tasks.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, task, nil)
}

// Delete godoc
// @Summary Delete task with its completion cells
// @Tags Tasks
// @Param id path string true "Task ID"
// @Success 204
// @Router /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	if err := h.tasks.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ToggleCompletion godoc
// @Summary Set one cell of the task completion matrix
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param payload body service.ToggleCompletionRequest true "Completion payload"
// @Success 200 {object} response.Envelope
// @Router /tasks/{id}/completions [put]
func (h *TaskHandler) ToggleCompletion(c *gin.Context) {
	var req service.ToggleCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid completion payload"))
		return
	}
	cell, err := h.tasks.ToggleCompletion(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cell, nil)
}

// MarkAllComplete godoc
// @Summary Complete every cell of a task
// @Tags Tasks
// @Param id path string true "Task ID"
// @Success 204
// @Router /tasks/{id}/completions/complete-all [post]
func (h *TaskHandler) MarkAllComplete(c *gin.Context) {
	if err := h.tasks.MarkAllComplete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ResetAll godoc
// @Summary Reset every cell of a task
// @Tags Tasks
// @Param id path string true "Task ID"
// @Success 204
// @Router /tasks/{id}/completions/reset [post]
func (h *TaskHandler) ResetAll(c *gin.Context) {
	if err := h.tasks.ResetAll(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
