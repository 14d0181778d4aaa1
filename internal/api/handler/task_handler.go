package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/genstudio-io/genstudio-be/internal/api/dto"
	"github.com/genstudio-io/genstudio-be/internal/dispatcher"
	"github.com/genstudio-io/genstudio-be/internal/domain"
	"github.com/genstudio-io/genstudio-be/internal/storage"
)

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	deps *Dependencies
}

// NewTaskHandler creates a new TaskHandler instance
func NewTaskHandler(deps *Dependencies) *TaskHandler {
	return &TaskHandler{deps: deps}
}

// CreateTask handles POST /api/v1/tasks
// Converts the caller's ready draft into a charged, enqueued task. Retried
// submissions carrying the same X-Idempotency-Key return the original task.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	section, err := domain.ParseSection(req.Section)
	if err != nil {
		writeError(c, err)
		return
	}

	job, created, err := h.deps.Dispatcher.CreateTask(c.Request.Context(), dispatcher.TaskRequest{
		ExternalID:     req.ExternalID,
		Username:       req.Username,
		FullName:       req.FullName,
		Section:        section,
		IdempotencyKey: c.GetHeader("X-Idempotency-Key"),
	})
	if err != nil {
		// a queue outage still leaves a created, charged task behind
		if job != nil {
			h.deps.Recorder.RecordError("api", err.Error())
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": "Task accepted but not yet queued",
				"task":  taskDTO(job),
			})
			return
		}
		writeError(c, err)
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	c.JSON(status, taskDTO(job))
}

// GetTask handles GET /api/v1/tasks/:task_id
func (h *TaskHandler) GetTask(c *gin.Context) {
	taskID, err := strconv.ParseInt(c.Param("task_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task_id must be an integer"})
		return
	}

	job, err := h.deps.Storage.JobByID(c.Request.Context(), taskID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, taskDTO(job))
}

// ListTasks handles GET /api/v1/tasks
// Lists the caller's tasks newest first with keyset pagination.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	var req dto.ListTasksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	cursor, err := DecodeTaskCursor(req.Cursor)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cursor"})
		return
	}

	user, err := h.deps.Storage.UserByExternalID(c.Request.Context(), req.ExternalID)
	if err != nil {
		writeError(c, err)
		return
	}

	jobs, err := h.deps.Storage.ListJobs(c.Request.Context(), storage.JobFilter{
		UserID:   user.ID,
		Section:  req.Section,
		Status:   req.Status,
		PageSize: req.PageSize,
		Cursor:   cursor,
	})
	if err != nil {
		h.deps.Logger.Error("Failed to list tasks", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list tasks"})
		return
	}

	resp := dto.ListTasksResponse{Tasks: make([]dto.TaskDTO, 0, len(jobs))}
	if len(jobs) > req.PageSize {
		jobs = jobs[:req.PageSize]
		last := jobs[len(jobs)-1]
		resp.NextCursor = EncodeTaskCursor(&storage.JobCursor{
			CreatedAt: last.CreatedAt,
			JobID:     last.ID,
		})
	}
	for i := range jobs {
		resp.Tasks = append(resp.Tasks, taskDTO(&jobs[i]))
	}

	c.JSON(http.StatusOK, resp)
}

// RepeatTask handles POST /api/v1/tasks/:task_id/repeat
// Charges and enqueues a fresh task with the same request.
func (h *TaskHandler) RepeatTask(c *gin.Context) {
	taskID, err := strconv.ParseInt(c.Param("task_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task_id must be an integer"})
		return
	}

	var req dto.SelectSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	job, err := h.deps.Dispatcher.RepeatTask(c.Request.Context(), req.ExternalID, taskID)
	if err != nil {
		if job != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": "Task accepted but not yet queued",
				"task":  taskDTO(job),
			})
			return
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, taskDTO(job))
}

// RedeliverTask handles POST /api/v1/tasks/:task_id/redeliver
// Asks a worker to re-send the result of a finished task.
func (h *TaskHandler) RedeliverTask(c *gin.Context) {
	taskID, err := strconv.ParseInt(c.Param("task_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task_id must be an integer"})
		return
	}

	job, err := h.deps.Storage.JobByID(c.Request.Context(), taskID)
	if err != nil {
		writeError(c, err)
		return
	}
	if !job.Status.Terminal() {
		c.JSON(http.StatusConflict, gin.H{"error": "Task is not finished yet"})
		return
	}

	if _, err := h.deps.Publisher.EnqueueRedeliver(c.Request.Context(), job.ID); err != nil {
		h.deps.Logger.Error("Failed to enqueue redelivery",
			slog.Int64("task_id", job.ID),
			slog.Any("error", err),
		)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Queue unavailable"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "redelivery scheduled"})
}
