package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tracker/internal/models"
)

// taskRequest is the body of create and update calls. Updates replace the
// whole task, so omitted fields fall back to their zero value.
type taskRequest struct {
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	Status          string     `json:"status"`
	StartTime       *time.Time `json:"start_time"`
	DurationMinutes int64      `json:"duration_minutes"`
	EpicID          int64      `json:"epic_id"`
}

type taskResponse struct {
	ID              int64      `json:"id"`
	Kind            string     `json:"kind"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	Status          string     `json:"status"`
	StartTime       *time.Time `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	DurationMinutes int64      `json:"duration_minutes"`
	EpicID          int64      `json:"epic_id,omitempty"`
	SubtaskIDs      []int64    `json:"subtask_ids,omitempty"`
}

func (r taskRequest) toTask(kind models.Kind) (models.Task, error) {
	status, err := models.ParseStatus(r.Status)
	if err != nil {
		return models.Task{}, err
	}
	duration, err := models.DurationFromMinutes(r.DurationMinutes)
	if err != nil {
		return models.Task{}, err
	}
	start := models.NoTime
	if r.StartTime != nil {
		start = *r.StartTime
	}

	switch kind {
	case models.KindEpic:
		return models.NewEpic(r.Name, r.Description), nil
	case models.KindSubtask:
		return models.NewSubtask(r.Name, r.Description, status, start, duration, r.EpicID), nil
	default:
		return models.NewTask(r.Name, r.Description, status, start, duration), nil
	}
}

func toResponse(t models.Task) taskResponse {
	resp := taskResponse{
		ID:              t.ID,
		Kind:            string(t.Kind),
		Name:            t.Name,
		Description:     t.Description,
		Status:          string(t.Status),
		DurationMinutes: int64(t.Duration / time.Minute),
		EpicID:          t.EpicID,
		SubtaskIDs:      t.SubtaskIDs,
	}
	if t.Scheduled() {
		start, end := t.StartTime, t.EndTime()
		resp.StartTime = &start
		resp.EndTime = &end
	}
	return resp
}

func toResponses(tasks []models.Task) []taskResponse {
	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toResponse(t))
	}
	return out
}

// handleList returns every task of one kind.
func (s *Server) handleList(kind models.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tasks []models.Task
		switch kind {
		case models.KindEpic:
			tasks = s.tasks.GetEpics()
		case models.KindSubtask:
			tasks = s.tasks.GetSubtasks()
		default:
			tasks = s.tasks.GetSingleTasks()
		}
		respondSuccess(c, http.StatusOK, gin.H{"tasks": toResponses(tasks)})
	}
}

// handleGet fetches one task, which must be of the route's kind.
func (s *Server) handleGet(kind models.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		task, err := s.tasks.GetTaskOfKind(id, kind)
		if err != nil {
			s.respondError(c, statusFor(err), err)
			return
		}
		respondSuccess(c, http.StatusOK, gin.H{"task": toResponse(task)})
	}
}

// handleCreate adds a new task of the route's kind.
func (s *Server) handleCreate(kind models.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req taskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			s.respondError(c, http.StatusBadRequest, err)
			return
		}
		task, err := req.toTask(kind)
		if err != nil {
			s.respondError(c, statusFor(err), err)
			return
		}

		cp := s.tasks.Checkpoint()
		created, err := s.tasks.CreateTask(task)
		if err != nil {
			s.respondError(c, statusFor(err), err)
			return
		}
		if err := s.commit(c.Request.Context(), cp); err != nil {
			s.respondError(c, http.StatusInternalServerError, err)
			return
		}
		respondSuccess(c, http.StatusCreated, gin.H{"task": toResponse(created)})
	}
}

// handleUpdate replaces an existing task of the route's kind.
func (s *Server) handleUpdate(kind models.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}

		var req taskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			s.respondError(c, http.StatusBadRequest, err)
			return
		}
		task, err := req.toTask(kind)
		if err != nil {
			s.respondError(c, statusFor(err), err)
			return
		}
		task.ID = id

		cp := s.tasks.Checkpoint()
		updated, err := s.tasks.UpdateTask(task)
		if err != nil {
			s.respondError(c, statusFor(err), err)
			return
		}
		if err := s.commit(c.Request.Context(), cp); err != nil {
			s.respondError(c, http.StatusInternalServerError, err)
			return
		}
		respondSuccess(c, http.StatusOK, gin.H{"task": toResponse(updated)})
	}
}

// handleDelete removes one task of the route's kind.
func (s *Server) handleDelete(kind models.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		cp := s.tasks.Checkpoint()
		if _, err := s.tasks.GetTaskOfKind(id, kind); err != nil {
			s.respondError(c, statusFor(err), err)
			return
		}
		if err := s.tasks.RemoveTask(id); err != nil {
			s.respondError(c, statusFor(err), err)
			return
		}
		if err := s.commit(c.Request.Context(), cp); err != nil {
			s.respondError(c, http.StatusInternalServerError, err)
			return
		}
		respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
	}
}

// handleClear removes every task of the route's kind.
func (s *Server) handleClear(kind models.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		cp := s.tasks.Checkpoint()
		switch kind {
		case models.KindEpic:
			s.tasks.ClearEpics()
		case models.KindSubtask:
			s.tasks.ClearSubtasks()
		default:
			s.tasks.ClearSingleTasks()
		}
		if err := s.commit(c.Request.Context(), cp); err != nil {
			s.respondError(c, http.StatusInternalServerError, err)
			return
		}
		respondSuccess(c, http.StatusOK, gin.H{"status": "cleared"})
	}
}

// handleEpicSubtasks lists the subtasks of one epic.
func (s *Server) handleEpicSubtasks(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	subs, err := s.tasks.GetEpicSubtasks(id)
	if err != nil {
		s.respondError(c, statusFor(err), err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"tasks": toResponses(subs)})
}

// handleHistory returns recently accessed tasks, oldest access first.
func (s *Server) handleHistory(c *gin.Context) {
	respondSuccess(c, http.StatusOK, gin.H{"tasks": toResponses(s.tasks.GetHistory())})
}

// handlePrioritized returns scheduled tasks by start time.
func (s *Server) handlePrioritized(c *gin.Context) {
	respondSuccess(c, http.StatusOK, gin.H{"tasks": toResponses(s.tasks.GetPrioritizedTasks())})
}
