package devserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskdeck/internal/api"
)

type toggleRequest struct {
	Completed bool `json:"completed"`
}

type reorderRequest struct {
	OldIndex int `json:"oldIndex"`
	NewIndex int `json:"newIndex"`
}

func (s *Server) handleListTasks(c *gin.Context) {
	tasks, err := s.store.ListTasks(c.Request.Context(), currentUser(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	if tasks == nil {
		tasks = []api.Task{}
	}
	respond(c, http.StatusOK, tasks, "")
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var draft api.TaskDraft
	if !s.bindJSON(c, &draft) {
		return
	}

	task, err := s.store.CreateTask(c.Request.Context(), currentUser(c), draft)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, task, "task created")
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	var draft api.TaskDraft
	if !s.bindJSON(c, &draft) {
		return
	}

	task, err := s.store.UpdateTask(c.Request.Context(), currentUser(c), c.Param("id"), draft)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, task, "task updated")
}

func (s *Server) handleToggleTask(c *gin.Context) {
	var req toggleRequest
	if !s.bindJSON(c, &req) {
		return
	}

	task, err := s.store.ToggleTask(c.Request.Context(), currentUser(c), c.Param("id"), req.Completed)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, task, "task updated")
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	if err := s.store.DeleteTask(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{}, "task deleted")
}

func (s *Server) handleReorderTasks(c *gin.Context) {
	var req reorderRequest
	if !s.bindJSON(c, &req) {
		return
	}

	tasks, err := s.store.ReorderTasks(c.Request.Context(), currentUser(c), req.OldIndex, req.NewIndex)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, tasks, "tasks reordered")
}
