package devserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskdeck/internal/api"
)

func (s *Server) handleListProjects(c *gin.Context) {
	projects, err := s.store.ListProjects(c.Request.Context(), currentUser(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	if projects == nil {
		projects = []api.Project{}
	}
	respond(c, http.StatusOK, projects, "")
}

func (s *Server) handleCreateProject(c *gin.Context) {
	var draft api.ProjectDraft
	if !s.bindJSON(c, &draft) {
		return
	}

	project, err := s.store.CreateProject(c.Request.Context(), currentUser(c), draft)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, project, "project created")
}

func (s *Server) handleUpdateProject(c *gin.Context) {
	var draft api.ProjectDraft
	if !s.bindJSON(c, &draft) {
		return
	}

	project, err := s.store.UpdateProject(c.Request.Context(), currentUser(c), c.Param("id"), draft)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, project, "project updated")
}

func (s *Server) handleDeleteProject(c *gin.Context) {
	if err := s.store.DeleteProject(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{}, "project deleted")
}
