package devserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskdeck/internal/api"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if !s.bindJSON(c, &req) {
		return
	}

	user, err := s.store.CreateUser(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}
	tokens, err := s.store.IssueTokens(c.Request.Context(), user.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.logger.Info("user registered", "email", user.Email)
	respond(c, http.StatusCreated, api.AuthPayload{User: user, Tokens: tokens}, "account created")
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if !s.bindJSON(c, &req) {
		return
	}

	user, err := s.store.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}
	tokens, err := s.store.IssueTokens(c.Request.Context(), user.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.logger.Info("user logged in", "email", user.Email)
	respond(c, http.StatusOK, api.AuthPayload{User: user, Tokens: tokens}, "logged in")
}

func (s *Server) handleRefresh(c *gin.Context) {
	var req refreshRequest
	if !s.bindJSON(c, &req) {
		return
	}

	tokens, err := s.store.Rotate(c.Request.Context(), req.RefreshToken)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"accessToken":  tokens.Access,
		"refreshToken": tokens.Refresh,
	}, "token refreshed")
}

func (s *Server) handleLogout(c *gin.Context) {
	if err := s.store.RevokeSessions(c.Request.Context(), currentUser(c)); err != nil {
		s.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{}, "logged out")
}

func (s *Server) handleProfile(c *gin.Context) {
	user, err := s.store.UserByID(c.Request.Context(), currentUser(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"user": user}, "")
}

func (s *Server) handleUpdateProfile(c *gin.Context) {
	var patch api.UserPatch
	if !s.bindJSON(c, &patch) {
		return
	}

	user, err := s.store.UpdateUser(c.Request.Context(), currentUser(c), patch)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"user": user}, "profile updated")
}

func (s *Server) handleUpdateSettings(c *gin.Context) {
	var patch api.SettingsPatch
	if !s.bindJSON(c, &patch) {
		return
	}

	settings, err := s.store.UpdateSettings(c.Request.Context(), currentUser(c), patch)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, settings, "settings updated")
}

func (s *Server) handleDeleteAccount(c *gin.Context) {
	userID := currentUser(c)
	if err := s.store.RevokeSessions(c.Request.Context(), userID); err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.store.DeleteUser(c.Request.Context(), userID); err != nil {
		s.respondError(c, err)
		return
	}

	s.logger.Info("account deleted", "user", userID)
	respond(c, http.StatusOK, gin.H{}, "account deleted")
}
