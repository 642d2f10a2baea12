package devserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const userKey = "taskdeck.user"

// Server provides the HTTP handlers for the development backend. Every
// response is wrapped in the {status, data, message} envelope the client
// enforces.
type Server struct {
	engine *gin.Engine
	store  *Store
	logger *slog.Logger
}

// New constructs the HTTP server with routes and middleware configured.
func New(store *Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	srv := &Server{
		engine: router,
		store:  store,
		logger: logger,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)

		auth := api.Group("/auth")
		{
			auth.POST("/register", s.handleRegister)
			auth.POST("/login", s.handleLogin)
			auth.POST("/refresh", s.handleRefresh)

			authed := auth.Group("", s.requireAuth)
			{
				authed.POST("/logout", s.handleLogout)
				authed.GET("/profile", s.handleProfile)
				authed.PUT("/profile", s.handleUpdateProfile)
				authed.PUT("/settings", s.handleUpdateSettings)
				authed.DELETE("/account", s.handleDeleteAccount)
			}
		}

		tasks := api.Group("/tasks", s.requireAuth)
		{
			tasks.GET("", s.handleListTasks)
			tasks.POST("", s.handleCreateTask)
			tasks.POST("/reorder", s.handleReorderTasks)
			tasks.PUT("/:id", s.handleUpdateTask)
			tasks.PATCH("/:id/toggle", s.handleToggleTask)
			tasks.DELETE("/:id", s.handleDeleteTask)
		}

		projects := api.Group("/projects", s.requireAuth)
		{
			projects.GET("", s.handleListProjects)
			projects.POST("", s.handleCreateProject)
			projects.PUT("/:id", s.handleUpdateProject)
			projects.DELETE("/:id", s.handleDeleteProject)
		}
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	respond(c, http.StatusOK, gin.H{"healthy": true}, "")
}

// requireAuth resolves the bearer token to a user id and aborts with 401
// when it cannot.
func (s *Server) requireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		s.abortError(c, errors.New("missing bearer token"))
		return
	}

	userID, err := s.store.UserForAccess(c.Request.Context(), token)
	if err != nil {
		s.abortError(c, err)
		return
	}
	c.Set(userKey, userID)
	c.Next()
}

func currentUser(c *gin.Context) string {
	return c.GetString(userKey)
}

// respond wraps a payload in the success envelope.
func respond(c *gin.Context, status int, data any, message string) {
	c.JSON(status, gin.H{
		"status":  "success",
		"data":    data,
		"message": message,
	})
}

// respondError maps a store error to an HTTP status and the error envelope.
func (s *Server) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, ErrInvalid):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			slog.String("path", c.FullPath()),
			slog.String("error", err.Error()))
	}
	c.JSON(status, gin.H{
		"status":  "error",
		"message": err.Error(),
	})
}

func (s *Server) abortError(c *gin.Context, err error) {
	if !errors.Is(err, ErrUnauthorized) {
		err = errors.Join(ErrUnauthorized, err)
	}
	s.respondError(c, err)
	c.Abort()
}

// bindJSON decodes the request body and reports malformed input uniformly.
func (s *Server) bindJSON(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		s.respondError(c, errors.Join(ErrInvalid, err))
		return false
	}
	return true
}
