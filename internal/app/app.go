// Package app wires the API client and the stores into one client instance.
package app

import (
	"taskdeck/internal/api"
	"taskdeck/internal/config"
	"taskdeck/internal/credentials"
	"taskdeck/internal/notify"
	"taskdeck/internal/session"
	"taskdeck/internal/store"
)

// App is one client instance: a shared API client, the session, the task and
// project stores and the notification center. Construction is explicit; no
// package-level state exists, so tests can run isolated instances
// side by side.
type App struct {
	Config        *config.Config
	Creds         *credentials.Store
	Client        *api.Client
	Notifications *notify.Center
	Session       *session.Store
	Tasks         *store.TaskStore
	Projects      *store.ProjectStore

	// AuthExpired is set when a token refresh failed and the session was
	// torn down; the CLI tells the user to log in again.
	AuthExpired bool
}

// New builds a fully wired client instance from the configuration. redirect
// is the redirect-to-login primitive; pass nil for the default no-op.
func New(cfg *config.Config, redirect func()) *App {
	a := &App{
		Config:        cfg,
		Creds:         credentials.NewStore(cfg.CredentialsPath()),
		Notifications: notify.NewCenter(),
	}
	if redirect == nil {
		redirect = func() {}
	}

	onExpired := func() {
		a.AuthExpired = true
		redirect()
	}

	a.Client = api.New(cfg.Settings.BaseURL, a.Creds,
		api.WithTimeout(cfg.Settings.Timeout),
		api.WithNotifier(a.Notifications),
		api.WithAuthExpiredHandler(onExpired),
	)
	a.Session = session.New(a.Client, a.Creds, a.Notifications, onExpired, cfg.ProfilePath())
	a.Tasks = store.NewTaskStore(a.Client, a.Notifications)
	a.Projects = store.NewProjectStore(a.Client, a.Notifications)
	return a
}
