package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	Preferences *PreferenceHandler
	Matches     *MatchHandler
	Invites     *InviteHandler
	Sessions    *SessionHandler
	Middleware  []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	for _, mw := range cfg.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	if cfg.Preferences != nil {
		r.Route("/profiles/{profileID}/preferences", func(r chi.Router) {
			r.Get("/", cfg.Preferences.Get)
			r.Put("/", cfg.Preferences.Replace)
		})
		r.Post("/blocks", cfg.Preferences.Block)
		r.Delete("/blocks/{blockedID}", cfg.Preferences.Unblock)
	}

	if cfg.Matches != nil {
		r.Get("/matches", cfg.Matches.List)
		r.Get("/matches/{candidateID}/suggestions", cfg.Matches.Suggestions)
	}

	if cfg.Invites != nil {
		r.Route("/invites", func(r chi.Router) {
			r.Post("/", cfg.Invites.Propose)
			r.Get("/", cfg.Invites.List)
			r.Post("/expire", cfg.Invites.Expire)
			r.Get("/{inviteID}", cfg.Invites.Get)
			r.Post("/{inviteID}/response", cfg.Invites.Respond)
		})
	}

	if cfg.Sessions != nil {
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", cfg.Sessions.Create)
			r.Get("/", cfg.Sessions.List)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", cfg.Sessions.Get)
				r.Put("/", cfg.Sessions.Update)
				r.Post("/cancel", cfg.Sessions.Cancel)
				r.Post("/complete", cfg.Sessions.Complete)
				r.Get("/joinable", cfg.Sessions.Joinable)
				r.Post("/participants", cfg.Sessions.Join)
				r.Delete("/participants", cfg.Sessions.Leave)
			})
		})
	}

	return r
}
