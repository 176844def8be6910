package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Unauthenticated helpers
		r.Get("/status", s.handleStatus)
		r.Get("/myip", s.handleMyIP)

		r.Route("/account", func(r chi.Router) {
			r.Post("/", s.handleRegister)
			r.Delete("/", s.handleDeleteAccount)
			r.Post("/share", s.handleCreateShare)
		})

		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)
			r.Delete("/{deviceId}", s.handleDeleteDevice)
			r.Post("/reset", s.handleResetDevices)
		})

		r.Route("/module", func(r chi.Router) {
			r.Get("/{moduleId}", s.handleReadModule)
			r.Post("/{moduleId}", s.handleWriteModule)
			r.Delete("/{moduleId}", s.handleDeleteModule)
		})
	})

	return r
}
