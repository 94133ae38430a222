package v1

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/kurochkinivan/modbus_map_maker/internal/config"
)

// Server exposes the registry filled by watch mode.
type Server struct {
	httpServer *http.Server
}

func NewServer(cfg config.HTTP, filesRepo FilesRepository, registersRepo RegistersRepository) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr(),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
			Handler:      NewRouter(filesRepo, registersRepo),
		},
	}
}

func NewRouter(filesRepo FilesRepository, registersRepo RegistersRepository) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	files := NewFilesHandler(filesRepo)
	registers := NewRegistersHandler(registersRepo)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/files", files.GetFiles)
		r.Get("/devices", registers.GetDevices)
		r.Get("/devices/{device}/registers", registers.GetRegistersByDevice)
	})

	return r
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
