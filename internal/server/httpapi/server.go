// Package httpapi exposes the FileVault HTTP surface: the authenticated
// file API, the storage event webhook, Prometheus metrics and a health probe.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrijs2005/filevault/internal/logging"
	sc "github.com/dmitrijs2005/filevault/internal/server/config"
	"github.com/dmitrijs2005/filevault/internal/server/services"
)

// Server wires the application services into an http.Server.
type Server struct {
	config *sc.Config
	logger logging.Logger
	db     *sql.DB

	reservations    *services.ReservationService
	reconciliations *services.ReconciliationService
	shares          *services.ShareService
	downloads       *services.DownloadService
}

func NewServer(
	config *sc.Config,
	logger logging.Logger,
	db *sql.DB,
	reservations *services.ReservationService,
	reconciliations *services.ReconciliationService,
	shares *services.ShareService,
	downloads *services.DownloadService,
) *Server {
	return &Server{
		config:          config,
		logger:          logger.With("module", "httpapi"),
		db:              db,
		reservations:    reservations,
		reconciliations: reconciliations,
		shares:          shares,
		downloads:       downloads,
	}
}

// Handler builds the route table. The /api tree requires a bearer token;
// /internal/events is for the object-store notification hook and is expected
// to be reachable only from inside the deployment.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /api/files", s.withAuth(s.handleReserveUpload))
	mux.Handle("GET /api/files/{fileID}/download", s.withAuth(s.handleDownloadURL))
	mux.Handle("POST /api/files/{fileID}/share", s.withAuth(s.handleShare))
	mux.Handle("GET /api/shared", s.withAuth(s.handleListShared))

	mux.HandleFunc("POST /internal/events/storage", s.handleStorageEvent)

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.config.EndpointAddr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "http server listening", "addr", s.config.EndpointAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info(shutdownCtx, "shutting down http server")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
