// Package server exposes reflected schemas over a read-only HTTP API.
//
// Routes:
//
//	GET  /healthz                   liveness probe
//	GET  /v1/tables                 table names in the configured schema
//	GET  /v1/tables/{table}         one table's columns and indexes
//	GET  /v1/tables/{table}/ddl     CREATE TABLE statement (?dialect= to translate)
//	GET  /v1/snapshots              stored snapshot objects
//	POST /v1/snapshots              reflect everything and archive it
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tablekit/tablekit/internal/errs"
	"github.com/tablekit/tablekit/internal/logger"
	"github.com/tablekit/tablekit/internal/schema"
	"github.com/tablekit/tablekit/internal/snapshot"
)

// Server wires the schema collection and the optional snapshot archiver
// behind a chi router.
type Server struct {
	log      *logger.Logger
	conn     schema.Conn
	coll     *schema.Collection
	archiver *snapshot.Archiver // nil when snapshots are not configured
}

// New builds a Server. archiver may be nil; the snapshot routes then return
// 404.
func New(log *logger.Logger, conn schema.Conn, cfg schema.ReflectConfig, archiver *snapshot.Archiver) *Server {
	return &Server{
		log:      log.With().Str("component", "server").Logger(),
		conn:     conn,
		coll:     schema.NewCollection(conn, cfg),
		archiver: archiver,
	}
}

// Router returns the configured route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/tables", s.handleListTables)
		r.Get("/tables/{table}", s.handleDescribe)
		r.Get("/tables/{table}/ddl", s.handleDDL)
		if s.archiver != nil {
			r.Get("/snapshots", s.handleListSnapshots)
			r.Post("/snapshots", s.handleTakeSnapshot)
		}
	})

	return r
}

// requestLogger emits one structured line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.With().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("elapsed_ms", int(time.Since(start).Milliseconds())).
			Logger().
			Debug("request served")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	names, err := s.coll.TableNames(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"tables": names})
}

func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	t, err := s.coll.Describe(r.Context(), table)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, t)
}

// handleDDL renders the table's CREATE TABLE statement. The optional
// ?dialect= parameter translates into another backend's DDL.
func (s *Server) handleDDL(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	t, err := s.coll.Describe(r.Context(), table)
	if err != nil {
		s.writeError(w, err)
		return
	}

	d := s.conn.Dialect()
	if name := r.URL.Query().Get("dialect"); name != "" {
		d, err = schema.DialectByName(name)
		if err != nil {
			s.writeError(w, err)
			return
		}
	}

	stmt, err := schema.CreateSQL(d, t)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"table":   table,
		"dialect": d.Name(),
		"sql":     stmt,
	})
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	infos, err := s.archiver.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"snapshots": infos})
}

func (s *Server) handleTakeSnapshot(w http.ResponseWriter, r *http.Request) {
	set, err := s.coll.Reflect(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.archiver.Archive(r.Context(), s.conn.Dialect(), set)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Infof("snapshot archived: %s", res.JSONKey)
	s.writeJSON(w, http.StatusCreated, res)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Errorf("encode response: %v", err)
	}
}

// writeError maps the errs taxonomy onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errs.IsNotFound(err):
		status = http.StatusNotFound
	case errs.IsInvalidInput(err) || errs.IsParse(err):
		status = http.StatusBadRequest
	case errs.IsTimeout(err):
		status = http.StatusGatewayTimeout
	case errs.IsConnectionFailed(err):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		s.log.Errorf("request failed: %v", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// ListenAndServe runs the server on addr until ctx is cancelled, then
// shuts down gracefully within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
