// Package web serves the flashcard practice UI: the filter form, the
// practice page, and session reset.
package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/quickdeck/quickdeck/pkg/deck/config"
	"github.com/quickdeck/quickdeck/pkg/deck/session"
	"github.com/quickdeck/quickdeck/pkg/deck/store"
)

//go:embed templates/*.html
var templateFS embed.FS

const sessionCookie = "quickdeck_session"

// Server translates HTTP requests into session edits and store
// queries. All store access is read-only.
type Server struct {
	store     store.Store
	sessions  session.Store
	cfg       config.Config
	logger    *zap.Logger
	tmpl      *template.Template
	staticDir string
}

// NewServer builds a server over an ingested store.
func NewServer(st store.Store, sessions session.Store, cfg config.Config, logger *zap.Logger) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Server{
		store:     st,
		sessions:  sessions,
		cfg:       cfg,
		logger:    logger,
		tmpl:      tmpl,
		staticDir: "static",
	}, nil
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleLanding)
	mux.HandleFunc("POST /apply_filters", s.handleApplyFilters)
	mux.HandleFunc("GET /practice", s.handlePractice)
	mux.HandleFunc("GET /reset_session", s.handleResetSession)
	mux.Handle("GET /static/", http.StripPrefix("/static/",
		http.FileServer(http.Dir(s.staticDir))))
	return mux
}

// clientID returns the caller's session id, minting a cookie on first
// contact.
func (s *Server) clientID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	id := ulid.Make().String()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// render executes a template into a buffer first so a render failure
// becomes a clean 500 instead of a half-written page.
func (s *Server) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		s.internalError(w, "render template", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) internalError(w http.ResponseWriter, msg string, err error) {
	s.logger.Error(msg, zap.Error(err))
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
