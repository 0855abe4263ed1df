// Package web serves the desk view to a browser.
package web

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/ragdesk/internal/desk"
	"github.com/dgallion1/ragdesk/internal/httpmw"
	"github.com/dgallion1/ragdesk/internal/ragclient"
	"github.com/dgallion1/ragdesk/internal/wire"
)

const (
	// SessionCookie names the cookie carrying the session ID.
	SessionCookie = "ragdesk_session"

	// FetchHeader marks requests sent by the page script. They get the
	// rendered page back instead of a redirect.
	FetchHeader = "X-Requested-With"
	fetchValue  = "fetch"

	SweepInterval = 5 * time.Minute
)

// Server is the desk's HTTP front end.
type Server struct {
	router    chi.Router
	sessions  *SessionStore
	backend   desk.Backend
	log       *slog.Logger
	maxUpload int64
}

func NewServer(backend desk.Backend, sessions *SessionStore, log *slog.Logger, maxUpload int64) *Server {
	s := &Server{
		sessions:  sessions,
		backend:   backend,
		log:       log,
		maxUpload: maxUpload,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(httpmw.RequestLogger(s.log))

	r.Get("/health", httpmw.HandleHealth)
	r.Get("/", s.handleIndex)
	r.Post("/ingest", s.handleIngest)
	r.Post("/query", s.handleQuery)

	s.router = r
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	s.render(w, sess)
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+1024*1024)
	files, err := readUploads(r, s.maxUpload)
	if err != nil {
		// The user did pick files, so this is a failed ingestion rather
		// than an empty selection.
		sess.View.FailIngest(fmt.Errorf("read upload: %w", err))
		s.respond(w, r, sess)
		return
	}
	sess.View.SelectFiles(files)

	// The backend call outlives the browser request.
	res := sess.View.Ingest(context.WithoutCancel(r.Context()))
	if res.IsError() {
		s.log.Debug("ingest result", "session", sess.ID, "error", res.Error())
	}
	s.respond(w, r, sess)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	if err := r.ParseForm(); err != nil {
		s.log.Warn("could not parse query form", "error", err)
	}
	sess.View.SetQuery(r.PostFormValue("query"))

	res := sess.View.Query(context.WithoutCancel(r.Context()))
	if res.IsError() {
		s.log.Debug("query result", "session", sess.ID, "error", res.Error())
	}
	s.respond(w, r, sess)
}

// respond sends the fresh page to the page script, or redirects a plain
// form post back to the index.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, sess *Session) {
	if r.Header.Get(FetchHeader) == fetchValue {
		s.render(w, sess)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) render(w http.ResponseWriter, sess *Session) {
	var buf bytes.Buffer
	if err := desk.Render(&buf, sess.View.Snapshot(), sess.View.TakeNotices()); err != nil {
		s.log.Error("render failed", "session", sess.ID, "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

// session returns the caller's session, creating one and setting the cookie
// when the cookie is missing or has expired.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *Session {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if sess := s.sessions.Get(c.Value); sess != nil {
			return sess
		}
	}
	sess := s.sessions.Create(desk.NewView(s.backend, s.log.With("component", "desk")))
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.log.Info("session created", "session", sess.ID)
	return sess
}

func readUploads(r *http.Request, maxUpload int64) ([]ragclient.File, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, fmt.Errorf("invalid multipart form: %w", err)
	}
	defer r.MultipartForm.RemoveAll()

	var files []ragclient.File
	for _, fh := range r.MultipartForm.File[wire.IngestFilesField] {
		// Browsers send one empty part when nothing was picked.
		if fh.Filename == "" && fh.Size == 0 {
			continue
		}
		data, err := readPart(fh, maxUpload)
		if err != nil {
			return nil, err
		}
		files = append(files, ragclient.File{Name: fh.Filename, Data: data})
	}
	return files, nil
}

func readPart(fh *multipart.FileHeader, maxUpload int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUpload+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	if int64(len(data)) > maxUpload {
		return nil, fmt.Errorf("%s exceeds max size (%d bytes)", fh.Filename, maxUpload)
	}
	return data, nil
}
