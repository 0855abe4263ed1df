package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/ragdesk/internal/httpmw"
	"github.com/dgallion1/ragdesk/internal/parser"
	"github.com/dgallion1/ragdesk/internal/rag"
	"github.com/dgallion1/ragdesk/internal/wire"
)

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	// Limit total request size; extra 1MB for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		httpmw.JSONError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File[wire.IngestFilesField]
	if len(files) == 0 {
		httpmw.JSONError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	// Reject the whole batch before any file is embedded.
	for _, fh := range files {
		if !parser.IsSupportedExtension(fh.Filename) {
			ext := strings.ToLower(filepath.Ext(fh.Filename))
			httpmw.JSONError(w, "error processing documents: "+(&parser.ErrUnsupported{Ext: ext}).Error(), http.StatusInternalServerError)
			return
		}
	}

	docs := make([]rag.Document, 0, len(files))
	for _, fh := range files {
		data, err := s.readUpload(fh)
		if err != nil {
			s.log.Error("read upload failed", "filename", fh.Filename, "error", err)
			httpmw.JSONError(w, "error processing documents: "+err.Error(), http.StatusInternalServerError)
			return
		}
		docs = append(docs, rag.Document{Filename: sanitizeFilename(fh.Filename), Data: data})
	}

	resp, err := s.ingester.Ingest(r.Context(), docs)
	if err != nil {
		s.log.Error("ingest failed", "files", len(docs), "error", err)
		httpmw.JSONError(w, "error processing documents: "+err.Error(), http.StatusInternalServerError)
		return
	}

	s.log.Info("documents ingested", "files", len(resp.ProcessedFiles), "chunks", resp.TotalChunks)
	httpmw.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("%s exceeds max size (%d bytes)", fh.Filename, s.cfg.MaxUploadBytes)
	}
	return data, nil
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
