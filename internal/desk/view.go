// Package desk is the query client's view unit: it holds the files the user
// picked, the last ingestion and query results and the two busy phases, and
// renders them.
package desk

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/samber/mo"

	"github.com/dgallion1/ragdesk/internal/ragclient"
	"github.com/dgallion1/ragdesk/internal/wire"
)

// TopK is the number of sources every query asks for.
const TopK = 3

// User-facing notice texts.
const (
	MsgSelectFiles  = "Please select files to upload"
	MsgEnterQuery   = "Please enter a query"
	MsgIngestFailed = "Error ingesting documents"
	MsgQueryFailed  = "Error processing query"
)

// Phase tracks whether an operation has a request in flight.
type Phase int

const (
	Idle Phase = iota
	InFlight
)

func (p Phase) String() string {
	switch p {
	case InFlight:
		return "in_flight"
	default:
		return "idle"
	}
}

// NoticeLevel separates confirmations from failures.
type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeError NoticeLevel = "error"
)

// Notice is a one-time message shown to the user.
type Notice struct {
	Level NoticeLevel `json:"level"`
	Text  string      `json:"text"`
}

// Backend is the part of ragclient.Client the view needs.
type Backend interface {
	Ingest(ctx context.Context, files []ragclient.File) (*wire.IngestResponse, error)
	Query(ctx context.Context, query string, topK int) (*wire.QueryResponse, error)
}

// View owns all client state. The mutex is never held across a backend
// call, so an ingestion and a query can overlap.
type View struct {
	backend Backend
	log     *slog.Logger

	mu sync.Mutex

	selected []ragclient.File

	// ingest slice
	ingestPhase    Phase
	processedFiles []string
	totalChunks    int

	// query slice
	queryPhase Phase
	queryText  string
	answer     string
	sources    []wire.Source

	notices []Notice
}

func NewView(backend Backend, log *slog.Logger) *View {
	return &View{backend: backend, log: log}
}

// SelectFiles replaces the current selection.
func (v *View) SelectFiles(files []ragclient.File) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selected = append([]ragclient.File(nil), files...)
}

// SetQuery replaces the query text.
func (v *View) SetQuery(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.queryText = text
}

// Ingest uploads the selected files. On success the processed-file list is
// replaced and a summary notice is queued; on failure prior state is kept.
func (v *View) Ingest(ctx context.Context) mo.Result[wire.IngestResponse] {
	v.mu.Lock()
	if len(v.selected) == 0 {
		v.pushLocked(NoticeError, MsgSelectFiles)
		v.mu.Unlock()
		v.log.Info("ingest rejected", "reason", "no files selected")
		return mo.Err[wire.IngestResponse](&ValidationError{Msg: MsgSelectFiles})
	}
	files := append([]ragclient.File(nil), v.selected...)
	v.ingestPhase = InFlight
	v.mu.Unlock()

	defer func() {
		v.mu.Lock()
		v.ingestPhase = Idle
		v.mu.Unlock()
	}()

	resp, err := v.backend.Ingest(ctx, files)
	if err != nil {
		v.log.Error("ingest failed", "files", len(files), "error", err)
		v.push(NoticeError, MsgIngestFailed)
		return mo.Err[wire.IngestResponse](&RequestError{Op: "ingest", Err: err})
	}

	v.mu.Lock()
	v.processedFiles = append([]string(nil), resp.ProcessedFiles...)
	v.totalChunks = resp.TotalChunks
	v.pushLocked(NoticeInfo, IngestSummary(resp.TotalChunks, len(resp.ProcessedFiles)))
	v.mu.Unlock()

	v.log.Info("ingest complete", "files", len(resp.ProcessedFiles), "chunks", resp.TotalChunks)
	return mo.Ok(*resp)
}

// FailIngest records an ingestion that failed before the backend could be
// called, such as an upload the desk could not read. Prior state is kept.
func (v *View) FailIngest(err error) mo.Result[wire.IngestResponse] {
	v.log.Error("ingest failed", "error", err)
	v.push(NoticeError, MsgIngestFailed)
	return mo.Err[wire.IngestResponse](&RequestError{Op: "ingest", Err: err})
}

// Query submits the current query text with TopK. On success the answer and
// sources are replaced in full; on failure they are left untouched.
func (v *View) Query(ctx context.Context) mo.Result[wire.QueryResponse] {
	v.mu.Lock()
	text := v.queryText
	if strings.TrimSpace(text) == "" {
		v.pushLocked(NoticeError, MsgEnterQuery)
		v.mu.Unlock()
		v.log.Info("query rejected", "reason", "blank query")
		return mo.Err[wire.QueryResponse](&ValidationError{Msg: MsgEnterQuery})
	}
	v.queryPhase = InFlight
	v.mu.Unlock()

	defer func() {
		v.mu.Lock()
		v.queryPhase = Idle
		v.mu.Unlock()
	}()

	resp, err := v.backend.Query(ctx, text, TopK)
	if err != nil {
		v.log.Error("query failed", "error", err)
		v.push(NoticeError, MsgQueryFailed)
		return mo.Err[wire.QueryResponse](&RequestError{Op: "query", Err: err})
	}

	v.mu.Lock()
	v.answer = resp.Answer
	v.sources = append([]wire.Source(nil), resp.Sources...)
	v.mu.Unlock()

	v.log.Info("query answered", "sources", len(resp.Sources))
	return mo.Ok(*resp)
}

// IngestSummary is the notice raised after a successful ingestion.
func IngestSummary(chunks, files int) string {
	return fmt.Sprintf("Successfully processed %d chunks from %d files", chunks, files)
}

// TakeNotices returns queued notices and clears the queue.
func (v *View) TakeNotices() []Notice {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := v.notices
	v.notices = nil
	return out
}

func (v *View) push(level NoticeLevel, text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pushLocked(level, text)
}

func (v *View) pushLocked(level NoticeLevel, text string) {
	v.notices = append(v.notices, Notice{Level: level, Text: text})
}

// State is a point-in-time copy of the view, safe to render.
type State struct {
	SelectedFiles  []string
	IngestPhase    Phase
	ProcessedFiles []string
	TotalChunks    int
	QueryPhase     Phase
	QueryText      string
	Answer         string
	Sources        []wire.Source
}

// Snapshot copies the current state.
func (v *View) Snapshot() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	names := make([]string, len(v.selected))
	for i, f := range v.selected {
		names[i] = f.Name
	}
	return State{
		SelectedFiles:  names,
		IngestPhase:    v.ingestPhase,
		ProcessedFiles: append([]string(nil), v.processedFiles...),
		TotalChunks:    v.totalChunks,
		QueryPhase:     v.queryPhase,
		QueryText:      v.queryText,
		Answer:         v.answer,
		Sources:        append([]wire.Source(nil), v.sources...),
	}
}
