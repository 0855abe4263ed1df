// Package ragclient talks to the RAG backend's ingest and query endpoints.
package ragclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/dgallion1/ragdesk/internal/wire"
)

// DefaultBaseURL is the fixed origin of the backend.
const DefaultBaseURL = "http://localhost:8000"

// Client communicates with the RAG backend HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	// No client timeout: requests run until the backend answers or the
	// caller's context ends.
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

// File is one local document queued for upload.
type File struct {
	Name string
	Data []byte
}

// StatusError is returned for any non-2xx backend reply.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Body)
}

// Ingest uploads files as one multipart request, every part under the
// "files" field.
func (c *Client) Ingest(ctx context.Context, files []File) (*wire.IngestResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := mw.CreateFormFile(wire.IngestFilesField, f.Name)
		if err != nil {
			return nil, fmt.Errorf("create form part %s: %w", f.Name, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, fmt.Errorf("write form part %s: %w", f.Name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ingest", &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	var out wire.IngestResponse
	if err := c.do(httpReq, "ingest", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Query asks the backend a question and returns its answer with sources.
func (c *Client) Query(ctx context.Context, query string, topK int) (*wire.QueryResponse, error) {
	body, err := json.Marshal(wire.QueryRequest{Query: query, TopK: topK})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var out wire.QueryResponse
	if err := c.do(httpReq, "query", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(httpReq *http.Request, op string, out any) error {
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{Op: op, Status: resp.StatusCode, Body: string(respBody)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
