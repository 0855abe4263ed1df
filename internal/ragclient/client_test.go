package ragclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/ragdesk/internal/wire"
)

func TestIngest_SendsEveryFileUnderFilesField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/ingest", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		fhs := r.MultipartForm.File["files"]
		require.Len(t, fhs, 2)
		assert.Equal(t, "a.pdf", fhs[0].Filename)
		assert.Equal(t, "b.txt", fhs[1].Filename)

		f, err := fhs[1].Open()
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		f.Close()
		assert.Equal(t, "hello", string(data))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"ok","processed_files":["a.pdf","b.txt"],"total_chunks":5}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	defer c.Close()

	resp, err := c.Ingest(context.Background(), []File{
		{Name: "a.pdf", Data: []byte("%PDF")},
		{Name: "b.txt", Data: []byte("hello")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf", "b.txt"}, resp.ProcessedFiles)
	assert.Equal(t, 5, resp.TotalChunks)
}

func TestQuery_PostsJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req wire.QueryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "capital of France?", req.Query)
		assert.Equal(t, 3, req.TopK)

		w.Write([]byte(`{"answer":"Paris is the capital","sources":[{"source_filename":"geo.pdf","page_number":2,"score":0.873,"chunk_text":"..."}]}`))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL).Query(context.Background(), "capital of France?", 3)
	require.NoError(t, err)
	assert.Equal(t, "Paris is the capital", resp.Answer)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "geo.pdf", resp.Sources[0].SourceFilename)
	assert.Equal(t, 2, resp.Sources[0].PageNumber.OrElse(0))
}

func TestNon2xxIsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"error while generating answer"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Query(context.Background(), "q", 3)
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.Status)
	assert.Equal(t, "query", se.Op)
	assert.Contains(t, se.Body, "error while generating answer")
}

func TestTransportErrorIsWrapped(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url).Ingest(context.Background(), []File{{Name: "a.txt", Data: []byte("x")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingest:")

	var se *StatusError
	assert.False(t, errors.As(err, &se))
}

func TestUndecodableBodyIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Query(context.Background(), "q", 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode query response")
}

func TestSlowBackendBoundedByCallerContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient(srv.URL).Query(ctx, "q", 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
