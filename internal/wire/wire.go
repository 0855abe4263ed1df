// Package wire holds the JSON bodies exchanged between the desk client and
// the RAG backend.
package wire

import (
	"encoding/json"

	"github.com/samber/mo"
)

// IngestFilesField is the multipart field every uploaded file is sent under.
const IngestFilesField = "files"

// IngestResponse is the 2xx body of POST /ingest.
type IngestResponse struct {
	Message        string   `json:"message,omitempty"`
	ProcessedFiles []string `json:"processed_files"`
	TotalChunks    int      `json:"total_chunks"`
}

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// QueryResponse is the 2xx body of POST /query.
type QueryResponse struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
	Query   string   `json:"query,omitempty"`
}

// Source is one passage cited in support of an answer. PageNumber is None
// when the backend sends null or omits the field.
type Source struct {
	SourceFilename string         `json:"source_filename"`
	PageNumber     mo.Option[int] `json:"page_number"`
	Score          float64        `json:"score"`
	ChunkText      string         `json:"chunk_text"`
	ChunkID        string         `json:"chunk_id,omitempty"`
}

type sourceJSON struct {
	SourceFilename string  `json:"source_filename"`
	PageNumber     *int    `json:"page_number"`
	Score          float64 `json:"score"`
	ChunkText      string  `json:"chunk_text"`
	ChunkID        string  `json:"chunk_id,omitempty"`
}

func (s Source) MarshalJSON() ([]byte, error) {
	raw := sourceJSON{
		SourceFilename: s.SourceFilename,
		Score:          s.Score,
		ChunkText:      s.ChunkText,
		ChunkID:        s.ChunkID,
	}
	if page, ok := s.PageNumber.Get(); ok {
		raw.PageNumber = &page
	}
	return json.Marshal(raw)
}

func (s *Source) UnmarshalJSON(b []byte) error {
	var raw sourceJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = Source{
		SourceFilename: raw.SourceFilename,
		Score:          raw.Score,
		ChunkText:      raw.ChunkText,
		ChunkID:        raw.ChunkID,
	}
	if raw.PageNumber != nil {
		s.PageNumber = mo.Some(*raw.PageNumber)
	}
	return nil
}

// ErrorResponse is the body of every non-2xx backend reply.
type ErrorResponse struct {
	Error string `json:"error"`
}
