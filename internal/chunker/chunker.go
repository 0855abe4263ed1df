package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/ragdesk/internal/doctree"
)

// Config controls chunking behavior. Sizes are in characters.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string // Tried in order; "" splits between characters.
}

// DefaultSeparators split on paragraphs, then lines, then words, then
// characters.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// DefaultConfig returns the ingestion defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    2500,
		ChunkOverlap: 800,
		Separators:   DefaultSeparators,
	}
}

func (c Config) normalized() Config {
	if c.ChunkSize <= 0 {
		c.ChunkSize = 2500
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		c.ChunkOverlap = c.ChunkSize / 3
	}
	if len(c.Separators) == 0 {
		c.Separators = DefaultSeparators
	}
	return c
}

// ChunkTree splits every page of tree and numbers the chunks in document
// order. Chunks carry the tree's filename and their page.
func ChunkTree(tree *doctree.DocTree, cfg Config) []doctree.Chunk {
	cfg = cfg.normalized()

	var chunks []doctree.Chunk
	for _, page := range tree.Pages() {
		for _, text := range SplitText(page.Text, cfg) {
			chunks = append(chunks, doctree.Chunk{
				Text:   text,
				Index:  len(chunks),
				Source: tree.Filename,
				Page:   page.Page,
			})
		}
	}
	return chunks
}

// SplitText recursively splits text into pieces of at most cfg.ChunkSize
// characters. Adjacent pieces share up to cfg.ChunkOverlap characters.
func SplitText(text string, cfg Config) []string {
	cfg = cfg.normalized()
	return splitRecursive(text, cfg.Separators, cfg)
}

func splitRecursive(text string, separators []string, cfg Config) []string {
	// Pick the first separator present in text; the rest are for pieces
	// that are still too long.
	sep := separators[len(separators)-1]
	var rest []string
	for i, s := range separators {
		if s == "" {
			sep = s
			break
		}
		if strings.Contains(text, s) {
			sep = s
			rest = separators[i+1:]
			break
		}
	}

	var out, fitting []string
	for _, piece := range splitOn(text, sep) {
		if runeLen(piece) < cfg.ChunkSize {
			fitting = append(fitting, piece)
			continue
		}
		if len(fitting) > 0 {
			out = append(out, merge(fitting, sep, cfg)...)
			fitting = nil
		}
		if len(rest) == 0 {
			out = append(out, piece)
		} else {
			out = append(out, splitRecursive(piece, rest, cfg)...)
		}
	}
	if len(fitting) > 0 {
		out = append(out, merge(fitting, sep, cfg)...)
	}
	return out
}

func splitOn(text, sep string) []string {
	var parts []string
	if sep == "" {
		for _, r := range text {
			parts = append(parts, string(r))
		}
		return parts
	}
	for _, p := range strings.Split(text, sep) {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// merge joins small pieces into chunks no longer than ChunkSize, carrying
// the trailing ChunkOverlap characters of pieces into the next chunk.
func merge(pieces []string, sep string, cfg Config) []string {
	sepLen := runeLen(sep)
	var docs, window []string
	total := 0

	joinedLen := func(next int) int {
		if len(window) > 0 {
			return total + next + sepLen
		}
		return total + next
	}

	for _, p := range pieces {
		n := runeLen(p)
		if joinedLen(n) > cfg.ChunkSize && len(window) > 0 {
			if doc := strings.TrimSpace(strings.Join(window, sep)); doc != "" {
				docs = append(docs, doc)
			}
			for total > cfg.ChunkOverlap || (joinedLen(n) > cfg.ChunkSize && total > 0) {
				total -= runeLen(window[0])
				if len(window) > 1 {
					total -= sepLen
				}
				window = window[1:]
			}
		}
		window = append(window, p)
		total += n
		if len(window) > 1 {
			total += sepLen
		}
	}
	if doc := strings.TrimSpace(strings.Join(window, sep)); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
