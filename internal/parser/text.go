package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/ragdesk/internal/doctree"
)

// TextParser handles plain text files. Blank lines separate paragraphs; each
// paragraph becomes one node on page 1.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	// Uploads are already size-bounded, so the whole file is read at once
	// and line length is not limited.
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}

	tree := &doctree.DocTree{
		Filename: filename,
		Title:    trimExt(filename, ".txt"),
	}

	var current []string
	flush := func() {
		if len(current) > 0 {
			tree.Children = append(tree.Children, &doctree.DocNode{Text: strings.Join(current, "\n"), Page: 1})
			current = current[:0]
		}
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()

	return tree, nil
}
