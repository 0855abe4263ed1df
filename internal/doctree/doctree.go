package doctree

import "strings"

// DocTree is the root of a parsed document.
type DocTree struct {
	Filename string     // Name the document was uploaded under
	Title    string     // Document title (from metadata or filename)
	Children []*DocNode // Top-level sections
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Title    string     // Section heading (empty for leaf text)
	Text     string     // Text content of this node (may be empty for container nodes)
	Page     int        // 1-based source page, 0 to inherit from the parent
	Children []*DocNode // Subsections
}

// PageText is all text of one page in reading order.
type PageText struct {
	Page int
	Text string
}

// Pages flattens the tree into per-page text. Headings are kept as their own
// paragraphs. Nodes without a page, and their ancestors, count as page 1.
// Pages come back in order of first appearance.
func (t *DocTree) Pages() []PageText {
	var order []int
	parts := map[int][]string{}

	var walk func(n *DocNode, page int)
	walk = func(n *DocNode, page int) {
		if n.Page > 0 {
			page = n.Page
		}
		for _, s := range []string{n.Title, n.Text} {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			if _, seen := parts[page]; !seen {
				order = append(order, page)
			}
			parts[page] = append(parts[page], s)
		}
		for _, c := range n.Children {
			walk(c, page)
		}
	}
	for _, c := range t.Children {
		walk(c, 1)
	}

	out := make([]PageText, 0, len(order))
	for _, p := range order {
		out = append(out, PageText{Page: p, Text: strings.Join(parts[p], "\n\n")})
	}
	return out
}

// Chunk is a sized text segment ready for embedding.
type Chunk struct {
	ID     string // Stable identifier in the vector store
	Text   string // Chunk text content
	Index  int    // Sequence number within document
	Source string // Filename of the originating document
	Page   int
}
