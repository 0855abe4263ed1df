package parser

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestForFile(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"a.txt", "*parser.TextParser"},
		{"a.MD", "*parser.MarkdownParser"},
		{"a.csv", "*parser.CSVParser"},
		{"a.htm", "*parser.HTMLParser"},
		{"a.PDF", "*parser.PDFParser"},
		{"a.docx", "*parser.DOCXParser"},
	}
	for _, tt := range tests {
		p, err := ForFile(tt.filename, Options{})
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.filename, err)
			continue
		}
		if got := fmt.Sprintf("%T", p); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.filename, tt.want, got)
		}
	}
}

func TestForFile_PDFFallbackOption(t *testing.T) {
	p, err := ForFile("scan.pdf", Options{PDFFallbackPdftotext: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.(*PDFParser).FallbackPdftotext {
		t.Error("expected pdftotext fallback to be enabled")
	}
}

func TestParse_Unsupported(t *testing.T) {
	_, err := Parse("slides.pptx", []byte("x"), Options{})
	var unsupported *ErrUnsupported
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if unsupported.Ext != ".pptx" {
		t.Errorf("expected ext %q, got %q", ".pptx", unsupported.Ext)
	}
	if IsSupportedExtension("slides.pptx") {
		t.Error("pptx should not be supported")
	}
}

func TestParse_SetsFilename(t *testing.T) {
	tree, err := Parse("Notes.TXT", []byte("hello"), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Filename != "Notes.TXT" {
		t.Errorf("expected filename preserved, got %q", tree.Filename)
	}
	if tree.Title != "Notes" {
		t.Errorf("expected title %q, got %q", "Notes", tree.Title)
	}
}

func TestParse_BrokenPDF(t *testing.T) {
	_, err := Parse("broken.pdf", []byte("not a pdf"), Options{})
	if err == nil {
		t.Fatal("expected error for invalid pdf")
	}
	if !strings.Contains(err.Error(), "broken.pdf") {
		t.Errorf("expected filename in error, got %v", err)
	}
}

func TestHTMLParser_Sections(t *testing.T) {
	input := `<html><head><title>Guide</title><style>p{}</style></head><body>
<nav>menu</nav>
<p>Lead   paragraph.</p>
<h1>Setup</h1><p>Install it.</p>
<h2>Linux</h2><ul><li>apt install</li></ul>
<script>var x = 1;</script>
</body></html>`
	p := &HTMLParser{}
	tree, err := p.Parse(strings.NewReader(input), "guide.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "Guide" {
		t.Errorf("expected title %q, got %q", "Guide", tree.Title)
	}
	if len(tree.Children) != 2 {
		t.Fatalf("expected lead text plus one section, got %d", len(tree.Children))
	}
	if tree.Children[0].Text != "Lead paragraph." {
		t.Errorf("unexpected lead text %q", tree.Children[0].Text)
	}
	setup := tree.Children[1]
	if setup.Title != "Setup" || setup.Text != "Install it." {
		t.Errorf("unexpected section %+v", setup)
	}
	if len(setup.Children) != 1 || setup.Children[0].Text != "apt install" {
		t.Errorf("expected Linux subsection with list text, got %+v", setup.Children)
	}

	pages := tree.Pages()
	if len(pages) != 1 || strings.Contains(pages[0].Text, "menu") || strings.Contains(pages[0].Text, "var x") {
		t.Errorf("page chrome leaked into text: %+v", pages)
	}
}
