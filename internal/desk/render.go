package desk

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/samber/mo"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTmpl = template.Must(template.New("index.html").Funcs(template.FuncMap{
	"scoreBadge": ScoreBadge,
	"pageBadge":  PageBadge,
	"inFlight":   func(p Phase) bool { return p == InFlight },
}).ParseFS(templateFS, "templates/index.html"))

// AcceptedExtensions is the file picker filter. It is a hint only.
const AcceptedExtensions = ".pdf,.txt,.docx,.csv"

// ScoreBadge formats a relevance score in [0,1] as a percentage with one
// decimal, e.g. 0.873 -> "87.3%".
func ScoreBadge(score float64) string {
	return fmt.Sprintf("%.1f%%", score*100)
}

// PageBadge returns "Page N", or "" when the source has no page number.
func PageBadge(page mo.Option[int]) string {
	if n, ok := page.Get(); ok {
		return fmt.Sprintf("Page %d", n)
	}
	return ""
}

type pageData struct {
	State
	Notices []Notice
	Accept  string
}

// Render writes the full HTML page for s. Notices are rendered once, both as
// a visible list and as JSON for the page script to alert.
func Render(w io.Writer, s State, notices []Notice) error {
	if notices == nil {
		notices = []Notice{}
	}
	return pageTmpl.Execute(w, pageData{State: s, Notices: notices, Accept: AcceptedExtensions})
}
