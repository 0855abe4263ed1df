package desk

import (
	"fmt"
	"io"
)

// RenderText writes s as plain text for terminals. Sections follow the same
// visibility rules as Render.
func RenderText(w io.Writer, s State) error {
	ew := &errWriter{w: w}

	if len(s.ProcessedFiles) > 0 {
		ew.printf("Processed files:\n")
		for _, name := range s.ProcessedFiles {
			ew.printf("  - %s\n", name)
		}
	}

	if s.Answer != "" {
		if len(s.ProcessedFiles) > 0 {
			ew.printf("\n")
		}
		ew.printf("Answer:\n%s\n", s.Answer)
		if len(s.Sources) > 0 {
			ew.printf("\nSources:\n")
			for i, src := range s.Sources {
				ew.printf("%d. %s", i+1, src.SourceFilename)
				if badge := PageBadge(src.PageNumber); badge != "" {
					ew.printf(" [%s]", badge)
				}
				ew.printf(" [Score: %s]\n", ScoreBadge(src.Score))
				ew.printf("   %s\n", src.ChunkText)
			}
		}
	}
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
