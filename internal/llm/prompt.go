package llm

import (
	"fmt"
	"strings"
)

// NoAnswer is returned verbatim when no passage supports an answer.
const NoAnswer = "I cannot answer based on the provided documents."

const answerTemplate = `You are a helpful assistant. Answer strictly based on the context.

Context:
%s

Question: %s

If answer is not in the context, reply: '` + NoAnswer + `'`

// Passage is one retrieved chunk handed to the model as context.
type Passage struct {
	Source string
	Page   int
	Text   string
}

// BuildAnswerPrompt renders the grounded-answer prompt for question.
func BuildAnswerPrompt(question string, passages []Passage) string {
	blocks := make([]string, len(passages))
	for i, p := range passages {
		blocks[i] = fmt.Sprintf("Source: %s (Page %d)\nContent: %s\n", p.Source, p.Page, p.Text)
	}
	return fmt.Sprintf(answerTemplate, strings.Join(blocks, "\n\n"), question)
}
