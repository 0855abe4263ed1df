package chunker

import "strings"

// EstimateTokens gives a rough token count, about 1.33 tokens per word.
// Used for ingest logging and embedding cost estimates only.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	tokens := int(float64(len(strings.Fields(text))) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
