package chunker

import (
	"strings"
	"unicode/utf8"
)

// Summary describes a chunk set for logs and job progress.
type Summary struct {
	Chunks          int `json:"chunks" yaml:"chunks"`
	TableRows       int `json:"table_rows" yaml:"table_rows"`
	MaxChars        int `json:"max_chars" yaml:"max_chars"`
	TotalChars      int `json:"total_chars" yaml:"total_chars"`
	EstimatedTokens int `json:"estimated_tokens" yaml:"estimated_tokens"`
}

// Summarize counts characters, table rows and estimated tokens across chunks.
func Summarize(chunks []string) Summary {
	s := Summary{Chunks: len(chunks)}
	for _, c := range chunks {
		n := utf8.RuneCountInString(c)
		s.TotalChars += n
		if n > s.MaxChars {
			s.MaxChars = n
		}
		for _, line := range strings.Split(c, "\n") {
			if IsTableRow(line) {
				s.TableRows++
			}
		}
		s.EstimatedTokens += EstimateTokens(c)
	}
	return s
}

// EstimateTokens gives a rough token count from the word count.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	// Roughly 1.33 tokens per word for English text.
	tokens := int(float64(len(strings.Fields(text))) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
