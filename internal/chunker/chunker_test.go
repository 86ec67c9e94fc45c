package chunker

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// paragraph builds n distinct words so overlap prefixes are unambiguous.
func paragraph(prefix string, n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("%s%03d", prefix, i)
	}
	return strings.Join(words, " ")
}

// expectedSeed mirrors the overlap rule: trailing characters, split into
// lines, blank lines dropped.
func expectedSeed(chunk string, overlap int) string {
	tail := lastRunes(chunk, overlap)
	var kept []string
	for _, l := range strings.Split(tail, "\n") {
		if strings.TrimSpace(l) != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}

func tableRow(i, width int) string {
	head := fmt.Sprintf("| row %d | ", i)
	pad := width - len(head) - 2
	return head + strings.Repeat("v", pad) + " |"
}

func TestSplit_EmptyInput(t *testing.T) {
	assert.Empty(t, Split("", DefaultConfig()))
}

func TestSplit_SmallTextFitsOneChunk(t *testing.T) {
	chunks := Split("A short line.\nAnother one.", DefaultConfig())
	require.Len(t, chunks, 1)
	assert.Equal(t, "A short line.\nAnother one.", chunks[0])
}

func TestSplit_TwoLongParagraphs(t *testing.T) {
	text := paragraph("alpha", 900) + "\n" + paragraph("beta", 900)
	cfg := Config{ChunkSize: 1200, ChunkOverlap: 200}

	chunks := Split(text, cfg)
	require.GreaterOrEqual(t, len(chunks), 2)

	for i, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), cfg.ChunkSize, "chunk %d too long", i)
	}
	for i := 1; i < len(chunks); i++ {
		seed := expectedSeed(chunks[i-1], cfg.ChunkOverlap)
		require.NotEmpty(t, seed)
		assert.True(t, strings.HasPrefix(chunks[i], seed), "chunk %d does not start with the tail of chunk %d", i, i-1)
	}
}

func TestSplit_EveryWordSurvives(t *testing.T) {
	text := paragraph("w", 500)
	chunks := Split(text, Config{ChunkSize: 300, ChunkOverlap: 0})
	require.Greater(t, len(chunks), 1)

	var rebuilt []string
	for _, c := range chunks {
		rebuilt = append(rebuilt, strings.Fields(c)...)
	}
	assert.Equal(t, strings.Fields(text), rebuilt)
}

func TestSplit_TableRowsStayWhole(t *testing.T) {
	var rows []string
	for i := 1; i <= 5; i++ {
		row := tableRow(i, 150)
		require.Len(t, row, 150)
		rows = append(rows, row)
	}
	text := paragraph("intro", 40) + "\n" + strings.Join(rows, "\n") + "\n" + paragraph("outro", 40)

	chunks := Split(text, Config{ChunkSize: 400, ChunkOverlap: 200})
	require.Greater(t, len(chunks), 1)

	seen := make(map[string]int)
	for _, c := range chunks {
		for _, line := range strings.Split(c, "\n") {
			if strings.Contains(line, "|") {
				assert.Contains(t, rows, line, "partial table row in chunk: %q", line)
				seen[line]++
			}
		}
	}
	for _, row := range rows {
		assert.Equal(t, 1, seen[row], "row should land in exactly one chunk: %q", row)
	}
}

func TestSplit_OversizedTableRowIsOwnChunk(t *testing.T) {
	row := tableRow(1, 2000)
	text := "Before the table.\n" + row + "\nAfter the table."

	chunks := Split(text, Config{ChunkSize: 400, ChunkOverlap: 100})

	var found int
	for _, c := range chunks {
		if strings.Contains(c, "| row 1 |") {
			found++
			assert.Contains(t, strings.Split(c, "\n"), row)
		}
	}
	assert.Equal(t, 1, found)
}

func TestSplit_ZeroConfigUsesDefaults(t *testing.T) {
	chunks := Split(paragraph("z", 600), Config{})
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 1200)
	}
}

func TestSplit_MultibyteCountsCharacters(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("canción ", 300))
	chunks := Split(text, Config{ChunkSize: 100, ChunkOverlap: 20})
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c))
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 100)
	}
}

func TestSplit_MultiLineSeedsStayWithinSize(t *testing.T) {
	// Short lines of varying length so overlap seeds span several lines.
	var lines []string
	for i := 0; i < 400; i++ {
		words := make([]string, 1+i%5)
		for j := range words {
			words[j] = strings.Repeat(string(rune('a'+(i+j)%26)), 1+(i*7+j*3)%9)
		}
		lines = append(lines, strings.Join(words, " "))
	}
	text := strings.Join(lines, "\n")

	for _, cfg := range []Config{{ChunkSize: 115, ChunkOverlap: 50}, {ChunkSize: 174, ChunkOverlap: 80}, {ChunkSize: 60, ChunkOverlap: 30}} {
		chunks := Split(text, cfg)
		require.Greater(t, len(chunks), 1)
		for i, c := range chunks {
			assert.LessOrEqual(t, utf8.RuneCountInString(c), cfg.ChunkSize, "size %d: chunk %d too long: %q", cfg.ChunkSize, i, c)
		}
	}
}

func TestSplit_NegativeOverlapDisablesOverlap(t *testing.T) {
	text := paragraph("w", 200)
	chunks := Split(text, Config{ChunkSize: 100, ChunkOverlap: -1})
	require.Greater(t, len(chunks), 1)

	var rebuilt []string
	for _, c := range chunks {
		rebuilt = append(rebuilt, strings.Fields(c)...)
	}
	assert.Equal(t, strings.Fields(text), rebuilt, "no words should repeat without overlap")
}

func TestSummarize(t *testing.T) {
	s := Summarize([]string{"one two three", "| a | b |\n| c | d |"})
	assert.Equal(t, 2, s.Chunks)
	assert.Equal(t, 2, s.TableRows)
	assert.Equal(t, 19, s.MaxChars)
	assert.Positive(t, s.EstimatedTokens)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("x"))
	assert.Equal(t, 133, EstimateTokens(strings.Repeat("word ", 100)))
}
