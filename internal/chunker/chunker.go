package chunker

import (
	"strings"
	"unicode/utf8"
)

// Config controls chunking behavior. Sizes are in characters.
type Config struct {
	ChunkSize    int // Maximum chunk length; table rows may exceed it.
	ChunkOverlap int // Trailing characters carried into the next chunk. 0 disables overlap.
}

// DefaultConfig returns the sizes used for retrieval chunks.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    1200,
		ChunkOverlap: 200,
	}
}

func (c Config) normalized() Config {
	if c.ChunkSize <= 0 {
		c.ChunkSize = 1200
	}
	if c.ChunkOverlap < 0 {
		c.ChunkOverlap = 0
	}
	// An overlap close to the chunk size would flush on every word.
	if c.ChunkOverlap > c.ChunkSize/2 {
		c.ChunkOverlap = c.ChunkSize / 2
	}
	return c
}

// Split breaks text into chunks of at most cfg.ChunkSize characters.
//
// Prose lines are packed word by word. Table rows are never split: a row that
// does not fit closes the current chunk and starts the next one, even when
// the row alone is longer than ChunkSize. Every flushed chunk seeds the next
// with its trailing ChunkOverlap characters, minus any table-row material.
func Split(text string, cfg Config) []string {
	if text == "" {
		return nil
	}
	s := &splitter{cfg: cfg.normalized()}

	for _, line := range strings.Split(text, "\n") {
		if IsTableRow(line) {
			s.addTableRow(line)
			continue
		}
		s.addWords(strings.Fields(line))
	}
	s.finish()
	return s.chunks
}

type splitter struct {
	cfg    Config
	chunks []string

	lines  []string // lines of the chunk under construction
	tables []bool   // tables[i] is true when lines[i] is a table row
	length int      // rune length of the chunk under construction
}

func (s *splitter) addTableRow(line string) {
	n := utf8.RuneCountInString(line)
	if len(s.lines) > 0 && s.length+1+n > s.cfg.ChunkSize {
		s.flush()
	}
	if len(s.lines) > 0 {
		s.length++ // newline before the row
	}
	s.lines = append(s.lines, line)
	s.tables = append(s.tables, true)
	s.length += n
}

// addWords packs the words of one prose line. length always equals the rune
// count of the joined chunk, separators included.
func (s *splitter) addWords(words []string) {
	for j, word := range words {
		n := utf8.RuneCountInString(word)
		if len(s.lines) > 0 && s.length+1+n > s.cfg.ChunkSize {
			s.flush()
		}
		if len(s.lines) > 0 {
			s.length++ // newline or space
		}
		s.length += n

		if j == 0 || len(s.lines) == 0 {
			s.lines = append(s.lines, word)
			s.tables = append(s.tables, false)
			continue
		}
		s.lines[len(s.lines)-1] += " " + word
	}
}

// flush emits the current chunk and seeds the next one with its tail.
func (s *splitter) flush() {
	if len(s.lines) == 0 {
		return
	}
	s.chunks = append(s.chunks, strings.Join(s.lines, "\n"))

	seed := s.overlap()
	s.lines = seed
	s.tables = make([]bool, len(seed))
	s.length = utf8.RuneCountInString(strings.Join(seed, "\n"))
}

// overlap returns the non-blank lines of the trailing ChunkOverlap characters
// of the current chunk. Lines cut from table rows are left out so a row only
// ever lives in one chunk.
func (s *splitter) overlap() []string {
	budget := s.cfg.ChunkOverlap
	if budget <= 0 {
		return nil
	}

	var tail []string
	for i := len(s.lines) - 1; i >= 0 && budget > 0; i-- {
		line := s.lines[i]
		n := utf8.RuneCountInString(line)
		part := line
		if n > budget {
			part = lastRunes(line, budget)
		}
		budget -= n
		if i > 0 {
			budget-- // newline joining it to the previous line
		}
		if s.tables[i] || strings.TrimSpace(part) == "" {
			continue
		}
		tail = append(tail, part)
	}

	for l, r := 0, len(tail)-1; l < r; l, r = l+1, r-1 {
		tail[l], tail[r] = tail[r], tail[l]
	}
	return tail
}

func (s *splitter) finish() {
	if len(s.lines) == 0 {
		return
	}
	last := strings.Join(s.lines, "\n")
	if strings.TrimSpace(last) != "" {
		s.chunks = append(s.chunks, last)
	}
	s.lines, s.tables, s.length = nil, nil, 0
}

func lastRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := len(s); i > 0; {
		_, size := utf8.DecodeLastRuneInString(s[:i])
		i -= size
		count++
		if count == n {
			return s[i:]
		}
	}
	return s
}
