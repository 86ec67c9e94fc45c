// Package toc finds and cleans the table of contents of a converted document.
package toc

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rules holds the keyword lists and limits used to locate and normalize a
// table of contents. Empty fields in a rules file keep their defaults.
type Rules struct {
	// Keywords mark the start of a TOC on a page. Matched case-insensitively.
	Keywords []string `yaml:"keywords"`
	// Headings are the words accepted after "##" in a markdown TOC heading,
	// and as a bare keyword near the start of the text.
	Headings []string `yaml:"headings"`
	// EndMarkers are markdown headings that terminate the TOC region.
	EndMarkers []string `yaml:"end_markers"`
	// LineRules name the "looks like a TOC line" tests, in evaluation order.
	LineRules []string `yaml:"line_rules"`

	MaxPages      int `yaml:"max_pages"`
	MaxLength     int `yaml:"max_length"`
	MaxBlankLines int `yaml:"max_blank_lines"`
	KeywordWindow int `yaml:"keyword_window"`
}

// DefaultRules returns the built-in English and Spanish rules.
func DefaultRules() Rules {
	return Rules{
		Keywords: []string{
			"ÍNDICE", "INDICE", "CONTENIDO", "TABLE OF CONTENTS", "CONTENTS",
			"INDEX", "CHAPTERS", "CHAPTER", "CAPÍTULOS", "CAPITULOS", "TEMARIO",
		},
		Headings: []string{
			"CHAPTERS", "TABLE OF CONTENTS", "BRIEF CONTENTS", "INDEX", "INDICE",
			"ÍNDICE", "TABLA DE CONTENIDOS", "CONTENIDO", "CONTENTS", "CAPÍTULOS",
			"CAPITULOS", "TEMARIO",
		},
		EndMarkers: []string{
			"This chapter covers",
			"Este capítulo cubre",
		},
		LineRules: []string{
			RuleNumbered, RuleCapitalized, RuleChapterWord, RulePageNumber, RuleShortLine,
		},
		MaxPages:      10,
		MaxLength:     8000,
		MaxBlankLines: 2,
		KeywordWindow: 200,
	}
}

// LoadRules reads rules from a YAML file on top of DefaultRules.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	data, err := os.ReadFile(path)
	if err != nil {
		return rules, fmt.Errorf("read toc rules: %w", err)
	}
	var file Rules
	if err := yaml.Unmarshal(data, &file); err != nil {
		return rules, fmt.Errorf("parse toc rules %s: %w", path, err)
	}
	rules.merge(file)
	return rules, nil
}

func (r *Rules) merge(o Rules) {
	if len(o.Keywords) > 0 {
		r.Keywords = o.Keywords
	}
	if len(o.Headings) > 0 {
		r.Headings = o.Headings
	}
	if len(o.EndMarkers) > 0 {
		r.EndMarkers = o.EndMarkers
	}
	if len(o.LineRules) > 0 {
		r.LineRules = o.LineRules
	}
	if o.MaxPages > 0 {
		r.MaxPages = o.MaxPages
	}
	if o.MaxLength > 0 {
		r.MaxLength = o.MaxLength
	}
	if o.MaxBlankLines > 0 {
		r.MaxBlankLines = o.MaxBlankLines
	}
	if o.KeywordWindow > 0 {
		r.KeywordWindow = o.KeywordWindow
	}
}
