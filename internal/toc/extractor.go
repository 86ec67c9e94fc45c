package toc

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Names accepted in Rules.LineRules.
const (
	RuleNumbered    = "numbered"     // "1. Intro", "2) Setup", "3 - Usage"
	RuleCapitalized = "capitalized"  // "Introduction 4"
	RuleChapterWord = "chapter_word" // contains capítulo, chapter, parte or part
	RulePageNumber  = "page_number"  // a bare page number
	RuleShortLine   = "short_line"   // any line of up to 100 characters
)

var (
	numberedRe    = regexp.MustCompile(`^\d+[.)\-\s]`)
	capitalizedRe = regexp.MustCompile(`^\p{Lu}\p{Ll}+`)
	chapterWordRe = regexp.MustCompile(`(?i)capítulo|chapter|parte|part`)
	pageNumberRe  = regexp.MustCompile(`^\s*\d+\s*$`)

	headerMarkRe = regexp.MustCompile(`(?m)^##+[ \t]*`)
	separatorRe  = regexp.MustCompile(`^[-=_]{3,}$`)
	digitsRe     = regexp.MustCompile(`^\d+$`)
	appendixRe   = regexp.MustCompile(`(?i)^Appendix\s+[A-Z]\.?$`)
	spaceRunRe   = regexp.MustCompile(`[ \t]{2,}`)
	newlineRunRe = regexp.MustCompile(`\n{3,}`)
)

type lineRule func(line string) bool

var lineRules = map[string]lineRule{
	RuleNumbered:    numberedRe.MatchString,
	RuleCapitalized: capitalizedRe.MatchString,
	RuleChapterWord: chapterWordRe.MatchString,
	RulePageNumber:  pageNumberRe.MatchString,
	RuleShortLine:   func(line string) bool { return runeLen(line) <= 100 },
}

// Extractor locates and normalizes tables of contents using a fixed set of
// Rules. It is safe for concurrent use.
type Extractor struct {
	rules Rules

	keywords  []string
	lineTests []lineRule
	headingRe *regexp.Regexp
	bareRe    *regexp.Regexp
	endRe     *regexp.Regexp
}

// NewExtractor compiles rules into an Extractor.
func NewExtractor(rules Rules) (*Extractor, error) {
	if len(rules.Keywords) == 0 || len(rules.Headings) == 0 {
		return nil, fmt.Errorf("toc rules: keywords and headings are required")
	}
	e := &Extractor{rules: rules}

	for _, k := range rules.Keywords {
		e.keywords = append(e.keywords, strings.ToUpper(k))
	}
	for _, name := range rules.LineRules {
		fn, ok := lineRules[name]
		if !ok {
			return nil, fmt.Errorf("toc rules: unknown line rule %q", name)
		}
		e.lineTests = append(e.lineTests, fn)
	}

	headings := alternation(rules.Headings)
	e.headingRe = regexp.MustCompile(`(?i)##\s*(?:` + headings + `)`)
	// Go's \b is ASCII-only, so "ÍNDICE" needs an explicit letter boundary.
	e.bareRe = regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}_])(` + headings + `)(?:$|[^\p{L}\p{N}_])`)
	if len(rules.EndMarkers) > 0 {
		e.endRe = regexp.MustCompile(`(?i)##\s*(?:` + alternation(rules.EndMarkers) + `)`)
	}
	return e, nil
}

// Default returns an Extractor for DefaultRules.
func Default() *Extractor {
	e, err := NewExtractor(DefaultRules())
	if err != nil {
		panic(err)
	}
	return e
}

func (e *Extractor) looksLikeTOC(line string) bool {
	for _, test := range e.lineTests {
		if test(line) {
			return true
		}
	}
	return false
}

func alternation(words []string) string {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		quoted = append(quoted, regexp.QuoteMeta(w))
	}
	return strings.Join(quoted, "|")
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
