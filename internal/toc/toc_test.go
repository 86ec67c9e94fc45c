package toc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docchunk/internal/doctree"
)

func pages(texts ...string) []doctree.PageText {
	out := make([]doctree.PageText, len(texts))
	for i, t := range texts {
		out[i] = doctree.PageText{PageNumber: i + 1, Text: t}
	}
	return out
}

func TestLocate_FindsContentsPage(t *testing.T) {
	got := Default().Locate(pages(
		"Title Page\nSome Author",
		"Contents\n1. Introduction 3\n2. Basics 10\n\n\nThe body starts here.",
		"Body text",
	))
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Page)
	assert.Equal(t, "Contents\n1. Introduction 3\n2. Basics 10", got.Content)
}

func TestLocate_StartsAtKeywordLine(t *testing.T) {
	got := Default().Locate(pages("Acme Press 2024\nÍndice\nCapítulo 1 Origen 5"))
	require.NotNil(t, got)
	assert.Equal(t, "Índice\nCapítulo 1 Origen 5", got.Content)
}

func TestLocate_NoKeyword(t *testing.T) {
	assert.Nil(t, Default().Locate(pages("Lorem ipsum dolor\nsit amet", "more prose")))
	assert.Nil(t, Default().Locate(nil))
}

func TestLocate_OnlyScansWindow(t *testing.T) {
	texts := make([]string, 12)
	for i := range texts {
		texts[i] = fmt.Sprintf("plain text %d", i)
	}
	texts[10] = "Contents\n1. Intro"
	assert.Nil(t, Default().Locate(pages(texts...)))
}

func TestLocate_BlankLinesSpanPages(t *testing.T) {
	got := Default().Locate(pages("Contents\n1. Intro 1\n", "\n2. Later 9"))
	require.NotNil(t, got)
	assert.Equal(t, "Contents\n1. Intro 1", got.Content)
}

func TestLocate_KeepsLongLinesOnceStarted(t *testing.T) {
	long := strings.Repeat("see the appendix for details ", 5)
	got := Default().Locate(pages("Contents\n1. Intro 1\n" + long + "\n2. Setup 5\n3. Usage 9"))
	require.NotNil(t, got)
	assert.Equal(t, "Contents\n1. Intro 1\n"+strings.TrimSpace(long)+"\n2. Setup 5\n3. Usage 9", got.Content)
}

func TestLocate_RequiresOneEntryLine(t *testing.T) {
	rules := DefaultRules()
	rules.LineRules = []string{RuleNumbered}
	e, err := NewExtractor(rules)
	require.NoError(t, err)

	assert.Nil(t, e.Locate(pages("Index of terms\nsee below for the glossary")))

	got := e.Locate(pages("Index\nabc\n2. Two\nThis line is definitely longer than twenty characters"))
	require.NotNil(t, got)
	assert.Equal(t, "Index\nabc\n2. Two\nThis line is definitely longer than twenty characters", got.Content)
}

func TestNormalize_HeadingAndEndMarker(t *testing.T) {
	raw := "Preface stuff\n## CONTENTS\n1. Introduction 1\n2. Getting Started 15\n## This chapter covers\nbody text"
	got, ok := Default().Normalize(raw)
	require.True(t, ok)
	assert.Equal(t, "CONTENTS\n1. Introduction 1\n2. Getting Started 15", got)
}

func TestNormalize_BareKeyword(t *testing.T) {
	got, ok := Default().Normalize("Copyright 2024 Acme\nTable of Contents\nIntro 1")
	require.True(t, ok)
	assert.Equal(t, "Table of Contents\nIntro 1", got)

	got, ok = Default().Normalize("Libro de prueba\nÍNDICE\nCapítulo uno")
	require.True(t, ok)
	assert.Equal(t, "ÍNDICE\nCapítulo uno", got)
}

func TestNormalize_FlatTable(t *testing.T) {
	got, ok := Default().Normalize("| 1 | Introduction | 5 | Setup Guide | --- | Appendix A |")
	require.True(t, ok)
	assert.Equal(t, "1 Introduction\n5 Setup Guide\nAppendix A", got)
}

func TestNormalize_TableCells(t *testing.T) {
	raw := "| Chapter 1 | Chapter 1 |\n| ab | Overview | 3 |\n| Part One | 12 |\n---\nxy\nChapter 1"
	got, ok := Default().Normalize(raw)
	require.True(t, ok)
	assert.Equal(t, "Chapter 1\nOverview\nPart One | 12", got)
}

func TestNormalize_MergesFragments(t *testing.T) {
	raw := "Appendix B\nInstalling the tools\nUnderstanding the\nbasics\nReading data from files\nand more"
	got, ok := Default().Normalize(raw)
	require.True(t, ok)
	assert.Equal(t, "Appendix B Installing the tools\nUnderstanding the basics\nReading data from files and more", got)
}

func TestNormalize_CapsLength(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 1000; i++ {
		fmt.Fprintf(&sb, "Section %04d of the book\n", i)
	}
	require.Greater(t, sb.Len(), 10000)

	got, ok := Default().Normalize(sb.String())
	require.True(t, ok)
	assert.LessOrEqual(t, utf8.RuneCountInString(got), 8000)
	assert.True(t, strings.HasPrefix(got, "Section 0000 of the book\nSection 0001"))
}

func TestNormalize_Empty(t *testing.T) {
	for _, raw := range []string{"", "   ", "ab\n--\n"} {
		got, ok := Default().Normalize(raw)
		assert.False(t, ok, "raw=%q", raw)
		assert.Empty(t, got)
	}
}

func TestNormalize_Dedupes(t *testing.T) {
	got, ok := Default().Normalize("Intro 1\nSetup 2\nIntro 1\nUsage 3\nSetup 2")
	require.True(t, ok)
	assert.Equal(t, "Intro 1\nSetup 2\nUsage 3", got)
}

func TestLoadRules_MergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_pages: 3\nend_markers:\n  - Resumen\n"), 0o600))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, 3, rules.MaxPages)
	assert.Equal(t, []string{"Resumen"}, rules.EndMarkers)
	assert.Equal(t, DefaultRules().Keywords, rules.Keywords)
	assert.Equal(t, 8000, rules.MaxLength)
}

func TestLoadRules_Errors(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keywords: [unterminated"), 0o600))
	_, err = LoadRules(path)
	assert.Error(t, err)
}

func TestNewExtractor_UnknownRule(t *testing.T) {
	rules := DefaultRules()
	rules.LineRules = append(rules.LineRules, "nope")
	_, err := NewExtractor(rules)
	assert.ErrorContains(t, err, "nope")
}
