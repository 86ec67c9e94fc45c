package convert

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/dgallion1/docchunk/internal/parser"
)

func TestLocal_ConvertsMarkdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guide.md")
	require.NoError(t, os.WriteFile(path, []byte("# Guide\n\n## Install\n\nRun it.\n"), 0o600))

	conv, err := NewLocal(parser.Options{}).Convert(context.Background(), path, "text/markdown")
	require.NoError(t, err)
	assert.Equal(t, "Guide", conv.Metadata.Title)
	assert.Equal(t, 1, conv.Metadata.TotalPages)
	assert.Contains(t, conv.CleanedText, "Run it.")
	assert.Equal(t, "## CONTENTS\nGuide\nInstall", conv.TOC)
}

func TestLocal_Errors(t *testing.T) {
	l := NewLocal(parser.Options{})

	_, err := l.Convert(context.Background(), "/nope/missing.txt", "")
	assert.ErrorContains(t, err, "open document")

	_, err = l.Convert(context.Background(), "archive.zip", "")
	assert.ErrorContains(t, err, "unsupported")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Convert(ctx, "a.txt", "")
	var uErr *UnavailableError
	require.ErrorAs(t, err, &uErr)
	assert.False(t, uErr.Timeout)
}

type stubConverter struct {
	conv *doctree.Conversion
	err  error
}

func (s stubConverter) Convert(context.Context, string, string) (*doctree.Conversion, error) {
	return s.conv, s.err
}

func TestInstrumented_RecordsCalls(t *testing.T) {
	var logs bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&logs, nil))
	stats := NewLatencyStats(0)

	ok := NewInstrumented(stubConverter{conv: &doctree.Conversion{CleanedText: "x"}}, stats, log)
	_, err := ok.Convert(context.Background(), "a.pdf", "")
	require.NoError(t, err)

	bad := NewInstrumented(stubConverter{err: &UnavailableError{}}, stats, log)
	_, err = bad.Convert(context.Background(), "b.pdf", "")
	require.Error(t, err)

	snap := stats.Snapshot()
	assert.Equal(t, 2, snap.Count)
	assert.Equal(t, 1, snap.Failures)
	assert.Contains(t, logs.String(), `"msg":"conversion done"`)
	assert.Contains(t, logs.String(), `"msg":"conversion failed"`)
}
