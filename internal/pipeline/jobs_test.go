package pipeline

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docchunk/internal/chunker"
	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/dgallion1/docchunk/internal/ingest"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	assert.Equal(t, ContentHashHex(data), ContentHashHex(data))
	// SHA-256 of "hello world" is well-known.
	assert.Equal(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", ContentHashHex(data))
}

func TestContentHashHex_EmptyInput(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", ContentHashHex([]byte{}))
}

func TestChunksHash(t *testing.T) {
	a := []doctree.Chunk{{Text: "ab"}, {Text: "c"}}
	b := []doctree.Chunk{{Text: "a"}, {Text: "bc"}}
	assert.NotEqual(t, ChunksHash(a), ChunksHash(b), "chunk boundaries must affect the hash")
	assert.Equal(t, ChunksHash(a), ChunksHash([]doctree.Chunk{{Text: "ab"}, {Text: "c"}}))
}

func TestNewJob(t *testing.T) {
	job := NewJob("", "/data/a.pdf", "application/pdf")
	assert.NotEmpty(t, job.ID)
	assert.NotEmpty(t, job.DocID)
	assert.NotEqual(t, job.ID, job.DocID)
	assert.Equal(t, StatusQueued, job.Status)

	named := NewJob("doc-7", "/data/b.pdf", "")
	assert.Equal(t, "doc-7", named.DocID)
}

func TestJob_StateTransitions(t *testing.T) {
	job := NewJob("doc", "/a.txt", "")

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusConverting, "converting"},
		{StatusStoring, "storing"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		snap := job.Snapshot()
		assert.Equal(t, tr.status, snap.Status)
		assert.Equal(t, tr.phase, snap.Phase)
		assert.True(t, snap.UpdatedAt.After(before), "UpdatedAt should advance after SetStatus(%q)", tr.status)
	}
	assert.True(t, job.Snapshot().Status.Finished())
}

func TestJob_AddErrorAndKind(t *testing.T) {
	job := NewJob("doc", "/a.txt", "")
	job.AddError("first")
	job.AddError("second")
	job.SetErrorKind(ingest.KindTimeout)
	assert.Equal(t, 1, job.IncrAttempts())
	assert.Equal(t, 2, job.IncrAttempts())

	snap := job.Snapshot()
	assert.Equal(t, []string{"first", "second"}, snap.Progress.Errors)
	assert.Equal(t, ingest.KindTimeout, snap.ErrorKind)
	assert.Equal(t, 2, snap.Attempts)
}

func TestJob_SetResult(t *testing.T) {
	job := NewJob("doc", "/a.txt", "")
	chunks := []doctree.Chunk{
		{Index: 0, Text: "toc", SectionType: doctree.SectionTOC},
		{Index: 1, Text: "body", SectionType: doctree.SectionParagraph},
	}
	job.SetResult(ingest.Result{
		Success:    true,
		TotalPages: 3,
		Chunks:     chunks,
		Summary:    chunker.Summary{Chunks: 1, TableRows: 4, EstimatedTokens: 12},
	}, "hash")

	snap := job.Snapshot()
	assert.Equal(t, 3, snap.Progress.TotalPages)
	assert.Equal(t, 2, snap.Progress.TotalChunks)
	assert.Equal(t, 4, snap.Progress.TableRows)
	assert.Equal(t, 12, snap.Progress.EstimatedTokens)
	assert.True(t, snap.Progress.TocFound)
	assert.Equal(t, "hash", snap.ContentHash)

	job.SetResult(ingest.Result{Success: true, TotalPages: 1, Chunks: chunks[1:]}, "h2")
	assert.False(t, job.Snapshot().Progress.TocFound)
}

func TestJob_SnapshotIsolation(t *testing.T) {
	job := NewJob("doc", "/a.txt", "")
	job.AddError("error-1")

	snap := job.Snapshot()
	snap.Progress.Errors[0] = "mutated"

	assert.Equal(t, "error-1", job.Snapshot().Progress.Errors[0])
}

func TestJob_SnapshotJSON(t *testing.T) {
	job := NewJob("doc", "/a.txt", "text/plain")
	data, err := json.Marshal(job.Snapshot())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "queued", decoded["status"])
	progress := decoded["progress"].(map[string]any)
	assert.Equal(t, []any{}, progress["errors"], "errors should encode as an empty list")
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := NewJob("doc", "/a.txt", "")
	store.Put(job)

	assert.Same(t, job, store.Get(job.ID))
	assert.Nil(t, store.Get("nonexistent"))
	assert.Equal(t, 1, store.Len())
}

func TestJobStore_CleanupEvictsFinishedJobs(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	old := NewJob("old", "/a.txt", "")
	old.SetStatus(StatusCompleted, "done")
	old.UpdatedAt = time.Now().Add(-time.Second)

	running := NewJob("running", "/b.txt", "")
	running.SetStatus(StatusConverting, "converting")
	running.UpdatedAt = time.Now().Add(-time.Second)

	fresh := NewJob("fresh", "/c.txt", "")
	fresh.SetStatus(StatusFailed, "converting")

	store.Put(old)
	store.Put(running)
	store.Put(fresh)
	store.Cleanup()

	assert.Nil(t, store.Get(old.ID), "stale finished job should be evicted")
	assert.NotNil(t, store.Get(running.ID), "running job must survive cleanup")
	assert.NotNil(t, store.Get(fresh.ID), "fresh job should survive cleanup")
}
