package pipeline

import (
	"context"
	"log/slog"

	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/dgallion1/docchunk/internal/ingest"
	"github.com/dgallion1/docchunk/internal/store"
)

// Ingester runs one document through conversion and chunking.
type Ingester interface {
	Run(ctx context.Context, in ingest.Input) ingest.Result
}

// ChunkStore is the persistence the processor needs.
type ChunkStore interface {
	MarkProcessing(ctx context.Context, docID, docPath, mimetype string) error
	MarkFailed(ctx context.Context, docID, reason string) error
	ReplaceDocument(ctx context.Context, doc store.Document, chunks []doctree.Chunk) error
}

// Processor ingests a job's document and persists the chunks.
type Processor struct {
	ingester Ingester
	store    ChunkStore
	retry    RetryPolicy
	log      *slog.Logger
}

func NewProcessor(ingester Ingester, st ChunkStore, retry RetryPolicy, log *slog.Logger) *Processor {
	return &Processor{
		ingester: ingester,
		store:    st,
		retry:    retry,
		log:      log,
	}
}

// Process runs the full ingest pipeline for a job.
func (p *Processor) Process(ctx context.Context, job *Job) {
	log := p.log.With("job_id", job.ID, "doc_id", job.DocID)

	// Phase 1: Convert and chunk
	job.SetStatus(StatusConverting, "converting")
	if err := p.store.MarkProcessing(ctx, job.DocID, job.DocPath, job.Mimetype); err != nil {
		log.Error("mark processing failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "converting")
		return
	}

	in := ingest.Input{DocPath: job.DocPath, Mimetype: job.Mimetype}
	res := p.retry.Run(ctx, func() ingest.Result {
		job.IncrAttempts()
		return p.ingester.Run(ctx, in)
	}, func(attempt uint, last ingest.Result) {
		log.Warn("retrying ingestion", "attempt", attempt, "error", last.Error, "error_kind", last.ErrorKind)
	})

	if !res.Success {
		log.Error("ingestion failed", "error", res.Error, "error_kind", res.ErrorKind, "attempts", job.Snapshot().Attempts)
		job.AddError(res.Error)
		job.SetErrorKind(res.ErrorKind)
		// The job context may be cancelled; record the failure regardless.
		if err := p.store.MarkFailed(context.WithoutCancel(ctx), job.DocID, res.Error); err != nil {
			log.Warn("mark failed", "error", err)
		}
		job.SetStatus(StatusFailed, "converting")
		return
	}

	hash := ChunksHash(res.Chunks)
	job.SetResult(res, hash)
	log.Info("ingested document", "chunks", len(res.Chunks), "total_pages", res.TotalPages)

	// Phase 2: Store
	job.SetStatus(StatusStoring, "storing")
	doc := store.Document{
		ID:          job.DocID,
		DocPath:     job.DocPath,
		Mimetype:    job.Mimetype,
		Title:       res.Title,
		TotalPages:  res.TotalPages,
		ContentHash: hash,
		Status:      store.StatusReady,
	}
	if err := p.store.ReplaceDocument(ctx, doc, res.Chunks); err != nil {
		log.Error("store failed", "error", err)
		job.AddError("store: " + err.Error())
		if err := p.store.MarkFailed(context.WithoutCancel(ctx), job.DocID, err.Error()); err != nil {
			log.Warn("mark failed", "error", err)
		}
		job.SetStatus(StatusFailed, "storing")
		return
	}

	log.Info("storage complete", "chunks", len(res.Chunks))
	job.SetStatus(StatusCompleted, "done")
}
