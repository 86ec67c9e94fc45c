// Package ingest turns one document into an ordered list of retrieval
// chunks: convert, normalize, locate the TOC, chunk and attribute pages.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/docchunk/internal/chunker"
	"github.com/dgallion1/docchunk/internal/convert"
	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/dgallion1/docchunk/internal/pagemap"
	"github.com/dgallion1/docchunk/internal/toc"
)

// Input identifies the document to ingest.
type Input struct {
	DocPath  string `json:"doc_path"`
	Mimetype string `json:"mimetype,omitempty"`
}

// Result is the outcome of one run. Exactly one of Chunks or Error is set.
type Result struct {
	Success    bool            `json:"success" yaml:"success"`
	Chunks     []doctree.Chunk `json:"chunks,omitempty" yaml:"chunks,omitempty"`
	TotalPages int             `json:"total_pages,omitempty" yaml:"total_pages,omitempty"`
	Title      string          `json:"title,omitempty" yaml:"title,omitempty"`
	Error      string          `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorKind  ErrorKind       `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	// Summary describes the body chunks, excluding the TOC chunk.
	Summary    chunker.Summary `json:"summary" yaml:"summary"`
}

// Retryable reports whether the failure was transient.
func (r Result) Retryable() bool {
	return !r.Success && r.ErrorKind.Retryable()
}

// Worker runs the ingestion steps for one document at a time. It holds no
// per-document state, so one Worker may serve many goroutines.
type Worker struct {
	conv     convert.Converter
	toc      *toc.Extractor
	chunkCfg chunker.Config
	timeout  time.Duration
	log      *slog.Logger
}

// NewWorker builds a Worker. A zero timeout leaves the deadline to the
// caller's context.
func NewWorker(conv convert.Converter, tocx *toc.Extractor, chunkCfg chunker.Config, timeout time.Duration, log *slog.Logger) *Worker {
	if tocx == nil {
		tocx = toc.Default()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Worker{
		conv:     conv,
		toc:      tocx,
		chunkCfg: chunkCfg,
		timeout:  timeout,
		log:      log,
	}
}

// Run processes one document. It never panics and never returns an error:
// every failure is reported in the Result.
func (w *Worker) Run(ctx context.Context, in Input) (res Result) {
	log := w.log.With("doc_path", in.DocPath)
	defer func() {
		if r := recover(); r != nil {
			res = w.failure(log, fmt.Errorf("panic: %v", r))
		}
	}()

	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	conv, err := w.conv.Convert(ctx, in.DocPath, in.Mimetype)
	if err != nil {
		return w.failure(log, err)
	}

	text := chunker.Normalize(conv.CleanedText)
	if text == "" {
		return w.failure(log, ErrExtractionEmpty)
	}
	totalPages := conv.Metadata.TotalPages
	if totalPages <= 0 {
		totalPages = 1
	}
	log.Info("converted", "total_pages", totalPages, "text_len", len(text), "has_toc", conv.TOC != "")

	pages := pagemap.Split(text, totalPages)

	var (
		tocCand    *doctree.TocCandidate
		attributed []pagemap.Attributed
		summary    chunker.Summary
	)
	var g errgroup.Group
	g.Go(guard(func() {
		tocCand = w.findTOC(conv.TOC, pages)
	}))
	g.Go(guard(func() {
		split := chunker.Split(text, w.chunkCfg)
		summary = chunker.Summarize(split)
		attributed = pagemap.Attribute(split, pages)
	}))
	if err := g.Wait(); err != nil {
		return w.failure(log, err)
	}

	chunks := assemble(tocCand, attributed)
	log.Info("chunked",
		"chunks", len(chunks),
		"toc_found", tocCand != nil,
		"table_rows", summary.TableRows,
		"max_chars", summary.MaxChars,
		"estimated_tokens", summary.EstimatedTokens,
	)

	return Result{
		Success:    true,
		Chunks:     chunks,
		TotalPages: totalPages,
		Title:      conv.Metadata.Title,
		Summary:    summary,
	}
}

// findTOC prefers the collaborator's TOC and falls back to scanning pages.
// A located region that does not survive normalization is kept raw.
func (w *Worker) findTOC(raw string, pages []doctree.PageText) *doctree.TocCandidate {
	if strings.TrimSpace(raw) != "" {
		if content, ok := w.toc.Normalize(raw); ok {
			return &doctree.TocCandidate{Page: 1, Content: content}
		}
	}
	cand := w.toc.Locate(pages)
	if cand == nil {
		return nil
	}
	if content, ok := w.toc.Normalize(cand.Content); ok {
		cand.Content = content
	}
	return cand
}

func assemble(tocCand *doctree.TocCandidate, attributed []pagemap.Attributed) []doctree.Chunk {
	chunks := make([]doctree.Chunk, 0, len(attributed)+1)
	if tocCand != nil {
		chunks = append(chunks, doctree.Chunk{
			Text:         tocCand.Content,
			Page:         tocCand.Page,
			SectionType:  doctree.SectionTOC,
			SectionTitle: doctree.TocTitle,
			Path:         []string{doctree.TocTitle},
		})
	}
	for _, a := range attributed {
		chunks = append(chunks, doctree.Chunk{
			Text:        a.Text,
			Page:        a.Page,
			SectionType: doctree.SectionParagraph,
		})
	}
	for i := range chunks {
		chunks[i].Index = i
	}
	return chunks
}

func (w *Worker) failure(log *slog.Logger, err error) Result {
	kind := Classify(err)
	log.Error("ingest failed", "error", err, "error_kind", kind)
	return Result{Success: false, Error: err.Error(), ErrorKind: kind}
}

// guard turns a panic in fn into an error so errgroup goroutines cannot
// crash the process.
func guard(fn func()) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		fn()
		return nil
	}
}
