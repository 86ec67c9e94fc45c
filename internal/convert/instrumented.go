package convert

import (
	"context"
	"log/slog"
	"time"

	"github.com/dgallion1/docchunk/internal/doctree"
)

// Instrumented wraps a Converter, recording latency and logging each call.
type Instrumented struct {
	next  Converter
	stats *LatencyStats
	log   *slog.Logger
}

func NewInstrumented(next Converter, stats *LatencyStats, log *slog.Logger) *Instrumented {
	if log == nil {
		log = slog.Default()
	}
	return &Instrumented{next: next, stats: stats, log: log}
}

func (c *Instrumented) Convert(ctx context.Context, docPath, mimetype string) (*doctree.Conversion, error) {
	start := time.Now()
	conv, err := c.next.Convert(ctx, docPath, mimetype)
	elapsed := time.Since(start)
	c.stats.Record(elapsed, err != nil)

	if err != nil {
		c.log.Warn("conversion failed", "doc_path", docPath, "mimetype", mimetype,
			"duration_ms", elapsed.Milliseconds(), "error", err)
		return nil, err
	}
	c.log.Info("conversion done", "doc_path", docPath, "mimetype", mimetype,
		"duration_ms", elapsed.Milliseconds(), "total_pages", conv.Metadata.TotalPages,
		"text_len", len(conv.CleanedText))
	return conv, nil
}

// Stats returns the latency tracker.
func (c *Instrumented) Stats() *LatencyStats { return c.stats }
