package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dgallion1/docchunk/internal/api"
	"github.com/dgallion1/docchunk/internal/chunker"
	"github.com/dgallion1/docchunk/internal/config"
	"github.com/dgallion1/docchunk/internal/convert"
	"github.com/dgallion1/docchunk/internal/ingest"
	"github.com/dgallion1/docchunk/internal/parser"
	"github.com/dgallion1/docchunk/internal/toc"
)

func newLogger(w io.Writer, cfg config.Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

// backend is the configured conversion collaborator and its optional extras.
type backend struct {
	conv   *convert.Instrumented
	health api.HealthChecker
	close  func()
}

func newBackend(cfg config.Config, log *slog.Logger) backend {
	stats := convert.NewLatencyStats(time.Hour)
	switch cfg.Converter {
	case config.ConverterLocal:
		local := convert.NewLocal(parser.Options{FallbackPdftotext: cfg.PDFFallbackPdftotext})
		return backend{
			conv:  convert.NewInstrumented(local, stats, log),
			close: func() {},
		}
	default:
		docling := convert.NewDocling(convert.DoclingConfig{
			BaseURL:     cfg.DoclingURL,
			UploadsPath: cfg.DoclingUploadsPath,
			Timeout:     cfg.DoclingTimeout,
		})
		return backend{
			conv:   convert.NewInstrumented(docling, stats, log),
			health: docling,
			close:  docling.Close,
		}
	}
}

func newWorker(cfg config.Config, conv convert.Converter, log *slog.Logger) (*ingest.Worker, error) {
	rules := toc.DefaultRules()
	if cfg.TocRulesFile != "" {
		var err error
		if rules, err = toc.LoadRules(cfg.TocRulesFile); err != nil {
			return nil, fmt.Errorf("load toc rules: %w", err)
		}
	}
	tocx, err := toc.NewExtractor(rules)
	if err != nil {
		return nil, fmt.Errorf("toc rules: %w", err)
	}
	chunkCfg := chunker.Config{ChunkSize: cfg.ChunkSize, ChunkOverlap: cfg.ChunkOverlap}
	return ingest.NewWorker(conv, tocx, chunkCfg, cfg.DoclingTimeout, log), nil
}
