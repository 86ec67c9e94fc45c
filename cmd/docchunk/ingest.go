package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/docchunk/internal/config"
	"github.com/dgallion1/docchunk/internal/ingest"
	"github.com/dgallion1/docchunk/internal/pipeline"
	"github.com/dgallion1/docchunk/internal/store"
)

var (
	outputFormat string
	ingestMime   string
	ingestSave   bool
	ingestDocID  string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <path>",
	Short: "Run one document through conversion and chunking",
	Long: `Convert and chunk a single document and print the result.

Examples:
  docchunk ingest report.pdf
  docchunk ingest notes.md -o json
  docchunk ingest report.pdf --save --doc-id report-2024`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		if outputFormat != "yaml" && outputFormat != "json" {
			return fmt.Errorf("unknown output format %q (want yaml or json)", outputFormat)
		}

		path, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		log := newLogger(cmd.ErrOrStderr(), cfg)
		be := newBackend(cfg, log)
		defer be.close()

		worker, err := newWorker(cfg, be.conv, log)
		if err != nil {
			return err
		}

		res := worker.Run(cmd.Context(), ingest.Input{DocPath: path, Mimetype: ingestMime})
		if ingestSave && res.Success {
			docID := ingestDocID
			if docID == "" {
				docID = pipeline.ContentHashHex([]byte(path))[:16]
			}
			if err := save(cmd, cfg, docID, path, res); err != nil {
				return err
			}
		}

		if err := writeResult(cmd.OutOrStdout(), outputFormat, res); err != nil {
			return err
		}
		if !res.Success {
			return fmt.Errorf("ingest failed (%s): %s", res.ErrorKind, res.Error)
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVarP(&outputFormat, "output", "o", "yaml", "output format: yaml or json")
	ingestCmd.Flags().StringVar(&ingestMime, "mimetype", "", "document mimetype hint")
	ingestCmd.Flags().BoolVar(&ingestSave, "save", false, "store the chunks in the configured database")
	ingestCmd.Flags().StringVar(&ingestDocID, "doc-id", "", "document id for --save (default: derived from the path)")
}

func save(cmd *cobra.Command, cfg config.Config, docID, path string, res ingest.Result) error {
	st, err := store.Open(cmd.Context(), cfg.DBPath, cfg.StoreBatchSize)
	if err != nil {
		return err
	}
	defer st.Close()

	doc := store.Document{
		ID:          docID,
		DocPath:     path,
		Mimetype:    ingestMime,
		Title:       res.Title,
		TotalPages:  res.TotalPages,
		ContentHash: pipeline.ChunksHash(res.Chunks),
	}
	if err := st.ReplaceDocument(cmd.Context(), doc, res.Chunks); err != nil {
		return fmt.Errorf("save chunks: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "saved %d chunks as %s\n", len(res.Chunks), docID)
	return nil
}

func writeResult(w io.Writer, format string, res ingest.Result) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(res)
}

