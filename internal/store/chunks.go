package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dgallion1/docchunk/internal/doctree"
)

// MaxPageSize caps ListChunks page sizes.
const MaxPageSize = 500

// ChunkPage is one page of a document's chunks in index order.
type ChunkPage struct {
	Chunks  []doctree.Chunk `json:"chunks"`
	Page    int             `json:"page"`
	Limit   int             `json:"limit"`
	Total   int             `json:"total"`
	HasNext bool            `json:"has_next"`
	HasPrev bool            `json:"has_prev"`
}

// ListChunks returns chunks of docID, page numbers starting at 1. The limit
// is clamped to [1, MaxPageSize].
func (s *Store) ListChunks(ctx context.Context, docID string, page, limit int) (*ChunkPage, error) {
	page = max(page, 1)
	limit = min(max(limit, 1), MaxPageSize)

	if _, err := s.GetDocument(ctx, docID); err != nil {
		return nil, err
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks WHERE doc_id = ?`, docID).Scan(&total); err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}

	chunks, err := s.queryChunks(ctx,
		`SELECT idx, content, page, section_type, section_title, path FROM chunks
		 WHERE doc_id = ? ORDER BY idx LIMIT ? OFFSET ?`,
		docID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	return &ChunkPage{
		Chunks:  chunks,
		Page:    page,
		Limit:   limit,
		Total:   total,
		HasNext: page*limit < total,
		HasPrev: page > 1,
	}, nil
}

// TocChunks returns the TOC chunks of docID in index order. The slice is
// empty, not nil, when the document has no TOC.
func (s *Store) TocChunks(ctx context.Context, docID string) ([]doctree.Chunk, error) {
	if _, err := s.GetDocument(ctx, docID); err != nil {
		return nil, err
	}
	return s.queryChunks(ctx,
		`SELECT idx, content, page, section_type, section_title, path FROM chunks
		 WHERE doc_id = ? AND section_type = ? ORDER BY idx`,
		docID, string(doctree.SectionTOC))
}

func (s *Store) queryChunks(ctx context.Context, query string, args ...any) ([]doctree.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	chunks := []doctree.Chunk{}
	for rows.Next() {
		var (
			c           doctree.Chunk
			sectionType string
			title, path sql.NullString
		)
		if err := rows.Scan(&c.Index, &c.Text, &c.Page, &sectionType, &title, &path); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		c.SectionType = doctree.SectionType(sectionType)
		c.SectionTitle = title.String
		if path.Valid && path.String != "" {
			if err := json.Unmarshal([]byte(path.String), &c.Path); err != nil {
				return nil, fmt.Errorf("decode chunk path: %w", err)
			}
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}
