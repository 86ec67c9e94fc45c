package convert

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/docchunk/internal/doctree"
)

const maxResponseBytes = 256 << 20

// DoclingConfig configures the Docling HTTP client.
type DoclingConfig struct {
	BaseURL     string
	UploadsPath string        // uploads directory as mounted inside the service container
	Timeout     time.Duration // per request; 0 leaves the deadline to the caller's context
}

// Docling calls the Docling conversion microservice.
type Docling struct {
	baseURL     string
	uploadsPath string
	httpClient  *http.Client
}

func NewDocling(cfg DoclingConfig) *Docling {
	uploads := cfg.UploadsPath
	if uploads == "" {
		uploads = "/app/uploads"
	}
	return &Docling{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		uploadsPath: uploads,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type processRequest struct {
	DocPath  string  `json:"doc_path"`
	FileType *string `json:"file_type"`
}

type processResponse struct {
	CleanedText *string `json:"cleaned_text"`
	Markdown    *string `json:"markdown"`
	TOC         *string `json:"toc"`
	Metadata    *struct {
		TotalPages int     `json:"total_pages"`
		Title      *string `json:"title"`
		Author     *string `json:"author"`
		FileType   *string `json:"file_type"`
	} `json:"metadata"`
}

// ContainerPath maps a host path to the same file inside the service's
// uploads mount. Only the base name survives.
func (d *Docling) ContainerPath(hostPath string) string {
	return path.Join(d.uploadsPath, filepath.Base(hostPath))
}

// Convert posts the document path to /process. The file type is left for the
// service to detect.
func (d *Docling) Convert(ctx context.Context, docPath, mimetype string) (*doctree.Conversion, error) {
	body, err := json.Marshal(processRequest{DocPath: d.ContainerPath(docPath)})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/process", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, transportError(ctx, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &MalformedResponseError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	if len(respBody) > maxResponseBytes {
		return nil, &MalformedResponseError{StatusCode: resp.StatusCode, Err: fmt.Errorf("response exceeds %d bytes", maxResponseBytes)}
	}

	var pr processResponse
	if err := json.Unmarshal(respBody, &pr); err != nil {
		return nil, &MalformedResponseError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return pr.conversion(), nil
}

func (pr *processResponse) conversion() *doctree.Conversion {
	conv := &doctree.Conversion{
		CleanedText: deref(pr.CleanedText),
		Markdown:    deref(pr.Markdown),
		TOC:         deref(pr.TOC),
	}
	if m := pr.Metadata; m != nil {
		conv.Metadata = doctree.Metadata{
			TotalPages: m.TotalPages,
			Title:      deref(m.Title),
			Author:     deref(m.Author),
			FileType:   deref(m.FileType),
		}
	}
	if conv.Metadata.TotalPages <= 0 {
		conv.Metadata.TotalPages = 1
	}
	return conv
}

// Health checks GET /health on the service.
func (d *Docling) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return transportError(ctx, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &MalformedResponseError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return nil
}

// Close releases idle connections.
func (d *Docling) Close() {
	d.httpClient.CloseIdleConnections()
}

func transportError(ctx context.Context, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return &UnavailableError{Timeout: true, Err: err}
	}
	return &UnavailableError{Err: err}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
