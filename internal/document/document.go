// Package document extracts text chunks from RFP files.
//
// PDF content is delegated to a remote OCR endpoint; DOCX is unpacked
// locally. The workflow core only sees chunks and metadata.
package document

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Extraction faults surfaced to the caller before any stage runs.
var (
	ErrNotFound          = errors.New("document not found")
	ErrUnsupportedFormat = errors.New("unsupported document format")
)

// Chunk is a contiguous span of document text.
type Chunk struct {
	Text      string `json:"text"`
	Page      int    `json:"page"`
	StartChar int    `json:"start_char"`
	EndChar   int    `json:"end_char"`
}

// Extractor turns a document file into text chunks plus metadata.
type Extractor interface {
	Extract(ctx context.Context, path string) ([]Chunk, map[string]any, error)
}

const (
	defaultChunkSize = 1500
	defaultOverlap   = 200
)

// FileExtractor extracts .pdf, .docx, and plain-text files.
type FileExtractor struct {
	chunker   chunker
	ocr       *OCRClient
	redactPII bool
}

// Option configures a FileExtractor.
type Option func(*FileExtractor)

// WithOCR sets the OCR client used for PDF files.
func WithOCR(client *OCRClient) Option {
	return func(e *FileExtractor) { e.ocr = client }
}

// WithPIIRedaction toggles email/phone redaction in chunk text.
func WithPIIRedaction(enabled bool) Option {
	return func(e *FileExtractor) {
		e.redactPII = enabled
		e.chunker.redactPII = enabled
	}
}

// NewFileExtractor constructs a FileExtractor.
func NewFileExtractor(opts ...Option) *FileExtractor {
	e := &FileExtractor{
		chunker: chunker{chunkSize: defaultChunkSize, overlap: defaultOverlap},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the document's chunks and file metadata.
func (e *FileExtractor) Extract(ctx context.Context, path string) ([]Chunk, map[string]any, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, nil, fmt.Errorf("stat document: %w", err)
	}

	metadata := map[string]any{
		"filename":   filepath.Base(path),
		"size_bytes": info.Size(),
		"modified":   info.ModTime().UTC(),
	}

	var chunks []Chunk
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		chunks, err = e.extractPDF(ctx, path, metadata)
	case ".docx":
		chunks, err = e.extractDOCX(path, metadata)
	case ".txt", ".md":
		chunks, err = e.extractPlainText(path)
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, nil, err
	}
	return chunks, metadata, nil
}

func (e *FileExtractor) extractPDF(ctx context.Context, path string, metadata map[string]any) ([]Chunk, error) {
	if e.ocr == nil {
		return nil, fmt.Errorf("pdf extraction requires an OCR endpoint")
	}
	pages, err := e.ocr.ExtractPDF(ctx, path)
	if err != nil {
		return nil, err
	}
	metadata["pages"] = len(pages)

	var chunks []Chunk
	for i, page := range pages {
		chunks = append(chunks, e.chunker.split(page, i+1)...)
	}
	return chunks, nil
}

func (e *FileExtractor) extractDOCX(path string, metadata map[string]any) ([]Chunk, error) {
	text, paragraphs, err := readDOCX(path)
	if err != nil {
		return nil, err
	}
	metadata["paragraphs"] = paragraphs
	return e.chunker.split(text, 0), nil
}

func (e *FileExtractor) extractPlainText(path string) ([]Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return e.chunker.split(string(data), 0), nil
}

// FullText joins chunk texts in order for whole-document analysis.
func FullText(chunks []Chunk) string {
	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		parts = append(parts, chunk.Text)
	}
	return strings.Join(parts, "\n")
}
