package document

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileExtractor_MissingFile(t *testing.T) {
	t.Parallel()

	extractor := NewFileExtractor()
	_, _, err := extractor.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFileExtractor_UnsupportedFormat(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "notes.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))

	extractor := NewFileExtractor()
	_, _, err := extractor.Extract(context.Background(), path)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFileExtractor_PlainText(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rfp.txt")
	require.NoError(t, os.WriteFile(path, []byte("The vendor must provide training.\nDeadline: 2025-09-30."), 0o644))

	extractor := NewFileExtractor()
	chunks, metadata, err := extractor.Extract(context.Background(), path)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.Contains(t, FullText(chunks), "provide training")
	assert.Equal(t, "rfp.txt", metadata["filename"])
}

func TestFileExtractor_DOCX(t *testing.T) {
	t.Parallel()

	path := writeDOCX(t, `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>The system shall support 500 users.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Deadline: 2025-06-01.</w:t></w:r></w:p>
  </w:body>
</w:document>`)

	extractor := NewFileExtractor()
	chunks, metadata, err := extractor.Extract(context.Background(), path)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	text := FullText(chunks)
	assert.Contains(t, text, "500 users")
	assert.Contains(t, text, "Deadline: 2025-06-01")
	assert.Equal(t, 2, metadata["paragraphs"])
	assert.Equal(t, filepath.Base(path), metadata["filename"])
}

func TestFileExtractor_RedactsPII(t *testing.T) {
	t.Parallel()

	path := writeDOCX(t, `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Contact jane.doe@example.com or 555-123-4567 for details.</w:t></w:r></w:p>
  </w:body>
</w:document>`)

	extractor := NewFileExtractor(WithPIIRedaction(true))
	chunks, _, err := extractor.Extract(context.Background(), path)
	require.NoError(t, err)

	text := FullText(chunks)
	assert.Contains(t, text, "[EMAIL]")
	assert.Contains(t, text, "[PHONE]")
	assert.NotContains(t, text, "jane.doe@example.com")
}

func TestChunker_OverlapAndBoundaries(t *testing.T) {
	t.Parallel()

	sentence := "This is a requirement sentence that describes a need. "
	text := strings.Repeat(sentence, 60)

	c := chunker{chunkSize: 500, overlap: 100}
	chunks := c.split(text, 1)

	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk.Text), 500)
		assert.Equal(t, 1, chunk.Page)
	}
	// Overlapping windows must cover the document without gaps.
	for i := 1; i < len(chunks); i++ {
		assert.LessOrEqual(t, chunks[i].StartChar, chunks[i-1].EndChar)
	}
}

func TestChunker_Deterministic(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("The solution must integrate with existing tools. ", 80)
	c := chunker{chunkSize: 600, overlap: 150}
	first := c.split(text, 2)
	second := c.split(text, 2)
	assert.Equal(t, first, second)
}

func writeDOCX(t *testing.T, documentXML string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "rfp.docx")
	f, err := os.Create(path)
	require.NoError(t, err)

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	return path
}
