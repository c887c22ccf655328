package textextract

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extract(t *testing.T, data []byte, fileType string) (*ExtractedText, error) {
	t.Helper()
	return Extract(bytes.NewReader(data), int64(len(data)), fileType)
}

func TestExtractTXT(t *testing.T) {
	got, err := extract(t, []byte("  patient note with dosage details \n"), ".txt")
	require.NoError(t, err)
	assert.Equal(t, "patient note with dosage details", got.Content)
	assert.Equal(t, 1, got.Pages)
}

func TestExtractTXTAcceptsMIMEType(t *testing.T) {
	got, err := extract(t, []byte("note"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "note", got.Content)
}

func TestExtractDOCXIsUnsupported(t *testing.T) {
	for _, fileType := range []string{".docx", "docx",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document"} {
		_, err := extract(t, []byte("PK\x03\x04"), fileType)
		assert.ErrorIs(t, err, ErrUnsupportedFormat, "type %s", fileType)
	}
}

func TestExtractUnknownTypeIsUnsupported(t *testing.T) {
	_, err := extract(t, []byte("GIF89a"), ".gif")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtractMalformedPDF(t *testing.T) {
	_, err := extract(t, []byte("not a pdf"), ".pdf")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSupportedTypes(t *testing.T) {
	assert.ElementsMatch(t, []string{".pdf", ".txt"}, SupportedTypes())
}
