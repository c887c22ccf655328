// Package textextract pulls plain text out of uploaded documents.
package textextract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedFormat is returned for file types whose extraction is not
// implemented. Callers must fail the analysis rather than scoring
// placeholder content.
var ErrUnsupportedFormat = errors.New("unsupported file format")

type ExtractedText struct {
	Content string
	Pages   int
}

func Extract(data io.ReaderAt, size int64, fileType string) (*ExtractedText, error) {
	switch normalizeType(fileType) {
	case "pdf":
		return extractPDF(data, size)
	case "txt":
		return extractTXT(data, size)
	case "docx":
		// DOCX extraction is deliberately unimplemented.
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, fileType)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, fileType)
	}
}

func SupportedTypes() []string {
	return []string{".pdf", ".txt"}
}

func normalizeType(fileType string) string {
	switch strings.ToLower(fileType) {
	case ".pdf", "pdf", "application/pdf":
		return "pdf"
	case ".txt", "txt", "text/plain":
		return "txt"
	case ".docx", "docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return "docx"
	default:
		return ""
	}
}

func extractPDF(data io.ReaderAt, size int64) (*ExtractedText, error) {
	reader, err := pdf.NewReader(data, size)
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}

	var buf strings.Builder
	numPages := reader.NumPage()

	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		buf.WriteString(text)
		buf.WriteString("\n")
	}

	return &ExtractedText{Content: buf.String(), Pages: numPages}, nil
}

func extractTXT(data io.ReaderAt, size int64) (*ExtractedText, error) {
	buf := make([]byte, size)
	if _, err := data.ReadAt(buf, 0); err != nil && err != io.EOF {
		return nil, fmt.Errorf("read TXT: %w", err)
	}

	return &ExtractedText{Content: string(bytes.TrimSpace(buf)), Pages: 1}, nil
}
