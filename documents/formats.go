package documents

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Format enumerates supported document payload formats.
type Format string

const (
	// FormatUnknown represents an unsupported or undetected format.
	FormatUnknown Format = ""
	// FormatText represents plain text documents.
	FormatText Format = "text"
	// FormatMarkdown represents Markdown documents, read verbatim.
	FormatMarkdown Format = "markdown"
	// FormatPDF represents PDF documents.
	FormatPDF Format = "pdf"
)

// Extensions lists the file extensions tried for each catalog name, in order.
var Extensions = []string{".txt", ".md", ".pdf"}

// DetectFormat infers a document format from the provided path's extension.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".text":
		return FormatText
	case ".md", ".markdown":
		return FormatMarkdown
	case ".pdf":
		return FormatPDF
	default:
		return FormatUnknown
	}
}

// Parse converts raw file data of the given format into document text.
func Parse(format Format, data []byte) (string, error) {
	switch format {
	case FormatText, FormatMarkdown:
		return string(data), nil
	case FormatPDF:
		return parsePDF(data)
	default:
		return "", fmt.Errorf("unsupported document format %q", format)
	}
}

func parsePDF(data []byte) (text string, err error) {
	// The pdf reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("parse pdf: %v", r)
		}
	}()

	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	plain, err := doc.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	buf := &bytes.Buffer{}
	if _, err := io.Copy(buf, plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	return normalizePlainText(buf.String()), nil
}

func normalizePlainText(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}
