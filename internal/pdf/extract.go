package pdf

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	fitz "github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog/log"
)

// Extraction is the result of extracting a page selection from a document:
// a new PDF holding only the selected pages, the concatenated text of those
// pages, and the output size in bytes.
type Extraction struct {
	PDF  []byte
	Text string
	Size int64
}

// Extract builds a new PDF containing exactly the pages in the selection, in
// ascending order, and extracts each selected page's text with go-fitz
// (best-effort; a page whose text cannot be read contributes an empty body).
// pages must already be validated against doc's page count, normally by
// ParsePageSelection.
func Extract(doc *Document, pages []int) (*Extraction, error) {
	if len(pages) == 0 {
		return nil, &SelectionError{Msg: "empty page selection"}
	}

	sel := make([]string, len(pages))
	for i, p := range pages {
		sel[i] = strconv.Itoa(p)
	}

	var out bytes.Buffer
	if err := api.Trim(bytes.NewReader(doc.Bytes()), &out, sel, conf()); err != nil {
		return nil, &ReadError{Reason: "page extraction failed", Err: err}
	}

	text, err := extractText(doc.Bytes(), pages)
	if err != nil {
		return nil, err
	}

	return &Extraction{PDF: out.Bytes(), Text: text, Size: int64(out.Len())}, nil
}

// extractText concatenates the text of the given 1-based pages, each prefixed
// with a "=== Page N ===" header and followed by a blank line. The final text
// is trimmed of surrounding whitespace.
func extractText(data []byte, pages []int) (string, error) {
	fdoc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", &ReadError{Reason: "open PDF for text extraction", Err: err}
	}
	defer fdoc.Close()

	var sb strings.Builder
	for _, p := range pages {
		// go-fitz uses 0-based page indexes
		pageText, err := fdoc.Text(p - 1)
		if err != nil {
			log.Warn().Err(err).Int("page", p).Msg("failed to extract text from page")
			pageText = ""
		}
		sb.WriteString(fmt.Sprintf("=== Page %d ===\n", p))
		sb.WriteString(pageText)
		sb.WriteString("\n\n")
	}
	return strings.TrimSpace(sb.String()), nil
}
