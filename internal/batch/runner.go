package batch

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfsplit/internal/metrics"
	"github.com/local/pdfsplit/internal/pdf"
)

// ErrNoDocumentsProcessed is returned when every document in a batch was
// skipped or failed. No archive is produced in that case.
var ErrNoDocumentsProcessed = errors.New("no files were processed successfully")

// FormatPDF is the only recognized output format: one extracted PDF per
// successful document in the archive.
const FormatPDF = "pdf"

// Input is one submitted document: its original file name (used for the
// extension check and output naming only) and its raw bytes.
type Input struct {
	Name string
	Data []byte
}

// Report aggregates a batch run: how many documents succeeded out of how many
// were submitted, the per-document error strings in submission order, and the
// finished ZIP archive with one entry per successful document.
type Report struct {
	Processed int
	Total     int
	Errors    []string
	Archive   []byte
}

// Run applies the shared page selection expression to every document in
// submission order. One document's failure never aborts the others: format
// mismatches and selection errors are recorded as "Skipped <name>: ...",
// read/extraction failures as "Error processing <name>: ...". If no document
// succeeds the whole run fails with ErrNoDocumentsProcessed.
func Run(ctx context.Context, files []Input, expr, format string) (*Report, error) {
	if format == "" {
		format = FormatPDF
	}
	if format != FormatPDF {
		return nil, fmt.Errorf("unsupported output format %q", format)
	}

	rep := &Report{Total: len(files)}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	stems := make(map[string]int)

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !strings.HasSuffix(strings.ToLower(f.Name), ".pdf") {
			rep.Errors = append(rep.Errors, fmt.Sprintf("Skipped %s: Not a PDF file", f.Name))
			metrics.IncDocument("not_pdf")
			continue
		}

		start := time.Now()
		doc, err := pdf.Open(f.Data)
		if err != nil {
			rep.Errors = append(rep.Errors, fmt.Sprintf("Error processing %s: %v", f.Name, err))
			metrics.IncDocument("read_error")
			continue
		}
		pages, err := pdf.ParsePageSelection(expr, doc.PageCount())
		if err != nil {
			rep.Errors = append(rep.Errors, fmt.Sprintf("Skipped %s: %v", f.Name, err))
			metrics.IncDocument("selection_error")
			continue
		}
		ex, err := pdf.Extract(doc, pages)
		if err != nil {
			rep.Errors = append(rep.Errors, fmt.Sprintf("Error processing %s: %v", f.Name, err))
			metrics.IncDocument("extract_error")
			continue
		}

		entry := entryName(f.Name, stems)
		w, err := zw.Create(entry)
		if err != nil {
			rep.Errors = append(rep.Errors, fmt.Sprintf("Error processing %s: %v", f.Name, err))
			metrics.IncDocument("archive_error")
			continue
		}
		if _, err := w.Write(ex.PDF); err != nil {
			rep.Errors = append(rep.Errors, fmt.Sprintf("Error processing %s: %v", f.Name, err))
			metrics.IncDocument("archive_error")
			continue
		}
		rep.Processed++
		metrics.IncDocument("success")
		metrics.ObserveExtraction("batch", time.Since(start))
		log.Debug().Str("file", f.Name).Str("entry", entry).Int("pages", len(pages)).Msg("batch document extracted")
	}

	if rep.Processed == 0 {
		_ = zw.Close()
		log.Warn().Int("total", rep.Total).Strs("errors", rep.Errors).Msg("batch produced no output")
		return nil, ErrNoDocumentsProcessed
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	rep.Archive = buf.Bytes()
	metrics.ObserveArchiveSize(len(rep.Archive))
	return rep, nil
}

// entryName derives the archive entry for a source file name:
// "extracted_<stem>.pdf", with a deterministic "_2", "_3", ... suffix when
// two sources share a stem after extension stripping.
func entryName(name string, stems map[string]int) string {
	base := filepath.Base(name)
	stem := base[:len(base)-len(filepath.Ext(base))]
	key := strings.ToLower(stem)
	stems[key]++
	if n := stems[key]; n > 1 {
		return fmt.Sprintf("extracted_%s_%d.pdf", stem, n)
	}
	return fmt.Sprintf("extracted_%s.pdf", stem)
}
