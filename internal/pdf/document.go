package pdf

import (
	"bytes"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Document is a read-only in-memory PDF plus its page count, determined once
// at open time. The underlying bytes are never mutated.
type Document struct {
	data      []byte
	pageCount int
}

// conf returns a fresh pdfcpu configuration. Relaxed validation matches what
// pdfcpu does for its own CLI defaults.
func conf() *model.Configuration {
	return model.NewDefaultConfiguration()
}

// Open wraps raw PDF bytes into a Document. It fails with *ReadError when the
// bytes are not a parseable PDF.
func Open(data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, &ReadError{Reason: "empty document"}
	}
	n, err := api.PageCount(bytes.NewReader(data), conf())
	if err != nil {
		return nil, &ReadError{Reason: "not a readable PDF", Err: err}
	}
	return &Document{data: data, pageCount: n}, nil
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int { return d.pageCount }

// Bytes returns the raw PDF bytes. Callers must not modify the slice.
func (d *Document) Bytes() []byte { return d.data }

// Size returns the document size in bytes.
func (d *Document) Size() int64 { return int64(len(d.data)) }
