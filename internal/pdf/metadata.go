package pdf

import (
	"strings"

	fitz "github.com/gen2brain/go-fitz"
)

// Metadata is a read-only snapshot of a document's descriptive fields. All
// fields except TotalPages are optional and nil when the source document
// does not carry them.
type Metadata struct {
	Title            *string `json:"title"`
	Author           *string `json:"author"`
	Creator          *string `json:"creator"`
	Producer         *string `json:"producer"`
	CreationDate     *string `json:"creation_date"`
	ModificationDate *string `json:"modification_date"`
	TotalPages       int     `json:"total_pages"`
}

// ReadMetadata reads the document information dictionary via go-fitz. Fields
// absent in the source come back nil; the page count is always present.
func ReadMetadata(doc *Document) (*Metadata, error) {
	fdoc, err := fitz.NewFromMemory(doc.Bytes())
	if err != nil {
		return nil, &ReadError{Reason: "open PDF for metadata", Err: err}
	}
	defer fdoc.Close()

	m := fdoc.Metadata()
	return &Metadata{
		Title:            optField(m, "title"),
		Author:           optField(m, "author"),
		Creator:          optField(m, "creator"),
		Producer:         optField(m, "producer"),
		CreationDate:     optField(m, "creationDate"),
		ModificationDate: optField(m, "modDate"),
		TotalPages:       doc.PageCount(),
	}, nil
}

func optField(m map[string]string, key string) *string {
	v := strings.TrimSpace(m[key])
	if v == "" {
		return nil
	}
	return &v
}
