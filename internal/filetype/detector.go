package filetype

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// Info contains detected file type information
type Info struct {
	MIMEType    string
	Extension   string
	IsPDF       bool
	Description string
}

// Detector classifies uploaded bytes using magic bytes, not the file name.
type Detector struct{}

// New creates a new file type detector
func New() *Detector {
	return &Detector{}
}

// Detect sniffs the MIME type of the given bytes.
func (d *Detector) Detect(data []byte) *Info {
	mtype := mimetype.Detect(data)

	info := &Info{
		MIMEType:  mtype.String(),
		Extension: mtype.Extension(),
	}
	d.classify(info)

	log.Debug().Str("mime", info.MIMEType).Str("ext", info.Extension).Msg("detected file type")
	return info
}

// classify determines file characteristics
func (d *Detector) classify(info *Info) {
	switch {
	case info.MIMEType == "application/pdf":
		info.IsPDF = true
		info.Description = "PDF document"

	case strings.HasPrefix(info.MIMEType, "text/"):
		info.Description = "Plain text file"

	case info.MIMEType == "application/zip":
		info.Description = "ZIP archive"

	default:
		info.Description = fmt.Sprintf("Unsupported file type: %s", info.MIMEType)
	}
}
