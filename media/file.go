package media

import (
	"bytes"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	FieldMainImage        = "mainImage"
	FieldAdditionalImages = "additionalImages"
	FieldLegacyFiles      = "files"

	MaxMainImageFiles  = 1
	MaxAdditionalFiles = 10
	MaxLegacyFiles     = 10

	// DefaultMaxImageSize is 5 MiB.
	DefaultMaxImageSize int64 = 5 << 20
)

// File is an uploaded file after it left the transport layer. Handlers
// copy multipart parts into this shape; nothing downstream sees raw requests.
type File struct {
	FieldName    string
	OriginalName string
	MimeType     string
	Size         int64
	Content      []byte
}

func (f File) Reader() io.Reader {
	return bytes.NewReader(f.Content)
}

// DetectedMimeType returns the declared MIME type, sniffing the content when
// the client sent none or a generic one.
func (f File) DetectedMimeType() string {
	declared := strings.ToLower(strings.TrimSpace(f.MimeType))
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if len(f.Content) == 0 {
		return declared
	}
	return mimetype.Detect(f.Content).String()
}

func (f File) IsImage() bool {
	return strings.HasPrefix(f.DetectedMimeType(), "image/")
}

// FileGroups are the named multipart file fields of an article submission.
type FileGroups struct {
	MainImage        []File
	AdditionalImages []File
	LegacyFiles      []File
}

// Ordered flattens the groups: main image, then additional images, then
// legacy files.
func (g FileGroups) Ordered() []File {
	files := make([]File, 0, len(g.MainImage)+len(g.AdditionalImages)+len(g.LegacyFiles))
	files = append(files, g.MainImage...)
	files = append(files, g.AdditionalImages...)
	files = append(files, g.LegacyFiles...)
	return files
}
