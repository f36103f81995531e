// Package extract turns uploaded assignment documents into plain text.
package extract

import (
	"errors"
	"net/url"
	"path"
	"strings"
)

// Format is a supported document format
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// MIME types accepted for each format
const (
	MIMETypePDF  = "application/pdf"
	MIMETypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// ErrUnsupportedFormat is returned for anything other than PDF or DOCX
var ErrUnsupportedFormat = errors.New("unsupported file format")

// DetectFormat picks the document format from the declared file type, falling
// back to the extension of the URL path. Query strings such as presigned URL
// signatures are ignored.
func DetectFormat(fileURL, fileType string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(fileType)) {
	case MIMETypePDF, "pdf", ".pdf":
		return FormatPDF, nil
	case MIMETypeDOCX, "docx", ".docx":
		return FormatDOCX, nil
	}

	switch urlExtension(fileURL) {
	case ".pdf":
		return FormatPDF, nil
	case ".docx":
		return FormatDOCX, nil
	}

	return "", ErrUnsupportedFormat
}

// MIMEType returns the canonical content type of the format
func (f Format) MIMEType() string {
	switch f {
	case FormatPDF:
		return MIMETypePDF
	case FormatDOCX:
		return MIMETypeDOCX
	default:
		return "application/octet-stream"
	}
}

func urlExtension(fileURL string) string {
	p := fileURL
	if u, err := url.Parse(fileURL); err == nil {
		p = u.Path
	}
	return strings.ToLower(path.Ext(p))
}
