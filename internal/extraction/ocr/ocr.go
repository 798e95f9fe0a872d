package ocr

import (
	"bytes"
	"context"
	"errors"

	"github.com/docuflow/docuflow-backend/internal/extraction/domain"
)

// ErrNoText is returned when the engine ran but found no text in the document.
var ErrNoText = errors.New("no text found in document")

// Engine defines the interface for optical character recognition.
// Implementations can be swapped in without changing the service or
// handler layer.
type Engine interface {
	// Extract returns the plain text recognized in the document bytes.
	// Returns ErrNoText when the document is readable but contains no text.
	Extract(ctx context.Context, data []byte, kind domain.DocumentKind) (string, error)

	// Available reports whether the engine can currently serve requests
	Available(ctx context.Context) bool

	// Name returns the engine name for logging
	Name() string
}

// Magic bytes for supported document formats
var (
	pdfMagic  = []byte("%PDF-")
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47}
)

// DetectKind sniffs the document format from its leading bytes. The declared
// MIME type is not trusted on its own; the content has to match too.
func DetectKind(data []byte) (domain.DocumentKind, bool) {
	if len(data) < 5 {
		return "", false
	}
	switch {
	case bytes.HasPrefix(data, pdfMagic):
		return domain.KindPDF, true
	case bytes.HasPrefix(data, jpegMagic):
		return domain.KindJPEG, true
	case bytes.HasPrefix(data, pngMagic):
		return domain.KindPNG, true
	}
	return "", false
}
