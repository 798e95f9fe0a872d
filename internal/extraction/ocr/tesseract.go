package ocr

import (
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/docuflow/docuflow-backend/internal/extraction/domain"
	"github.com/docuflow/docuflow-backend/pkg/config"
	"github.com/docuflow/docuflow-backend/pkg/logger"
)

// Tesseract extracts text by shelling out to the tesseract binary.
// PDFs are rasterized page by page first (see pdf.go); images are
// enhanced before recognition.
type Tesseract struct {
	binary   string
	language string
	dpi      int
	log      *logger.Logger
}

// NewTesseract creates a Tesseract engine from configuration
func NewTesseract(cfg *config.OCRConfig, log *logger.Logger) *Tesseract {
	return &Tesseract{
		binary:   cfg.BinaryPath,
		language: cfg.Language,
		dpi:      cfg.PDFRenderDPI,
		log:      log.WithComponent("ocr"),
	}
}

func (t *Tesseract) Name() string { return "tesseract" }

// Available reports whether the tesseract binary can be executed
func (t *Tesseract) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return exec.CommandContext(ctx, t.binary, "--version").Run() == nil
}

// Extract runs OCR over the document and returns the recognized text.
func (t *Tesseract) Extract(ctx context.Context, data []byte, kind domain.DocumentKind) (string, error) {
	var (
		text string
		err  error
	)

	switch kind {
	case domain.KindPDF:
		text, err = t.extractPDF(ctx, data)
	default:
		text, err = t.extractImage(ctx, data)
	}
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	return text, nil
}

func (t *Tesseract) extractImage(ctx context.Context, data []byte) (string, error) {
	img, err := prepareImage(data)
	if err != nil {
		return "", fmt.Errorf("tesseract: decode image: %w", err)
	}

	path, cleanup, err := writeTempPNG(img)
	if err != nil {
		return "", err
	}
	defer cleanup()

	return t.run(ctx, path)
}

// run invokes tesseract on the given file and returns stdout.
func (t *Tesseract) run(ctx context.Context, path string) (string, error) {
	cmd := exec.CommandContext(ctx, t.binary, path, "stdout", "-l", t.language)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("tesseract: %s: %w", strings.TrimSpace(string(exitErr.Stderr)), err)
		}
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil
}

// writeTempPNG writes an image to a temp file for the tesseract binary.
// The caller must invoke cleanup to remove it.
func writeTempPNG(img image.Image) (string, func(), error) {
	f, err := os.CreateTemp("", "docuflow-ocr-*.png")
	if err != nil {
		return "", nil, fmt.Errorf("tesseract: create temp file: %w", err)
	}

	if err := imaging.Encode(f, img, imaging.PNG); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", nil, fmt.Errorf("tesseract: encode image: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", nil, fmt.Errorf("tesseract: close temp file: %w", err)
	}

	return f.Name(), func() { os.Remove(f.Name()) }, nil
}
