package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// extractPDF rasterizes each page and OCRs it individually. Pages are
// separated by "--- Page N ---" markers so downstream prompt construction
// keeps page boundaries visible to the model.
func (t *Tesseract) extractPDF(ctx context.Context, data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("tesseract: open pdf: %w", err)
	}
	defer doc.Close()

	var sb strings.Builder
	for page := 0; page < doc.NumPage(); page++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		img, err := doc.ImageDPI(page, float64(t.dpi))
		if err != nil {
			return "", fmt.Errorf("tesseract: render pdf page %d: %w", page+1, err)
		}

		path, cleanup, err := writeTempPNG(img)
		if err != nil {
			return "", err
		}

		pageText, err := t.run(ctx, path)
		cleanup()
		if err != nil {
			return "", fmt.Errorf("tesseract: ocr pdf page %d: %w", page+1, err)
		}

		fmt.Fprintf(&sb, "\n--- Page %d ---\n%s", page+1, pageText)
	}

	return sb.String(), nil
}
