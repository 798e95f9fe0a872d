package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuflow/docuflow-backend/internal/extraction/domain"
	"github.com/docuflow/docuflow-backend/internal/extraction/ocr"
	"github.com/docuflow/docuflow-backend/internal/extraction/service"
	apperrors "github.com/docuflow/docuflow-backend/pkg/errors"
	"github.com/docuflow/docuflow-backend/pkg/logger"
)

type fakeEngine struct {
	text  string
	err   error
	calls int
}

func (f *fakeEngine) Extract(ctx context.Context, data []byte, kind domain.DocumentKind) (string, error) {
	f.calls++
	return f.text, f.err
}

func (f *fakeEngine) Available(ctx context.Context) bool { return true }
func (f *fakeEngine) Name() string                       { return "fake-ocr" }

type fakeClient struct {
	out   string
	err   error
	calls int
}

func (f *fakeClient) Complete(ctx context.Context, prompt string) (string, error) {
	f.calls++
	return f.out, f.err
}

func (f *fakeClient) Available(ctx context.Context) bool { return true }
func (f *fakeClient) Model() string                      { return "fake-model" }

const goodCompletion = `{
	"vendor_name": "ACME Corp",
	"invoice_number": "INV-1",
	"total": 108.25,
	"currency": "USD",
	"line_items": [{"description": "Widget", "total": 108.25}]
}`

func newService(engine *fakeEngine, client *fakeClient) *service.Service {
	return service.NewService(engine, client, nil, logger.New("test", "test"))
}

func appErr(t *testing.T, err error) *apperrors.AppError {
	t.Helper()
	var ae *apperrors.AppError
	require.True(t, errors.As(err, &ae), "expected AppError, got %v", err)
	return ae
}

func TestExtract_Success(t *testing.T) {
	engine := &fakeEngine{text: "ACME Corp\nInvoice INV-1\nTotal: $108.25"}
	client := &fakeClient{out: goodCompletion}
	svc := newService(engine, client)

	result, err := svc.Extract(context.Background(), "doc-1", []byte("data"), domain.KindPNG)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusSuccess, result.Status)
	require.NotNil(t, result.Data.VendorName)
	assert.Equal(t, "ACME Corp", *result.Data.VendorName)
	assert.InDelta(t, 0.45, result.Confidence, 0.001) // 5 of 11 fields filled
	assert.GreaterOrEqual(t, result.ProcessingTimeMs, int64(0))
	assert.Equal(t, engine.text, result.OCRTextPreview)
	assert.Equal(t, 1, engine.calls)
	assert.Equal(t, 1, client.calls)
}

func TestExtract_PreviewTruncated(t *testing.T) {
	long := make([]byte, 2000)
	for i := range long {
		long[i] = 'a'
	}
	engine := &fakeEngine{text: string(long)}
	client := &fakeClient{out: goodCompletion}

	result, err := newService(engine, client).Extract(context.Background(), "doc-1", []byte("data"), domain.KindPDF)
	require.NoError(t, err)

	assert.Len(t, result.OCRTextPreview, 503) // 500 chars + "..."
	assert.True(t, result.OCRTextPreview[len(result.OCRTextPreview)-1] == '.')
}

func TestExtract_PreviewTruncatesOnRuneBoundary(t *testing.T) {
	// Multibyte text around the cutoff must not be split mid-rune
	engine := &fakeEngine{text: strings.Repeat("Rechnungsbetrag: 42€ ", 100)}
	client := &fakeClient{out: goodCompletion}

	result, err := newService(engine, client).Extract(context.Background(), "doc-1", []byte("data"), domain.KindPDF)
	require.NoError(t, err)

	assert.True(t, utf8.ValidString(result.OCRTextPreview))
	assert.Equal(t, 503, utf8.RuneCountInString(result.OCRTextPreview))
	assert.True(t, strings.HasSuffix(result.OCRTextPreview, "..."))
}

func TestExtract_EmptyOCRSkipsLLM(t *testing.T) {
	tests := []struct {
		name   string
		engine *fakeEngine
	}{
		{"engine reports no text", &fakeEngine{err: ocr.ErrNoText}},
		{"engine returns whitespace", &fakeEngine{text: "  \n\t "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{out: goodCompletion}
			_, err := newService(tt.engine, client).Extract(context.Background(), "doc-1", []byte("data"), domain.KindPNG)

			ae := appErr(t, err)
			assert.Equal(t, "EMPTY_DOCUMENT", ae.Code)
			assert.Equal(t, 422, ae.StatusCode)
			assert.Equal(t, 0, client.calls, "LLM must not be called when OCR yields no text")
		})
	}
}

func TestExtract_OCRFailure(t *testing.T) {
	engine := &fakeEngine{err: errors.New("tesseract: exec failed")}
	client := &fakeClient{out: goodCompletion}

	_, err := newService(engine, client).Extract(context.Background(), "doc-1", []byte("data"), domain.KindPNG)

	ae := appErr(t, err)
	assert.Equal(t, "OCR_FAILED", ae.Code)
	assert.Equal(t, 502, ae.StatusCode)
	assert.Equal(t, 0, client.calls)
}

func TestExtract_LLMFailure(t *testing.T) {
	engine := &fakeEngine{text: "some invoice text"}
	client := &fakeClient{err: errors.New("ollama: connection refused")}

	_, err := newService(engine, client).Extract(context.Background(), "doc-1", []byte("data"), domain.KindPNG)

	ae := appErr(t, err)
	assert.Equal(t, "LLM_FAILED", ae.Code)
	assert.Equal(t, 502, ae.StatusCode)
}

func TestExtract_UnparseableLLMOutput(t *testing.T) {
	tests := []struct {
		name string
		out  string
	}{
		{"prose instead of JSON", "I am unable to extract data from this."},
		{"schema violation", `{"total": "one hundred"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{text: "some invoice text"}
			client := &fakeClient{out: tt.out}

			_, err := newService(engine, client).Extract(context.Background(), "doc-1", []byte("data"), domain.KindPNG)

			ae := appErr(t, err)
			assert.Equal(t, "EXTRACTION_UNPARSEABLE", ae.Code)
			assert.Equal(t, 422, ae.StatusCode)
		})
	}
}

func TestExtract_NoCachingBetweenRequests(t *testing.T) {
	engine := &fakeEngine{text: "same document text"}
	client := &fakeClient{out: goodCompletion}
	svc := newService(engine, client)

	data := []byte("identical bytes")
	_, err := svc.Extract(context.Background(), "doc-1", data, domain.KindPNG)
	require.NoError(t, err)
	_, err = svc.Extract(context.Background(), "doc-2", data, domain.KindPNG)
	require.NoError(t, err)

	assert.Equal(t, 2, engine.calls, "each submission must run OCR independently")
	assert.Equal(t, 2, client.calls, "each submission must call the LLM independently")
}

func TestHealth(t *testing.T) {
	svc := newService(&fakeEngine{}, &fakeClient{})

	health := svc.Health(context.Background())
	assert.Equal(t, true, health["tesseract_available"])
	assert.Equal(t, true, health["ollama_available"])
	assert.Equal(t, "fake-model", health["ollama_model"])
	assert.NotContains(t, health, "rabbitmq", "broker status only appears when events are enabled")
}
