package service

import (
	"context"
	"strings"
	"time"

	"github.com/docuflow/docuflow-backend/internal/extraction/domain"
	"github.com/docuflow/docuflow-backend/internal/extraction/events"
	"github.com/docuflow/docuflow-backend/internal/extraction/llm"
	"github.com/docuflow/docuflow-backend/internal/extraction/ocr"
	"github.com/docuflow/docuflow-backend/pkg/errors"
	"github.com/docuflow/docuflow-backend/pkg/logger"
	"github.com/docuflow/docuflow-backend/pkg/messaging"
)

// ocrPreviewLimit caps how much OCR text is echoed back in the response
const ocrPreviewLimit = 500

// Service orchestrates the extraction pipeline: OCR → prompt → LLM → parse.
// Each request is an independent, synchronous chain; nothing is cached or
// retried.
type Service struct {
	engine    ocr.Engine
	client    llm.Client
	publisher *events.DocumentEventPublisher
	log       *logger.Logger
}

// NewService creates a new extraction service. publisher may be nil when
// event publishing is disabled.
func NewService(engine ocr.Engine, client llm.Client, publisher *events.DocumentEventPublisher, log *logger.Logger) *Service {
	return &Service{
		engine:    engine,
		client:    client,
		publisher: publisher,
		log:       log,
	}
}

// Extract runs the full pipeline over one document and returns the structured
// result. Errors are AppErrors carrying the HTTP status for the caller.
func (s *Service) Extract(ctx context.Context, documentID string, data []byte, kind domain.DocumentKind) (*domain.ExtractionResult, error) {
	start := time.Now()
	log := s.log.WithDocumentID(documentID)

	text, err := s.engine.Extract(ctx, data, kind)
	if err != nil {
		if errors.Is(err, ocr.ErrNoText) {
			log.Warn().Str("engine", s.engine.Name()).Msg("document contains no text")
			s.publishFailed(ctx, documentID, kind, "ocr", "no text found in document")
			return nil, errors.Unprocessable("EMPTY_DOCUMENT", "no text found in document")
		}
		log.Error().Err(err).Str("engine", s.engine.Name()).Msg("ocr failed")
		s.publishFailed(ctx, documentID, kind, "ocr", err.Error())
		return nil, errors.BadGateway(err, "OCR_FAILED", "OCR engine failed to process the document")
	}
	if strings.TrimSpace(text) == "" {
		log.Warn().Str("engine", s.engine.Name()).Msg("document contains no text")
		s.publishFailed(ctx, documentID, kind, "ocr", "no text found in document")
		return nil, errors.Unprocessable("EMPTY_DOCUMENT", "no text found in document")
	}

	log.Info().
		Str("engine", s.engine.Name()).
		Int("text_len", len(text)).
		Msg("ocr completed")

	completion, err := s.client.Complete(ctx, llm.BuildInvoicePrompt(text))
	if err != nil {
		log.Error().Err(err).Str("model", s.client.Model()).Msg("llm completion failed")
		s.publishFailed(ctx, documentID, kind, "llm", err.Error())
		return nil, errors.BadGateway(err, "LLM_FAILED", "language model failed to process the document")
	}

	invoice, err := llm.ParseInvoice(completion)
	if err != nil {
		log.Warn().Err(err).Str("model", s.client.Model()).Msg("llm output unparseable")
		s.publishFailed(ctx, documentID, kind, "llm", err.Error())
		return nil, errors.Unprocessable("EXTRACTION_UNPARSEABLE", "language model output did not conform to the invoice schema")
	}

	result := &domain.ExtractionResult{
		Status:           domain.StatusSuccess,
		Confidence:       domain.Confidence(invoice),
		Data:             *invoice,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		OCRTextPreview:   preview(text),
	}

	// Fire-and-forget; a broker outage must not fail the extraction
	go s.publishCompleted(ctx, documentID, kind, result)

	log.Info().
		Float64("confidence", result.Confidence).
		Int("line_items", len(result.Data.LineItems)).
		Int64("duration_ms", result.ProcessingTimeMs).
		Msg("extraction completed")

	return result, nil
}

// Health reports the availability of the external collaborators, including
// the event broker when publishing is enabled.
func (s *Service) Health(ctx context.Context) map[string]interface{} {
	health := map[string]interface{}{
		"tesseract_available": s.engine.Available(ctx),
		"ollama_available":    s.client.Available(ctx),
		"ollama_model":        s.client.Model(),
	}
	if broker := s.publisher.Health(); broker != nil {
		health["rabbitmq"] = broker
	}
	return health
}

func (s *Service) publishCompleted(ctx context.Context, documentID string, kind domain.DocumentKind, result *domain.ExtractionResult) {
	s.publisher.PublishExtractionCompleted(detach(ctx), documentID, kind, result)
}

func (s *Service) publishFailed(ctx context.Context, documentID string, kind domain.DocumentKind, stage, reason string) {
	go s.publisher.PublishExtractionFailed(detach(ctx), documentID, kind, stage, reason)
}

// detach keeps the correlation ID but drops request cancellation, so an
// in-flight publish survives the client disconnecting.
func detach(ctx context.Context) context.Context {
	return messaging.WithCorrelationID(context.Background(), messaging.CorrelationIDFromContext(ctx))
}

// preview truncates on rune boundaries so multibyte text stays valid UTF-8.
func preview(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= ocrPreviewLimit {
		return text
	}
	return string(runes[:ocrPreviewLimit]) + "..."
}
