package events

import (
	"context"

	"github.com/docuflow/docuflow-backend/internal/extraction/domain"
	"github.com/docuflow/docuflow-backend/pkg/logger"
	"github.com/docuflow/docuflow-backend/pkg/messaging"
)

// DocumentEventPublisher publishes extraction lifecycle events.
// A nil publisher is valid and drops everything, so the service can run
// without a broker.
type DocumentEventPublisher struct {
	publisher *messaging.Publisher
	rmq       *messaging.RabbitMQ
	logger    *logger.Logger
}

// NewDocumentEventPublisher creates a new document event publisher
func NewDocumentEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*DocumentEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeDocumentEvents, "extraction-service", log)
	if err != nil {
		return nil, err
	}

	return &DocumentEventPublisher{
		publisher: publisher,
		rmq:       rmq,
		logger:    log,
	}, nil
}

// Health reports broker connection status, or nil when events are disabled.
func (p *DocumentEventPublisher) Health() map[string]string {
	if p == nil {
		return nil
	}
	return p.rmq.Health()
}

// PublishExtractionCompleted publishes a completed event. Only field keys and
// timing leave the process; extracted values, OCR text, and document bytes
// never do.
func (p *DocumentEventPublisher) PublishExtractionCompleted(ctx context.Context, documentID string, kind domain.DocumentKind, result *domain.ExtractionResult) {
	if p == nil {
		return
	}

	data := messaging.ExtractionCompletedEvent{
		DocumentID:       documentID,
		DocumentKind:     string(kind),
		FieldsExtracted:  result.Data.FieldKeys(),
		LineItemCount:    len(result.Data.LineItems),
		Confidence:       result.Confidence,
		ProcessingTimeMs: result.ProcessingTimeMs,
	}

	if err := p.publisher.Publish(ctx, messaging.EventExtractionCompleted, data); err != nil {
		p.logger.Error().Err(err).Str("document_id", documentID).Msg("failed to publish extraction completed event")
	}
}

// PublishExtractionFailed publishes a failed event with the pipeline stage
// ("ocr" or "llm") and a short reason.
func (p *DocumentEventPublisher) PublishExtractionFailed(ctx context.Context, documentID string, kind domain.DocumentKind, stage, reason string) {
	if p == nil {
		return
	}

	data := messaging.ExtractionFailedEvent{
		DocumentID:   documentID,
		DocumentKind: string(kind),
		Stage:        stage,
		Reason:       reason,
	}

	if err := p.publisher.Publish(ctx, messaging.EventExtractionFailed, data); err != nil {
		p.logger.Error().Err(err).Str("document_id", documentID).Msg("failed to publish extraction failed event")
	}
}
