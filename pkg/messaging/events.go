package messaging

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types
const (
	EventExtractionCompleted = "document.extraction.completed"
	EventExtractionFailed    = "document.extraction.failed"
)

// Exchange names
const (
	ExchangeDocumentEvents = "document.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// ExtractionCompletedEvent is published after a document has been extracted.
// It carries metadata only; document bytes and OCR text never leave the request.
type ExtractionCompletedEvent struct {
	DocumentID       string   `json:"document_id"`
	DocumentKind     string   `json:"document_kind"`
	FieldsExtracted  []string `json:"fields_extracted"`
	LineItemCount    int      `json:"line_item_count"`
	Confidence       float64  `json:"confidence"`
	ProcessingTimeMs int64    `json:"processing_time_ms"`
}

// ExtractionFailedEvent is published when the pipeline fails at any stage.
type ExtractionFailedEvent struct {
	DocumentID   string `json:"document_id"`
	DocumentKind string `json:"document_kind"`
	Stage        string `json:"stage"` // "ocr" or "llm"
	Reason       string `json:"reason"`
}

// GenerateEventID generates a unique event identifier
func GenerateEventID() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), time.Now().Nanosecond()%10000)
}
