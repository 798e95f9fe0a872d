package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/docuflow/docuflow-backend/internal/extraction/domain"
)

// ErrNoJSON is returned when no JSON object can be located in the completion.
var ErrNoJSON = errors.New("completion contains no JSON object")

var validate = validator.New()

// ParseInvoice turns a raw model completion into a validated invoice.
// Models wrap output in markdown fences or chat preamble despite the prompt
// rules, so the parser strips fences and extracts the outermost JSON object
// before unmarshaling.
func ParseInvoice(raw string) (*domain.Invoice, error) {
	text := stripFences(strings.TrimSpace(raw))

	jsonText := extractJSON(text)
	if jsonText == "" {
		return nil, ErrNoJSON
	}

	var inv domain.Invoice
	if err := json.Unmarshal([]byte(jsonText), &inv); err != nil {
		return nil, fmt.Errorf("unmarshal completion: %w", err)
	}

	normalize(&inv)

	if err := validate.Struct(&inv); err != nil {
		return nil, fmt.Errorf("completion violates invoice schema: %w", err)
	}

	return &inv, nil
}

// stripFences removes markdown code fences around the completion
func stripFences(text string) string {
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// extractJSON returns the outermost {...} block, or "" when there is none
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")

	if start == -1 || end == -1 || end <= start {
		return ""
	}

	return text[start : end+1]
}

// normalize applies schema defaults the model is allowed to omit
func normalize(inv *domain.Invoice) {
	inv.Currency = strings.ToUpper(strings.TrimSpace(inv.Currency))
	if inv.Currency == "" {
		inv.Currency = "USD"
	}
}
