package domain

import "math"

// DocumentKind is the sniffed format of an uploaded document
type DocumentKind string

const (
	KindPDF  DocumentKind = "pdf"
	KindPNG  DocumentKind = "png"
	KindJPEG DocumentKind = "jpeg"
)

// Status values reported in extraction responses
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// LineItem is a single invoice line
type LineItem struct {
	Description string   `json:"description" validate:"required"`
	Quantity    *float64 `json:"quantity"`
	UnitPrice   *float64 `json:"unit_price"`
	Total       *float64 `json:"total"`
}

// Invoice holds the structured fields extracted from a document.
// All fields are optional; nil means the OCR/LLM could not determine them.
type Invoice struct {
	VendorName    *string    `json:"vendor_name"`
	VendorAddress *string    `json:"vendor_address"`
	VendorPhone   *string    `json:"vendor_phone"`
	InvoiceNumber *string    `json:"invoice_number"`
	InvoiceDate   *string    `json:"invoice_date"`
	DueDate       *string    `json:"due_date"`
	Subtotal      *float64   `json:"subtotal"`
	Tax           *float64   `json:"tax"`
	Total         *float64   `json:"total"`
	Currency      string     `json:"currency" validate:"omitempty,len=3,alpha"`
	LineItems     []LineItem `json:"line_items" validate:"dive"`
}

// ExtractionResult is the response body for a successful extraction
type ExtractionResult struct {
	Status           string  `json:"status"`
	Confidence       float64 `json:"confidence"`
	Data             Invoice `json:"data"`
	ProcessingTimeMs int64   `json:"processing_time_ms"`
	OCRTextPreview   string  `json:"ocr_text_preview,omitempty"`
}

// confidenceFieldCount is the number of signals Confidence scores over
const confidenceFieldCount = 11

// Confidence scores an invoice by the fraction of fields the model filled in,
// rounded to two decimals. It is a coverage heuristic, not a correctness
// measure.
func Confidence(inv *Invoice) float64 {
	filled := 0
	for _, set := range []bool{
		inv.VendorName != nil,
		inv.VendorAddress != nil,
		inv.VendorPhone != nil,
		inv.InvoiceNumber != nil,
		inv.InvoiceDate != nil,
		inv.DueDate != nil,
		inv.Subtotal != nil,
		inv.Tax != nil,
		inv.Total != nil,
		inv.Currency != "",
		len(inv.LineItems) > 0,
	} {
		if set {
			filled++
		}
	}
	return math.Round(float64(filled)/confidenceFieldCount*100) / 100
}

// FieldKeys returns the names of the fields the model filled in. Used for
// event payloads, which must not carry the extracted values themselves.
func (inv *Invoice) FieldKeys() []string {
	keys := []string{}
	add := func(set bool, key string) {
		if set {
			keys = append(keys, key)
		}
	}
	add(inv.VendorName != nil, "vendor_name")
	add(inv.VendorAddress != nil, "vendor_address")
	add(inv.VendorPhone != nil, "vendor_phone")
	add(inv.InvoiceNumber != nil, "invoice_number")
	add(inv.InvoiceDate != nil, "invoice_date")
	add(inv.DueDate != nil, "due_date")
	add(inv.Subtotal != nil, "subtotal")
	add(inv.Tax != nil, "tax")
	add(inv.Total != nil, "total")
	add(inv.Currency != "", "currency")
	add(len(inv.LineItems) > 0, "line_items")
	return keys
}
