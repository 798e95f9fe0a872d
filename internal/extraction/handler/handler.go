package handler

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docuflow/docuflow-backend/internal/extraction/ocr"
	"github.com/docuflow/docuflow-backend/internal/extraction/service"
	"github.com/docuflow/docuflow-backend/pkg/config"
	"github.com/docuflow/docuflow-backend/pkg/errors"
	"github.com/docuflow/docuflow-backend/pkg/httputil"
	"github.com/docuflow/docuflow-backend/pkg/logger"
	"github.com/docuflow/docuflow-backend/pkg/messaging"
)

// allowedContentTypes are the declared MIME types the endpoint accepts
var allowedContentTypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
	"image/jpg":       true,
}

// Handler handles HTTP requests for invoice extraction
type Handler struct {
	service *service.Service
	upload  config.UploadConfig
	log     *logger.Logger
}

// NewHandler creates a new extraction handler
func NewHandler(svc *service.Service, upload config.UploadConfig, log *logger.Logger) *Handler {
	return &Handler{
		service: svc,
		upload:  upload,
		log:     log,
	}
}

// Extract handles POST /api/v1/extract/invoice
// Accepts a multipart form with a single "file" field holding a PDF, PNG,
// or JPEG invoice/receipt.
func (h *Handler) Extract(w http.ResponseWriter, r *http.Request) {
	// Limit request size
	r.Body = http.MaxBytesReader(w, r.Body, h.upload.MaxSizeBytes)

	if err := r.ParseMultipartForm(h.upload.MaxSizeBytes); err != nil {
		httputil.Error(w, errors.BadRequest("file too large or invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.Error(w, errors.BadRequest("missing file in request"))
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !h.upload.Allowed(ext) {
		httputil.Error(w, errors.New("UNSUPPORTED_DOCUMENT",
			"unsupported file extension, allowed: "+strings.Join(h.upload.AllowedExtensions, ", "),
			http.StatusBadRequest))
		return
	}

	if declared := header.Header.Get("Content-Type"); !allowedContentTypes[declared] {
		httputil.Error(w, errors.New("UNSUPPORTED_DOCUMENT",
			"unsupported content type: "+declared,
			http.StatusBadRequest))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		httputil.Error(w, errors.Internal("failed to read uploaded file"))
		return
	}

	// The declared type is client-controlled; the bytes have the final say
	kind, ok := ocr.DetectKind(data)
	if !ok {
		httputil.Error(w, errors.New("UNSUPPORTED_DOCUMENT",
			"file content does not match a supported format (PDF, PNG, JPEG)",
			http.StatusBadRequest))
		return
	}

	requestID := httputil.GetRequestID(r.Context())
	documentID := uuid.New().String()
	h.log.WithRequestID(requestID).Info().
		Str("document_id", documentID).
		Str("kind", string(kind)).
		Int("size_bytes", len(data)).
		Msg("document accepted for extraction")

	// Events published downstream carry the request ID as correlation ID
	ctx := messaging.WithCorrelationID(r.Context(), requestID)

	result, err := h.service.Extract(ctx, documentID, data, kind)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":    "healthy",
		"service":   "extraction-service",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range h.service.Health(r.Context()) {
		body[k] = v
	}

	httputil.JSON(w, http.StatusOK, body)
}

// Root handles GET /
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{
		"service": "extraction-service",
		"extract": "POST /api/v1/extract/invoice",
		"health":  "GET /health",
	})
}
