package receipt

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/zombor/receipt-reconciler/internal/reconcile"
	"github.com/zombor/receipt-reconciler/internal/scanning"
)

const (
	// Phone photos are large
	maxUploadSize = int64(50 << 20)
	// maxExtractionSize bounds the JSON accepted by the reconcile endpoint
	maxExtractionSize = int64(1 << 20)
)

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// writeJSON writes v with the given status code
func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Error encoding response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, message string) {
	s.writeJSON(w, code, map[string]string{"error": message})
}

// errorResponse maps a processing error to an HTTP status and a message
// that is safe to show to the uploader
func errorResponse(err error) (int, string) {
	var providerErr *scanning.ProviderError
	switch {
	case errors.Is(err, scanning.ErrMalformedExtraction):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, scanning.ErrUnsupportedImage):
		return http.StatusUnsupportedMediaType, err.Error()
	case errors.Is(err, reconcile.ErrInvalidNumericField), errors.Is(err, reconcile.ErrInvalidQuantity):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.As(err, &providerErr):
		if providerErr.Kind == scanning.KindRateLimited {
			return http.StatusTooManyRequests, providerErr.UserMessage()
		}
		return http.StatusBadGateway, providerErr.UserMessage()
	}
	return http.StatusInternalServerError, "Error processing receipt"
}

// handleScanReceipt scans an uploaded receipt image and reconciles it
func (s *Server) handleScanReceipt(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		s.logger.Error("Error parsing multipart form", "error", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "File is too large. Maximum size is 50MB. Please compress or resize your image.")
			return
		}
		s.writeError(w, http.StatusBadRequest, "Error parsing form")
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		s.logger.Error("Error getting file from form", "error", err)
		s.writeError(w, http.StatusBadRequest, "No file was selected. Please choose a file to upload.")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		s.logger.Error("Error reading file data", "error", err, "filename", header.Filename)
		s.writeError(w, http.StatusInternalServerError, "Error reading file. Please try again.")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = contentTypeFromFilename(header.Filename)
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))

	result, err := s.service.ScanReceipt(r.Context(), header.Filename, data, contentType)
	if err != nil {
		s.logger.Error("Error processing receipt", "filename", header.Filename, "error", err)
		code, message := errorResponse(err)
		s.writeError(w, code, message)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

// handleReconcile reconciles an extraction posted as JSON
func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxExtractionSize))
	if err != nil {
		s.writeError(w, http.StatusRequestEntityTooLarge, "Extraction is too large")
		return
	}

	raw, err := scanning.DecodeExtraction(body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.ReconcileExtraction(r.Context(), "request", raw)
	if err != nil {
		code, message := errorResponse(err)
		s.writeError(w, code, message)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

// handleHealth reports that the server is up
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
