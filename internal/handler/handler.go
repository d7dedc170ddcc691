// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Shivanand-hulikatti/school-portal/internal/apperr"
	"github.com/Shivanand-hulikatti/school-portal/internal/auth"
	"github.com/Shivanand-hulikatti/school-portal/internal/logger"
	"github.com/Shivanand-hulikatti/school-portal/internal/model"
	"github.com/Shivanand-hulikatti/school-portal/internal/validate"
)

const maxBodyBytes = 1 << 20

// validationResponse is the 400 body for request structs that fail their rules.
type validationResponse struct {
	Error  string               `json:"error"`
	Fields validate.FieldErrors `json:"fields"`
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

// decodeJSON reads a single JSON object from the request body. io.EOF is
// returned untouched for an empty body so callers can treat it as optional.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// base carries what every handler needs to answer errors.
type base struct {
	log logger.Logger
}

// bind decodes the body and answers 400 itself when that fails.
func (b base) bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "request body is required")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// fail translates a service error to the response the client sees.
// Unclassified errors are reported and answered with a generic message.
func (b base) fail(w http.ResponseWriter, r *http.Request, err error) {
	var fields validate.FieldErrors
	switch {
	case errors.As(err, &fields):
		writeJSON(w, http.StatusBadRequest, validationResponse{Error: "validation failed", Fields: fields})
		return
	case errors.Is(err, apperr.ErrEventFull):
		writeJSON(w, http.StatusBadRequest, model.FullResponse{Error: "Event is full", Waitlist: true})
		return
	}

	status := apperr.Status(err)
	if status == http.StatusInternalServerError {
		f := logger.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"request_id": chimiddleware.GetReqID(r.Context()),
		}
		if p, ok := auth.FromContext(r.Context()); ok {
			f["user_id"] = p.UserID
		}
		b.log.Error("request failed", err, f)
	}
	writeError(w, status, apperr.Message(err))
}

// principal returns the authenticated caller or nil.
func principal(r *http.Request) *auth.Principal {
	p, _ := auth.FromContext(r.Context())
	return p
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
