package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gurmeharsomal/media-screening-tool/internal/server/middleware"
	"github.com/gurmeharsomal/media-screening-tool/internal/types"
)

const internalErrorMessage = "Internal server error"

// HealthResponse represents the response for /health
type HealthResponse struct {
	Status string `json:"status"`
}

// ValidationErrorResponse represents a 422 response body
type ValidationErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

// handleMatch screens an article against a candidate
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)

	var req types.MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.handleError(w, r, &ErrBadRequest{Message: err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		s.handleError(w, r, NewValidationError(err))
		return
	}

	verdict, err := s.screener.Screen(r.Context(), req.Candidate, req.Article)
	if err != nil {
		s.handleError(w, r, NewValidationError(err))
		return
	}

	s.jsonResponse(w, http.StatusOK, verdict)
}

// handleError maps err to a status and a response body. Internal failures never leak details.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	requestID := middleware.GetRequestID(r.Context())

	var validation *ErrValidation
	switch {
	case errors.As(err, &validation):
		s.jsonResponse(w, status, ValidationErrorResponse{Error: "Validation failed", Fields: validation.Fields})
	case status == http.StatusInternalServerError:
		s.logger.Errorw("screening failed", "error", err, "request_id", requestID)
		s.errorResponse(w, status, internalErrorMessage)
	default:
		s.errorResponse(w, status, err.Error())
	}
}
