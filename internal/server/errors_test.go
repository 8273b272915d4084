package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gurmeharsomal/media-screening-tool/internal/screening"
	"github.com/gurmeharsomal/media-screening-tool/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrBadRequest(t *testing.T) {
	err := &ErrBadRequest{Message: "unexpected EOF"}
	assert.Equal(t, "invalid request body: unexpected EOF", err.Error())
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
}

func TestErrValidation(t *testing.T) {
	err := &ErrValidation{Fields: map[string]string{"article": "is required", "candidate.name": "is required"}}
	assert.Equal(t, "validation error: article - is required; candidate.name - is required", err.Error())
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(err))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(fmt.Errorf("wrapped: %w", err)))
}

func TestHTTPStatus_Internal(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(screening.ErrInternal))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("unknown")))
}

func TestNewValidationError(t *testing.T) {
	req := types.MatchRequest{Candidate: types.CandidateProfile{Name: " "}}

	err := NewValidationError(req.Validate())

	var verr *ErrValidation
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, map[string]string{
		"candidate.name": "is required",
		"article":        "is required",
	}, verr.Fields)
}

func TestNewValidationError_PassesThroughOtherErrors(t *testing.T) {
	plain := errors.New("boom")
	assert.Same(t, plain, NewValidationError(plain))
}
