package types

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStageErrorMatchesSentinel(t *testing.T) {
	err := NewStageError("req-1", "parsing", ErrParseFailure, "2 attempts")
	wrapped := fmt.Errorf("orchestrator: %w", err)

	assert.True(t, errors.Is(wrapped, ErrParseFailure))
	assert.False(t, errors.Is(wrapped, ErrExtraction))

	var se *StageError
	assert.True(t, errors.As(wrapped, &se))
	assert.Equal(t, "parsing", se.Stage)
	assert.Contains(t, err.Error(), "request:req-1")
}

func TestErrorKindAndStatus(t *testing.T) {
	cases := []struct {
		err    error
		kind   string
		status int
	}{
		{NewStageError("r", "received", ErrInvalidInput, "Job description is required"), "InvalidInput", http.StatusBadRequest},
		{NewStageError("r", "extracting", ErrExtraction, "corrupt"), "ExtractionError", http.StatusInternalServerError},
		{fmt.Errorf("%w: %w", ErrParseFailure, ErrMalformedOutput), "ParseFailure", http.StatusInternalServerError},
		{ErrModelUnavailable, "ModelUnavailable", http.StatusInternalServerError},
		{ErrEmbedding, "EmbeddingError", http.StatusInternalServerError},
		{errors.New("boom"), "Internal", http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.kind, ErrorKind(c.err), c.err.Error())
		assert.Equal(t, c.status, HTTPStatus(c.err), c.err.Error())
	}
	assert.Equal(t, "", ErrorKind(nil))
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "Job description is required",
		PublicMessage(NewStageError("r", "received", ErrInvalidInput, "Job description is required")))
	assert.Equal(t, "Failed to parse resume content from LLM output", PublicMessage(ErrParseFailure))
	assert.Equal(t, "Request timed out", PublicMessage(fmt.Errorf("wrap: %w", context.DeadlineExceeded)))
	assert.Equal(t, "Internal server error", PublicMessage(errors.New("secret detail")))
}

func TestNormalizeReplacesNilSlices(t *testing.T) {
	p := CandidateProfile{Name: "John Doe"}
	p.Normalize()
	assert.NotNil(t, p.Skills)
	assert.NotNil(t, p.Education)
	assert.Empty(t, p.Links)

	a := FitAnalysis{}
	a.Normalize()
	assert.NotNil(t, a.Strengths)
	assert.NotNil(t, a.Improvements)
}
