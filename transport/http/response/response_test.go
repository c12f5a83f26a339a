package response_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"venue/infras/otel/mocks"
	"venue/shared/constant"
	"venue/shared/failure"
	"venue/transport/http/response"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
		wantKind    failure.Kind
	}{
		{
			name:        "conflict",
			err:         failure.Conflict("time slot is not available"),
			wantStatus:  http.StatusConflict,
			wantMessage: "time slot is not available",
			wantKind:    failure.KindConflict,
		},
		{
			name:        "wrapped invalid state",
			err:         fmt.Errorf("decide: %w", failure.InvalidState("booking already decided")),
			wantStatus:  http.StatusUnprocessableEntity,
			wantMessage: "decide: booking already decided",
			wantKind:    failure.KindInvalidState,
		},
		{
			name:        "infrastructure error is masked",
			err:         errors.New("pq: connection refused"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: constant.ResponseErrorInternal,
			wantKind:    failure.KindInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()

			response.WithError(recorder, tt.err)

			var body struct {
				Error string       `json:"error"`
				Kind  failure.Kind `json:"kind"`
			}

			require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
			assert.Equal(t, tt.wantStatus, recorder.Code)
			assert.Equal(t, constant.ContentTypeJSON, recorder.Header().Get(constant.RequestHeaderContentType))
			assert.Equal(t, tt.wantMessage, body.Error)
			assert.Equal(t, tt.wantKind, body.Kind)
		})
	}
}

func TestWithJSON(t *testing.T) {
	recorder := httptest.NewRecorder()

	response.WithJSON(recorder, http.StatusOK, map[string]bool{"available": true})

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"data":{"available":true}}`, recorder.Body.String())
}

func TestWithRequestLimitExceeded(t *testing.T) {
	recorder := httptest.NewRecorder()

	response.WithRequestLimitExceeded(recorder)

	assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
	assert.JSONEq(t, `{"error":"REQUEST LIMIT EXCEEDED","kind":"rate_limited"}`, recorder.Body.String())
}

func TestFail(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "client error", err: failure.NotFound("booking not found"), wantStatus: http.StatusNotFound},
		{name: "server error", err: errors.New("connection reset"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope := mocks.NewScope("handler.Test")
			recorder := httptest.NewRecorder()

			response.Fail(recorder, scope, tt.err, "request failed")

			assert.Equal(t, tt.wantStatus, recorder.Code)
			assert.Equal(t, []error{tt.err}, scope.Errors())
		})
	}
}
