package failure_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"venue/shared/failure"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{
			name:    "bad request from error",
			err:     failure.BadRequest(errors.New("start_time must be before end_time")),
			code:    http.StatusBadRequest,
			message: "start_time must be before end_time",
		},
		{
			name:    "bad request from string",
			err:     failure.BadRequestFromString("invalid booking_date"),
			code:    http.StatusBadRequest,
			message: "invalid booking_date",
		},
		{
			name:    "unauthorized",
			err:     failure.Unauthorized("token expired"),
			code:    http.StatusUnauthorized,
			message: "token expired",
		},
		{
			name:    "not found",
			err:     failure.NotFound("booking not found"),
			code:    http.StatusNotFound,
			message: "booking not found",
		},
		{
			name:    "conflict",
			err:     failure.Conflict("time slot is not available"),
			code:    http.StatusConflict,
			message: "time slot is not available",
		},
		{
			name:    "invalid state",
			err:     failure.InvalidState("only pending bookings can be decided"),
			code:    http.StatusUnprocessableEntity,
			message: "only pending bookings can be decided",
		},
		{
			name:    "forbidden",
			err:     failure.Forbidden("not your booking"),
			code:    http.StatusForbidden,
			message: "not your booking",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f *failure.Failure

			require.ErrorAs(t, tt.err, &f)
			assert.Equal(t, tt.code, f.Code)
			assert.Equal(t, tt.message, f.Error())
		})
	}
}

func TestNilPassthrough(t *testing.T) {
	assert.NoError(t, failure.BadRequest(nil))
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		input    error
		expected int
	}{
		{
			name:     "failure",
			input:    failure.Conflict("taken"),
			expected: http.StatusConflict,
		},
		{
			name:     "wrapped failure",
			input:    fmt.Errorf("create booking: %w", failure.InvalidState("approved")),
			expected: http.StatusUnprocessableEntity,
		},
		{
			name:     "plain error",
			input:    errors.New("boom"),
			expected: http.StatusInternalServerError,
		},
		{
			name:     "nil",
			input:    nil,
			expected: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, failure.GetCode(tt.input))
		})
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		name     string
		input    error
		kind     failure.Kind
		isClient bool
	}{
		{name: "validation", input: failure.BadRequestFromString("bad date"), kind: failure.KindValidation, isClient: true},
		{name: "not found", input: failure.NotFound("booking not found"), kind: failure.KindNotFound, isClient: true},
		{name: "conflict", input: failure.Conflict("taken"), kind: failure.KindConflict, isClient: true},
		{name: "invalid state", input: failure.InvalidState("approved"), kind: failure.KindInvalidState, isClient: true},
		{name: "forbidden", input: failure.ForbiddenError, kind: failure.KindForbidden, isClient: true},
		{name: "wrapped", input: fmt.Errorf("decide: %w", failure.InvalidState("rejected")), kind: failure.KindInvalidState, isClient: true},
		{name: "plain error", input: errors.New("connection reset"), kind: failure.KindInternal},
		{name: "unmapped client code", input: &failure.Failure{Code: http.StatusGone, Message: "gone"}, kind: failure.KindValidation, isClient: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, failure.GetKind(tt.input))
			assert.Equal(t, tt.isClient, failure.IsClientError(tt.input))
		})
	}
}
