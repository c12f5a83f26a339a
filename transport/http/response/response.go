package response

import (
	"encoding/json"
	"net/http"
	"venue/infras/otel"
	"venue/shared/constant"
	"venue/shared/failure"
	"venue/shared/logger"

	"github.com/rs/zerolog/log"
)

type Data[T any] struct {
	Data *T `json:"data,omitempty"`
}

// Error is the body of every non-2xx answer. Kind lets clients branch
// without parsing the message.
type Error struct {
	Error *string      `json:"error,omitempty"`
	Kind  failure.Kind `json:"kind,omitempty"`
}

type Message struct {
	Message *string `json:"message,omitempty"`
}

func WithMessage(writer http.ResponseWriter, code int, message string) {
	write(writer, code, Message{Message: &message})
}

func WithJSON(writer http.ResponseWriter, code int, payload any) {
	write(writer, code, Data[any]{Data: &payload})
}

// WithError renders err with the status of its Failure. Anything that is not
// a Failure is reported as a bare internal error; callers log the cause.
func WithError(writer http.ResponseWriter, err error) {
	code := failure.GetCode(err)

	message := err.Error()
	if code >= http.StatusInternalServerError {
		message = constant.ResponseErrorInternal
	}

	write(writer, code, Error{Error: &message, Kind: failure.KindOf(code)})
}

// Fail records err on the handler span, logs it with msg and renders it.
// Client errors are expected traffic and log at warn.
func Fail(writer http.ResponseWriter, scope otel.Scope, err error, msg string) {
	scope.TraceError(err)

	event := log.Error()
	if failure.IsClientError(err) {
		event = log.Warn()
	}

	event.Err(err).Msg(msg)

	WithError(writer, err)
}

func WithRequestLimitExceeded(writer http.ResponseWriter) {
	WithError(writer, &failure.Failure{Code: http.StatusTooManyRequests, Message: constant.ResponseErrorRequestLimitExceeded})
}

func WithPreparingShutdown(writer http.ResponseWriter) {
	WithMessage(writer, http.StatusServiceUnavailable, constant.ResponseErrorPrepareShutdown)
}

func WithUnhealthy(writer http.ResponseWriter) {
	WithMessage(writer, http.StatusServiceUnavailable, constant.ResponseErrorUnhealthy)
}

func write(writer http.ResponseWriter, code int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		logger.ErrorWithStack(err)

		return
	}

	writer.Header().Set(constant.RequestHeaderContentType, constant.ContentTypeJSON)
	writer.WriteHeader(code)

	if _, err = writer.Write(body); err != nil {
		logger.ErrorWithStack(err)
	}
}
