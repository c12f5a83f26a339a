package validator

import (
	"encoding/json"
	"io"
	"reflect"
	"strings"
	"time"
	"venue/shared/constant"
	"venue/shared/failure"

	val "github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

const maxBodyBytes = 1 << 20

var validate = newValidate()

func layout(format string) val.Func {
	return func(field val.FieldLevel) bool {
		str, ok := field.Field().Interface().(string)
		if !ok {
			return false
		}

		_, err := time.Parse(format, str)

		return err == nil
	}
}

func newValidate() *val.Validate {
	v := val.New(val.WithRequiredStructEnabled())

	// Report fields under their JSON names.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return field.Name
		}

		return name
	})

	custom := map[string]val.Func{
		"empty":    func(fl val.FieldLevel) bool { return fl.Field().IsZero() },
		"dateonly": layout(constant.DateOnlyFormat),
		"clock":    layout(constant.ClockFormat),
	}

	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}

	return v
}

// Validate decodes one JSON document from r into data and validates it.
// Bodies over 1 MiB are rejected.
func Validate[T any](r io.Reader, data *T) error {
	err := json.NewDecoder(io.LimitReader(r, maxBodyBytes)).Decode(data)

	switch {
	case errors.Is(err, io.EOF):
		return failure.BadRequestFromString("request body is empty")
	case err != nil:
		return failure.BadRequest(errors.Wrap(err, "failed to decode request body"))
	}

	return ValidateStruct(data)
}

func ValidateStruct[T any](data *T) error {
	if err := validate.Struct(data); err != nil {
		return failure.BadRequestFromString(message(err))
	}

	return nil
}

func ValidateVar(field any, tag string) error {
	if err := validate.Var(field, tag); err != nil {
		return failure.BadRequestFromString(message(err))
	}

	return nil
}
