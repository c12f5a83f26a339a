package validator

import (
	"errors"
	"strings"

	val "github.com/go-playground/validator/v10"
)

var messages = map[string]string{
	"required": "{field} is required",
	"gte":      "{field} must be greater than or equal to {param}",
	"lte":      "{field} must be less than or equal to {param}",
	"min":      "{field} must be at least {param}",
	"max":      "{field} must be at most {param}",
	"oneof":    "{field} must be one of {param}",
	"email":    "{field} must be a valid email address",
	"alphanum": "{field} must only contain letters and digits",
	"uuid":     "{field} must be a valid UUID",
	"dateonly": "{field} must be a date in YYYY-MM-DD format",
	"clock":    "{field} must be a time in HH:MM format",
	"empty":    "{field} must be empty",
	"dive":     "{field} contains an invalid item",
	"nefield":  "{field} must differ from {param}",
}

// message renders one line per failed field, joined with "; ".
func message(err error) string {
	var fieldErrors val.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err.Error()
	}

	lines := make([]string, 0, len(fieldErrors))

	for _, fieldErr := range fieldErrors {
		template, ok := messages[fieldErr.Tag()]
		if !ok {
			lines = append(lines, fieldErr.Error())

			continue
		}

		lines = append(lines, strings.NewReplacer(
			"{field}", fieldErr.Field(),
			"{param}", fieldErr.Param(),
		).Replace(template))
	}

	return strings.Join(lines, "; ")
}
