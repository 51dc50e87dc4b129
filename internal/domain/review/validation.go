package review

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Los mensajes usan los nombres json que envió el cliente.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidatePayload corre las reglas de tags y los chequeos propios del payload.
func ValidatePayload(p Payload) error {
	if p == nil {
		return invalid("payload", "payload is required")
	}
	if err := validate.Struct(p); err != nil {
		return validationError(err)
	}
	return p.check()
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return invalid("payload", err.Error())
	}

	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, describe(e))
	}
	return invalid(verrs[0].Field(), strings.Join(msgs, "; "))
}

func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "email":
		return e.Field() + " must be an email"
	case "url":
		return e.Field() + " must be a URL"
	case "datetime":
		return e.Field() + " must be a date (" + e.Param() + ")"
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "min":
		return e.Field() + " must have at least " + e.Param() + " entries"
	default:
		return e.Field() + " is invalid"
	}
}
