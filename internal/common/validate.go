package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "-" {
			return ""
		}
		if tag == "" {
			return f.Name
		}
		return tag
	})
	// numeric tags such as gte and lte compare decimals by value
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// Validator returns the shared validator. Field names in its errors are the json names.
func Validator() *validator.Validate { return validate }

// FieldErrors flattens validator errors into field names (in struct order) and per-field messages.
func FieldErrors(err error) ([]string, map[string]string) {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return nil, nil
	}
	fields := make([]string, 0, len(errs))
	messages := make(map[string]string, len(errs))
	for _, fe := range errs {
		name := fe.Field()
		if _, seen := messages[name]; seen {
			continue
		}
		fields = append(fields, name)
		messages[name] = validationMessage(fe)
	}
	return fields, messages
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "gte", "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte", "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	case "email":
		return "must be a valid email"
	case "datetime":
		return fmt.Sprintf("must match %s", fe.Param())
	}
	return "is invalid"
}

// ValidationError wraps field failures in the VALIDATION_ERROR shape.
func ValidationError(fields []string, messages map[string]string) *AppError {
	return &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    "validation failed",
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"fields": fields, "messages": messages},
	}
}

// ReadJSON decodes a JSON request body into dst, rejecting unknown fields.
func ReadJSON(r *http.Request, dst any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return &AppError{Code: "BAD_REQUEST", Message: "invalid JSON body", HTTPStatus: http.StatusBadRequest, Err: err}
	}
	return nil
}

// DecodeJSON reads a JSON request body into dst and runs struct validation on it.
func DecodeJSON(r *http.Request, dst any) error {
	if err := ReadJSON(r, dst); err != nil {
		return err
	}
	if err := validate.Struct(dst); err != nil {
		fields, messages := FieldErrors(err)
		if len(fields) == 0 {
			return &AppError{Code: "BAD_REQUEST", Message: "invalid request", HTTPStatus: http.StatusBadRequest, Err: err}
		}
		return ValidationError(fields, messages)
	}
	return nil
}

// WriteError renders err as an error envelope. Errors that are not AppErrors, and AppErrors with
// status 500, are rendered with a generic message so driver messages never reach the client.
func WriteError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		code := appErr.Code
		if code == "" {
			code = "INTERNAL"
		}
		message := appErr.Message
		if message == "" || status == http.StatusInternalServerError {
			message = "internal error"
		}
		var details any
		if appErr.Details != nil {
			details = appErr.Details
		}
		if appErr.Err != nil {
			var syntaxErr *json.SyntaxError
			if errors.As(appErr.Err, &syntaxErr) {
				details = map[string]any{"offset": syntaxErr.Offset}
			}
		}
		JSONError(w, status, code, message, details)
		return
	}
	JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
