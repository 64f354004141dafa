package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vanshika/remitdesk/internal/domain"
)

// FieldError describes one invalid input field by its JSON path.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every field error found in a submission.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var submissionValidator = newSubmissionValidator()

func newSubmissionValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if a, ok := field.Interface().(AmountInput); ok {
			return a.Value()
		}
		return nil
	}, AmountInput{})
	if err := v.RegisterValidation("idtype", func(fl validator.FieldLevel) bool {
		return domain.IDType(fl.Field().String()).Valid()
	}); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
		switch fl.Field().Interface().(type) {
		case string, json.Number, float64, int, int64:
			return true
		}
		return false
	}); err != nil {
		panic(err)
	}
	return v
}

// ValidateSubmission checks in and returns a *ValidationError listing every
// offending field, or nil.
func ValidateSubmission(in SubmissionInput) error {
	err := submissionValidator.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate submission: %w", err)
	}

	out := &ValidationError{Errors: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		field := fieldPath(fe.Namespace())
		out.Errors = append(out.Errors, FieldError{Field: field, Message: fieldMessage(field, fe)})
	}
	return out
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	_, path, ok := strings.Cut(namespace, ".")
	if !ok {
		return namespace
	}
	return path
}

func fieldMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return field + " is required"
	case "oneof":
		return field + " must be one of: " + strings.Join(strings.Fields(fe.Param()), ", ")
	case "idtype":
		names := make([]string, len(domain.IDTypes))
		for i, t := range domain.IDTypes {
			names[i] = string(t)
		}
		return field + " must be one of: " + strings.Join(names, ", ")
	case "amount":
		return field + " must be a string or number"
	default:
		return field + " is invalid"
	}
}

// DecodeSubmission decodes a JSON body into the typed input and the verbatim
// raw map. Known fields carrying the wrong JSON type are dropped from the typed
// input and reported together with every other field error as a
// *ValidationError.
func DecodeSubmission(body []byte) (SubmissionInput, map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return SubmissionInput{}, nil, bodyError("body must be a JSON object")
	}

	// A second pass keeps numbers as json.Number so amounts survive re-encoding.
	var lenient map[string]any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&lenient); err != nil {
		return SubmissionInput{}, nil, bodyError("body must be a JSON object")
	}
	typeErrs := dropMistyped(lenient, reflect.TypeOf(SubmissionInput{}), "")

	cleaned, err := json.Marshal(lenient)
	if err != nil {
		return SubmissionInput{}, nil, fmt.Errorf("re-encode submission: %w", err)
	}
	var in SubmissionInput
	if err := json.Unmarshal(cleaned, &in); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			typeErrs = append(typeErrs, FieldError{
				Field:   typeErr.Field,
				Message: fmt.Sprintf("%s must be a %s", typeErr.Field, typeErr.Type.Kind()),
			})
		} else {
			return SubmissionInput{}, nil, bodyError(err.Error())
		}
	}

	if len(typeErrs) == 0 {
		return in, raw, nil
	}
	return SubmissionInput{}, nil, mergeFieldErrors(typeErrs, ValidateSubmission(in.trimmed()))
}

func bodyError(msg string) *ValidationError {
	return &ValidationError{Errors: []FieldError{{Field: "body", Message: msg}}}
}

var amountInputType = reflect.TypeOf(AmountInput{})

// dropMistyped removes values whose JSON type cannot populate the matching
// field of t and returns one FieldError per removal.
func dropMistyped(m map[string]any, t reflect.Type, prefix string) []FieldError {
	var errs []FieldError
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		v, ok := m[name]
		if !ok || v == nil {
			continue
		}
		path := prefix + name

		switch {
		case f.Type == amountInputType:
		case f.Type.Kind() == reflect.String:
			if _, ok := v.(string); !ok {
				delete(m, name)
				errs = append(errs, FieldError{Field: path, Message: path + " must be a string"})
			}
		case f.Type.Kind() == reflect.Struct:
			nested, ok := v.(map[string]any)
			if !ok {
				delete(m, name)
				errs = append(errs, FieldError{Field: path, Message: path + " must be an object"})
				continue
			}
			errs = append(errs, dropMistyped(nested, f.Type, path+".")...)
		}
	}
	return errs
}

// mergeFieldErrors appends the errors of validationErr for fields not already
// listed in first.
func mergeFieldErrors(first []FieldError, validationErr error) *ValidationError {
	out := &ValidationError{Errors: first}
	var verr *ValidationError
	if !errors.As(validationErr, &verr) {
		return out
	}
	seen := make(map[string]struct{}, len(first))
	for _, fe := range first {
		seen[fe.Field] = struct{}{}
	}
	for _, fe := range verr.Errors {
		if _, dup := seen[fe.Field]; dup {
			continue
		}
		if _, parentDup := seen[parentPath(fe.Field)]; parentDup {
			continue
		}
		out.Errors = append(out.Errors, fe)
	}
	return out
}

func parentPath(field string) string {
	parent, _, ok := strings.Cut(field, ".")
	if !ok {
		return ""
	}
	return parent
}
