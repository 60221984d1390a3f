package core

// validation.go applies the per-field validation tags declared in entity schemas.
//
// Tags use go-playground/validator syntax and are checked against the coerced
// value, not the raw cell:
//
//	validate: "omitempty,email"     on a text field
//	validate: "min=1,max=5"         on an integer field
//
// Enum fields get an implicit oneof tag built from their allowed values.
// Findings are reported as RowIssues; they never stop the row from mapping.

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func fieldValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidationError represents a single validation failure for a field.
type ValidationError struct {
	Field   string // Target field name
	Tag     string // Failing validator tag
	Value   string // The offending value
	Message string // Human-readable message
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// validationTag returns the tag checked for a field, or "" if none applies.
func validationTag(f FieldSpec) string {
	tags := make([]string, 0, 2)
	if f.Type == FieldEnum && len(f.EnumValues) > 0 {
		tags = append(tags, "oneof="+strings.Join(f.EnumValues, " "))
	}
	if f.Validate != "" {
		tags = append(tags, f.Validate)
	}
	return strings.Join(tags, ",")
}

// ValidateValue checks a coerced value against the field's tag.
// Nil values are not validated; the required check is the mapper's job.
func ValidateValue(f FieldSpec, value any) *ValidationError {
	tag := validationTag(f)
	if tag == "" || value == nil {
		return nil
	}

	err := fieldValidator().Var(value, tag)
	if err == nil {
		return nil
	}

	verr := &ValidationError{
		Field: f.Name,
		Value: fmt.Sprint(value),
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		verr.Tag = fe.Tag()
		verr.Message = describeTag(fe.Tag(), fe.Param())
	} else {
		verr.Message = err.Error()
	}
	return verr
}

func describeTag(tag, param string) string {
	switch tag {
	case "oneof":
		return fmt.Sprintf("invalid enum: must be one of %s", strings.ReplaceAll(param, " ", ", "))
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", param)
	case "max":
		return fmt.Sprintf("must be at most %s", param)
	case "url":
		return "must be a valid URL"
	default:
		if param != "" {
			return fmt.Sprintf("failed %s=%s", tag, param)
		}
		return fmt.Sprintf("failed %s", tag)
	}
}
