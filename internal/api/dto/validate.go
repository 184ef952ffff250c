package dto

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate runs struct-tag validation and returns field-level errors keyed
// by the lowercased field name, or nil when the payload is valid.
func Validate(payload any) map[string]any {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]any{"payload": "invalid request"}
	}
	fields := make(map[string]any, len(validationErrs))
	for _, fieldErr := range validationErrs {
		name := strings.ToLower(fieldErr.Field())
		switch fieldErr.Tag() {
		case "required":
			fields[name] = fmt.Sprintf("%s is required", name)
		case "email":
			fields[name] = "must be a valid email address"
		default:
			fields[name] = fmt.Sprintf("failed %s validation", fieldErr.Tag())
		}
	}
	return fields
}
