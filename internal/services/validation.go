package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/AnshRaj112/mindfulkids-backend/internal/apperrors"
)

var validate = func() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

// validateStruct runs the struct's validate tags and reports the first failure as a
// VALIDATION_ERROR naming the field.
func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.Validation("invalid request")
	}
	fe := fieldErrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return apperrors.Validation(field + " is required")
	case "email":
		return apperrors.Validation(field + " must be a valid e-mail address")
	case "url":
		return apperrors.Validation(field + " must be a valid URL")
	case "max":
		return apperrors.Validation(fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
	case "min":
		return apperrors.Validation(fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
	default:
		return apperrors.Validation(field + " is invalid")
	}
}
