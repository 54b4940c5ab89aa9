package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edukasys/sfa-records-api/internal/lifecycle"
	appErrors "github.com/edukasys/sfa-records-api/pkg/errors"
)

// Deps bundles the cross-cutting collaborators shared by record services.
type Deps struct {
	Recorder  lifecycle.Recorder
	Observer  lifecycle.Observer
	Validator *validator.Validate
	Logger    *zap.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Validator == nil {
		d.Validator = NewValidator()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return d
}

// NewValidator builds a validator that reports json tag names in errors.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationError converts validator failures into a 422 with a per-field
// message map.
func validationError(err error, message string) *appErrors.Error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return appErrors.WithFields(appErrors.Clone(appErrors.ErrValidation, message), fields)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed the %s rule", fe.Tag())
	}
}
