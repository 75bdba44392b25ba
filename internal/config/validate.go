package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() func(name string, doc *Document) error {
	v := validator.New()

	// Report fields by their yaml names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("volume", func(fl validator.FieldLevel) bool {
		_, err := ParseVolume(fl.Field().String())
		return err == nil
	})

	return func(name string, doc *Document) error {
		err := v.Struct(doc)
		if err == nil {
			return nil
		}
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return &ConfigError{Path: name, Reason: "validation failed", Err: err}
		}
		errs := make([]error, 0, len(verrs))
		for _, fe := range verrs {
			errs = append(errs, &ConfigError{
				Path:   name,
				Field:  stripPrefix(fe.Namespace()),
				Reason: describe(fe),
			})
		}
		return errors.Join(errs...)
	}
}

// stripPrefix drops the root struct name from a validator namespace.
func stripPrefix(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "volume":
		return fmt.Sprintf("%q is not host:container[:mode]", fe.Value())
	case "min", "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be <= %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be > %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}
