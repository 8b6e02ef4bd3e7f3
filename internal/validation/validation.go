// Package validation builds the validator shared by config loading,
// request payloads and response checks.
package validation

import (
	"errors"
	"fmt"
	"github.com/go-playground/validator/v10"
	"reflect"
	"regexp"
	"strings"
)

// Senegalese mobile number, with or without the country code.
var phoneRe = regexp.MustCompile(`^(\+221|00221|221)?7[0-8][0-9]{7}$`)

func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Имена полей берём из json-тегов (или yaml для конфига), чтобы ошибки совпадали с API
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, key := range []string{"json", "yaml"} {
			name, _, _ := strings.Cut(f.Tag.Get(key), ",")
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})

	if err := v.RegisterValidation("sn_phone", validatePhone); err != nil {
		panic(fmt.Sprintf("register sn_phone: %v", err))
	}

	return v
}

func validatePhone(fl validator.FieldLevel) bool {
	phone := strings.ReplaceAll(fl.Field().String(), " ", "")
	return phoneRe.MatchString(phone)
}

// Describe flattens validator errors into "field: rule" pairs.
func Describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		parts = append(parts, fe.Field()+": "+rule)
	}
	return strings.Join(parts, ", ")
}
