package service

import (
	"reflect"
	"strings"

	"github.com/example/codequiz/pkg/models"
	"github.com/go-playground/validator/v10"
)

// newValidator creates a validator with the quiz rules registered and
// JSON field names in error reports
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	v.RegisterValidation("option_letter", validateOptionLetter)
	return v
}

// validateOptionLetter accepts A, B, C or D
func validateOptionLetter(fl validator.FieldLevel) bool {
	letter := fl.Field().String()
	for _, l := range models.OptionLetters {
		if letter == l {
			return true
		}
	}
	return false
}
