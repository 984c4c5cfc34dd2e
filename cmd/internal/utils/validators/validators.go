package validators

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	humanNameRe = regexp.MustCompile(`^[A-Za-zÁÉÍÓÚÜÑáéíóúüñ' -]+$`)
	phoneRe     = regexp.MustCompile(`^(\+504\s?|504\s?|\(504\)\s?)?(\d{4})[- ]?(\d{4})$`)
)

func HasUpper(fl validator.FieldLevel) bool {
	return strings.ContainsFunc(fl.Field().String(), unicode.IsUpper)
}

func HasLower(fl validator.FieldLevel) bool {
	return strings.ContainsFunc(fl.Field().String(), unicode.IsLower)
}

func HasDigit(fl validator.FieldLevel) bool {
	return strings.ContainsFunc(fl.Field().String(), unicode.IsDigit)
}

func HasSpecial(fl validator.FieldLevel) bool {
	return strings.ContainsAny(fl.Field().String(), "@$!%*?&")
}

func NoWhiteSpaces(fl validator.FieldLevel) bool {
	return !strings.ContainsFunc(fl.Field().String(), unicode.IsSpace)
}

func IsIso8601(fl validator.FieldLevel) bool {
	_, err := time.Parse(time.RFC3339, fl.Field().String())
	return err == nil
}

// HumanName accepts latin letters (including Spanish accents),
// apostrophes, hyphens and spaces.
func HumanName(fl validator.FieldLevel) bool {
	return humanNameRe.MatchString(fl.Field().String())
}

// PhoneNumber accepts Honduran 8-digit numbers with an optional
// +504 / 504 / (504) prefix.
func PhoneNumber(fl validator.FieldLevel) bool {
	return phoneRe.MatchString(fl.Field().String())
}
