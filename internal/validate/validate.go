// Package validate holds input checks shared by the HTTP and service layers.
package validate

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nyaruka/phonenumbers"
)

var ErrInvalidPhone = errors.New("invalid phone number")

// Validator plugs go-playground/validator into echo's Context.Validate.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (cv *Validator) Validate(i any) error {
	return cv.v.Struct(i)
}

var std = validator.New(validator.WithRequiredStructEnabled())

// Email accepts local@domain.tld: the local part is non-empty and the domain
// has at least one dot with no empty labels.
func Email(s string) bool {
	if err := std.Var(s, "required,email"); err != nil {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	if at <= 0 {
		return false
	}
	domain := s[at+1:]
	if !strings.Contains(domain, ".") {
		return false
	}
	for _, label := range strings.Split(domain, ".") {
		if label == "" {
			return false
		}
	}
	return true
}

// Phone parses raw in the given default region and returns it in E.164.
func Phone(raw, region string) (string, error) {
	num, err := phonenumbers.Parse(strings.TrimSpace(raw), region)
	if err != nil {
		return "", errors.Join(ErrInvalidPhone, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", ErrInvalidPhone
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

var strict = bluemonday.StrictPolicy()

// Text strips all markup from user-supplied free text.
func Text(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}
