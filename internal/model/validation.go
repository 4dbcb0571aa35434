package model

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// RegisterValidations installs custom rules on the binding engine. Call
// once at startup, before routes are served.
func RegisterValidations(v *validator.Validate) error {
	return v.RegisterValidation("beforetoday", beforeToday)
}

// beforeToday accepts zero times so the rule composes with omitempty.
func beforeToday(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	if t.IsZero() {
		return true
	}
	return t.Before(time.Now())
}
