package validation

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// New returns a validator with the slot-related tags registered:
// slotdate (2006-01-02), clock (15:04) and slotkey (2006-01-02T15:04).
func New() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("slotdate", layoutRule("2006-01-02"))
	_ = v.RegisterValidation("clock", layoutRule("15:04"))
	_ = v.RegisterValidation("slotkey", layoutRule("2006-01-02T15:04"))
	return v
}

func layoutRule(layout string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		_, err := time.Parse(layout, fl.Field().String())
		return err == nil
	}
}
