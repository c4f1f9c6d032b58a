package dto

import (
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/academic-scheduler/internal/models"
	"github.com/noah-isme/academic-scheduler/pkg/calendar"
)

// NewValidator returns a validator with the scheduling tags registered:
// date (YYYY-MM-DD), weekday (Mon..Sun), slot and kind.
func NewValidator() *validator.Validate {
	v := validator.New()
	RegisterValidations(v)
	return v
}

// RegisterValidations adds the scheduling tags to an existing validator.
func RegisterValidations(v *validator.Validate) {
	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := calendar.ParseDate(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		_, err := calendar.ParseWeekday(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("slot", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseSlot(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("kind", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseKind(fl.Field().String())
		return ok
	})
}
