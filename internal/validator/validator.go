package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	models "github.com/chrisdamba/rentalbooking/internal"
	"github.com/go-playground/validator/v10"
)

type CustomValidator struct {
	validator *validator.Validate
}

type locationRules struct {
	Address string `json:"address" validate:"not_blank"`
	City    string `json:"city" validate:"not_blank"`
}

func NewCustomValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	v.RegisterValidation("clock", validateClock)
	v.RegisterValidation("booking_status", validateBookingStatus)
	v.RegisterValidation("payment_method", validatePaymentMethod)
	v.RegisterValidation("not_blank", validateNotBlank)

	return &CustomValidator{validator: v}
}

// Validate checks struct tags and reports the first failing field as a validation error.
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return models.NewValidationError(describe(err))
	}
	return nil
}

func (cv *CustomValidator) ValidateLocation(name string, loc *models.Location) error {
	if loc == nil {
		return models.NewValidationError(name + " is required")
	}
	if err := cv.validator.Struct(locationRules{Address: loc.Address, City: loc.City}); err != nil {
		return models.NewValidationError(name + ": " + describe(err))
	}
	return nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required", "not_blank":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "clock":
		return field + " must be a HH:MM time"
	case "booking_status":
		return fmt.Sprintf("%s %q is not a booking status", field, fe.Value())
	case "payment_method":
		return fmt.Sprintf("%s %q is not supported", field, fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

func validateClock(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if len(value) != 5 {
		return false
	}
	_, err := time.Parse("15:04", value)
	return err == nil
}

func validateBookingStatus(fl validator.FieldLevel) bool {
	return models.BookingStatus(fl.Field().String()).IsValid()
}

func validatePaymentMethod(fl validator.FieldLevel) bool {
	switch models.PaymentMethod(fl.Field().String()) {
	case models.PaymentCash, models.PaymentCard, models.PaymentBankTransfer, models.PaymentWallet:
		return true
	}
	return false
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
