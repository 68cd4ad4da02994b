package helpers

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps go-playground validator with VAS-specific rules
type CustomValidator struct {
	validate *validator.Validate
}

// NewCustomValidator creates a new custom validator with domain rules
func NewCustomValidator() *CustomValidator {
	v := validator.New()

	// Register custom validators
	v.RegisterValidation("msisdn", validateMSISDN)
	v.RegisterValidation("smartcard", validateSmartCard)

	return &CustomValidator{validate: v}
}

// Validate validates a struct
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validate.Struct(i)
}

// validateMSISDN validates subscriber phone numbers. Accepts local
// 0XXXXXXXXXX format or international +CCXXXXXXXXXX format.
func validateMSISDN(fl validator.FieldLevel) bool {
	number := strings.TrimSpace(fl.Field().String())
	msisdnRegex := regexp.MustCompile(`^(0[0-9]{10}|\+[1-9][0-9]{9,13})$`)
	return msisdnRegex.MatchString(number)
}

// validateSmartCard validates decoder smart card numbers (10 to 12 digits)
func validateSmartCard(fl validator.FieldLevel) bool {
	card := strings.TrimSpace(fl.Field().String())
	cardRegex := regexp.MustCompile(`^[0-9]{10,12}$`)
	return cardRegex.MatchString(card)
}
