package crm

import (
	"regexp"

	"github.com/shopspring/decimal"
)

var (
	emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	// Accepted after stripping: "+999999999" (9-15 digits) or "999-999-9999".
	phoneRe      = regexp.MustCompile(`^\+?1?\d{9,15}$|^\d{3}-\d{3}-\d{4}$`)
	phoneStripRe = regexp.MustCompile(`[^\d+\-]`)
)

// FieldError tags a validation failure with the offending field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func ValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// ValidPhone strips everything but digits, '+' and '-' before matching.
// An empty phone is valid (the field is optional).
func ValidPhone(phone string) bool {
	if phone == "" {
		return true
	}
	return phoneRe.MatchString(phoneStripRe.ReplaceAllString(phone, ""))
}

func ValidPrice(price decimal.Decimal) bool {
	return price.IsPositive()
}

func ValidStock(stock int) bool {
	return stock >= 0
}
