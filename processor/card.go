package processor

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Card is the raw instrument the user entered. It is handed to the processor
// and never persisted.
type Card struct {
	Number     string
	ExpMonth   int
	ExpYear    int
	CVC        string
	Name       string
	PostalCode string
}

// Last4 returns the final four digits of the card number.
func (c Card) Last4() string {
	digits := digitsOnly(c.Number)
	if len(digits) < 4 {
		return ""
	}
	return digits[len(digits)-4:]
}

// LogValue keeps card data out of structured logs.
func (c Card) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("last4", c.Last4()),
		slog.Bool("redacted", true),
	)
}

// Format keeps card data out of fmt output for every verb.
func (c Card) Format(f fmt.State, _ rune) {
	_, _ = fmt.Fprintf(f, "Card{last4:%s redacted}", c.Last4())
}

// Validate runs the checks a processor would reject before any network call.
func (c Card) Validate(now time.Time) error {
	digits := digitsOnly(c.Number)
	if len(digits) < 12 || len(digits) > 19 || len(digits) != len(strings.ReplaceAll(c.Number, " ", "")) {
		return &Error{Type: TypeCardError, Code: "invalid_number", Message: "Your card number is invalid."}
	}
	if !luhn(digits) {
		return &Error{Type: TypeCardError, Code: "incorrect_number", Message: "Your card number is incorrect."}
	}
	if c.ExpMonth < 1 || c.ExpMonth > 12 {
		return &Error{Type: TypeCardError, Code: "invalid_expiry_month", Message: "Your card's expiration month is invalid."}
	}
	year := c.ExpYear
	if year < 100 {
		year += 2000
	}
	if year < now.Year() || (year == now.Year() && c.ExpMonth < int(now.Month())) {
		return &Error{Type: TypeCardError, Code: "invalid_expiry_year", Message: "Your card's expiration year is invalid."}
	}
	cvc := digitsOnly(c.CVC)
	if len(cvc) < 3 || len(cvc) > 4 || len(cvc) != len(c.CVC) {
		return &Error{Type: TypeCardError, Code: "invalid_cvc", Message: "Your card's security code is invalid."}
	}
	return nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func luhn(digits string) bool {
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
