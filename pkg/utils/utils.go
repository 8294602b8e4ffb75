package utils

import (
	"time"

	"github.com/shopspring/decimal"
)

// TruncateToDay strips the time-of-day component, normalizing to midnight
// UTC so same-day comparisons never disagree across time zones.
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole number of days from one date to another.
// Both arguments are truncated to day granularity first; the result is
// negative when to precedes from.
func DaysBetween(from, to time.Time) int {
	from = TruncateToDay(from)
	to = TruncateToDay(to)
	return int(to.Sub(from).Hours() / 24)
}

// SameDay reports whether two timestamps fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return TruncateToDay(a).Equal(TruncateToDay(b))
}

// AddDays returns the date days calendar days after t.
func AddDays(t time.Time, days int) time.Time {
	return TruncateToDay(t).AddDate(0, 0, days)
}

// SameMonth reports whether t falls in the given year and month.
func SameMonth(t time.Time, year int, month time.Month) bool {
	return t.Year() == year && t.Month() == month
}

// RoundCurrency applies the single rounding policy of the system:
// round-half-up to the cent. Only boundary values (responses, persisted
// rows) are rounded; intermediate arithmetic keeps full precision.
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// DecimalFromFloat converts float64 to decimal.Decimal
func DecimalFromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// DecimalFromString converts string to decimal.Decimal
func DecimalFromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
