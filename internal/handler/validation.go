package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// newValidator builds the request validator with decimal-aware tags, since
// the stock numeric comparisons don't understand decimal.Decimal.
func newValidator() *validator.Validate {
	v := validator.New()

	_ = v.RegisterValidation("decimal_gt", func(fl validator.FieldLevel) bool {
		return compareDecimal(fl, func(d, bound decimal.Decimal) bool {
			return d.GreaterThan(bound)
		})
	})

	_ = v.RegisterValidation("decimal_gte", func(fl validator.FieldLevel) bool {
		return compareDecimal(fl, func(d, bound decimal.Decimal) bool {
			return d.GreaterThanOrEqual(bound)
		})
	})

	return v
}

func compareDecimal(fl validator.FieldLevel, cmp func(d, bound decimal.Decimal) bool) bool {
	d, ok := fl.Field().Interface().(decimal.Decimal)
	if !ok {
		return false
	}

	bound, err := decimal.NewFromString(fl.Param())
	if err != nil {
		return false
	}

	return cmp(d, bound)
}
