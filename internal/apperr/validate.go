package apperr

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// MaxAmount is the largest value a NUMERIC(12,2) money column holds.
var MaxAmount = decimal.RequireFromString("9999999999.99")

// validMoney backs the "money" tag: positive, at most two decimals and
// within MaxAmount.
func validMoney(fl validator.FieldLevel) bool {
	f := fl.Field()
	if f.Kind() != reflect.Float64 && f.Kind() != reflect.Float32 {
		return false
	}
	d := decimal.NewFromFloat(f.Float())
	return d.IsPositive() && d.Exponent() >= -2 && d.LessThanOrEqual(MaxAmount)
}

var (
	once sync.Once
	v    *validator.Validate
)

// Validator returns the shared validator; field names come from json tags.
func Validator() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("money", validMoney)
	})
	return v
}

// Check validates s and returns a validation *Error on failure.
func Check(s any) error {
	if err := Validator().Struct(s); err != nil {
		return FromValidator(err)
	}
	return nil
}
