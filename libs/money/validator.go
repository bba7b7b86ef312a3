package money

import (
	"reflect"

	"github.com/go-playground/validator/v10"
)

// RegisterValidation teaches the validator to treat Money fields as their
// decimal value, so numeric tags like gte=0 apply to the amount.
func RegisterValidation(v *validator.Validate) {
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if m, ok := field.Interface().(Money); ok {
			return m.Float64()
		}
		return nil
	}, Money{})
}
