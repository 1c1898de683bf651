package validator

import (
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

var (
	v *validator.Validate
)

func init() {
	v = validator.New()
}

// Validate checks struct tags of i. A nil or typed nil pointer is an error.
func Validate(i interface{}) error {
	if i == nil {
		return fmt.Errorf("data to validate is nil")
	}

	rv := reflect.ValueOf(i)
	if rv.Kind() == reflect.Ptr && rv.IsNil() {
		return fmt.Errorf("data to validate is nil %T", i)
	}

	return v.Struct(i)
}

// Var checks a single value against tag, for example "required,alphanum".
func Var(field interface{}, tag string) error {
	return v.Var(field, tag)
}
