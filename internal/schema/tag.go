package schema

import (
	"github.com/go-playground/validator/v10"

	"github.com/hanpama/gqlengine/internal/errcode"
)

// ValidateTag returns a ValidatorFunc checking values against a
// go-playground/validator tag such as "min=1,max=100" or "email".
func ValidateTag(tag string) ValidatorFunc {
	v := validator.New()
	return func(value any) error {
		if err := v.Var(value, tag); err != nil {
			return errcode.Wrap(errcode.Coercion, err, "value does not satisfy %q", tag)
		}
		return nil
	}
}
