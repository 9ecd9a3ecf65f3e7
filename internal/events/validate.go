package events

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks the struct constraints of an event or any other tagged
// struct. It returns validator.ValidationErrors on constraint violations.
func Validate(v any) error {
	return validatorInstance().Struct(v)
}
