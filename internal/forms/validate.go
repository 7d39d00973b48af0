package forms

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/hpungsan/careerbridge/internal/errors"
)

// looseEmail accepts anything shaped like local@domain.tld.
var looseEmail = regexp.MustCompile(`^\S+@\S+\.\S+$`)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			if label := f.Tag.Get("label"); label != "" {
				return label
			}
			return f.Name
		})
		_ = v.RegisterValidation("emailish", func(fl validator.FieldLevel) bool {
			s := strings.TrimSpace(fl.Field().String())
			return s == "" || looseEmail.MatchString(s)
		})
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		validate = v
	})
	return validate
}

// Messages validates v and returns one human message per failed field, in
// field order. A nil result means v is valid.
func Messages(v any) []string {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return []string{err.Error()}
	}
	msgs := make([]string, 0, len(verrs))
	seen := make(map[string]bool, len(verrs))
	for _, fe := range verrs {
		// one message per field
		if seen[fe.Namespace()] {
			continue
		}
		seen[fe.Namespace()] = true
		msgs = append(msgs, message(fe))
	}
	return msgs
}

// Validate is Messages wrapped as a VALIDATION_FAILED error.
func Validate(v any) error {
	if msgs := Messages(v); len(msgs) > 0 {
		return errors.NewValidationFailed(msgs)
	}
	return nil
}

func message(fe validator.FieldError) string {
	label := fe.Field()
	switch fe.Tag() {
	case "required", "notblank":
		return label + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	default:
		return label + " is invalid"
	}
}
