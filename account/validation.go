package account

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

// Password length bounds. The upper bound is bcrypt's input limit in bytes.
const (
	minPasswordRunes = 8
	maxPasswordBytes = 72
)

// ValidationError maps input field names to translated messages.
type ValidationError map[string]string

// Error implements the error interface.
func (ve ValidationError) Error() string {
	if len(ve) == 0 {
		return "validation error"
	}
	b, err := json.Marshal(map[string]string(ve))
	if err != nil {
		return fmt.Sprintf("validation error (failed to marshal: %v)", err)
	}
	return string(b)
}

type inputValidator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func newInputValidator() (*inputValidator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	enLang := en.New()
	uni := ut.New(enLang, enLang)
	trans, ok := uni.GetTranslator("en")
	if !ok {
		return nil, errors.New("account: english translator not found")
	}
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, fmt.Errorf("account: register translations: %w", err)
	}

	if err := validate.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		p := fl.Field().String()
		return utf8.RuneCountInString(p) >= minPasswordRunes && len(p) <= maxPasswordBytes
	}); err != nil {
		return nil, fmt.Errorf("account: register password rule: %w", err)
	}
	err := validate.RegisterTranslation("password", trans,
		func(tr ut.Translator) error {
			return tr.Add("password", "{0} must be 8-72 characters", false)
		},
		func(tr ut.Translator, fe validator.FieldError) string {
			t, _ := tr.T(fe.Tag(), fe.Field())
			return t
		},
	)
	if err != nil {
		return nil, fmt.Errorf("account: register password translation: %w", err)
	}

	return &inputValidator{validate: validate, translator: trans}, nil
}

// Validate returns a ValidationError listing every failing field, or nil.
func (v *inputValidator) Validate(data any) error {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := make(ValidationError, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[fe.Field()] = fe.Translate(v.translator)
	}
	return out
}
