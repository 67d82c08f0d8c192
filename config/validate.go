package config

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var validate *validator.Validate
var translator ut.Translator

func init() {
	validate = validator.New()
	translator, _ = ut.New(en.New(), en.New()).GetTranslator("en")
	err := en_translations.RegisterDefaultTranslations(validate, translator)
	if err != nil {
		panic(err)
	}
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})
}

// Validate checks every field of c against its allowed range.
// Combinations of fields are never rejected: a redirect limit with
// redirects disabled is a valid configuration.
func (c *Config) Validate() error {
	return ValidateSnapshot(c.Snapshot())
}

// ValidateSnapshot checks s against its declared tags.
func ValidateSnapshot(s Snapshot) error {
	if err := validate.Struct(s); err != nil {
		var verrors validator.ValidationErrors
		if !errors.As(err, &verrors) {
			return err
		}

		var fields FieldErrors
		for _, verror := range verrors {
			field := FieldError{
				Field: verror.Field(),
				Err:   customErrForTag(verror.Tag(), verror),
			}
			fields = append(fields, field)
		}
		return fields
	}

	return nil
}

// FieldError describes one invalid configuration field.
type FieldError struct {
	Field string `json:"field"`
	Err   string `json:"error"`
}

// FieldErrors represents a collection of field errors.
type FieldErrors []FieldError

// Error implements the error interface.
func (fe FieldErrors) Error() string {
	d, err := json.Marshal(fe)
	if err != nil {
		return err.Error()
	}
	return string(d)
}

// Fields returns the names of the invalid fields.
func (fe FieldErrors) Fields() []string {
	names := make([]string, 0, len(fe))
	for _, f := range fe {
		names = append(names, f.Field)
	}
	return names
}

func customErrForTag(tag string, verror validator.FieldError) string {
	switch tag {
	case "required", "required_with":
		return "This field is required"
	default:
		return verror.Translate(translator)
	}
}
