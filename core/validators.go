package core

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator

	// custom validation tags & texts
	purposeTag  = "purpose"
	purposeText = "must be one of: survey, quiz, assessment"

	qtypeTag  = "qtype"
	qtypeText = "must be one of: single, multi, scale, text"

	timingTag  = "timing"
	timingText = "must be one of: pre, post"

	scopeLevelTag  = "scopelevel"
	scopeLevelText = "must be one of: course, module"

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"
)

func init() {
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	Translator, _ = uni.GetTranslator("en")

	Validate = validator.New()
	InitValidators(Validate, Translator)
}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(purposeTag, oneOfValidation("survey", "quiz", "assessment"))
	RegisterCustomTranslation(validate, translator, purposeTag, purposeText)

	_ = validate.RegisterValidation(qtypeTag, oneOfValidation("single", "multi", "scale", "text"))
	RegisterCustomTranslation(validate, translator, qtypeTag, qtypeText)

	_ = validate.RegisterValidation(timingTag, oneOfValidation("pre", "post"))
	RegisterCustomTranslation(validate, translator, timingTag, timingText)

	_ = validate.RegisterValidation(scopeLevelTag, oneOfValidation("course", "module"))
	RegisterCustomTranslation(validate, translator, scopeLevelTag, scopeLevelText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Custom Global Validators

// oneOfValidation only allows one of the given string values.
func oneOfValidation(values ...string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		val := fl.Field().String()
		for _, v := range values {
			if val == v {
				return true
			}
		}
		return false
	}
}
