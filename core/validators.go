package core

import (
	"reflect"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	es_translations "github.com/go-playground/validator/v10/translations/es"
)

var (
	requiredTag  = "required"
	requiredText = map[string]string{
		LangEN: "this field is required",
		LangES: "este campo es obligatorio",
	}

	notBlankTag  = "notblank"
	notBlankText = map[string]string{
		LangEN: "this field cannot be blank",
		LangES: "este campo no puede estar vacío",
	}
)

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, locales *Locales) {
	_ = en_translations.RegisterDefaultTranslations(validate, locales.Translator(LangEN))
	_ = es_translations.RegisterDefaultTranslations(validate, locales.Translator(LangES))

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	RegisterCustomTranslation(validate, locales, notBlankTag, notBlankText)

	RegisterCustomTranslation(validate, locales, requiredTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag, in every language of `texts`.
func RegisterCustomTranslation(validate *validator.Validate, locales *Locales, tag string, texts map[string]string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	for lang, text := range texts {
		text := text
		_ = validate.RegisterTranslation(
			tag, locales.Translator(lang),
			func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
			func(t ut.Translator, fe validator.FieldError) string {
				s, _ := t.T(tag, fe.Field())
				return s
			},
		)
	}
}

// RegisterEnumValidation registers `tag` as a validator accepting only `values`.
func RegisterEnumValidation(validate *validator.Validate, locales *Locales, tag string, values []string, texts map[string]string) {
	_ = validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return StringInSlice(fl.Field().String(), values)
	})
	RegisterCustomTranslation(validate, locales, tag, texts)
}

// TranslateValidationErrors maps each invalid field to its translated message.
func TranslateValidationErrors(errs validator.ValidationErrors, trans ut.Translator) map[string]string {
	fldErrs := make(map[string]string, len(errs))
	for _, vErr := range errs {
		fldErrs[vErr.Field()] = vErr.Translate(trans)
	}
	return fldErrs
}

// Custom Global Validators

// notBlankValidation rejects strings made only of whitespace.
func notBlankValidation(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
