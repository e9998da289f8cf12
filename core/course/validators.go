package course

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/empoderar/core"
)

var (
	categoryTag  = "category"
	categoryText = map[string]string{
		core.LangEN: "category must be one of: " + strings.Join(AllCategories, ", "),
		core.LangES: "la categoría debe ser una de: " + strings.Join(AllCategories, ", "),
	}

	levelTag  = "level"
	levelText = map[string]string{
		core.LangEN: "level must be one of: " + strings.Join(AllLevels, ", "),
		core.LangES: "el nivel debe ser uno de: " + strings.Join(AllLevels, ", "),
	}

	progressTag  = "progress"
	progressText = map[string]string{
		core.LangEN: "progress must be between 0 and 100",
		core.LangES: "el progreso debe estar entre 0 y 100",
	}
)

func InitValidators(validate *validator.Validate, locales *core.Locales) {
	core.RegisterEnumValidation(validate, locales, categoryTag, AllCategories, categoryText)
	core.RegisterEnumValidation(validate, locales, levelTag, AllLevels, levelText)

	_ = validate.RegisterValidation(progressTag, func(fl validator.FieldLevel) bool {
		p := fl.Field().Float()
		return p >= 0 && p <= MaxProgress
	})
	core.RegisterCustomTranslation(validate, locales, progressTag, progressText)
}
