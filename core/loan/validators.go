package loan

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/empoderar/core"
)

var (
	statusTag  = "loanstatus"
	statusText = map[string]string{
		core.LangEN: "status must be one of: " + strings.Join(AllStatuses, ", "),
		core.LangES: "el estado debe ser uno de: " + strings.Join(AllStatuses, ", "),
	}

	methodTag  = "paymethod"
	methodText = map[string]string{
		core.LangEN: "payment method must be one of: " + strings.Join(AllMethods, ", "),
		core.LangES: "el método de pago debe ser uno de: " + strings.Join(AllMethods, ", "),
	}

	amountTag  = "loanamount"
	amountText = map[string]string{
		core.LangEN: fmt.Sprintf("amount must be between %s and %s", humanize.Comma(MinAmount), humanize.Comma(MaxAmount)),
		core.LangES: fmt.Sprintf("el monto debe estar entre %s y %s",
			strings.ReplaceAll(humanize.Comma(MinAmount), ",", "."), strings.ReplaceAll(humanize.Comma(MaxAmount), ",", ".")),
	}

	termTag  = "loanterm"
	termText = map[string]string{
		core.LangEN: fmt.Sprintf("term must be between %d and %d months", MinTermMonths, MaxTermMonths),
		core.LangES: fmt.Sprintf("el plazo debe estar entre %d y %d meses", MinTermMonths, MaxTermMonths),
	}
)

func InitValidators(validate *validator.Validate, locales *core.Locales) {
	core.RegisterEnumValidation(validate, locales, statusTag, AllStatuses, statusText)
	core.RegisterEnumValidation(validate, locales, methodTag, AllMethods, methodText)

	_ = validate.RegisterValidation(amountTag, func(fl validator.FieldLevel) bool {
		a := fl.Field().Float()
		return a >= MinAmount && a <= MaxAmount
	})
	core.RegisterCustomTranslation(validate, locales, amountTag, amountText)

	_ = validate.RegisterValidation(termTag, func(fl validator.FieldLevel) bool {
		t := fl.Field().Int()
		return t >= MinTermMonths && t <= MaxTermMonths
	})
	core.RegisterCustomTranslation(validate, locales, termTag, termText)
}
