package user

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/empoderar/core"
)

var (
	roleTag  = "role"
	roleText = map[string]string{
		core.LangEN: "role must be one of: " + strings.Join(AllRoles, ", "),
		core.LangES: "el rol debe ser uno de: " + strings.Join(AllRoles, ", "),
	}

	themeTag  = "theme"
	themeText = map[string]string{
		core.LangEN: "theme must be one of: " + strings.Join(AllThemes, ", "),
		core.LangES: "el tema debe ser uno de: " + strings.Join(AllThemes, ", "),
	}

	languageTag  = "language"
	languageText = map[string]string{
		core.LangEN: "language must be one of: " + strings.Join(core.Languages, ", "),
		core.LangES: "el idioma debe ser uno de: " + strings.Join(core.Languages, ", "),
	}

	visibilityTag  = "visibility"
	visibilityText = map[string]string{
		core.LangEN: "profile visibility must be one of: " + strings.Join(AllVisibilities, ", "),
		core.LangES: "la visibilidad del perfil debe ser una de: " + strings.Join(AllVisibilities, ", "),
	}

	// password policy
	pwdMinLen     = 6
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = map[string]string{
		core.LangEN: fmt.Sprintf("password must contain at least %d characters", pwdMinLen),
		core.LangES: fmt.Sprintf("la contraseña debe tener al menos %d caracteres", pwdMinLen),
	}

	pwdBlankTag  = "pwdblank"
	pwdBlankText = map[string]string{
		core.LangEN: "password cannot be made only of whitespace",
		core.LangES: "la contraseña no puede contener solo espacios",
	}

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = map[string]string{
		core.LangEN: "password is too similar to your name or email",
		core.LangES: "la contraseña es demasiado parecida a tu nombre o correo",
	}
)

// InitValidators registers the user validators and their translations on `validate`.
func InitValidators(validate *validator.Validate, locales *core.Locales) {
	core.RegisterEnumValidation(validate, locales, roleTag, AllRoles, roleText)
	core.RegisterEnumValidation(validate, locales, themeTag, AllThemes, themeText)
	core.RegisterEnumValidation(validate, locales, languageTag, core.Languages, languageText)
	core.RegisterEnumValidation(validate, locales, visibilityTag, AllVisibilities, visibilityText)

	validate.RegisterStructValidation(userStructValidation, NewUser{})
	core.RegisterCustomTranslation(validate, locales, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, locales, pwdBlankTag, pwdBlankText)
	core.RegisterCustomTranslation(validate, locales, pwdAttrSimTag, pwdAttrSimText)
}

// userStructValidation does struct level validation on NewUser.
func userStructValidation(sl validator.StructLevel) {
	if nu, ok := sl.Current().Interface().(NewUser); ok && nu.Password != "" {
		if tag := CheckPassword(nu.Password, nu.Name, nu.Email); tag != "" {
			sl.ReportError(nu.Password, "password", "Password", tag, "")
		}
	}
}

// CheckPassword applies the password policy and returns the tag of the first failed rule, or "".
// - minLen: 6
// - not only whitespace
// - no user attrs similarity
func CheckPassword(pwd string, attrs ...string) string {
	if len([]rune(pwd)) < pwdMinLen {
		return pwdMinLenTag
	}
	if strings.IndexFunc(pwd, func(r rune) bool { return !unicode.IsSpace(r) }) < 0 {
		return pwdBlankTag
	}

	getRatio := func(pass, usrAttr string) float64 {
		if usrAttr == "" {
			return 0
		}
		return difflib.NewMatcher(strings.Split(pass, ""), strings.Split(usrAttr, "")).QuickRatio()
	}
	lpwd := strings.ToLower(pwd)
	for _, attr := range attrs {
		if getRatio(lpwd, strings.ToLower(attr)) >= pwdMaxSim {
			return pwdAttrSimTag
		}
	}
	return ""
}
