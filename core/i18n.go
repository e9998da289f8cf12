package core

import (
	"context"
	"strings"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/es"
	ut "github.com/go-playground/universal-translator"
)

// Languages
const (
	LangES          = "es"
	LangEN          = "en"
	DefaultLanguage = LangES
)

var Languages = []string{LangES, LangEN}

type langCtxKey struct{}

// Locales holds the translators of every supported language.
type Locales struct {
	uni *ut.UniversalTranslator
}

func NewLocales() *Locales {
	_es := es.New()
	return &Locales{uni: ut.New(_es, _es, en.New())}
}

// Translator returns the translator for `lang`, falling back to DefaultLanguage.
func (l *Locales) Translator(lang string) ut.Translator {
	if trans, found := l.uni.GetTranslator(NormalizeLanguage(lang)); found {
		return trans
	}
	trans, _ := l.uni.GetTranslator(DefaultLanguage)
	return trans
}

// AddTranslations registers the text of `key` in each language of `texts` ({lang: text}).
// Params are written {0}, {1}...
func (l *Locales) AddTranslations(key string, texts map[string]string) error {
	for lang, text := range texts {
		if err := l.Translator(lang).Add(key, text, true); err != nil {
			return err
		}
	}
	return nil
}

// T translates `key` in `lang`; the key itself is returned when no translation exists
// or when fewer params than placeholders are given.
func (l *Locales) T(lang, key string, params ...string) (s string) {
	defer func() {
		// the translator indexes params without a bounds check
		if r := recover(); r != nil {
			s = key
		}
	}()

	s, err := l.Translator(lang).T(key, params...)
	if err != nil || s == "" {
		return key
	}
	return s
}

// NormalizeLanguage maps values like "en-US,en;q=0.9" to a supported language.
func NormalizeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if len(lang) >= 2 {
		lang = lang[:2]
	}
	if StringInSlice(lang, Languages) {
		return lang
	}
	return DefaultLanguage
}

func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, langCtxKey{}, NormalizeLanguage(lang))
}

func LanguageFromContext(ctx context.Context) string {
	if lang, ok := ctx.Value(langCtxKey{}).(string); ok {
		return lang
	}
	return DefaultLanguage
}
