package course

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/empoderar/core"
)

func newValidator() (*validator.Validate, *core.Locales) {
	validate := validator.New()
	locales := core.NewLocales()
	core.InitValidators(validate, locales)
	InitValidators(validate, locales)
	return validate, locales
}

func TestCourse_Hours(t *testing.T) {
	for dur, want := range map[float64]int{1: 1, 7.4: 7, 7.5: 8, 7.6: 8, 20: 20} {
		assert.Equal(t, want, Course{Duration: dur}.Hours(), "duration %v", dur)
	}
}

func TestNewCourse_Validate(t *testing.T) {
	validate, locales := newValidator()

	t.Run("defaults", func(t *testing.T) {
		nc := NewCourse{Title: "  Plan de negocio ", Duration: 2, Category: " ", Level: ""}
		if err := nc.Validate(validate); err != nil {
			t.Fatalf("Validate() failed: %v", err)
		}
		assert.Equal(t, "Plan de negocio", nc.Title)
		assert.Equal(t, CategoryOther, nc.Category)
		assert.Equal(t, LevelBasic, nc.Level)
	})

	t.Run("invalid", func(t *testing.T) {
		nc := NewCourse{Title: " ", Duration: 0.5, Category: "magia", Level: "EXPERTO", ContentURL: "nope"}
		err := nc.Validate(validate)
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			t.Fatalf("Validate() error = %v, want validator.ValidationErrors", err)
		}
		want := map[string]string{
			"title":      "este campo es obligatorio",
			"category":   "la categoría debe ser una de: emprendimiento, finanzas, costura, cocina, tecnologia, liderazgo, otros",
			"level":      "el nivel debe ser uno de: basico, intermedio, avanzado",
			"duration":   "duration debe ser 1 o mayor",
			"contentUrl": "contentUrl debe ser un URL válido",
		}
		if diff := cmp.Diff(want, core.TranslateValidationErrors(verrs, locales.Translator(core.LangES))); diff != "" {
			t.Errorf("Validate() mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestUpdateCourse_apply(t *testing.T) {
	validate, _ := newValidator()

	title, level, active := " Costura II ", "AVANZADO", false
	uc := UpdateCourse{Title: &title, Level: &level, IsActive: &active}
	if err := uc.Validate(validate); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}

	c := Course{Title: "Costura", Category: CategorySewing, Level: LevelBasic, Duration: 10, IsActive: true}
	uc.apply(&c)

	want := Course{Title: "Costura II", Category: CategorySewing, Level: LevelAdvanced, Duration: 10, IsActive: false}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("apply() mismatch (-want +got):\n%s", diff)
	}
}
