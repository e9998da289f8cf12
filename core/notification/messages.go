package notification

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/trezcool/empoderar/core"
)

func titleKey(typ string) string   { return "notification." + typ + ".title" }
func messageKey(typ string) string { return "notification." + typ + ".message" }

var texts = map[string]map[string]string{
	titleKey(TypeCourseEnrollment): {
		core.LangES: "Inscripción confirmada",
		core.LangEN: "Enrollment confirmed",
	},
	messageKey(TypeCourseEnrollment): {
		core.LangES: "{0} se ha inscrito en el curso \"{1}\"",
		core.LangEN: "{0} enrolled in the course \"{1}\"",
	},
	titleKey(TypeCourseCompleted): {
		core.LangES: "¡Curso completado!",
		core.LangEN: "Course completed!",
	},
	messageKey(TypeCourseCompleted): {
		core.LangES: "Has completado el curso \"{0}\"",
		core.LangEN: "You completed the course \"{0}\"",
	},
	titleKey(TypeCourseCreated): {
		core.LangES: "Nuevo curso disponible",
		core.LangEN: "New course available",
	},
	messageKey(TypeCourseCreated): {
		core.LangES: "Ya puedes inscribirte en el curso \"{0}\"",
		core.LangEN: "You can now enroll in the course \"{0}\"",
	},
	titleKey(TypeCourseUpdated): {
		core.LangES: "Curso actualizado",
		core.LangEN: "Course updated",
	},
	messageKey(TypeCourseUpdated): {
		core.LangES: "El curso \"{0}\" ha sido actualizado",
		core.LangEN: "The course \"{0}\" has been updated",
	},
	titleKey(TypeLoanRequested): {
		core.LangES: "Nueva solicitud de préstamo",
		core.LangEN: "New loan request",
	},
	messageKey(TypeLoanRequested): {
		core.LangES: "{0} ha solicitado un préstamo de ${1}",
		core.LangEN: "{0} requested a loan of ${1}",
	},
	titleKey(TypeLoanApproved): {
		core.LangES: "¡Préstamo aprobado!",
		core.LangEN: "Loan approved!",
	},
	messageKey(TypeLoanApproved): {
		core.LangES: "Tu solicitud de préstamo por ${0} ha sido aprobada",
		core.LangEN: "Your loan request for ${0} has been approved",
	},
	titleKey(TypeLoanRejected): {
		core.LangES: "Préstamo rechazado",
		core.LangEN: "Loan rejected",
	},
	messageKey(TypeLoanRejected): {
		core.LangES: "Tu solicitud de préstamo ha sido rechazada. {0}",
		core.LangEN: "Your loan request has been rejected. {0}",
	},
	titleKey(TypePaymentDue): {
		core.LangES: "Pago próximo a vencer",
		core.LangEN: "Payment due soon",
	},
	messageKey(TypePaymentDue): {
		core.LangES: "Tu préstamo vence el {0}. Saldo pendiente: ${1}",
		core.LangEN: "Your loan is due on {0}. Remaining balance: ${1}",
	},
	"email.link": {
		core.LangES: "Ver mis notificaciones",
		core.LangEN: "See my notifications",
	},
	"email.greeting": {
		core.LangES: "Hola",
		core.LangEN: "Hi",
	},
}

// RegisterTranslations adds the notification texts to `locales`.
func RegisterTranslations(locales *core.Locales) error {
	for key, t := range texts {
		if err := locales.AddTranslations(key, t); err != nil {
			return err
		}
	}
	return nil
}

// render returns the title and message of `ev` in `lang`.
func render(locales *core.Locales, lang string, ev Event) (string, string) {
	params := make([]string, 0, len(ev.Params))
	for _, p := range ev.Params {
		params = append(params, formatParam(lang, p))
	}
	title := locales.T(lang, titleKey(ev.Type))
	msg := strings.TrimSpace(locales.T(lang, messageKey(ev.Type), params...))
	return title, msg
}

func formatParam(lang string, p interface{}) string {
	switch v := p.(type) {
	case Money:
		s := humanize.Comma(int64(math.Round(float64(v))))
		if lang == core.LangES {
			s = strings.ReplaceAll(s, ",", ".")
		}
		return s
	case Date:
		t := time.Time(v)
		if lang == core.LangES {
			return t.Format("02/01/2006")
		}
		return t.Format("Jan 2, 2006")
	case string:
		return v
	}
	return fmt.Sprint(p)
}
