package notification

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/empoderar/core"
	"github.com/trezcool/empoderar/core/user"
)

const emailTemplate = "notification"

var ErrNotFound = core.NewNotFoundError("notification not found")

type (
	Repository interface {
		// CreateNotifications inserts every notification at once.
		CreateNotifications(ctx context.Context, notifs []Notification) ([]Notification, error)
		GetNotification(ctx context.Context, id string) (Notification, error)
		// QueryNotifications returns the notifications matching filter, newest first.
		QueryNotifications(ctx context.Context, filter QueryFilter) ([]Notification, error)
		CountNotifications(ctx context.Context, filter QueryFilter) (int, error)
		UpdateNotification(ctx context.Context, notif Notification) (Notification, error)
		MarkAllRead(ctx context.Context, userID string) error
		DeleteNotification(ctx context.Context, id string) error
	}

	// UserGetter is the part of the user service notifications need.
	UserGetter interface {
		GetByID(ctx context.Context, id string) (user.User, error)
		QueryActive(ctx context.Context, role string) ([]user.User, error)
	}

	Service struct {
		repo    Repository
		users   UserGetter
		locales *core.Locales
		mailSvc core.EmailService
		logger  core.Logger
	}
)

func NewService(repo Repository, users UserGetter, locales *core.Locales, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{
		repo:    repo,
		users:   users,
		locales: locales,
		mailSvc: mailSvc,
		logger:  logger,
	}
}

// wants reports whether the preferences of `usr` allow notifications of type `typ`.
func wants(usr user.User, typ string) bool {
	switch typ {
	case TypeCourseCreated, TypeCourseUpdated:
		return usr.Preferences.CourseReminders
	case TypeLoanApproved, TypeLoanRejected, TypePaymentDue:
		return usr.Preferences.LoanUpdates
	}
	return true
}

// Notify creates one notification of `ev` per recipient, in a single insert.
// Inactive recipients and those whose preferences opt out of `ev.Type` are skipped.
func (svc *Service) Notify(ctx context.Context, recipients []user.User, ev Event) ([]Notification, error) {
	now := time.Now().UTC()
	notifs := make([]Notification, 0, len(recipients))
	targets := make([]user.User, 0, len(recipients))
	for _, usr := range recipients {
		if !usr.IsActive || !wants(usr, ev.Type) {
			continue
		}
		title, msg := render(svc.locales, usr.Language(), ev)
		notifs = append(notifs, Notification{
			UserID:       usr.ID,
			Type:         ev.Type,
			Title:        title,
			Message:      msg,
			RelatedID:    ev.RelatedID,
			RelatedModel: ev.RelatedModel,
			CreatedAt:    now,
		})
		targets = append(targets, usr)
	}
	if len(notifs) == 0 {
		return nil, nil
	}

	notifs, err := svc.repo.CreateNotifications(ctx, notifs)
	if err != nil {
		return nil, errors.Wrap(err, "creating notifications")
	}
	svc.sendEmails(targets, notifs)
	return notifs, nil
}

// NotifyUsers notifies the users `ids`. Failures are logged, never returned.
func (svc *Service) NotifyUsers(ctx context.Context, ids []string, ev Event) {
	recipients := make([]user.User, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		usr, err := svc.users.GetByID(ctx, id)
		if err != nil {
			svc.logger.Error(fmt.Sprintf("notification %s: getting user %s: %v", ev.Type, id, err), err)
			continue
		}
		recipients = append(recipients, usr)
	}
	if _, err := svc.Notify(ctx, recipients, ev); err != nil {
		svc.logger.Error(fmt.Sprintf("notification %s: %v", ev.Type, err), err)
	}
}

// NotifyRole notifies every active user of `role`. Failures are logged, never returned.
func (svc *Service) NotifyRole(ctx context.Context, role string, ev Event) {
	recipients, err := svc.users.QueryActive(ctx, role)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("notification %s: querying %s users: %v", ev.Type, role, err), err)
		return
	}
	if _, err := svc.Notify(ctx, recipients, ev); err != nil {
		svc.logger.Error(fmt.Sprintf("notification %s: %v", ev.Type, err), err)
	}
}

func (svc *Service) NotifyAdmins(ctx context.Context, ev Event) {
	svc.NotifyRole(ctx, user.RoleAdmin, ev)
}

func (svc *Service) sendEmails(recipients []user.User, notifs []Notification) {
	if svc.mailSvc == nil {
		return
	}
	msgs := make([]*core.EmailMessage, 0, len(notifs))
	for i, notif := range notifs {
		usr := recipients[i]
		if !usr.Preferences.EmailNotifications || usr.Email == "" {
			continue
		}
		msgs = append(msgs, &core.EmailMessage{
			To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
			Subject:      notif.Title,
			TemplateName: emailTemplate,
			TemplateData: map[string]interface{}{
				"Greeting": svc.locales.T(usr.Language(), "email.greeting"),
				"Name":     usr.Name,
				"Title":    notif.Title,
				"Message":  notif.Message,
				"Link":     svc.locales.T(usr.Language(), "email.link"),
			},
		})
	}
	if len(msgs) > 0 {
		svc.mailSvc.SendMessages(msgs...)
	}
}

func (svc *Service) List(ctx context.Context, userID string) ([]Notification, error) {
	return svc.repo.QueryNotifications(ctx, QueryFilter{UserID: userID, Limit: ListLimit})
}

func (svc *Service) CountUnread(ctx context.Context, userID string) (int, error) {
	unread := false
	return svc.repo.CountNotifications(ctx, QueryFilter{UserID: userID, Read: &unread})
}

// getOwn returns the notification `id` when it belongs to `userID`.
func (svc *Service) getOwn(ctx context.Context, userID, id string) (Notification, error) {
	notif, err := svc.repo.GetNotification(ctx, id)
	if err != nil {
		return Notification{}, err
	}
	if notif.UserID != userID {
		return Notification{}, ErrNotFound
	}
	return notif, nil
}

func (svc *Service) MarkRead(ctx context.Context, userID, id string) (Notification, error) {
	notif, err := svc.getOwn(ctx, userID, id)
	if err != nil {
		return Notification{}, err
	}
	if notif.Read {
		return notif, nil
	}
	notif.Read = true
	return svc.repo.UpdateNotification(ctx, notif)
}

func (svc *Service) MarkAllRead(ctx context.Context, userID string) error {
	return svc.repo.MarkAllRead(ctx, userID)
}

func (svc *Service) Delete(ctx context.Context, userID, id string) (Notification, error) {
	notif, err := svc.getOwn(ctx, userID, id)
	if err != nil {
		return Notification{}, err
	}
	if err := svc.repo.DeleteNotification(ctx, id); err != nil {
		return Notification{}, err
	}
	return notif, nil
}
