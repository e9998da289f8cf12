package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/empoderar/core"
	"github.com/trezcool/empoderar/core/notification"
)

const notificationColumns = `id, user_id, type, title, message, related_id, related_model, read, created_at`

type dbNotification struct {
	ID           string      `db:"id"`
	UserID       string      `db:"user_id"`
	Type         string      `db:"type"`
	Title        string      `db:"title"`
	Message      string      `db:"message"`
	RelatedID    null.String `db:"related_id"`
	RelatedModel null.String `db:"related_model"`
	Read         bool        `db:"read"`
	CreatedAt    time.Time   `db:"created_at"`
}

func toDBNotification(n notification.Notification) dbNotification {
	return dbNotification{
		ID:           n.ID,
		UserID:       n.UserID,
		Type:         n.Type,
		Title:        n.Title,
		Message:      n.Message,
		RelatedID:    nullString(n.RelatedID),
		RelatedModel: nullString(n.RelatedModel),
		Read:         n.Read,
		CreatedAt:    n.CreatedAt,
	}
}

func (n dbNotification) toNotification() notification.Notification {
	return notification.Notification{
		ID:           n.ID,
		UserID:       n.UserID,
		Type:         n.Type,
		Title:        n.Title,
		Message:      n.Message,
		RelatedID:    n.RelatedID.String,
		RelatedModel: n.RelatedModel.String,
		Read:         n.Read,
		CreatedAt:    n.CreatedAt.UTC(),
	}
}

type notificationRepository struct {
	db core.DB
}

var _ notification.Repository = (*notificationRepository)(nil)

func NewNotificationRepository(db core.DB) notification.Repository {
	return &notificationRepository{db: db}
}

// CreateNotifications runs a single multi-row INSERT.
func (repo *notificationRepository) CreateNotifications(ctx context.Context, notifs []notification.Notification) ([]notification.Notification, error) {
	if len(notifs) == 0 {
		return nil, nil
	}
	rows := make([]dbNotification, 0, len(notifs))
	created := make([]notification.Notification, 0, len(notifs))
	for _, n := range notifs {
		n.ID = newID()
		rows = append(rows, toDBNotification(n))
		created = append(created, n)
	}

	q := `INSERT INTO notification (` + notificationColumns + `) VALUES (
		:id, :user_id, :type, :title, :message, :related_id, :related_model, :read, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, rows); err != nil {
		return nil, errors.Wrap(err, "inserting notifications")
	}
	return created, nil
}

func (repo *notificationRepository) GetNotification(ctx context.Context, id string) (notification.Notification, error) {
	var n dbNotification
	if err := repo.db.GetContext(ctx, &n, `SELECT `+notificationColumns+` FROM notification WHERE id = $1`, id); err != nil {
		return notification.Notification{}, notFound(err, notification.ErrNotFound)
	}
	return n.toNotification(), nil
}

func notificationWhere(filter notification.QueryFilter) *where {
	w := new(where)
	if filter.UserID != "" {
		w.add("user_id = ?", filter.UserID)
	}
	if filter.Read != nil {
		w.add("read = ?", *filter.Read)
	}
	return w
}

func (repo *notificationRepository) QueryNotifications(ctx context.Context, filter notification.QueryFilter) ([]notification.Notification, error) {
	w := notificationWhere(filter)
	q := `SELECT ` + notificationColumns + ` FROM notification` + w.String() + ` ORDER BY created_at DESC`
	args := w.args
	if filter.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	var rows []dbNotification
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting notifications")
	}
	notifs := make([]notification.Notification, 0, len(rows))
	for _, n := range rows {
		notifs = append(notifs, n.toNotification())
	}
	return notifs, nil
}

func (repo *notificationRepository) CountNotifications(ctx context.Context, filter notification.QueryFilter) (int, error) {
	w := notificationWhere(filter)
	var n int
	if err := repo.db.GetContext(ctx, &n, repo.db.Rebind(`SELECT COUNT(*) FROM notification`+w.String()), w.args...); err != nil {
		return 0, errors.Wrap(err, "counting notifications")
	}
	return n, nil
}

func (repo *notificationRepository) UpdateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	res, err := repo.db.NamedExecContext(ctx, `UPDATE notification SET read = :read WHERE id = :id`, toDBNotification(n))
	if err != nil {
		return notification.Notification{}, errors.Wrap(err, "updating notification")
	}
	if err := checkAffected(res, notification.ErrNotFound); err != nil {
		return notification.Notification{}, err
	}
	return n, nil
}

func (repo *notificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	q := `UPDATE notification SET read = TRUE WHERE user_id = $1 AND read = FALSE`
	if _, err := repo.db.ExecContext(ctx, q, userID); err != nil {
		return errors.Wrap(err, "marking notifications read")
	}
	return nil
}

func (repo *notificationRepository) DeleteNotification(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM notification WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting notification")
	}
	return checkAffected(res, notification.ErrNotFound)
}
