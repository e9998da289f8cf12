package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/empoderar/core/notification"
)

type notificationRepository struct {
	db *DB
}

var _ notification.Repository = (*notificationRepository)(nil)

func NewNotificationRepository(db *DB) notification.Repository {
	return &notificationRepository{db: db}
}

func (repo *notificationRepository) CreateNotifications(_ context.Context, notifs []notification.Notification) ([]notification.Notification, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	created := make([]notification.Notification, 0, len(notifs))
	for _, n := range notifs {
		n := n
		n.ID = repo.db.newID()
		repo.db.notifications[n.ID] = &n
		created = append(created, n)
	}
	return created, nil
}

func (repo *notificationRepository) GetNotification(_ context.Context, id string) (notification.Notification, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if n, ok := repo.db.notifications[id]; ok {
		return *n, nil
	}
	return notification.Notification{}, notification.ErrNotFound
}

func (repo *notificationRepository) query(filter notification.QueryFilter) []notification.Notification {
	notifs := make([]notification.Notification, 0)
	for _, n := range repo.db.notifications {
		if filter.UserID != "" && n.UserID != filter.UserID {
			continue
		}
		if filter.Read != nil && n.Read != *filter.Read {
			continue
		}
		notifs = append(notifs, *n)
	}
	return notifs
}

func (repo *notificationRepository) QueryNotifications(_ context.Context, filter notification.QueryFilter) ([]notification.Notification, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	notifs := repo.query(filter)
	sort.Slice(notifs, func(i, j int) bool {
		return repo.db.newer(notifs[i].CreatedAt, notifs[i].ID, notifs[j].CreatedAt, notifs[j].ID)
	})
	if filter.Limit > 0 && len(notifs) > filter.Limit {
		notifs = notifs[:filter.Limit]
	}
	return notifs, nil
}

func (repo *notificationRepository) CountNotifications(_ context.Context, filter notification.QueryFilter) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return len(repo.query(filter)), nil
}

func (repo *notificationRepository) UpdateNotification(_ context.Context, n notification.Notification) (notification.Notification, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.notifications[n.ID]; !ok {
		return notification.Notification{}, notification.ErrNotFound
	}
	repo.db.notifications[n.ID] = &n
	return n, nil
}

func (repo *notificationRepository) MarkAllRead(_ context.Context, userID string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, n := range repo.db.notifications {
		if n.UserID == userID {
			n.Read = true
		}
	}
	return nil
}

func (repo *notificationRepository) DeleteNotification(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.notifications[id]; !ok {
		return notification.ErrNotFound
	}
	delete(repo.db.notifications, id)
	return nil
}
