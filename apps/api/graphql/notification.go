package gqlapi

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/trezcool/empoderar/core/notification"
)

type notificationResolver struct {
	root  *Resolver
	notif notification.Notification
}

func (r *Resolver) newNotification(notif notification.Notification) *notificationResolver {
	return &notificationResolver{root: r, notif: notif}
}

func (n *notificationResolver) ID() graphql.ID         { return graphql.ID(n.notif.ID) }
func (n *notificationResolver) Type() string           { return n.notif.Type }
func (n *notificationResolver) Title() string          { return n.notif.Title }
func (n *notificationResolver) Message() string        { return n.notif.Message }
func (n *notificationResolver) RelatedID() *graphql.ID { return optID(n.notif.RelatedID) }
func (n *notificationResolver) RelatedModel() *string  { return optString(n.notif.RelatedModel) }
func (n *notificationResolver) Read() bool             { return n.notif.Read }
func (n *notificationResolver) CreatedAt() string      { return formatTime(n.notif.CreatedAt) }

func (n *notificationResolver) User(ctx context.Context) (*userResolver, error) {
	usr, err := n.root.users.GetByID(ctx, n.notif.UserID)
	if err != nil {
		return nil, err
	}
	return n.root.newUser(usr), nil
}

func (r *Resolver) MyNotifications(ctx context.Context) (*[]*notificationResolver, error) {
	usr, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	notifs, err := r.notifications.List(ctx, usr.ID)
	if err != nil {
		return nil, err
	}
	list := make([]*notificationResolver, 0, len(notifs))
	for _, notif := range notifs {
		list = append(list, r.newNotification(notif))
	}
	return &list, nil
}

func (r *Resolver) UnreadNotificationsCount(ctx context.Context) (int32, error) {
	usr, err := requireUser(ctx)
	if err != nil {
		return 0, err
	}
	n, err := r.notifications.CountUnread(ctx, usr.ID)
	return int32(n), err
}

func (r *Resolver) MarkNotificationAsRead(ctx context.Context, args struct{ NotificationID graphql.ID }) (*notificationResolver, error) {
	usr, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	notif, err := r.notifications.MarkRead(ctx, usr.ID, string(args.NotificationID))
	if err != nil {
		return nil, err
	}
	return r.newNotification(notif), nil
}

func (r *Resolver) MarkAllNotificationsAsRead(ctx context.Context) (bool, error) {
	usr, err := requireUser(ctx)
	if err != nil {
		return false, err
	}
	if err := r.notifications.MarkAllRead(ctx, usr.ID); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Resolver) DeleteNotification(ctx context.Context, args struct{ NotificationID graphql.ID }) (*notificationResolver, error) {
	usr, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	notif, err := r.notifications.Delete(ctx, usr.ID, string(args.NotificationID))
	if err != nil {
		return nil, err
	}
	return r.newNotification(notif), nil
}
