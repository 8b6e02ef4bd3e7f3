package notifications

import (
	"context"
	"github.com/go-playground/validator/v10"
	"log/slog"
	"magal/internal/model"
	"magal/internal/pagination"
	"magal/internal/provider"
)

const (
	pathNotifications = "notifications"
	pathUnreadCount   = "/notifications/non-lues/count"
	pathMarkAllRead   = "/notifications/marquer-toutes-comme-lues"
	pathSendToAll     = "/notifications/envoyer-a-tous"
	pathSendToEvent   = "/notifications/envoyer-aux-inscrits"
	segMarkRead       = "marquer-comme-lue"
)

type Provider interface {
	List(ctx context.Context, f pagination.NotificationFilter) (*model.Page[model.Notification], error)
	UnreadCount(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context) (int, error)
	SendToAll(ctx context.Context, b model.Broadcast) (*model.BroadcastResult, error)
	SendToRegistrants(ctx context.Context, eventID int64, b model.Broadcast) (*model.BroadcastResult, error)
	Delete(ctx context.Context, id int64) error
}

type notificationsProvider struct {
	client   provider.Client
	validate *validator.Validate
	log      *slog.Logger
}

func NewNotificationsProvider(client provider.Client, validate *validator.Validate, log *slog.Logger) Provider {
	if log == nil {
		log = slog.Default()
	}
	return &notificationsProvider{
		client:   client,
		validate: validate,
		log:      log,
	}
}

func (p *notificationsProvider) List(ctx context.Context, f pagination.NotificationFilter) (*model.Page[model.Notification], error) {
	var page model.Page[model.Notification]
	if err := p.client.Get(ctx, provider.Path(pathNotifications), f.Query(), &page); err != nil {
		p.log.Error("failed to list notifications", slog.String("error", err.Error()))
		return nil, err
	}

	if err := provider.CheckPage(p.validate, &page); err != nil {
		p.log.Error("notifications list is malformed", slog.String("error", err.Error()))
		return nil, err
	}

	return &page, nil
}

func (p *notificationsProvider) UnreadCount(ctx context.Context) (int, error) {
	var out model.UnreadCount
	if err := p.client.Get(ctx, pathUnreadCount, nil, &out); err != nil {
		p.log.Error("failed to count unread notifications", slog.String("error", err.Error()))
		return 0, err
	}
	return out.Count, nil
}

func (p *notificationsProvider) MarkRead(ctx context.Context, id int64) error {
	if err := p.client.Post(ctx, provider.Path(pathNotifications, id, segMarkRead), nil, nil); err != nil {
		p.log.Error("failed to mark notification read",
			slog.Int64("notification_id", id),
			slog.String("error", err.Error()))
		return err
	}
	return nil
}

// MarkAllRead returns how many notifications the server marked.
func (p *notificationsProvider) MarkAllRead(ctx context.Context) (int, error) {
	var out model.ActionResponse
	if err := p.client.Post(ctx, pathMarkAllRead, nil, &out); err != nil {
		p.log.Error("failed to mark all notifications read", slog.String("error", err.Error()))
		return 0, err
	}
	return out.Count, nil
}

func (p *notificationsProvider) SendToAll(ctx context.Context, b model.Broadcast) (*model.BroadcastResult, error) {
	if err := provider.CheckInput(p.validate, b); err != nil {
		return nil, err
	}
	return p.send(ctx, pathSendToAll, b)
}

// SendToRegistrants notifies the users registered for eventID. The event id
// of b is overridden.
func (p *notificationsProvider) SendToRegistrants(ctx context.Context, eventID int64, b model.Broadcast) (*model.BroadcastResult, error) {
	b.EventID = &eventID
	if err := provider.CheckInput(p.validate, b); err != nil {
		return nil, err
	}
	return p.send(ctx, pathSendToEvent, b)
}

func (p *notificationsProvider) send(ctx context.Context, path string, b model.Broadcast) (*model.BroadcastResult, error) {
	var out model.BroadcastResult
	if err := p.client.Post(ctx, path, b, &out); err != nil {
		p.log.Error("failed to send notification",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return nil, err
	}

	p.log.Info("notification sent",
		slog.String("path", path),
		slog.Int("recipients", out.Count))

	return &out, nil
}

func (p *notificationsProvider) Delete(ctx context.Context, id int64) error {
	if err := p.client.Delete(ctx, provider.Path(pathNotifications, id), nil, nil); err != nil {
		p.log.Error("failed to delete notification",
			slog.Int64("notification_id", id),
			slog.String("error", err.Error()))
		return err
	}
	return nil
}
