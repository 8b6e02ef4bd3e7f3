package events

import (
	"context"
	"github.com/go-playground/validator/v10"
	"log/slog"
	"magal/internal/model"
	"magal/internal/pagination"
	"magal/internal/provider"
)

const (
	pathEvents          = "evenements"
	pathMyRegistrations = "/mes-inscriptions"
	segRegistration     = "inscription"
)

type Provider interface {
	List(ctx context.Context, f pagination.EventFilter) (*model.Page[model.Event], error)
	Get(ctx context.Context, id int64) (*model.Event, error)
	Create(ctx context.Context, in model.EventInput) (*model.Event, error)
	Update(ctx context.Context, id int64, in model.EventInput) (*model.Event, error)
	Delete(ctx context.Context, id int64) error
	Register(ctx context.Context, id int64) (*model.ActionResponse, error)
	Unregister(ctx context.Context, id int64) (*model.ActionResponse, error)
	MyRegistrations(ctx context.Context) ([]model.Registration, error)
}

type eventsProvider struct {
	client   provider.Client
	validate *validator.Validate
	log      *slog.Logger
}

func NewEventsProvider(client provider.Client, validate *validator.Validate, log *slog.Logger) Provider {
	if log == nil {
		log = slog.Default()
	}
	return &eventsProvider{
		client:   client,
		validate: validate,
		log:      log,
	}
}

func (p *eventsProvider) List(ctx context.Context, f pagination.EventFilter) (*model.Page[model.Event], error) {
	var page model.Page[model.Event]
	if err := p.client.Get(ctx, provider.Path(pathEvents), f.Query(), &page); err != nil {
		p.log.Error("failed to list events", slog.String("error", err.Error()))
		return nil, err
	}

	if err := provider.CheckPage(p.validate, &page); err != nil {
		p.log.Error("events list is malformed", slog.String("error", err.Error()))
		return nil, err
	}

	p.log.Debug("events loaded",
		slog.Int("count", len(page.Data)),
		slog.Int("page", page.Pagination.CurrentPage))

	return &page, nil
}

func (p *eventsProvider) Get(ctx context.Context, id int64) (*model.Event, error) {
	var item model.Item[model.Event]
	if err := p.client.Get(ctx, provider.Path(pathEvents, id), nil, &item); err != nil {
		p.log.Error("failed to get event",
			slog.Int64("event_id", id),
			slog.String("error", err.Error()))
		return nil, err
	}

	return provider.CheckItem(p.validate, &item)
}

func (p *eventsProvider) Create(ctx context.Context, in model.EventInput) (*model.Event, error) {
	if err := provider.CheckInput(p.validate, in); err != nil {
		return nil, err
	}

	var item model.Item[model.Event]
	if err := p.client.Post(ctx, provider.Path(pathEvents), in, &item); err != nil {
		p.log.Error("failed to create event", slog.String("error", err.Error()))
		return nil, err
	}

	ev, err := provider.CheckItem(p.validate, &item)
	if err != nil {
		return nil, err
	}

	p.log.Info("event created", slog.Int64("event_id", ev.ID))
	return ev, nil
}

func (p *eventsProvider) Update(ctx context.Context, id int64, in model.EventInput) (*model.Event, error) {
	if err := provider.CheckInput(p.validate, in); err != nil {
		return nil, err
	}

	var item model.Item[model.Event]
	if err := p.client.Put(ctx, provider.Path(pathEvents, id), in, &item); err != nil {
		p.log.Error("failed to update event",
			slog.Int64("event_id", id),
			slog.String("error", err.Error()))
		return nil, err
	}

	return provider.CheckItem(p.validate, &item)
}

func (p *eventsProvider) Delete(ctx context.Context, id int64) error {
	if err := p.client.Delete(ctx, provider.Path(pathEvents, id), nil, nil); err != nil {
		p.log.Error("failed to delete event",
			slog.Int64("event_id", id),
			slog.String("error", err.Error()))
		return err
	}

	p.log.Info("event deleted", slog.Int64("event_id", id))
	return nil
}

func (p *eventsProvider) Register(ctx context.Context, id int64) (*model.ActionResponse, error) {
	var out model.ActionResponse
	if err := p.client.Post(ctx, provider.Path(pathEvents, id, segRegistration), nil, &out); err != nil {
		p.log.Error("failed to register for event",
			slog.Int64("event_id", id),
			slog.String("error", err.Error()))
		return nil, err
	}
	return &out, nil
}

func (p *eventsProvider) Unregister(ctx context.Context, id int64) (*model.ActionResponse, error) {
	var out model.ActionResponse
	if err := p.client.Delete(ctx, provider.Path(pathEvents, id, segRegistration), nil, &out); err != nil {
		p.log.Error("failed to unregister from event",
			slog.Int64("event_id", id),
			slog.String("error", err.Error()))
		return nil, err
	}
	return &out, nil
}

func (p *eventsProvider) MyRegistrations(ctx context.Context) ([]model.Registration, error) {
	var page model.Page[model.Registration]
	if err := p.client.Get(ctx, pathMyRegistrations, nil, &page); err != nil {
		p.log.Error("failed to list registrations", slog.String("error", err.Error()))
		return nil, err
	}

	if err := provider.CheckPage(p.validate, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}
