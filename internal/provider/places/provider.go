package places

import (
	"context"
	"github.com/go-playground/validator/v10"
	"log/slog"
	"magal/internal/model"
	"magal/internal/pagination"
	"magal/internal/provider"
)

const (
	pathPlaces      = "points-interet"
	pathMyFavorites = "/mes-favoris"
	segFavorite     = "favori"
)

type Provider interface {
	List(ctx context.Context, f pagination.PlaceFilter) (*model.Page[model.Place], error)
	Get(ctx context.Context, id int64) (*model.Place, error)
	Create(ctx context.Context, in model.PlaceInput) (*model.Place, error)
	Update(ctx context.Context, id int64, in model.PlaceInput) (*model.Place, error)
	Delete(ctx context.Context, id int64) error
	AddFavorite(ctx context.Context, id int64) (*model.ActionResponse, error)
	RemoveFavorite(ctx context.Context, id int64) (*model.ActionResponse, error)
	MyFavorites(ctx context.Context, f pagination.PlaceFilter) (*model.Page[model.Place], error)
}

type placesProvider struct {
	client   provider.Client
	validate *validator.Validate
	log      *slog.Logger
}

func NewPlacesProvider(client provider.Client, validate *validator.Validate, log *slog.Logger) Provider {
	if log == nil {
		log = slog.Default()
	}
	return &placesProvider{
		client:   client,
		validate: validate,
		log:      log,
	}
}

func (p *placesProvider) List(ctx context.Context, f pagination.PlaceFilter) (*model.Page[model.Place], error) {
	return p.list(ctx, provider.Path(pathPlaces), f)
}

func (p *placesProvider) MyFavorites(ctx context.Context, f pagination.PlaceFilter) (*model.Page[model.Place], error) {
	page, err := p.list(ctx, pathMyFavorites, f)
	if err != nil {
		return nil, err
	}

	// Сервер не всегда проставляет флаг в списке избранного
	for i := range page.Data {
		page.Data[i].Favorite = true
	}
	return page, nil
}

func (p *placesProvider) list(ctx context.Context, path string, f pagination.PlaceFilter) (*model.Page[model.Place], error) {
	var page model.Page[model.Place]
	if err := p.client.Get(ctx, path, f.Query(), &page); err != nil {
		p.log.Error("failed to list places",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return nil, err
	}

	if err := provider.CheckPage(p.validate, &page); err != nil {
		p.log.Error("places list is malformed", slog.String("error", err.Error()))
		return nil, err
	}

	return &page, nil
}

func (p *placesProvider) Get(ctx context.Context, id int64) (*model.Place, error) {
	var item model.Item[model.Place]
	if err := p.client.Get(ctx, provider.Path(pathPlaces, id), nil, &item); err != nil {
		p.log.Error("failed to get place",
			slog.Int64("place_id", id),
			slog.String("error", err.Error()))
		return nil, err
	}

	return provider.CheckItem(p.validate, &item)
}

func (p *placesProvider) Create(ctx context.Context, in model.PlaceInput) (*model.Place, error) {
	if err := provider.CheckInput(p.validate, in); err != nil {
		return nil, err
	}

	var item model.Item[model.Place]
	if err := p.client.Post(ctx, provider.Path(pathPlaces), in, &item); err != nil {
		p.log.Error("failed to create place", slog.String("error", err.Error()))
		return nil, err
	}

	place, err := provider.CheckItem(p.validate, &item)
	if err != nil {
		return nil, err
	}

	p.log.Info("place created", slog.Int64("place_id", place.ID))
	return place, nil
}

func (p *placesProvider) Update(ctx context.Context, id int64, in model.PlaceInput) (*model.Place, error) {
	if err := provider.CheckInput(p.validate, in); err != nil {
		return nil, err
	}

	var item model.Item[model.Place]
	if err := p.client.Put(ctx, provider.Path(pathPlaces, id), in, &item); err != nil {
		p.log.Error("failed to update place",
			slog.Int64("place_id", id),
			slog.String("error", err.Error()))
		return nil, err
	}

	return provider.CheckItem(p.validate, &item)
}

func (p *placesProvider) Delete(ctx context.Context, id int64) error {
	if err := p.client.Delete(ctx, provider.Path(pathPlaces, id), nil, nil); err != nil {
		p.log.Error("failed to delete place",
			slog.Int64("place_id", id),
			slog.String("error", err.Error()))
		return err
	}
	return nil
}

func (p *placesProvider) AddFavorite(ctx context.Context, id int64) (*model.ActionResponse, error) {
	var out model.ActionResponse
	if err := p.client.Post(ctx, provider.Path(pathPlaces, id, segFavorite), nil, &out); err != nil {
		p.log.Error("failed to add favorite",
			slog.Int64("place_id", id),
			slog.String("error", err.Error()))
		return nil, err
	}
	return &out, nil
}

func (p *placesProvider) RemoveFavorite(ctx context.Context, id int64) (*model.ActionResponse, error) {
	var out model.ActionResponse
	if err := p.client.Delete(ctx, provider.Path(pathPlaces, id, segFavorite), nil, &out); err != nil {
		p.log.Error("failed to remove favorite",
			slog.Int64("place_id", id),
			slog.String("error", err.Error()))
		return nil, err
	}
	return &out, nil
}
