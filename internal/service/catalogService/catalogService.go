package catalogService

import (
	"context"
	"errors"
	"log/slog"

	"github.com/propshare/checkout/internal/externalApi"
	"github.com/propshare/checkout/internal/model"
	"github.com/propshare/checkout/internal/service"
	"github.com/propshare/checkout/utils"
)

type CatalogApi interface {
	GetProperties(ctx context.Context) ([]model.PropertyDetails, error)
	GetPropertyDetails(ctx context.Context, propertyRef string) (model.PropertyDetails, error)
}

type Cache interface {
	GetProperty(ctx context.Context, propertyRef string) (model.PropertyDetails, error)
	GetProperties(ctx context.Context) ([]model.PropertyDetails, error)
	SetProperties(ctx context.Context, properties []model.PropertyDetails) error
}

// CatalogService serves the property catalog for browsing. Listings go
// through the cache; the checkout itself never reads prices from here.
type CatalogService struct {
	catalogApi CatalogApi
	cache      Cache
}

func New(catalogApi CatalogApi, cache Cache) *CatalogService {
	return &CatalogService{catalogApi: catalogApi, cache: cache}
}

func (s *CatalogService) ListProperties(ctx context.Context) ([]model.PropertyDetails, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "CatalogService.ListProperties"

	slog.Debug("ListProperties start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("ListProperties finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	properties, err := s.cache.GetProperties(ctx)
	if err == nil {
		return properties, nil
	}

	slog.Warn("can't get properties from cache", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))

	properties, err = s.catalogApi.GetProperties(ctx)
	if err != nil {
		slog.Error("got error from catalogApi.GetProperties", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	go s.cache.SetProperties(context.WithoutCancel(ctx), properties)

	return properties, nil
}

func (s *CatalogService) GetProperty(ctx context.Context, propertyRef string) (model.PropertyDetails, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "CatalogService.GetProperty"

	slog.Debug("GetProperty start", slog.String("rqID", rqID), slog.String("op", op), slog.String("propertyRef", propertyRef))
	defer func() {
		slog.Debug("GetProperty finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("propertyRef", propertyRef))
	}()

	details, err := s.cache.GetProperty(ctx, propertyRef)
	if err == nil {
		return details, nil
	}

	slog.Warn("can't get property from cache", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))

	details, err = s.catalogApi.GetPropertyDetails(ctx, propertyRef)
	if err != nil {
		if errors.Is(err, externalApi.ErrNotFound) {
			return model.PropertyDetails{}, service.ErrNotFound
		}
		slog.Error("got error from catalogApi.GetPropertyDetails", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.PropertyDetails{}, err
	}

	return details, nil
}

// RefreshProperties is run by the scheduler so browsing doesn't hit the
// catalog provider on every request.
func (s *CatalogService) RefreshProperties(ctx context.Context) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "CatalogService.RefreshProperties"

	slog.Debug("RefreshProperties start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("RefreshProperties finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	properties, err := s.catalogApi.GetProperties(ctx)
	if err != nil {
		slog.Error("got error from catalogApi.GetProperties", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	if err := s.cache.SetProperties(ctx, properties); err != nil {
		slog.Error("got error from cache.SetProperties", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	return nil
}
