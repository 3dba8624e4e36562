package catalogApi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/propshare/checkout/config"
	"github.com/propshare/checkout/internal/externalApi"
	"github.com/propshare/checkout/internal/model"
	"github.com/propshare/checkout/internal/model/catalogModel"
	"github.com/propshare/checkout/utils"
)

// CatalogApi is the Property Catalog Provider client. Checkout pricing always
// goes through GetPropertyDetails live, never through the cache.
type CatalogApi struct {
	client *resty.Client
}

func New(cfg *config.Config) *CatalogApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.CatalogApi.Url)
	return &CatalogApi{client: client}
}

func (a *CatalogApi) GetProperties(ctx context.Context) ([]model.PropertyDetails, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	url := "/v1/properties"

	slog.Debug("start CatalogApi.GetProperties request", slog.String("rqID", rqID))

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(url)

	if err != nil {
		slog.Error("error while dialing CatalogApi", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return nil, err
	}

	if resp.StatusCode() != http.StatusOK {
		slog.Error("unexpected status from CatalogApi", slog.Int("status", resp.StatusCode()), slog.String("rqID", rqID))
		return nil, fmt.Errorf("catalog api status %d", resp.StatusCode())
	}

	rawProperties := catalogModel.PropertiesResponse{}
	err = json.Unmarshal(resp.Body(), &rawProperties)
	if err != nil {
		slog.Error("can't unmarshal response into catalogModel.PropertiesResponse", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return nil, err
	}

	res := make([]model.PropertyDetails, 0, len(rawProperties.Properties))
	for _, rawProperty := range rawProperties.Properties {
		res = append(res, model.PropertyDetails{
			Property:      convertProperty(rawProperty),
			PricePerShare: rawProperty.TokenPrice,
		})
	}

	slog.Debug("CatalogApi.GetProperties request complete", slog.String("rqID", rqID))

	return res, nil
}

func (a *CatalogApi) GetPropertyDetails(ctx context.Context, propertyRef string) (model.PropertyDetails, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	url := fmt.Sprintf("/v1/properties/%s", propertyRef)

	slog.Debug("start CatalogApi.GetPropertyDetails request", slog.String("rqID", rqID), slog.String("propertyRef", propertyRef))

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(url)

	if err != nil {
		slog.Error("error while dialing CatalogApi", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return model.PropertyDetails{}, err
	}

	if resp.StatusCode() == http.StatusNotFound {
		return model.PropertyDetails{}, externalApi.ErrNotFound
	}

	if resp.StatusCode() != http.StatusOK {
		slog.Error("unexpected status from CatalogApi", slog.Int("status", resp.StatusCode()), slog.String("rqID", rqID))
		return model.PropertyDetails{}, fmt.Errorf("catalog api status %d", resp.StatusCode())
	}

	rawDetails := catalogModel.PropertyDetailsResponse{}
	err = json.Unmarshal(resp.Body(), &rawDetails)
	if err != nil {
		slog.Error("can't unmarshal response into catalogModel.PropertyDetailsResponse", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return model.PropertyDetails{}, err
	}

	slog.Debug("CatalogApi.GetPropertyDetails request complete", slog.String("rqID", rqID))

	return model.PropertyDetails{
		Property:       convertProperty(rawDetails.Property),
		PricePerShare:  rawDetails.PricePerShare,
		OfferingAmount: rawDetails.OfferingAmount,
	}, nil
}

func convertProperty(raw catalogModel.PropertyResponse) model.Property {
	return model.Property{
		PropertyRef: raw.ID,
		Title:       raw.Title,
		City:        raw.City,
		TokenPrice:  raw.TokenPrice,
		Active:      raw.Status == "active",
	}
}
