package paymentApi

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
	"github.com/propshare/checkout/internal/model/paymentModel"
	"github.com/propshare/checkout/utils"
)

// PaymentApi is the Payment Processor client. A declined charge comes back as
// a non-error PaymentResult; only transport problems are errors.
type PaymentApi struct {
	client *resty.Client
}

func New(cfg *config.Config) *PaymentApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.PaymentApi.Url)
	return &PaymentApi{client: client}
}

func (a *PaymentApi) Submit(ctx context.Context, authToken string, order model.PaymentOrder) (model.PaymentResult, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	url := "/v1/payments"

	slog.Debug("start PaymentApi.Submit request", slog.String("rqID", rqID), slog.String("reference", order.Reference))

	body := paymentModel.SubmitRequest{
		PropertyRef: order.PropertyRef,
		AccountID:   order.AccountID,
		Amount:      order.Amount,
		Reference:   order.Reference,
	}

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetAuthToken(authToken).
		SetBody(body).
		Post(url)

	if err != nil {
		slog.Error("error while dialing PaymentApi", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return model.PaymentResult{}, err
	}

	if resp.StatusCode() == http.StatusUnauthorized {
		return model.PaymentResult{}, externalApi.ErrUnauthorized
	}

	if resp.StatusCode() != http.StatusOK {
		slog.Error("unexpected status from PaymentApi", slog.Int("status", resp.StatusCode()), slog.String("rqID", rqID))
		return model.PaymentResult{}, fmt.Errorf("payment api status %d", resp.StatusCode())
	}

	rawResult := paymentModel.SubmitResponse{}
	err = json.Unmarshal(resp.Body(), &rawResult)
	if err != nil {
		slog.Error("can't unmarshal response into paymentModel.SubmitResponse", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return model.PaymentResult{}, err
	}

	slog.Debug("PaymentApi.Submit request complete", slog.String("rqID", rqID), slog.Bool("success", rawResult.Success))

	return model.PaymentResult{Success: rawResult.Success, Message: rawResult.Message}, nil
}
