package walletApi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/propshare/checkout/config"
	"github.com/propshare/checkout/utils"
)

// WalletApi talks to the wallet bridge service. The checkout never touches a
// browser extension directly; everything goes through this gateway.
type WalletApi struct {
	client *resty.Client
}

func New(cfg *config.Config) *WalletApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.WalletApi.Url)
	return &WalletApi{client: client}
}

func (a *WalletApi) IsAvailable(ctx context.Context) (bool, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	resp, err := a.client.R().
		SetContext(ctx).
		Get("/v1/status")

	if err != nil {
		slog.Error("error while dialing WalletApi", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return false, err
	}

	return resp.StatusCode() == http.StatusOK, nil
}

func (a *WalletApi) RequestAccounts(ctx context.Context, authToken string) ([]string, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	slog.Debug("start WalletApi.RequestAccounts request", slog.String("rqID", rqID))

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetAuthToken(authToken).
		Post("/v1/accounts")

	if err != nil {
		slog.Error("error while dialing WalletApi", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return nil, err
	}

	if resp.StatusCode() != http.StatusOK {
		slog.Error("unexpected status from WalletApi", slog.Int("status", resp.StatusCode()), slog.String("rqID", rqID))
		return nil, fmt.Errorf("wallet api status %d", resp.StatusCode())
	}

	var raw struct {
		Accounts []string `json:"accounts"`
	}
	err = json.Unmarshal(resp.Body(), &raw)
	if err != nil {
		slog.Error("can't unmarshal wallet accounts response", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return nil, err
	}

	slog.Debug("WalletApi.RequestAccounts request complete", slog.String("rqID", rqID))

	return raw.Accounts, nil
}

func (a *WalletApi) SignMessage(ctx context.Context, authToken string, message string) (string, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	slog.Debug("start WalletApi.SignMessage request", slog.String("rqID", rqID))

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetAuthToken(authToken).
		SetBody(map[string]string{"message": message}).
		Post("/v1/sign")

	if err != nil {
		slog.Error("error while dialing WalletApi", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return "", err
	}

	if resp.StatusCode() != http.StatusOK {
		slog.Error("unexpected status from WalletApi", slog.Int("status", resp.StatusCode()), slog.String("rqID", rqID))
		return "", fmt.Errorf("wallet api status %d", resp.StatusCode())
	}

	var raw struct {
		Signature string `json:"signature"`
	}
	err = json.Unmarshal(resp.Body(), &raw)
	if err != nil {
		slog.Error("can't unmarshal wallet sign response", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return "", err
	}

	slog.Debug("WalletApi.SignMessage request complete", slog.String("rqID", rqID))

	return raw.Signature, nil
}
