package accountsApi

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
	"github.com/propshare/checkout/internal/model/accountsModel"
	"github.com/propshare/checkout/utils"
)

// AccountsApi is the Payment Account Provider client: linked funding sources
// of the authenticated user.
type AccountsApi struct {
	client *resty.Client
}

func New(cfg *config.Config) *AccountsApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.AccountsApi.Url)
	return &AccountsApi{client: client}
}

func (a *AccountsApi) GetFundingAccounts(ctx context.Context, authToken string) ([]model.FundingAccount, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	url := "/v1/funding-accounts"

	slog.Debug("start AccountsApi.GetFundingAccounts request", slog.String("rqID", rqID))

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetAuthToken(authToken).
		Get(url)

	if err != nil {
		slog.Error("error while dialing AccountsApi", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return nil, err
	}

	if resp.StatusCode() == http.StatusUnauthorized {
		return nil, externalApi.ErrUnauthorized
	}

	if resp.StatusCode() != http.StatusOK {
		slog.Error("unexpected status from AccountsApi", slog.Int("status", resp.StatusCode()), slog.String("rqID", rqID))
		return nil, fmt.Errorf("accounts api status %d", resp.StatusCode())
	}

	rawAccounts := accountsModel.AccountsResponse{}
	err = json.Unmarshal(resp.Body(), &rawAccounts)
	if err != nil {
		slog.Error("can't unmarshal response into accountsModel.AccountsResponse", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return nil, err
	}

	accounts := make([]model.FundingAccount, 0, len(rawAccounts.Accounts))
	for _, rawAccount := range rawAccounts.Accounts {
		accounts = append(accounts, model.FundingAccount{
			ID:               rawAccount.ID,
			Name:             rawAccount.Name,
			MaskedNumber:     rawAccount.MaskedNumber,
			BalanceAvailable: rawAccount.BalanceAvailable,
			BalanceCurrent:   rawAccount.BalanceCurrent,
		})
	}

	slog.Debug("AccountsApi.GetFundingAccounts request complete", slog.String("rqID", rqID))

	return accounts, nil
}
