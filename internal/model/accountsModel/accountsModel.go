package accountsModel

import "github.com/shopspring/decimal"

type AccountResponse struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	MaskedNumber     string          `json:"maskedNumber"`
	BalanceAvailable decimal.Decimal `json:"balanceAvailable"`
	BalanceCurrent   decimal.Decimal `json:"balanceCurrent"`
}

type AccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}
