package model

import "github.com/shopspring/decimal"

type FundingAccount struct {
	ID               string
	Name             string
	MaskedNumber     string
	BalanceAvailable decimal.Decimal
	BalanceCurrent   decimal.Decimal
}
