package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentOrder struct {
	PropertyRef string
	AccountID   string
	Amount      decimal.Decimal
	Reference   string
}

type PaymentResult struct {
	Success bool
	Message string
}

type Investment struct {
	InvestmentRef string
	PropertyRef   string
	ShareCount    int64
	PricePerShare decimal.Decimal
	Amount        decimal.Decimal
	CreatedAt     time.Time
}

type PaymentOperation struct {
	InvestmentRef string
	PropertyRef   string
	AccountID     string
	Amount        decimal.Decimal
	Status        string
	Message       string
	CreatedAt     time.Time
}

type Portfolio struct {
	TotalInvested   decimal.Decimal
	PropertiesCount int
	Investments     []Investment
}
