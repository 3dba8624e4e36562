package dbModel

import (
	"time"

	"github.com/shopspring/decimal"
)

type Investment struct {
	InvestmentRef string          `db:"investment_ref"`
	UserID        int64           `db:"user_id"`
	PropertyRef   string          `db:"property_ref"`
	ShareCount    int64           `db:"share_count"`
	PricePerShare decimal.Decimal `db:"price_per_share"`
	Amount        decimal.Decimal `db:"amount"`
	CreatedAt     time.Time       `db:"dt_create"`
}

type PaymentOperation struct {
	InvestmentRef string          `db:"investment_ref"`
	UserID        int64           `db:"user_id"`
	PropertyRef   string          `db:"property_ref"`
	AccountID     string          `db:"account_id"`
	Amount        decimal.Decimal `db:"amount"`
	Status        string          `db:"status"`
	Message       string          `db:"message"`
	CreatedAt     time.Time       `db:"dt_create"`
}
