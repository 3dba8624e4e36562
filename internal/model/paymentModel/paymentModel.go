package paymentModel

import "github.com/shopspring/decimal"

type SubmitRequest struct {
	PropertyRef string          `json:"propertyRef"`
	AccountID   string          `json:"accountId"`
	Amount      decimal.Decimal `json:"amount"`
	Reference   string          `json:"reference"`
}

type SubmitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
