package httpConverter

import (
	"time"

	"github.com/propshare/checkout/internal/model"
)

type CheckoutSessionResponse struct {
	Step                  string            `json:"step"`
	PropertyRef           string            `json:"propertyRef"`
	Amount                string            `json:"amount"`
	ShareCount            int64             `json:"shareCount"`
	PricePerShare         string            `json:"pricePerShare"`
	OfferingAmount        string            `json:"offeringAmount"`
	SelectedAccountID     string            `json:"selectedAccountId,omitempty"`
	Accounts              []AccountResponse `json:"accounts"`
	AccountsIllustrative  bool              `json:"accountsIllustrative"`
	PropertyDetailsStatus string            `json:"propertyDetailsStatus"`
	PropertyDetailsError  string            `json:"propertyDetailsError,omitempty"`
	AccountsStatus        string            `json:"accountsStatus"`
	AccountsError         string            `json:"accountsError,omitempty"`
	PaymentStatus         string            `json:"paymentStatus"`
	PaymentError          string            `json:"paymentError,omitempty"`
}

type AccountResponse struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	MaskedNumber     string `json:"maskedNumber"`
	BalanceAvailable string `json:"balanceAvailable"`
	BalanceCurrent   string `json:"balanceCurrent"`
}

type PropertyResponse struct {
	PropertyRef    string `json:"propertyRef"`
	Title          string `json:"title"`
	City           string `json:"city"`
	PricePerShare  string `json:"pricePerShare"`
	OfferingAmount string `json:"offeringAmount"`
	Active         bool   `json:"active"`
}

type InvestmentResponse struct {
	InvestmentRef string    `json:"investmentRef"`
	PropertyRef   string    `json:"propertyRef"`
	ShareCount    int64     `json:"shareCount"`
	PricePerShare string    `json:"pricePerShare"`
	Amount        string    `json:"amount"`
	CreatedAt     time.Time `json:"createdAt"`
}

type PortfolioResponse struct {
	TotalInvested   string               `json:"totalInvested"`
	PropertiesCount int                  `json:"propertiesCount"`
	Investments     []InvestmentResponse `json:"investments"`
}

type PaymentOperationResponse struct {
	InvestmentRef string    `json:"investmentRef"`
	PropertyRef   string    `json:"propertyRef"`
	AccountID     string    `json:"accountId"`
	Amount        string    `json:"amount"`
	Status        string    `json:"status"`
	Message       string    `json:"message,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

func ConvertCheckoutSession(sess model.CheckoutSession) CheckoutSessionResponse {
	accounts := make([]AccountResponse, 0, len(sess.Accounts))
	for _, account := range sess.Accounts {
		accounts = append(accounts, AccountResponse{
			ID:               account.ID,
			Name:             account.Name,
			MaskedNumber:     account.MaskedNumber,
			BalanceAvailable: account.BalanceAvailable.String(),
			BalanceCurrent:   account.BalanceCurrent.String(),
		})
	}

	amount := ""
	if sess.AmountSet {
		amount = sess.Amount.String()
	}

	return CheckoutSessionResponse{
		Step:                  convertStep(sess.Step),
		PropertyRef:           sess.PropertyRef,
		Amount:                amount,
		ShareCount:            sess.ShareCount,
		PricePerShare:         sess.PricePerShare.String(),
		OfferingAmount:        sess.OfferingAmount.String(),
		SelectedAccountID:     sess.SelectedAccountID,
		Accounts:              accounts,
		AccountsIllustrative:  sess.AccountsIllustrative,
		PropertyDetailsStatus: convertFetchStatus(sess.PropertyDetailsStatus),
		PropertyDetailsError:  sess.PropertyDetailsError,
		AccountsStatus:        convertFetchStatus(sess.AccountsStatus),
		AccountsError:         sess.AccountsError,
		PaymentStatus:         convertPaymentStatus(sess.PaymentStatus),
		PaymentError:          sess.PaymentError,
	}
}

func ConvertProperty(details model.PropertyDetails) PropertyResponse {
	return PropertyResponse{
		PropertyRef:    details.Property.PropertyRef,
		Title:          details.Property.Title,
		City:           details.Property.City,
		PricePerShare:  details.SharePrice().String(),
		OfferingAmount: details.OfferingAmount.String(),
		Active:         details.Property.Active,
	}
}

func ConvertProperties(properties []model.PropertyDetails) []PropertyResponse {
	res := make([]PropertyResponse, 0, len(properties))
	for _, property := range properties {
		res = append(res, ConvertProperty(property))
	}
	return res
}

func ConvertPortfolio(portfolio model.Portfolio) PortfolioResponse {
	investments := make([]InvestmentResponse, 0, len(portfolio.Investments))
	for _, investment := range portfolio.Investments {
		investments = append(investments, InvestmentResponse{
			InvestmentRef: investment.InvestmentRef,
			PropertyRef:   investment.PropertyRef,
			ShareCount:    investment.ShareCount,
			PricePerShare: investment.PricePerShare.String(),
			Amount:        investment.Amount.String(),
			CreatedAt:     investment.CreatedAt,
		})
	}

	return PortfolioResponse{
		TotalInvested:   portfolio.TotalInvested.String(),
		PropertiesCount: portfolio.PropertiesCount,
		Investments:     investments,
	}
}

func ConvertPaymentOperations(operations []model.PaymentOperation) []PaymentOperationResponse {
	res := make([]PaymentOperationResponse, 0, len(operations))
	for _, operation := range operations {
		res = append(res, PaymentOperationResponse{
			InvestmentRef: operation.InvestmentRef,
			PropertyRef:   operation.PropertyRef,
			AccountID:     operation.AccountID,
			Amount:        operation.Amount.String(),
			Status:        operation.Status,
			Message:       operation.Message,
			CreatedAt:     operation.CreatedAt,
		})
	}
	return res
}

func convertStep(step model.Step) string {
	switch step {
	case model.StepPayment:
		return "payment"
	case model.StepConfirmation:
		return "confirmation"
	default:
		return "amount"
	}
}

func convertFetchStatus(status model.FetchStatus) string {
	switch status {
	case model.FetchLoading:
		return "loading"
	case model.FetchLoaded:
		return "loaded"
	case model.FetchFailed:
		return "failed"
	default:
		return "idle"
	}
}

func convertPaymentStatus(status model.PaymentStatus) string {
	switch status {
	case model.PaymentProcessing:
		return "processing"
	case model.PaymentSucceeded:
		return "succeeded"
	case model.PaymentFailed:
		return "failed"
	default:
		return "idle"
	}
}
