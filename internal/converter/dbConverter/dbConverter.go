package dbConverter

import (
	"github.com/propshare/checkout/internal/model"
	"github.com/propshare/checkout/internal/model/dbModel"
)

func ConvertInvestment(dbInvestment dbModel.Investment) model.Investment {
	return model.Investment{
		InvestmentRef: dbInvestment.InvestmentRef,
		PropertyRef:   dbInvestment.PropertyRef,
		ShareCount:    dbInvestment.ShareCount,
		PricePerShare: dbInvestment.PricePerShare,
		Amount:        dbInvestment.Amount,
		CreatedAt:     dbInvestment.CreatedAt,
	}
}

func ConvertPaymentOperation(dbOperation dbModel.PaymentOperation) model.PaymentOperation {
	return model.PaymentOperation{
		InvestmentRef: dbOperation.InvestmentRef,
		PropertyRef:   dbOperation.PropertyRef,
		AccountID:     dbOperation.AccountID,
		Amount:        dbOperation.Amount,
		Status:        dbOperation.Status,
		Message:       dbOperation.Message,
		CreatedAt:     dbOperation.CreatedAt,
	}
}
