package model

import "github.com/shopspring/decimal"

type Step int

const (
	StepAmount Step = iota
	StepPayment
	StepConfirmation
)

type FetchStatus int

const (
	FetchIdle FetchStatus = iota
	FetchLoading
	FetchLoaded
	FetchFailed
)

type PaymentStatus int

const (
	PaymentIdle PaymentStatus = iota
	PaymentProcessing
	PaymentSucceeded
	PaymentFailed
)

// CheckoutSession is the whole state of one checkout flow. It lives in the
// session store for the duration of a single modal open/close cycle and is
// keyed by user id. Generation distinguishes async completions of the current
// session from ones started before a reset.
type CheckoutSession struct {
	Generation            int64
	Step                  Step
	PropertyRef           string
	Amount                decimal.Decimal
	AmountSet             bool
	ShareCount            int64
	PricePerShare         decimal.Decimal
	OfferingAmount        decimal.Decimal
	SelectedAccountID     string
	Accounts              []FundingAccount
	AccountsIllustrative  bool
	PropertyDetailsStatus FetchStatus
	PropertyDetailsError  string
	AccountsStatus        FetchStatus
	AccountsError         string
	PaymentStatus         PaymentStatus
	PaymentError          string
}

func (s CheckoutSession) AccountByID(id string) (FundingAccount, bool) {
	for _, acc := range s.Accounts {
		if acc.ID == id {
			return acc, true
		}
	}
	return FundingAccount{}, false
}
