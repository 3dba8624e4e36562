package checkoutService

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/propshare/checkout/config"
	"github.com/propshare/checkout/data/session"
	"github.com/propshare/checkout/internal/externalApi"
	"github.com/propshare/checkout/internal/model"
	"github.com/propshare/checkout/internal/service"
	"github.com/propshare/checkout/utils"
	"github.com/shopspring/decimal"
)

type CatalogApi interface {
	GetPropertyDetails(ctx context.Context, propertyRef string) (model.PropertyDetails, error)
}

type AccountsApi interface {
	GetFundingAccounts(ctx context.Context, authToken string) ([]model.FundingAccount, error)
}

type PaymentApi interface {
	Submit(ctx context.Context, authToken string, order model.PaymentOrder) (model.PaymentResult, error)
}

type SessionStore interface {
	GetSession(ctx context.Context, key string) (model.CheckoutSession, error)
	SetSession(ctx context.Context, key string, sess model.CheckoutSession) error
}

type Repository interface {
	WithinTransaction(ctx context.Context, tFunc func(ctx context.Context) error) error
	UpsertUser(ctx context.Context, subject string) (userID int64, err error)
	InsertInvestment(ctx context.Context, userID int64, investment model.Investment) error
	InsertPaymentOperation(ctx context.Context, userID int64, operation model.PaymentOperation) error
}

type Notifier interface {
	NotifyPaymentResult(ctx context.Context, userID string, operation model.PaymentOperation)
}

// Funding accounts shown when the Payment Account Provider is unreachable.
// The session carries AccountsIllustrative=true so callers can tell the list
// is not real data.
var placeholderAccounts = []model.FundingAccount{
	{
		ID:               "demo-checking",
		Name:             "Demo Checking",
		MaskedNumber:     "****4821",
		BalanceAvailable: decimal.NewFromInt(25000),
		BalanceCurrent:   decimal.NewFromInt(25000),
	},
	{
		ID:               "demo-savings",
		Name:             "Demo Savings",
		MaskedNumber:     "****9377",
		BalanceAvailable: decimal.NewFromInt(100000),
		BalanceCurrent:   decimal.NewFromInt(100000),
	},
}

// CheckoutService drives the three-step investment checkout: amount entry,
// payment method selection, confirmation and submission. Session state lives
// in the session store keyed by user; each session carries a generation tag
// so completions of a superseded session are discarded instead of applied.
type CheckoutService struct {
	cfg         *config.Config
	session     SessionStore
	catalogApi  CatalogApi
	accountsApi AccountsApi
	paymentApi  PaymentApi
	repo        Repository
	notifier    Notifier
}

func New(
	cfg *config.Config,
	sessionStore SessionStore,
	catalogApi CatalogApi,
	accountsApi AccountsApi,
	paymentApi PaymentApi,
	repo Repository,
	notifier Notifier,
) *CheckoutService {
	return &CheckoutService{
		cfg:         cfg,
		session:     sessionStore,
		catalogApi:  catalogApi,
		accountsApi: accountsApi,
		paymentApi:  paymentApi,
		repo:        repo,
		notifier:    notifier,
	}
}

func (s *CheckoutService) InitSession(ctx context.Context, userID, propertyRef string) (model.CheckoutSession, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "CheckoutService.InitSession"

	slog.Debug("InitSession start", slog.String("rqID", rqID), slog.String("op", op), slog.String("propertyRef", propertyRef))
	defer func() {
		slog.Debug("InitSession finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("propertyRef", propertyRef))
	}()

	generation := int64(1)
	prev, err := s.session.GetSession(ctx, userID)
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		slog.Error("got error from session.GetSession", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.CheckoutSession{}, err
	}
	if err == nil {
		generation = prev.Generation + 1
	}

	sess := model.CheckoutSession{
		Generation:            generation,
		Step:                  model.StepAmount,
		PropertyRef:           propertyRef,
		PropertyDetailsStatus: model.FetchLoading,
	}

	if err := s.session.SetSession(ctx, userID, sess); err != nil {
		slog.Error("got error from session.SetSession", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.CheckoutSession{}, err
	}

	details, err := s.catalogApi.GetPropertyDetails(ctx, propertyRef)
	if err != nil {
		sess.PropertyDetailsStatus = model.FetchFailed
		if errors.Is(err, externalApi.ErrNotFound) {
			sess.PropertyDetailsError = "property not found"
		} else {
			slog.Error("got error from catalogApi.GetPropertyDetails", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
			sess.PropertyDetailsError = "failed to load property details"
		}
		return s.saveCompletion(ctx, userID, sess)
	}

	sess.PropertyDetailsStatus = model.FetchLoaded
	sess.PricePerShare = details.SharePrice()
	sess.OfferingAmount = details.OfferingAmount

	return s.saveCompletion(ctx, userID, sess)
}

func (s *CheckoutService) GetSession(ctx context.Context, userID string) (model.CheckoutSession, error) {
	sess, err := s.loadSession(ctx, userID)
	if err != nil {
		return model.CheckoutSession{}, err
	}
	return sess, nil
}

// SetAmount stores the entered amount and recomputes the share count. The
// minimum-investment check is deferred to AdvanceToPayment so the user can
// type freely; only non-numeric and non-positive input is rejected here.
// An empty value clears the amount.
func (s *CheckoutService) SetAmount(ctx context.Context, userID, rawAmount string) (model.CheckoutSession, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "CheckoutService.SetAmount"

	sess, err := s.loadSession(ctx, userID)
	if err != nil {
		return model.CheckoutSession{}, err
	}

	if rawAmount == "" {
		sess.Amount = decimal.Decimal{}
		sess.AmountSet = false
		sess.ShareCount = 0
	} else {
		amount, err := decimal.NewFromString(rawAmount)
		if err != nil {
			return model.CheckoutSession{}, fmt.Errorf("%w: amount must be a number", service.ErrValidation)
		}
		if !amount.IsPositive() {
			return model.CheckoutSession{}, fmt.Errorf("%w: amount must be positive", service.ErrValidation)
		}
		sess.Amount = amount
		sess.AmountSet = true
		sess.ShareCount = shareCount(amount, sess.PricePerShare)
	}

	if err := s.session.SetSession(ctx, userID, sess); err != nil {
		slog.Error("got error from session.SetSession", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.CheckoutSession{}, err
	}

	return sess, nil
}

func (s *CheckoutService) AdvanceToPayment(ctx context.Context, userID, authToken string) (model.CheckoutSession, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "CheckoutService.AdvanceToPayment"

	slog.Debug("AdvanceToPayment start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("AdvanceToPayment finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	if authToken == "" {
		return model.CheckoutSession{}, service.ErrUnauthenticated
	}

	sess, err := s.loadSession(ctx, userID)
	if err != nil {
		return model.CheckoutSession{}, err
	}

	if sess.Step != model.StepAmount {
		return model.CheckoutSession{}, fmt.Errorf("%w: checkout is already past the amount step", service.ErrValidation)
	}

	if !sess.AmountSet || !sess.Amount.IsPositive() {
		return model.CheckoutSession{}, fmt.Errorf("%w: enter an investment amount", service.ErrValidation)
	}

	if !sess.PricePerShare.IsPositive() {
		return model.CheckoutSession{}, fmt.Errorf("%w: property pricing is unavailable", service.ErrValidation)
	}

	if sess.Amount.LessThan(sess.PricePerShare) {
		return model.CheckoutSession{}, fmt.Errorf("%w: minimum investment is %s", service.ErrValidation, sess.PricePerShare.String())
	}

	sess.Step = model.StepPayment
	sess.AccountsStatus = model.FetchLoading

	if err := s.session.SetSession(ctx, userID, sess); err != nil {
		slog.Error("got error from session.SetSession", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.CheckoutSession{}, err
	}

	accounts, err := s.accountsApi.GetFundingAccounts(ctx, authToken)
	if err != nil {
		// The flow is not blocked on the accounts provider: fall back to the
		// placeholder list and flag the session so the caller knows the data
		// is illustrative.
		slog.Warn("can't get funding accounts, using placeholder list", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		sess.Accounts = placeholderAccounts
		sess.AccountsIllustrative = true
		sess.AccountsStatus = model.FetchLoaded
		return s.saveCompletion(ctx, userID, sess)
	}

	sess.Accounts = accounts
	sess.AccountsIllustrative = false
	sess.AccountsStatus = model.FetchLoaded

	return s.saveCompletion(ctx, userID, sess)
}

func (s *CheckoutService) SelectAccount(ctx context.Context, userID, accountID string) (model.CheckoutSession, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "CheckoutService.SelectAccount"

	sess, err := s.loadSession(ctx, userID)
	if err != nil {
		return model.CheckoutSession{}, err
	}

	if _, ok := sess.AccountByID(accountID); !ok {
		return model.CheckoutSession{}, fmt.Errorf("%w: unknown funding account", service.ErrNotFound)
	}

	sess.SelectedAccountID = accountID

	if err := s.session.SetSession(ctx, userID, sess); err != nil {
		slog.Error("got error from session.SetSession", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.CheckoutSession{}, err
	}

	return sess, nil
}

func (s *CheckoutService) AdvanceToConfirmation(ctx context.Context, userID, authToken string) (model.CheckoutSession, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "CheckoutService.AdvanceToConfirmation"

	sess, err := s.loadSession(ctx, userID)
	if err != nil {
		return model.CheckoutSession{}, err
	}

	if sess.Step != model.StepPayment {
		return model.CheckoutSession{}, fmt.Errorf("%w: checkout is not at the payment step", service.ErrValidation)
	}

	if sess.SelectedAccountID == "" {
		return model.CheckoutSession{}, fmt.Errorf("%w: select a payment method", service.ErrValidation)
	}

	sess.Step = model.StepConfirmation

	if err := s.session.SetSession(ctx, userID, sess); err != nil {
		slog.Error("got error from session.SetSession", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.CheckoutSession{}, err
	}

	// Best effort balance refresh; the confirmation screen renders either way.
	if authToken != "" && !sess.AccountsIllustrative {
		go s.refreshBalances(context.WithoutCancel(ctx), userID, authToken, sess.Generation)
	}

	return sess, nil
}

func (s *CheckoutService) GoBackToPayment(ctx context.Context, userID string) (model.CheckoutSession, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "CheckoutService.GoBackToPayment"

	sess, err := s.loadSession(ctx, userID)
	if err != nil {
		return model.CheckoutSession{}, err
	}

	if sess.Step != model.StepConfirmation {
		return model.CheckoutSession{}, fmt.Errorf("%w: back navigation is only possible from confirmation", service.ErrValidation)
	}

	sess.Step = model.StepPayment

	if err := s.session.SetSession(ctx, userID, sess); err != nil {
		slog.Error("got error from session.SetSession", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.CheckoutSession{}, err
	}

	return sess, nil
}

func (s *CheckoutService) SubmitPayment(ctx context.Context, userID, authToken string) (model.CheckoutSession, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "CheckoutService.SubmitPayment"

	slog.Debug("SubmitPayment start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("SubmitPayment finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	if authToken == "" {
		return model.CheckoutSession{}, service.ErrUnauthenticated
	}

	sess, err := s.loadSession(ctx, userID)
	if err != nil {
		return model.CheckoutSession{}, err
	}

	if sess.Step != model.StepConfirmation {
		return model.CheckoutSession{}, fmt.Errorf("%w: checkout is not at the confirmation step", service.ErrValidation)
	}

	if sess.PaymentStatus == model.PaymentProcessing {
		return model.CheckoutSession{}, service.ErrAlreadyInProgress
	}

	if sess.PaymentStatus == model.PaymentSucceeded {
		return model.CheckoutSession{}, fmt.Errorf("%w: payment already completed", service.ErrValidation)
	}

	if sess.SelectedAccountID == "" {
		return model.CheckoutSession{}, fmt.Errorf("%w: select a payment method", service.ErrValidation)
	}

	if !sess.AmountSet || !sess.Amount.IsPositive() {
		return model.CheckoutSession{}, fmt.Errorf("%w: enter an investment amount", service.ErrValidation)
	}

	account, ok := sess.AccountByID(sess.SelectedAccountID)
	if !ok {
		return model.CheckoutSession{}, fmt.Errorf("%w: unknown funding account", service.ErrNotFound)
	}

	// The balance check happens before the processor is contacted.
	if account.BalanceAvailable.LessThan(sess.Amount) {
		return model.CheckoutSession{}, service.ErrInsufficientFunds
	}

	// Claim the session before calling the processor: a second submit while
	// this one is in flight fails fast with ErrAlreadyInProgress. The claim is
	// a read-then-write on the session store and assumes one in-flight request
	// per user session; two submits racing between the read and the write
	// could both reach the processor.
	sess.PaymentStatus = model.PaymentProcessing
	sess.PaymentError = ""

	if err := s.session.SetSession(ctx, userID, sess); err != nil {
		slog.Error("got error from session.SetSession", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.CheckoutSession{}, err
	}

	order := model.PaymentOrder{
		PropertyRef: sess.PropertyRef,
		AccountID:   sess.SelectedAccountID,
		Amount:      sess.Amount,
		Reference:   uuid.NewString(),
	}

	result, err := s.paymentApi.Submit(ctx, authToken, order)
	if err != nil {
		if errors.Is(err, externalApi.ErrUnauthorized) {
			sess.PaymentStatus = model.PaymentIdle
			_, _ = s.saveCompletion(ctx, userID, sess)
			return model.CheckoutSession{}, service.ErrUnauthenticated
		}
		slog.Error("got error from paymentApi.Submit", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		sess.PaymentStatus = model.PaymentFailed
		sess.PaymentError = "payment could not be processed"
		go s.savePaymentHistory(context.WithoutCancel(ctx), userID, sess, order, "failed", sess.PaymentError)
		return s.saveCompletion(ctx, userID, sess)
	}

	if !result.Success {
		slog.Warn("payment declined", slog.String("rqID", rqID), slog.String("op", op), slog.String("message", result.Message))
		sess.PaymentStatus = model.PaymentFailed
		sess.PaymentError = result.Message
		go s.savePaymentHistory(context.WithoutCancel(ctx), userID, sess, order, "declined", result.Message)
		return s.saveCompletion(ctx, userID, sess)
	}

	sess.PaymentStatus = model.PaymentSucceeded
	go s.savePaymentHistory(context.WithoutCancel(ctx), userID, sess, order, "succeeded", result.Message)

	return s.saveCompletion(ctx, userID, sess)
}

// ResetSession clears every field back to defaults while keeping the
// generation moving forward, so in-flight fetches of the old session can
// never write into the new one.
func (s *CheckoutService) ResetSession(ctx context.Context, userID string) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "CheckoutService.ResetSession"

	prev, err := s.session.GetSession(ctx, userID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil
		}
		slog.Error("got error from session.GetSession", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	fresh := model.CheckoutSession{
		Generation: prev.Generation + 1,
		Step:       model.StepAmount,
	}

	if err := s.session.SetSession(ctx, userID, fresh); err != nil {
		slog.Error("got error from session.SetSession", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	return nil
}

func (s *CheckoutService) loadSession(ctx context.Context, userID string) (model.CheckoutSession, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	sess, err := s.session.GetSession(ctx, userID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return model.CheckoutSession{}, service.ErrSessionNotFound
		}
		slog.Error("got error from session.GetSession", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return model.CheckoutSession{}, err
	}

	return sess, nil
}

// saveCompletion persists the result of a collaborator call, but only when
// the stored session still has the same generation. A completion that lost
// the race to a reset is dropped and the current session is returned instead.
func (s *CheckoutService) saveCompletion(ctx context.Context, userID string, sess model.CheckoutSession) (model.CheckoutSession, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	current, err := s.session.GetSession(ctx, userID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			slog.Warn("discarding completion of a closed session", slog.String("rqID", rqID), slog.Int64("generation", sess.Generation))
			return model.CheckoutSession{}, service.ErrSessionNotFound
		}
		slog.Error("got error from session.GetSession", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return model.CheckoutSession{}, err
	}

	if current.Generation != sess.Generation {
		slog.Warn(
			"discarding stale completion",
			slog.String("rqID", rqID),
			slog.Int64("staleGeneration", sess.Generation),
			slog.Int64("currentGeneration", current.Generation),
		)
		return current, nil
	}

	if err := s.session.SetSession(ctx, userID, sess); err != nil {
		slog.Error("got error from session.SetSession", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return model.CheckoutSession{}, err
	}

	return sess, nil
}

func (s *CheckoutService) refreshBalances(ctx context.Context, userID, authToken string, generation int64) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "CheckoutService.refreshBalances"

	accounts, err := s.accountsApi.GetFundingAccounts(ctx, authToken)
	if err != nil {
		slog.Warn("balance refresh failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return
	}

	sess, err := s.session.GetSession(ctx, userID)
	if err != nil {
		return
	}
	if sess.Generation != generation {
		return
	}

	sess.Accounts = accounts
	sess.ShareCount = shareCount(sess.Amount, sess.PricePerShare)

	if err := s.session.SetSession(ctx, userID, sess); err != nil {
		slog.Warn("can't save refreshed balances", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}
}

func (s *CheckoutService) savePaymentHistory(ctx context.Context, userID string, sess model.CheckoutSession, order model.PaymentOrder, status, message string) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "CheckoutService.savePaymentHistory"

	slog.Debug("savePaymentHistory start", slog.String("rqID", rqID), slog.String("op", op), slog.String("reference", order.Reference))
	defer func() {
		slog.Debug("savePaymentHistory finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("reference", order.Reference))
	}()

	operation := model.PaymentOperation{
		InvestmentRef: order.Reference,
		PropertyRef:   order.PropertyRef,
		AccountID:     order.AccountID,
		Amount:        order.Amount,
		Status:        status,
		Message:       message,
	}

	// The investment row and its history row land together or not at all.
	err := s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		dbUserID, err := s.repo.UpsertUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("upsert user: %w", err)
		}

		if status == "succeeded" {
			investment := model.Investment{
				InvestmentRef: order.Reference,
				PropertyRef:   order.PropertyRef,
				ShareCount:    sess.ShareCount,
				PricePerShare: sess.PricePerShare,
				Amount:        order.Amount,
			}
			if err := s.repo.InsertInvestment(ctx, dbUserID, investment); err != nil {
				return fmt.Errorf("insert investment: %w", err)
			}
		}

		if err := s.repo.InsertPaymentOperation(ctx, dbUserID, operation); err != nil {
			return fmt.Errorf("insert payment operation: %w", err)
		}

		return nil
	})
	if err != nil {
		slog.Error("can't save payment history", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}

	s.notifier.NotifyPaymentResult(ctx, userID, operation)
}

func shareCount(amount, pricePerShare decimal.Decimal) int64 {
	if !pricePerShare.IsPositive() || !amount.IsPositive() {
		return 0
	}
	return amount.Div(pricePerShare).Floor().IntPart()
}
