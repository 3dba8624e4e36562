package checkoutService

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/propshare/checkout/config"
	"github.com/propshare/checkout/data/session"
	"github.com/propshare/checkout/internal/externalApi"
	"github.com/propshare/checkout/internal/model"
	"github.com/propshare/checkout/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]model.CheckoutSession
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{sessions: make(map[string]model.CheckoutSession)}
}

func (s *memorySessionStore) GetSession(_ context.Context, key string) (model.CheckoutSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[key]
	if !ok {
		return model.CheckoutSession{}, session.ErrNotFound
	}
	return sess, nil
}

func (s *memorySessionStore) SetSession(_ context.Context, key string, sess model.CheckoutSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[key] = sess
	return nil
}

type fakeCatalogApi struct {
	getPropertyDetails func(ctx context.Context, propertyRef string) (model.PropertyDetails, error)
}

func (f *fakeCatalogApi) GetPropertyDetails(ctx context.Context, propertyRef string) (model.PropertyDetails, error) {
	return f.getPropertyDetails(ctx, propertyRef)
}

type fakeAccountsApi struct {
	getFundingAccounts func(ctx context.Context, authToken string) ([]model.FundingAccount, error)
}

func (f *fakeAccountsApi) GetFundingAccounts(ctx context.Context, authToken string) ([]model.FundingAccount, error) {
	return f.getFundingAccounts(ctx, authToken)
}

type fakePaymentApi struct {
	mu     sync.Mutex
	calls  int
	submit func(ctx context.Context, authToken string, order model.PaymentOrder) (model.PaymentResult, error)
}

func (f *fakePaymentApi) Submit(ctx context.Context, authToken string, order model.PaymentOrder) (model.PaymentResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.submit(ctx, authToken, order)
}

func (f *fakePaymentApi) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeRepository struct {
	mu             sync.Mutex
	txDepth        int
	investments    []model.Investment
	investmentInTx bool
	operationInTx  bool
	operations     chan model.PaymentOperation
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{operations: make(chan model.PaymentOperation, 4)}
}

func (f *fakeRepository) WithinTransaction(ctx context.Context, tFunc func(ctx context.Context) error) error {
	f.mu.Lock()
	f.txDepth++
	f.mu.Unlock()

	err := tFunc(ctx)

	f.mu.Lock()
	f.txDepth--
	f.mu.Unlock()

	return err
}

func (f *fakeRepository) UpsertUser(_ context.Context, _ string) (int64, error) {
	return 1, nil
}

func (f *fakeRepository) InsertInvestment(_ context.Context, _ int64, investment model.Investment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.investments = append(f.investments, investment)
	f.investmentInTx = f.txDepth > 0
	return nil
}

func (f *fakeRepository) InsertPaymentOperation(_ context.Context, _ int64, operation model.PaymentOperation) error {
	f.mu.Lock()
	f.operationInTx = f.txDepth > 0
	f.mu.Unlock()
	f.operations <- operation
	return nil
}

func (f *fakeRepository) insertsWereTransactional() (investment, operation bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.investmentInTx, f.operationInTx
}

func (f *fakeRepository) savedInvestments() []model.Investment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Investment(nil), f.investments...)
}

func (f *fakeRepository) waitOperation(t *testing.T) model.PaymentOperation {
	t.Helper()
	select {
	case op := <-f.operations:
		return op
	case <-time.After(time.Second):
		t.Fatal("payment operation was not recorded")
		return model.PaymentOperation{}
	}
}

type fakeNotifier struct{}

func (f *fakeNotifier) NotifyPaymentResult(_ context.Context, _ string, _ model.PaymentOperation) {}

type fixture struct {
	srv      *CheckoutService
	store    *memorySessionStore
	catalog  *fakeCatalogApi
	accounts *fakeAccountsApi
	payment  *fakePaymentApi
	repo     *fakeRepository
}

func newFixture() *fixture {
	store := newMemorySessionStore()
	catalog := &fakeCatalogApi{
		getPropertyDetails: func(_ context.Context, propertyRef string) (model.PropertyDetails, error) {
			return model.PropertyDetails{
				Property:       model.Property{PropertyRef: propertyRef, Title: "Marina Tower", City: "Dubai", Active: true},
				PricePerShare:  decimal.NewFromInt(100),
				OfferingAmount: decimal.NewFromInt(500000),
			}, nil
		},
	}
	accounts := &fakeAccountsApi{
		getFundingAccounts: func(_ context.Context, _ string) ([]model.FundingAccount, error) {
			return []model.FundingAccount{
				{
					ID:               "a1",
					Name:             "Checking",
					MaskedNumber:     "****1111",
					BalanceAvailable: decimal.NewFromInt(5000),
					BalanceCurrent:   decimal.NewFromInt(5000),
				},
				{
					ID:               "a2",
					Name:             "Savings",
					MaskedNumber:     "****2222",
					BalanceAvailable: decimal.NewFromInt(500),
					BalanceCurrent:   decimal.NewFromInt(500),
				},
			}, nil
		},
	}
	payment := &fakePaymentApi{
		submit: func(_ context.Context, _ string, _ model.PaymentOrder) (model.PaymentResult, error) {
			return model.PaymentResult{Success: true}, nil
		},
	}
	repo := newFakeRepository()

	srv := New(&config.Config{}, store, catalog, accounts, payment, repo, &fakeNotifier{})

	return &fixture{srv: srv, store: store, catalog: catalog, accounts: accounts, payment: payment, repo: repo}
}

// toConfirmation walks a fresh session through init, amount entry, payment
// method selection and the confirmation step.
func (f *fixture) toConfirmation(t *testing.T, ctx context.Context, amount string) model.CheckoutSession {
	t.Helper()

	_, err := f.srv.InitSession(ctx, "user-1", "prop-1")
	require.NoError(t, err)

	_, err = f.srv.SetAmount(ctx, "user-1", amount)
	require.NoError(t, err)

	_, err = f.srv.AdvanceToPayment(ctx, "user-1", "token")
	require.NoError(t, err)

	_, err = f.srv.SelectAccount(ctx, "user-1", "a1")
	require.NoError(t, err)

	sess, err := f.srv.AdvanceToConfirmation(ctx, "user-1", "token")
	require.NoError(t, err)
	require.Equal(t, model.StepConfirmation, sess.Step)

	return sess
}

func TestInitSession(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	sess, err := f.srv.InitSession(ctx, "user-1", "prop-1")
	require.NoError(t, err)

	assert.Equal(t, int64(1), sess.Generation)
	assert.Equal(t, model.StepAmount, sess.Step)
	assert.Equal(t, "prop-1", sess.PropertyRef)
	assert.Equal(t, model.FetchLoaded, sess.PropertyDetailsStatus)
	assert.True(t, sess.PricePerShare.Equal(decimal.NewFromInt(100)))
	assert.False(t, sess.AmountSet)
}

func TestInitSession_PropertyNotFound(t *testing.T) {
	f := newFixture()
	f.catalog.getPropertyDetails = func(_ context.Context, _ string) (model.PropertyDetails, error) {
		return model.PropertyDetails{}, externalApi.ErrNotFound
	}
	ctx := context.Background()

	sess, err := f.srv.InitSession(ctx, "user-1", "missing")
	require.NoError(t, err)

	assert.Equal(t, model.FetchFailed, sess.PropertyDetailsStatus)
	assert.Equal(t, "property not found", sess.PropertyDetailsError)
}

func TestInitSession_RetryAfterFailure(t *testing.T) {
	f := newFixture()
	failing := true
	f.catalog.getPropertyDetails = func(_ context.Context, propertyRef string) (model.PropertyDetails, error) {
		if failing {
			return model.PropertyDetails{}, errors.New("catalog unavailable")
		}
		return model.PropertyDetails{
			Property:      model.Property{PropertyRef: propertyRef},
			PricePerShare: decimal.NewFromInt(100),
		}, nil
	}
	ctx := context.Background()

	sess, err := f.srv.InitSession(ctx, "user-1", "prop-1")
	require.NoError(t, err)
	assert.Equal(t, model.FetchFailed, sess.PropertyDetailsStatus)
	assert.Equal(t, "failed to load property details", sess.PropertyDetailsError)

	failing = false

	sess, err = f.srv.InitSession(ctx, "user-1", "prop-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), sess.Generation)
	assert.Equal(t, model.FetchLoaded, sess.PropertyDetailsStatus)
	assert.Empty(t, sess.PropertyDetailsError)
}

func TestInitSession_ResetDuringFetchDiscardsCompletion(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.catalog.getPropertyDetails = func(_ context.Context, propertyRef string) (model.PropertyDetails, error) {
		// The session gets reset while the details fetch is in flight.
		require.NoError(t, f.srv.ResetSession(ctx, "user-1"))
		return model.PropertyDetails{
			Property:      model.Property{PropertyRef: propertyRef},
			PricePerShare: decimal.NewFromInt(100),
		}, nil
	}

	sess, err := f.srv.InitSession(ctx, "user-1", "prop-1")
	require.NoError(t, err)

	assert.Equal(t, int64(2), sess.Generation)
	assert.Equal(t, model.FetchIdle, sess.PropertyDetailsStatus)
	assert.True(t, sess.PricePerShare.IsZero())
}

func TestSetAmount(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.srv.InitSession(ctx, "user-1", "prop-1")
	require.NoError(t, err)

	sess, err := f.srv.SetAmount(ctx, "user-1", "250")
	require.NoError(t, err)
	assert.True(t, sess.AmountSet)
	assert.True(t, sess.Amount.Equal(decimal.NewFromInt(250)))
	assert.Equal(t, int64(2), sess.ShareCount)

	sess, err = f.srv.SetAmount(ctx, "user-1", "")
	require.NoError(t, err)
	assert.False(t, sess.AmountSet)
	assert.Equal(t, int64(0), sess.ShareCount)
}

func TestSetAmount_Invalid(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.srv.InitSession(ctx, "user-1", "prop-1")
	require.NoError(t, err)

	_, err = f.srv.SetAmount(ctx, "user-1", "abc")
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = f.srv.SetAmount(ctx, "user-1", "-50")
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = f.srv.SetAmount(ctx, "user-1", "0")
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestSetAmount_NoSession(t *testing.T) {
	f := newFixture()

	_, err := f.srv.SetAmount(context.Background(), "user-1", "250")
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
}

func TestAdvanceToPayment(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.srv.InitSession(ctx, "user-1", "prop-1")
	require.NoError(t, err)

	_, err = f.srv.SetAmount(ctx, "user-1", "1000")
	require.NoError(t, err)

	sess, err := f.srv.AdvanceToPayment(ctx, "user-1", "token")
	require.NoError(t, err)

	assert.Equal(t, model.StepPayment, sess.Step)
	assert.Equal(t, model.FetchLoaded, sess.AccountsStatus)
	assert.Len(t, sess.Accounts, 2)
	assert.False(t, sess.AccountsIllustrative)
}

func TestAdvanceToPayment_Unauthenticated(t *testing.T) {
	f := newFixture()

	_, err := f.srv.AdvanceToPayment(context.Background(), "user-1", "")
	assert.ErrorIs(t, err, service.ErrUnauthenticated)
}

func TestAdvanceToPayment_AmountValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.srv.InitSession(ctx, "user-1", "prop-1")
	require.NoError(t, err)

	// No amount entered yet.
	_, err = f.srv.AdvanceToPayment(ctx, "user-1", "token")
	assert.ErrorIs(t, err, service.ErrValidation)

	// Below the price of a single share.
	_, err = f.srv.SetAmount(ctx, "user-1", "50")
	require.NoError(t, err)
	_, err = f.srv.AdvanceToPayment(ctx, "user-1", "token")
	assert.ErrorIs(t, err, service.ErrValidation)

	sess, err := f.srv.GetSession(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, model.StepAmount, sess.Step)
}

func TestAdvanceToPayment_AccountsFallback(t *testing.T) {
	f := newFixture()
	f.accounts.getFundingAccounts = func(_ context.Context, _ string) ([]model.FundingAccount, error) {
		return nil, errors.New("provider down")
	}
	ctx := context.Background()

	_, err := f.srv.InitSession(ctx, "user-1", "prop-1")
	require.NoError(t, err)

	_, err = f.srv.SetAmount(ctx, "user-1", "1000")
	require.NoError(t, err)

	sess, err := f.srv.AdvanceToPayment(ctx, "user-1", "token")
	require.NoError(t, err)

	assert.Equal(t, model.StepPayment, sess.Step)
	assert.True(t, sess.AccountsIllustrative)
	require.Len(t, sess.Accounts, 2)
	assert.Equal(t, "demo-checking", sess.Accounts[0].ID)
	assert.Equal(t, "demo-savings", sess.Accounts[1].ID)
}

func TestSelectAccount_Unknown(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.srv.InitSession(ctx, "user-1", "prop-1")
	require.NoError(t, err)
	_, err = f.srv.SetAmount(ctx, "user-1", "1000")
	require.NoError(t, err)
	_, err = f.srv.AdvanceToPayment(ctx, "user-1", "token")
	require.NoError(t, err)

	_, err = f.srv.SelectAccount(ctx, "user-1", "nope")
	assert.ErrorIs(t, err, service.ErrNotFound)

	sess, err := f.srv.GetSession(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, sess.SelectedAccountID)
}

func TestAdvanceToConfirmation_RequiresSelection(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.srv.InitSession(ctx, "user-1", "prop-1")
	require.NoError(t, err)
	_, err = f.srv.SetAmount(ctx, "user-1", "1000")
	require.NoError(t, err)
	_, err = f.srv.AdvanceToPayment(ctx, "user-1", "token")
	require.NoError(t, err)

	_, err = f.srv.AdvanceToConfirmation(ctx, "user-1", "token")
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestAdvanceToConfirmation_WrongStep(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.srv.InitSession(ctx, "user-1", "prop-1")
	require.NoError(t, err)

	_, err = f.srv.AdvanceToConfirmation(ctx, "user-1", "token")
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestGoBackToPayment(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.toConfirmation(t, ctx, "1000")

	sess, err := f.srv.GoBackToPayment(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, model.StepPayment, sess.Step)
	assert.Equal(t, "a1", sess.SelectedAccountID)

	// Only the confirmation step allows going back.
	_, err = f.srv.GoBackToPayment(ctx, "user-1")
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestSubmitPayment_Success(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.toConfirmation(t, ctx, "1000")

	sess, err := f.srv.SubmitPayment(ctx, "user-1", "token")
	require.NoError(t, err)

	assert.Equal(t, model.PaymentSucceeded, sess.PaymentStatus)
	assert.Empty(t, sess.PaymentError)
	assert.Equal(t, 1, f.payment.callCount())

	operation := f.repo.waitOperation(t)
	assert.Equal(t, "succeeded", operation.Status)
	assert.Equal(t, "prop-1", operation.PropertyRef)
	assert.Equal(t, "a1", operation.AccountID)

	investments := f.repo.savedInvestments()
	require.Len(t, investments, 1)
	assert.Equal(t, int64(10), investments[0].ShareCount)
	assert.True(t, investments[0].Amount.Equal(decimal.NewFromInt(1000)))
}

func TestSubmitPayment_HistoryIsTransactional(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.toConfirmation(t, ctx, "1000")

	_, err := f.srv.SubmitPayment(ctx, "user-1", "token")
	require.NoError(t, err)

	f.repo.waitOperation(t)

	investmentInTx, operationInTx := f.repo.insertsWereTransactional()
	assert.True(t, investmentInTx)
	assert.True(t, operationInTx)
}

func TestSubmitPayment_InsufficientFunds(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.srv.InitSession(ctx, "user-1", "prop-1")
	require.NoError(t, err)
	_, err = f.srv.SetAmount(ctx, "user-1", "1000")
	require.NoError(t, err)
	_, err = f.srv.AdvanceToPayment(ctx, "user-1", "token")
	require.NoError(t, err)
	_, err = f.srv.SelectAccount(ctx, "user-1", "a2") // balance 500
	require.NoError(t, err)
	_, err = f.srv.AdvanceToConfirmation(ctx, "user-1", "token")
	require.NoError(t, err)

	_, err = f.srv.SubmitPayment(ctx, "user-1", "token")
	assert.ErrorIs(t, err, service.ErrInsufficientFunds)
	assert.Equal(t, 0, f.payment.callCount())
}

func TestSubmitPayment_DoubleSubmit(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.toConfirmation(t, ctx, "1000")

	// The second submit arrives while the first one is still at the
	// processor; it must fail fast without another processor call.
	f.payment.submit = func(_ context.Context, _ string, _ model.PaymentOrder) (model.PaymentResult, error) {
		_, err := f.srv.SubmitPayment(ctx, "user-1", "token")
		assert.ErrorIs(t, err, service.ErrAlreadyInProgress)
		return model.PaymentResult{Success: true}, nil
	}

	sess, err := f.srv.SubmitPayment(ctx, "user-1", "token")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentSucceeded, sess.PaymentStatus)
	assert.Equal(t, 1, f.payment.callCount())
}

func TestSubmitPayment_Repeated(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.toConfirmation(t, ctx, "1000")

	_, err := f.srv.SubmitPayment(ctx, "user-1", "token")
	require.NoError(t, err)

	_, err = f.srv.SubmitPayment(ctx, "user-1", "token")
	assert.ErrorIs(t, err, service.ErrValidation)
	assert.Equal(t, 1, f.payment.callCount())
}

func TestSubmitPayment_Declined(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.toConfirmation(t, ctx, "1000")

	f.payment.submit = func(_ context.Context, _ string, _ model.PaymentOrder) (model.PaymentResult, error) {
		return model.PaymentResult{Success: false, Message: "card declined"}, nil
	}

	sess, err := f.srv.SubmitPayment(ctx, "user-1", "token")
	require.NoError(t, err)

	assert.Equal(t, model.PaymentFailed, sess.PaymentStatus)
	assert.Equal(t, "card declined", sess.PaymentError)

	operation := f.repo.waitOperation(t)
	assert.Equal(t, "declined", operation.Status)
	assert.Empty(t, f.repo.savedInvestments())
}

func TestSubmitPayment_TransportError(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.toConfirmation(t, ctx, "1000")

	f.payment.submit = func(_ context.Context, _ string, _ model.PaymentOrder) (model.PaymentResult, error) {
		return model.PaymentResult{}, errors.New("connection reset")
	}

	sess, err := f.srv.SubmitPayment(ctx, "user-1", "token")
	require.NoError(t, err)

	assert.Equal(t, model.PaymentFailed, sess.PaymentStatus)
	assert.Equal(t, "payment could not be processed", sess.PaymentError)

	operation := f.repo.waitOperation(t)
	assert.Equal(t, "failed", operation.Status)

	// A failed attempt can be retried.
	f.payment.submit = func(_ context.Context, _ string, _ model.PaymentOrder) (model.PaymentResult, error) {
		return model.PaymentResult{Success: true}, nil
	}
	sess, err = f.srv.SubmitPayment(ctx, "user-1", "token")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentSucceeded, sess.PaymentStatus)
}

func TestSubmitPayment_TokenExpired(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.toConfirmation(t, ctx, "1000")

	f.payment.submit = func(_ context.Context, _ string, _ model.PaymentOrder) (model.PaymentResult, error) {
		return model.PaymentResult{}, externalApi.ErrUnauthorized
	}

	_, err := f.srv.SubmitPayment(ctx, "user-1", "token")
	assert.ErrorIs(t, err, service.ErrUnauthenticated)

	sess, err := f.srv.GetSession(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentIdle, sess.PaymentStatus)
}

func TestResetSession(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.toConfirmation(t, ctx, "1000")

	require.NoError(t, f.srv.ResetSession(ctx, "user-1"))

	sess, err := f.srv.GetSession(ctx, "user-1")
	require.NoError(t, err)

	assert.Equal(t, int64(2), sess.Generation)
	assert.Equal(t, model.StepAmount, sess.Step)
	assert.Empty(t, sess.PropertyRef)
	assert.Empty(t, sess.SelectedAccountID)
	assert.False(t, sess.AmountSet)
	assert.Empty(t, sess.Accounts)
	assert.Equal(t, model.PaymentIdle, sess.PaymentStatus)
}

func TestResetSession_NoSession(t *testing.T) {
	f := newFixture()

	assert.NoError(t, f.srv.ResetSession(context.Background(), "user-1"))
}

// toPaymentStep stops before confirmation so no background balance refresh
// is in flight.
func (f *fixture) toPaymentStep(t *testing.T, ctx context.Context) model.CheckoutSession {
	t.Helper()

	_, err := f.srv.InitSession(ctx, "user-1", "prop-1")
	require.NoError(t, err)
	_, err = f.srv.SetAmount(ctx, "user-1", "1000")
	require.NoError(t, err)
	_, err = f.srv.AdvanceToPayment(ctx, "user-1", "token")
	require.NoError(t, err)

	sess, err := f.srv.SelectAccount(ctx, "user-1", "a1")
	require.NoError(t, err)

	return sess
}

func TestRefreshBalances(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	sess := f.toPaymentStep(t, ctx)

	f.accounts.getFundingAccounts = func(_ context.Context, _ string) ([]model.FundingAccount, error) {
		return []model.FundingAccount{
			{ID: "a1", Name: "Checking", MaskedNumber: "****1111", BalanceAvailable: decimal.NewFromInt(9000), BalanceCurrent: decimal.NewFromInt(9000)},
		}, nil
	}

	f.srv.refreshBalances(ctx, "user-1", "token", sess.Generation)

	got, err := f.srv.GetSession(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, got.Accounts, 1)
	assert.True(t, got.Accounts[0].BalanceAvailable.Equal(decimal.NewFromInt(9000)))
	assert.Equal(t, int64(10), got.ShareCount)
}

func TestRefreshBalances_StaleGeneration(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	sess := f.toPaymentStep(t, ctx)

	f.accounts.getFundingAccounts = func(_ context.Context, _ string) ([]model.FundingAccount, error) {
		return []model.FundingAccount{
			{ID: "a1", Name: "Checking", MaskedNumber: "****1111", BalanceAvailable: decimal.NewFromInt(9000), BalanceCurrent: decimal.NewFromInt(9000)},
		}, nil
	}

	f.srv.refreshBalances(ctx, "user-1", "token", sess.Generation+1)

	got, err := f.srv.GetSession(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, got.Accounts, 2)
	assert.True(t, got.Accounts[0].BalanceAvailable.Equal(decimal.NewFromInt(5000)))
}

func TestRefreshBalances_ProviderFailure(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	sess := f.toPaymentStep(t, ctx)

	f.accounts.getFundingAccounts = func(_ context.Context, _ string) ([]model.FundingAccount, error) {
		return nil, errors.New("provider down")
	}

	f.srv.refreshBalances(ctx, "user-1", "token", sess.Generation)

	got, err := f.srv.GetSession(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, got.Accounts, 2)
	assert.True(t, got.Accounts[0].BalanceAvailable.Equal(decimal.NewFromInt(5000)))
}

func TestShareCount(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		price  string
		want   int64
	}{
		{name: "exact multiple", amount: "1000", price: "100", want: 10},
		{name: "rounds down", amount: "250", price: "100", want: 2},
		{name: "below one share", amount: "99.99", price: "100", want: 0},
		{name: "fractional price", amount: "100", price: "33.33", want: 3},
		{name: "zero price", amount: "100", price: "0", want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			amount := decimal.RequireFromString(tc.amount)
			price := decimal.RequireFromString(tc.price)
			assert.Equal(t, tc.want, shareCount(amount, price))
		})
	}
}
