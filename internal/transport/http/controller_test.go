package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/propshare/checkout/internal/model"
	"github.com/propshare/checkout/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCheckoutService struct {
	session model.CheckoutSession
	err     error
}

func (s *stubCheckoutService) InitSession(_ context.Context, _, _ string) (model.CheckoutSession, error) {
	return s.session, s.err
}

func (s *stubCheckoutService) GetSession(_ context.Context, _ string) (model.CheckoutSession, error) {
	return s.session, s.err
}

func (s *stubCheckoutService) SetAmount(_ context.Context, _, _ string) (model.CheckoutSession, error) {
	return s.session, s.err
}

func (s *stubCheckoutService) AdvanceToPayment(_ context.Context, _, _ string) (model.CheckoutSession, error) {
	return s.session, s.err
}

func (s *stubCheckoutService) SelectAccount(_ context.Context, _, _ string) (model.CheckoutSession, error) {
	return s.session, s.err
}

func (s *stubCheckoutService) AdvanceToConfirmation(_ context.Context, _, _ string) (model.CheckoutSession, error) {
	return s.session, s.err
}

func (s *stubCheckoutService) GoBackToPayment(_ context.Context, _ string) (model.CheckoutSession, error) {
	return s.session, s.err
}

func (s *stubCheckoutService) SubmitPayment(_ context.Context, _, _ string) (model.CheckoutSession, error) {
	return s.session, s.err
}

func (s *stubCheckoutService) ResetSession(_ context.Context, _ string) error {
	return s.err
}

type stubCatalogService struct {
	properties []model.PropertyDetails
	err        error
}

func (s *stubCatalogService) ListProperties(_ context.Context) ([]model.PropertyDetails, error) {
	return s.properties, s.err
}

func (s *stubCatalogService) GetProperty(_ context.Context, _ string) (model.PropertyDetails, error) {
	if s.err != nil {
		return model.PropertyDetails{}, s.err
	}
	return s.properties[0], nil
}

type stubPortfolioService struct{}

func (s *stubPortfolioService) GetPortfolio(_ context.Context, _ string) (model.Portfolio, error) {
	return model.Portfolio{Investments: []model.Investment{}}, nil
}

func (s *stubPortfolioService) GetPaymentHistory(_ context.Context, _ string) ([]model.PaymentOperation, error) {
	return []model.PaymentOperation{}, nil
}

func (s *stubPortfolioService) ExportStatement(_ context.Context, _ string) ([]byte, string, error) {
	return []byte("report"), ".xlsx", nil
}

func (s *stubPortfolioService) ArchiveStatement(_ context.Context, _ string) (string, error) {
	return "https://drive.example/statement.xlsx", nil
}

type stubWalletGateway struct {
	available bool
	err       error
}

func (s *stubWalletGateway) IsAvailable(_ context.Context) (bool, error) {
	return s.available, s.err
}

func (s *stubWalletGateway) RequestAccounts(_ context.Context, _ string) ([]string, error) {
	return []string{"0xabc"}, s.err
}

func (s *stubWalletGateway) SignMessage(_ context.Context, _ string, _ string) (string, error) {
	return "signature", s.err
}

func setupRouter(checkout CheckoutService, catalog CatalogService, wallet WalletGateway) *gin.Engine {
	gin.SetMode(gin.TestMode)
	ctrl := NewController(checkout, catalog, &stubPortfolioService{}, wallet)

	engine := gin.New()
	engine.POST("/checkout", ctrl.InitCheckout)
	engine.GET("/checkout", ctrl.GetCheckout)
	engine.PUT("/checkout/amount", ctrl.SetAmount)
	engine.POST("/checkout/submit", ctrl.SubmitPayment)
	engine.GET("/properties", ctrl.ListProperties)
	engine.GET("/wallet/status", ctrl.WalletStatus)
	return engine
}

func TestGetCheckout(t *testing.T) {
	checkout := &stubCheckoutService{
		session: model.CheckoutSession{
			Generation:    1,
			Step:          model.StepPayment,
			PropertyRef:   "prop-1",
			Amount:        decimal.NewFromInt(1000),
			AmountSet:     true,
			ShareCount:    10,
			PricePerShare: decimal.NewFromInt(100),
			Accounts: []model.FundingAccount{
				{ID: "a1", Name: "Checking", MaskedNumber: "****1111", BalanceAvailable: decimal.NewFromInt(5000), BalanceCurrent: decimal.NewFromInt(5000)},
			},
		},
	}
	router := setupRouter(checkout, &stubCatalogService{}, &stubWalletGateway{})

	req := httptest.NewRequest(http.MethodGet, "/checkout", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "payment", body["step"])
	assert.Equal(t, "1000", body["amount"])
	assert.Equal(t, float64(10), body["shareCount"])
}

func TestInitCheckout_MissingPropertyRef(t *testing.T) {
	router := setupRouter(&stubCheckoutService{}, &stubCatalogService{}, &stubWalletGateway{})

	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation", err: fmt.Errorf("%w: enter an investment amount", service.ErrValidation), want: http.StatusUnprocessableEntity},
		{name: "session not found", err: service.ErrSessionNotFound, want: http.StatusNotFound},
		{name: "insufficient funds", err: service.ErrInsufficientFunds, want: http.StatusUnprocessableEntity},
		{name: "already in progress", err: service.ErrAlreadyInProgress, want: http.StatusConflict},
		{name: "unauthenticated", err: service.ErrUnauthenticated, want: http.StatusUnauthorized},
		{name: "internal", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			router := setupRouter(&stubCheckoutService{err: tc.err}, &stubCatalogService{}, &stubWalletGateway{})

			req := httptest.NewRequest(http.MethodPost, "/checkout/submit", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestListProperties(t *testing.T) {
	catalog := &stubCatalogService{
		properties: []model.PropertyDetails{
			{
				Property:      model.Property{PropertyRef: "prop-1", Title: "Marina Tower", City: "Dubai", Active: true},
				PricePerShare: decimal.NewFromInt(100),
			},
		},
	}
	router := setupRouter(&stubCheckoutService{}, catalog, &stubWalletGateway{})

	req := httptest.NewRequest(http.MethodGet, "/properties", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Properties []struct {
			PropertyRef   string `json:"propertyRef"`
			PricePerShare string `json:"pricePerShare"`
		} `json:"properties"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Len(t, body.Properties, 1)
	assert.Equal(t, "prop-1", body.Properties[0].PropertyRef)
	assert.Equal(t, "100", body.Properties[0].PricePerShare)
}

func TestWalletStatus_ErrorMeansUnavailable(t *testing.T) {
	wallet := &stubWalletGateway{err: errors.New("extension not responding")}
	router := setupRouter(&stubCheckoutService{}, &stubCatalogService{}, wallet)

	req := httptest.NewRequest(http.MethodGet, "/wallet/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]bool
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.False(t, body["available"])
}
