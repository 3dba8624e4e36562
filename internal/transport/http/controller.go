package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/propshare/checkout/internal/converter/httpConverter"
	"github.com/propshare/checkout/internal/model"
	"github.com/propshare/checkout/internal/service"
	"github.com/propshare/checkout/utils"
)

type CheckoutService interface {
	InitSession(ctx context.Context, userID, propertyRef string) (model.CheckoutSession, error)
	GetSession(ctx context.Context, userID string) (model.CheckoutSession, error)
	SetAmount(ctx context.Context, userID, rawAmount string) (model.CheckoutSession, error)
	AdvanceToPayment(ctx context.Context, userID, authToken string) (model.CheckoutSession, error)
	SelectAccount(ctx context.Context, userID, accountID string) (model.CheckoutSession, error)
	AdvanceToConfirmation(ctx context.Context, userID, authToken string) (model.CheckoutSession, error)
	GoBackToPayment(ctx context.Context, userID string) (model.CheckoutSession, error)
	SubmitPayment(ctx context.Context, userID, authToken string) (model.CheckoutSession, error)
	ResetSession(ctx context.Context, userID string) error
}

type CatalogService interface {
	ListProperties(ctx context.Context) ([]model.PropertyDetails, error)
	GetProperty(ctx context.Context, propertyRef string) (model.PropertyDetails, error)
}

type PortfolioService interface {
	GetPortfolio(ctx context.Context, subject string) (model.Portfolio, error)
	GetPaymentHistory(ctx context.Context, subject string) ([]model.PaymentOperation, error)
	ExportStatement(ctx context.Context, subject string) (fileBytes []byte, fileExtension string, err error)
	ArchiveStatement(ctx context.Context, subject string) (downloadLink string, err error)
}

type WalletGateway interface {
	IsAvailable(ctx context.Context) (bool, error)
	RequestAccounts(ctx context.Context, authToken string) ([]string, error)
	SignMessage(ctx context.Context, authToken string, message string) (string, error)
}

type Controller struct {
	checkoutService  CheckoutService
	catalogService   CatalogService
	portfolioService PortfolioService
	wallet           WalletGateway
}

func NewController(
	checkoutService CheckoutService,
	catalogService CatalogService,
	portfolioService PortfolioService,
	wallet WalletGateway,
) *Controller {
	return &Controller{
		checkoutService:  checkoutService,
		catalogService:   catalogService,
		portfolioService: portfolioService,
		wallet:           wallet,
	}
}

type initCheckoutRequest struct {
	PropertyRef string `json:"propertyRef" binding:"required"`
}

type setAmountRequest struct {
	Amount string `json:"amount"`
}

type selectAccountRequest struct {
	AccountID string `json:"accountId" binding:"required"`
}

type signMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

func (ctrl *Controller) InitCheckout(c *gin.Context) {
	ctx := utils.CreateCtxWithRqID(c)

	var req initCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "propertyRef is required"})
		return
	}

	sess, err := ctrl.checkoutService.InitSession(ctx, userID(c), req.PropertyRef)
	if err != nil {
		ctrl.renderError(c, ctx, err)
		return
	}

	c.JSON(http.StatusCreated, httpConverter.ConvertCheckoutSession(sess))
}

func (ctrl *Controller) GetCheckout(c *gin.Context) {
	ctx := utils.CreateCtxWithRqID(c)

	sess, err := ctrl.checkoutService.GetSession(ctx, userID(c))
	if err != nil {
		ctrl.renderError(c, ctx, err)
		return
	}

	c.JSON(http.StatusOK, httpConverter.ConvertCheckoutSession(sess))
}

func (ctrl *Controller) SetAmount(c *gin.Context) {
	ctx := utils.CreateCtxWithRqID(c)

	var req setAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sess, err := ctrl.checkoutService.SetAmount(ctx, userID(c), req.Amount)
	if err != nil {
		ctrl.renderError(c, ctx, err)
		return
	}

	c.JSON(http.StatusOK, httpConverter.ConvertCheckoutSession(sess))
}

func (ctrl *Controller) AdvanceToPayment(c *gin.Context) {
	ctx := utils.CreateCtxWithRqID(c)

	sess, err := ctrl.checkoutService.AdvanceToPayment(ctx, userID(c), authToken(c))
	if err != nil {
		ctrl.renderError(c, ctx, err)
		return
	}

	c.JSON(http.StatusOK, httpConverter.ConvertCheckoutSession(sess))
}

func (ctrl *Controller) SelectAccount(c *gin.Context) {
	ctx := utils.CreateCtxWithRqID(c)

	var req selectAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "accountId is required"})
		return
	}

	sess, err := ctrl.checkoutService.SelectAccount(ctx, userID(c), req.AccountID)
	if err != nil {
		ctrl.renderError(c, ctx, err)
		return
	}

	c.JSON(http.StatusOK, httpConverter.ConvertCheckoutSession(sess))
}

func (ctrl *Controller) AdvanceToConfirmation(c *gin.Context) {
	ctx := utils.CreateCtxWithRqID(c)

	sess, err := ctrl.checkoutService.AdvanceToConfirmation(ctx, userID(c), authToken(c))
	if err != nil {
		ctrl.renderError(c, ctx, err)
		return
	}

	c.JSON(http.StatusOK, httpConverter.ConvertCheckoutSession(sess))
}

func (ctrl *Controller) GoBackToPayment(c *gin.Context) {
	ctx := utils.CreateCtxWithRqID(c)

	sess, err := ctrl.checkoutService.GoBackToPayment(ctx, userID(c))
	if err != nil {
		ctrl.renderError(c, ctx, err)
		return
	}

	c.JSON(http.StatusOK, httpConverter.ConvertCheckoutSession(sess))
}

func (ctrl *Controller) SubmitPayment(c *gin.Context) {
	ctx := utils.CreateCtxWithRqID(c)

	sess, err := ctrl.checkoutService.SubmitPayment(ctx, userID(c), authToken(c))
	if err != nil {
		ctrl.renderError(c, ctx, err)
		return
	}

	c.JSON(http.StatusOK, httpConverter.ConvertCheckoutSession(sess))
}

func (ctrl *Controller) ResetCheckout(c *gin.Context) {
	ctx := utils.CreateCtxWithRqID(c)

	if err := ctrl.checkoutService.ResetSession(ctx, userID(c)); err != nil {
		ctrl.renderError(c, ctx, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (ctrl *Controller) ListProperties(c *gin.Context) {
	ctx := utils.CreateCtxWithRqID(c)

	properties, err := ctrl.catalogService.ListProperties(ctx)
	if err != nil {
		ctrl.renderError(c, ctx, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"properties": httpConverter.ConvertProperties(properties)})
}

func (ctrl *Controller) GetProperty(c *gin.Context) {
	ctx := utils.CreateCtxWithRqID(c)

	details, err := ctrl.catalogService.GetProperty(ctx, c.Param("propertyRef"))
	if err != nil {
		ctrl.renderError(c, ctx, err)
		return
	}

	c.JSON(http.StatusOK, httpConverter.ConvertProperty(details))
}

func (ctrl *Controller) GetPortfolio(c *gin.Context) {
	ctx := utils.CreateCtxWithRqID(c)

	portfolio, err := ctrl.portfolioService.GetPortfolio(ctx, userID(c))
	if err != nil {
		ctrl.renderError(c, ctx, err)
		return
	}

	c.JSON(http.StatusOK, httpConverter.ConvertPortfolio(portfolio))
}

func (ctrl *Controller) GetPaymentHistory(c *gin.Context) {
	ctx := utils.CreateCtxWithRqID(c)

	operations, err := ctrl.portfolioService.GetPaymentHistory(ctx, userID(c))
	if err != nil {
		ctrl.renderError(c, ctx, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"operations": httpConverter.ConvertPaymentOperations(operations)})
}

func (ctrl *Controller) ExportStatement(c *gin.Context) {
	ctx := utils.CreateCtxWithRqID(c)

	fileBytes, fileExtension, err := ctrl.portfolioService.ExportStatement(ctx, userID(c))
	if err != nil {
		ctrl.renderError(c, ctx, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="statement`+fileExtension+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", fileBytes)
}

func (ctrl *Controller) ArchiveStatement(c *gin.Context) {
	ctx := utils.CreateCtxWithRqID(c)

	downloadLink, err := ctrl.portfolioService.ArchiveStatement(ctx, userID(c))
	if err != nil {
		ctrl.renderError(c, ctx, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"downloadLink": downloadLink})
}

func (ctrl *Controller) WalletStatus(c *gin.Context) {
	ctx := utils.CreateCtxWithRqID(c)

	available, err := ctrl.wallet.IsAvailable(ctx)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"available": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"available": available})
}

func (ctrl *Controller) WalletAccounts(c *gin.Context) {
	ctx := utils.CreateCtxWithRqID(c)

	accounts, err := ctrl.wallet.RequestAccounts(ctx, authToken(c))
	if err != nil {
		ctrl.renderError(c, ctx, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

func (ctrl *Controller) WalletSign(c *gin.Context) {
	ctx := utils.CreateCtxWithRqID(c)

	var req signMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	signature, err := ctrl.wallet.SignMessage(ctx, authToken(c), req.Message)
	if err != nil {
		ctrl.renderError(c, ctx, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"signature": signature})
}

func (ctrl *Controller) renderError(c *gin.Context, ctx context.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "checkout session not found"})
	case errors.Is(err, service.ErrInsufficientFunds):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "insufficient funds on the selected account"})
	case errors.Is(err, service.ErrAlreadyInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "payment is already processing"})
	case errors.Is(err, service.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "sign in to continue"})
	default:
		rqID := utils.GetRequestIDFromCtx(ctx)
		slog.Error("unhandled service error", slog.String("rqID", rqID), slog.String("err", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
	}
}

func userID(c *gin.Context) string {
	id, ok := c.Get("userID")
	if !ok {
		return ""
	}
	res, _ := id.(string)
	return res
}

func authToken(c *gin.Context) string {
	token, ok := c.Get("authToken")
	if !ok {
		return ""
	}
	res, _ := token.(string)
	return res
}
