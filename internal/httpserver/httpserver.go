package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/propshare/checkout/config"
	transport "github.com/propshare/checkout/internal/transport/http"
	customMW "github.com/propshare/checkout/internal/transport/http/middleware"
)

type HTTPServer struct {
	cfg    *config.Config
	server *http.Server
}

func New(cfg *config.Config, ctrl *transport.Controller) *HTTPServer {
	engine := gin.New()
	engine.Use(gin.Recovery(), customMW.Logger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.HTTP.AllowedOrigins
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	engine.Use(cors.New(corsConfig))

	setupRoutes(cfg, engine, ctrl)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return &HTTPServer{cfg: cfg, server: server}
}

func (s *HTTPServer) Start() {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", slog.String("err", err.Error()))
			panic(err)
		}
	}()
	slog.Info("http server started", slog.Int("port", s.cfg.HTTP.Port))
}

func (s *HTTPServer) Stop() {
	slog.Info("start stopping http server")

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		slog.Error("http server shutdown error", slog.String("err", err.Error()))
	}

	slog.Info("http server stopped")
}

func setupRoutes(cfg *config.Config, engine *gin.Engine, ctrl *transport.Controller) {
	api := engine.Group("/api/v1")

	api.GET("/properties", ctrl.ListProperties)
	api.GET("/properties/:propertyRef", ctrl.GetProperty)
	api.GET("/wallet/status", ctrl.WalletStatus)

	authorized := api.Group("", customMW.Auth(cfg))

	authorized.POST("/checkout", ctrl.InitCheckout)
	authorized.GET("/checkout", ctrl.GetCheckout)
	authorized.PUT("/checkout/amount", ctrl.SetAmount)
	authorized.POST("/checkout/advance-to-payment", ctrl.AdvanceToPayment)
	authorized.PUT("/checkout/account", ctrl.SelectAccount)
	authorized.POST("/checkout/advance-to-confirmation", ctrl.AdvanceToConfirmation)
	authorized.POST("/checkout/back-to-payment", ctrl.GoBackToPayment)
	authorized.POST("/checkout/submit", ctrl.SubmitPayment)
	authorized.DELETE("/checkout", ctrl.ResetCheckout)

	authorized.GET("/portfolio", ctrl.GetPortfolio)
	authorized.GET("/portfolio/history", ctrl.GetPaymentHistory)
	authorized.GET("/portfolio/statement", ctrl.ExportStatement)
	authorized.POST("/portfolio/statement/archive", ctrl.ArchiveStatement)

	authorized.POST("/wallet/accounts", ctrl.WalletAccounts)
	authorized.POST("/wallet/sign", ctrl.WalletSign)
}
