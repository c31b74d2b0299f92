package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardriveapp/turbo-winc-ledger/internal/config"
	"github.com/ardriveapp/turbo-winc-ledger/internal/gateway"
	"github.com/ardriveapp/turbo-winc-ledger/internal/gateway/stripe"
	"github.com/ardriveapp/turbo-winc-ledger/internal/handler"
	"github.com/ardriveapp/turbo-winc-ledger/internal/middleware"
	"github.com/ardriveapp/turbo-winc-ledger/internal/repository/postgres"
	"github.com/ardriveapp/turbo-winc-ledger/internal/service"
	"github.com/ardriveapp/turbo-winc-ledger/internal/service/adjustmentengine"
	"github.com/ardriveapp/turbo-winc-ledger/internal/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("NODE_ENV") != "prod" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	writerPool, err := pgxpool.New(context.Background(), cfg.DBWriter.ConnString())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to writer database")
	}
	defer writerPool.Close()
	if err := writerPool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to ping writer database")
	}

	readerPool, err := pgxpool.New(context.Background(), cfg.DBReader.ConnString())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to reader database")
	}
	defer readerPool.Close()
	if err := readerPool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to ping reader database")
	}
	log.Info().Msg("connected to database")

	ledgerStore := postgres.NewLedgerStore(writerPool, readerPool, log.Logger, cfg.CryptoFundExcludedAddresses)
	catalogRepo := postgres.NewCatalogRepository(readerPool)
	apiTokenRepo := postgres.NewAPITokenRepository(writerPool)

	engine := adjustmentengine.New(catalogRepo)

	var paymentGateway gateway.PaymentGateway = stripe.NewGateway(
		cfg.StripeSecretKey,
		cfg.StripeWebhookSecret,
		successURLFromEnv(),
		cancelURLFromEnv(),
	)
	var chainGateway gateway.ChainStatusGateway = gateway.NoopChainStatusGateway{}

	hub := websocket.NewHub()

	apiTokenService := service.NewAPITokenService(apiTokenRepo)
	topUpService := service.NewTopUpService(ledgerStore, engine, paymentGateway, hub, log.Logger)
	cryptoService := service.NewCryptoService(ledgerStore, cfg.CryptoFundExcludedAddresses, hub, log.Logger)
	cryptoPoller := service.NewCryptoPoller(ledgerStore, chainGateway, cryptoService, 5*time.Minute, log.Logger)

	adminAuthMiddleware, err := middleware.NewAdminAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create admin auth middleware")
	}

	rateLimiter := middleware.NewRateLimiter()
	defer rateLimiter.Stop()

	routeDeps := handler.RouteDeps{
		Price:           handler.NewPriceHandler(),
		Balance:         handler.NewBalanceHandler(ledgerStore),
		TopUp:           handler.NewTopUpHandler(topUpService),
		Ledger:          handler.NewLedgerHandler(ledgerStore, engine),
		StripeWebhook:   handler.NewStripeWebhookHandler(topUpService, paymentGateway),
		APIToken:        handler.NewAPITokenHandler(apiTokenService),
		BypassedReceipt: handler.NewBypassedReceiptHandler(ledgerStore),
		WalletAuth:      middleware.WalletAuthMiddleware(),
		BearerAuth:      middleware.BearerAuthMiddleware(apiTokenService),
		AdminAuth:       adminAuthMiddleware,
		RateLimit:       middleware.RateLimitMiddleware(rateLimiter),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           86400,
	}))
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))
	e.Use(zerologMiddleware())
	e.Use(echomiddleware.Recover())

	handler.RegisterRoutes(e, routeDeps)

	ctx, cancel := context.WithCancel(context.Background())
	cryptoPoller.Start(ctx)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	cancel()
	cryptoPoller.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

func successURLFromEnv() string {
	if v := os.Getenv("STRIPE_SUCCESS_URL"); v != "" {
		return v
	}
	return "https://app.ardrive.io/top-up/success"
}

func cancelURLFromEnv() string {
	if v := os.Getenv("STRIPE_CANCEL_URL"); v != "" {
		return v
	}
	return "https://app.ardrive.io/top-up/cancel"
}

// zerologMiddleware logs every request's method, path, status, and
// latency using zerolog.
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
