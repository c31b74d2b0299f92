package handler

import (
	"github.com/labstack/echo/v4"
)

// RouteDeps bundles every handler RegisterRoutes needs to wire the full
// route table of spec §6.
type RouteDeps struct {
	Price             *PriceHandler
	Balance           *BalanceHandler
	TopUp             *TopUpHandler
	Ledger            *LedgerHandler
	StripeWebhook     *StripeWebhookHandler
	APIToken          *APITokenHandler
	BypassedReceipt   *BypassedReceiptHandler

	WalletAuth  echo.MiddlewareFunc
	BearerAuth  echo.MiddlewareFunc
	AdminAuth   echo.MiddlewareFunc
	RateLimit   echo.MiddlewareFunc
}

// RegisterRoutes binds every route of spec §6 to e.
func RegisterRoutes(e *echo.Echo, deps RouteDeps) {
	e.GET("/health", Health)

	v1 := e.Group("/v1")

	v1.GET("/price/bytes/:n", deps.Price.PriceForBytes)
	v1.GET("/price/:currency/:value", deps.Price.PriceForFiat)

	balance := v1.Group("/balance")
	balance.Use(deps.WalletAuth)
	balance.GET("", deps.Balance.GetBalance)

	topUp := v1.Group("/top-up")
	topUp.GET("/checkout-session/:address/:currency/:amount", deps.TopUp.CreateCheckoutSession)
	topUp.GET("/payment-intent/:address/:currency/:amount", deps.TopUp.CreateCheckoutSession)

	reserve := v1.Group("/reserve-balance")
	reserve.Use(deps.BearerAuth, deps.RateLimit)
	reserve.GET("/:address/:byteCount", deps.Ledger.ReserveBalance)

	refund := v1.Group("/refund-balance")
	refund.Use(deps.BearerAuth, deps.RateLimit)
	refund.GET("/:address/:winc", deps.Ledger.RefundBalance)

	v1.POST("/stripe-webhook", deps.StripeWebhook.HandleWebhook)

	admin := v1.Group("/admin")
	admin.Use(deps.AdminAuth)
	admin.POST("/bypassed-payment-receipts", deps.BypassedReceipt.CreateBypassedReceipts)
	admin.POST("/api-tokens", deps.APIToken.CreateAPIToken)
	admin.GET("/api-tokens", deps.APIToken.GetAPITokens)
	admin.DELETE("/api-tokens/:id", deps.APIToken.RevokeAPIToken)
}
