package handler

import (
	"github.com/labstack/echo/v4"
)

// PriceHandler answers the two price-quote routes. Both delegate to a
// fiat/byte-count pricing oracle that is explicitly out of this core's
// scope (spec §1); these are thin passthrough stubs documenting the
// contract shape, not a pricing implementation.
type PriceHandler struct{}

// NewPriceHandler creates a new PriceHandler.
func NewPriceHandler() *PriceHandler {
	return &PriceHandler{}
}

// PriceForBytes answers GET /v1/price/bytes/:n with the winc cost of n
// bytes. No pricing oracle is wired into this module, so every request
// reports unavailable rather than guessing at a price.
func (h *PriceHandler) PriceForBytes(c echo.Context) error {
	return NewInternalError(c, "pricing oracle not configured")
}

// PriceForFiat answers GET /v1/price/:currency/:value with the winc
// amount a fiat value buys. Same passthrough-stub status as PriceForBytes.
func (h *PriceHandler) PriceForFiat(c echo.Context) error {
	return NewInternalError(c, "pricing oracle not configured")
}
