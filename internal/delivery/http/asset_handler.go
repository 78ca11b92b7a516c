package http

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/NewtonHatesApples/FindUrCapitalKrooker/internal/domain"
)

// AssetHandler serves the tradable-instrument catalog and price charts
type AssetHandler struct {
	catalog domain.AssetCatalog
	market  domain.MarketDataService
}

// NewAssetHandler creates a new AssetHandler
func NewAssetHandler(catalog domain.AssetCatalog, market domain.MarketDataService) *AssetHandler {
	return &AssetHandler{catalog: catalog, market: market}
}

// List returns the whole catalog
// GET /api/assets
func (h *AssetHandler) List(c echo.Context) error {
	return SuccessResponse(c, h.catalog.All())
}

// Search returns catalog entries matching the query
// GET /api/assets/search?q=...
func (h *AssetHandler) Search(c echo.Context) error {
	results := h.catalog.Search(c.QueryParam("q"))
	if results == nil {
		results = []domain.Asset{}
	}
	return SuccessResponse(c, results)
}

// Get returns one asset with its live price
// GET /api/assets/:symbol
func (h *AssetHandler) Get(c echo.Context) error {
	symbol := c.Param("symbol")
	if !h.catalog.Exists(symbol) {
		return NotFoundResponse(c, "Invalid asset.")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	price, err := h.market.CurrentPrice(ctx, symbol)
	if err != nil {
		return BadGatewayResponse(c, "Price unavailable, please retry.")
	}

	return SuccessResponse(c, map[string]interface{}{
		"symbol": symbol,
		"name":   h.catalog.NameOf(symbol),
		"price":  price,
	})
}

// History returns chart samples for a named period
// GET /api/assets/:symbol/history/:period
func (h *AssetHandler) History(c echo.Context) error {
	symbol := c.Param("symbol")
	if !h.catalog.Exists(symbol) {
		return NotFoundResponse(c, "Invalid asset.")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	points, err := h.market.PriceHistory(ctx, symbol, c.Param("period"))
	if err != nil {
		return BadGatewayResponse(c, "Price history unavailable, please retry.")
	}

	dates := make([]string, 0, len(points))
	prices := make([]float64, 0, len(points))
	for _, p := range points {
		dates = append(dates, p.Time.Format("2006-01-02 15:04:05"))
		prices = append(prices, p.Price)
	}

	return SuccessResponse(c, map[string]interface{}{
		"dates":  dates,
		"prices": prices,
	})
}
