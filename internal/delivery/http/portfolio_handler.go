package http

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/NewtonHatesApples/FindUrCapitalKrooker/internal/delivery/http/dto"
	"github.com/NewtonHatesApples/FindUrCapitalKrooker/internal/domain"
	"github.com/NewtonHatesApples/FindUrCapitalKrooker/internal/middleware"
	"github.com/NewtonHatesApples/FindUrCapitalKrooker/internal/service"
	"github.com/NewtonHatesApples/FindUrCapitalKrooker/internal/utils"
)

// PortfolioHandler serves the account overview and the value history
type PortfolioHandler struct {
	accounts  domain.AccountRepository
	market    domain.MarketDataService
	catalog   domain.AssetCatalog
	valuation *service.ValuationService
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(
	accounts domain.AccountRepository,
	market domain.MarketDataService,
	catalog domain.AssetCatalog,
	valuation *service.ValuationService,
) *PortfolioHandler {
	return &PortfolioHandler{
		accounts:  accounts,
		market:    market,
		catalog:   catalog,
		valuation: valuation,
	}
}

// GetPortfolio returns cash, live-marked holdings, total value, and the
// inception/day performance percentages
// GET /api/portfolio
func (h *PortfolioHandler) GetPortfolio(c echo.Context) error {
	accountID, err := middleware.GetAccountID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	account, err := h.accounts.GetByID(ctx, accountID)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to load account", err)
	}

	holdings := make([]dto.HoldingOutput, 0)
	totalAssets := 0.0
	for _, pos := range account.OpenPositions() {
		price, err := h.market.CurrentPrice(ctx, pos.Symbol)
		if err != nil {
			// A dead quote must not blank the whole page; mark at cost.
			log.Printf("[WARN] Live price unavailable for %s: %v", pos.Symbol, err)
			price = pos.AvgPrice
		}

		value := pos.MarkValue(price)
		holdings = append(holdings, dto.HoldingOutput{
			Symbol:        pos.Symbol,
			Name:          h.catalog.NameOf(pos.Symbol),
			Side:          string(pos.Side),
			Amount:        pos.Amount,
			AvgPrice:      pos.AvgPrice,
			Price:         price,
			Value:         value,
			PercentChange: pos.PercentChange(price),
			StopLoss:      pos.StopLoss,
			StopProfit:    pos.StopProfit,
		})
		totalAssets += value
	}

	totalValue := account.Balance + totalAssets

	percentChange := 0.0
	if account.InitialBalance > 0 {
		percentChange = (totalValue/account.InitialBalance - 1) * 100
	}

	yesterday := utils.DayOf(time.Now()).AddDate(0, 0, -1)
	valueYesterday := h.valuation.ValueAsOf(ctx, account, yesterday)
	dayPercentChange := 0.0
	if valueYesterday > 0 {
		dayPercentChange = (totalValue/valueYesterday - 1) * 100
	}

	return SuccessResponse(c, dto.PortfolioOutput{
		Balance:          account.Balance,
		Holdings:         holdings,
		TotalValue:       totalValue,
		PercentChange:    percentChange,
		DayPercentChange: dayPercentChange,
	})
}

// GetHistory returns the full day-by-day value timeline since account
// creation, plus the transaction log newest-first
// GET /api/portfolio/history
func (h *PortfolioHandler) GetHistory(c echo.Context) error {
	accountID, err := middleware.GetAccountID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	// The timeline replays every day since inception; give it room.
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Minute)
	defer cancel()

	account, err := h.accounts.GetByID(ctx, accountID)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to load account", err)
	}

	timeline := h.valuation.HistoryTimeline(ctx, account)
	days := make([]dto.TimelineDayOutput, 0, len(timeline))
	for _, entry := range timeline {
		days = append(days, dto.TimelineDayOutput(entry))
	}

	txs := make([]dto.TransactionOutput, 0, len(account.Transactions))
	for _, tx := range account.Transactions {
		txs = append(txs, dto.TransactionOutput{
			ID:         tx.ID.String(),
			ExecutedAt: tx.ExecutedAt.Format(time.RFC3339),
			Action:     string(tx.Action),
			Symbol:     tx.Symbol,
			Amount:     tx.Amount,
			Price:      tx.Price,
			Commission: tx.Commission,
		})
	}
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].ExecutedAt > txs[j].ExecutedAt })

	return SuccessResponse(c, dto.HistoryOutput{
		Days:         days,
		Transactions: txs,
	})
}
