package http

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/NewtonHatesApples/FindUrCapitalKrooker/internal/delivery/http/dto"
	"github.com/NewtonHatesApples/FindUrCapitalKrooker/internal/domain"
	"github.com/NewtonHatesApples/FindUrCapitalKrooker/internal/middleware"
	"github.com/NewtonHatesApples/FindUrCapitalKrooker/internal/usecase"
)

// TradeHandler exposes order execution
type TradeHandler struct {
	trading *usecase.TradingService
}

// NewTradeHandler creates a new TradeHandler
func NewTradeHandler(trading *usecase.TradingService) *TradeHandler {
	return &TradeHandler{trading: trading}
}

// Buy opens or grows a long position
// POST /api/trade/buy/:symbol
func (h *TradeHandler) Buy(c echo.Context) error {
	return h.execute(c, func(ctx context.Context, accountID uuid.UUID, symbol string, req dto.OrderRequest) (*domain.Transaction, error) {
		return h.trading.Buy(ctx, accountID, symbol, req.Amount, req.StopLoss, req.StopProfit)
	})
}

// Short opens or grows a short position
// POST /api/trade/short/:symbol
func (h *TradeHandler) Short(c echo.Context) error {
	return h.execute(c, func(ctx context.Context, accountID uuid.UUID, symbol string, req dto.OrderRequest) (*domain.Transaction, error) {
		return h.trading.Short(ctx, accountID, symbol, req.Amount, req.StopLoss, req.StopProfit)
	})
}

// SellCover closes part or all of a position
// POST /api/trade/sell_cover/:symbol
func (h *TradeHandler) SellCover(c echo.Context) error {
	accountID, err := middleware.GetAccountID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	var req dto.CloseRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	tx, err := h.trading.SellCover(ctx, accountID, c.Param("symbol"), req.Amount)
	if err != nil {
		return tradeErrorResponse(c, err)
	}
	return SuccessMessageResponse(c, "Sell/Cover successful.", transactionOutput(tx))
}

func (h *TradeHandler) execute(c echo.Context, run func(context.Context, uuid.UUID, string, dto.OrderRequest) (*domain.Transaction, error)) error {
	accountID, err := middleware.GetAccountID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	var req dto.OrderRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	tx, err := run(ctx, accountID, c.Param("symbol"), req)
	if err != nil {
		return tradeErrorResponse(c, err)
	}
	return SuccessMessageResponse(c, "Order executed.", transactionOutput(tx))
}

// tradeErrorResponse maps the executor's error taxonomy onto HTTP statuses.
func tradeErrorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidOrder):
		return BadRequestResponse(c, err.Error())
	case errors.Is(err, domain.ErrUnknownSymbol):
		return NotFoundResponse(c, "Invalid asset.")
	case errors.Is(err, domain.ErrPriceUnavailable):
		return BadGatewayResponse(c, "Price unavailable, please retry.")
	case errors.Is(err, domain.ErrInsufficientBalance):
		return UnprocessableResponse(c, "Insufficient balance.")
	case errors.Is(err, domain.ErrInsufficientQuantity):
		return UnprocessableResponse(c, "Insufficient amount in portfolio.")
	case errors.Is(err, domain.ErrNoPosition):
		return UnprocessableResponse(c, "No position to sell/cover.")
	case errors.Is(err, domain.ErrAccountNotFound):
		return NotFoundResponse(c, "Account not found.")
	default:
		return InternalServerErrorResponse(c, "Order failed", err)
	}
}

func transactionOutput(tx *domain.Transaction) dto.TransactionOutput {
	return dto.TransactionOutput{
		ID:         tx.ID.String(),
		ExecutedAt: tx.ExecutedAt.Format(time.RFC3339),
		Action:     string(tx.Action),
		Symbol:     tx.Symbol,
		Amount:     tx.Amount,
		Price:      tx.Price,
		Commission: tx.Commission,
	}
}
