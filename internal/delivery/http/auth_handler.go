package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/NewtonHatesApples/FindUrCapitalKrooker/internal/delivery/http/dto"
	"github.com/NewtonHatesApples/FindUrCapitalKrooker/internal/domain"
	"github.com/NewtonHatesApples/FindUrCapitalKrooker/internal/middleware"
	"github.com/NewtonHatesApples/FindUrCapitalKrooker/internal/usecase"
)

// AuthHandler handles registration and login
type AuthHandler struct {
	accounts                 domain.AccountRepository
	trading                  *usecase.TradingService
	defaultCommissionPercent float64
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(accounts domain.AccountRepository, trading *usecase.TradingService, defaultCommissionPercent float64) *AuthHandler {
	return &AuthHandler{
		accounts:                 accounts,
		trading:                  trading,
		defaultCommissionPercent: defaultCommissionPercent,
	}
}

// Register creates a new account
// POST /api/auth/register
func (h *AuthHandler) Register(c echo.Context) error {
	var req dto.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	if len(req.Password) < 8 {
		return BadRequestResponse(c, "Password must be at least 8 characters.")
	}

	commissionPercent := h.defaultCommissionPercent
	if req.CommissionPercent != nil {
		commissionPercent = *req.CommissionPercent
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to hash password", err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	account, err := h.trading.CreateAccount(ctx, req.Username, string(hash), req.InitialBalance, commissionPercent/100)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUsernameTaken):
			return ConflictResponse(c, "Username already exists.")
		case errors.Is(err, domain.ErrInvalidOrder):
			return BadRequestResponse(c, err.Error())
		default:
			return InternalServerErrorResponse(c, "Failed to create account", err)
		}
	}

	token, err := middleware.GenerateJWT(account.ID)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to generate token", err)
	}
	h.setSessionCookie(c, token)

	return CreatedResponse(c, dto.AuthResponse{
		Token:   token,
		Account: accountOutput(account),
	})
}

// Login authenticates an account
// POST /api/auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}
	if req.Username == "" || req.Password == "" {
		return BadRequestResponse(c, "Username and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	account, err := h.accounts.GetByUsername(ctx, req.Username)
	if err != nil {
		return UnauthorizedResponse(c, "Invalid username or password.")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return UnauthorizedResponse(c, "Invalid username or password.")
	}

	token, err := middleware.GenerateJWT(account.ID)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to generate token", err)
	}
	h.setSessionCookie(c, token)

	return SuccessResponse(c, dto.AuthResponse{
		Token:   token,
		Account: accountOutput(account),
	})
}

// Logout clears the session cookie
// POST /api/auth/logout
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	return SuccessMessageResponse(c, "Logged out", nil)
}

func (h *AuthHandler) setSessionCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   false, // Set to true in production with HTTPS
		SameSite: http.SameSiteStrictMode,
		MaxAge:   86400, // 24 hours
	})
}

func accountOutput(account *domain.Account) *dto.AccountOutput {
	return &dto.AccountOutput{
		ID:             account.ID.String(),
		Username:       account.Username,
		Balance:        account.Balance,
		InitialBalance: account.InitialBalance,
		CommissionRate: account.CommissionRate,
		CreatedAt:      account.CreatedAt.Format(time.RFC3339),
	}
}
