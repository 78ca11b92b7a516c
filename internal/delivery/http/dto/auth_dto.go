package dto

// RegisterRequest represents the account-creation payload. The commission
// rate is supplied as a percentage (0.005 means 0.005%), like the original
// signup form.
type RegisterRequest struct {
	Username          string   `json:"username" validate:"required"`
	Password          string   `json:"password" validate:"required,min=8"`
	InitialBalance    float64  `json:"initial_balance" validate:"required"`
	CommissionPercent *float64 `json:"commission_percent,omitempty"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse represents a successful login or registration
type AuthResponse struct {
	Token   string          `json:"token"`
	Account *AccountOutput  `json:"account"`
}

// AccountOutput represents account data in API responses
type AccountOutput struct {
	ID             string  `json:"id"`
	Username       string  `json:"username"`
	Balance        float64 `json:"balance"`
	InitialBalance float64 `json:"initial_balance"`
	CommissionRate float64 `json:"commission_rate"`
	CreatedAt      string  `json:"created_at"`
}
