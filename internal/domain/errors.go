package domain

import "errors"

// Business-rule rejections and collaborator failures surfaced to callers.
// All of them mean "nothing was mutated".
var (
	ErrInvalidOrder         = errors.New("invalid order")
	ErrPriceUnavailable     = errors.New("price unavailable")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrInsufficientQuantity = errors.New("insufficient amount in portfolio")
	ErrNoPosition           = errors.New("no position to sell/cover")
	ErrUnknownSymbol        = errors.New("unknown symbol")
	ErrAccountNotFound      = errors.New("account not found")
	ErrUsernameTaken        = errors.New("username already exists")
)
