package orderbook

import "errors"

// Validation errors
var (
	ErrCrossedBook      = errors.New("best bid is not below best ask")
	ErrBidsUnordered    = errors.New("bid prices are not non-increasing")
	ErrAsksUnordered    = errors.New("ask prices are not non-decreasing")
	ErrNegativeQuantity = errors.New("level quantity is negative")
	ErrNonFiniteLevel   = errors.New("level price or quantity is not finite")
)

// Execution estimate errors
var (
	ErrInvalidQuantity       = errors.New("quantity must be positive")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity in book")
)
