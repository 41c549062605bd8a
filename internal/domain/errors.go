package domain

import "errors"

// ErrInvalidTrade is returned when a trade has a non-positive price or
// quantity, or an unknown side.
var ErrInvalidTrade = errors.New("invalid trade")
