package models

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is the parent of every validation failure raised while
// collecting search criteria. Callers re-prompt the same step on it.
var ErrInvalidInput = errors.New("invalid input")

var (
	ErrEmptyLocation         = fmt.Errorf("%w: location is empty", ErrInvalidInput)
	ErrGuestCount            = fmt.Errorf("%w: guest count must be between %d and %d", ErrInvalidInput, MinGuests, MaxGuests)
	ErrPriceFormat           = fmt.Errorf("%w: price must be a number or a min-max range", ErrInvalidInput)
	ErrPriceInverted         = fmt.Errorf("%w: minimum price is above maximum price", ErrInvalidInput)
	ErrDateInPast            = fmt.Errorf("%w: date is in the past", ErrInvalidInput)
	ErrCheckOutBeforeCheckIn = fmt.Errorf("%w: check-out must be after check-in", ErrInvalidInput)
)
