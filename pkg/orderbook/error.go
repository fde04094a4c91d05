package orderbook

import "errors"

var (
	ErrInvalidOrder       = errors.New("invalid order")
	ErrOrderNotFound      = errors.New("order not found")
	ErrInstrumentMismatch = errors.New("instrument mismatch")
	ErrUnknownInstrument  = errors.New("unknown instrument")
	ErrInvalidTickSize    = errors.New("invalid tick size")
)
