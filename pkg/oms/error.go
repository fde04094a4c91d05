package oms

import "errors"

var (
	errDuplicateOrder     = errors.New("duplicate order")
	errOrderIDNotFound    = errors.New("order not found")
	errGatewayIDNotFound  = errors.New("gatewayID not found")
	errInvalidOrderStatus = errors.New("invalid order status")
	errInvalidSide        = errors.New("invalid side")
)

// IsDuplicateOrder reports whether err comes from reusing a ClOrdID.
func IsDuplicateOrder(err error) bool {
	return errors.Is(err, errDuplicateOrder)
}

// IsUnknownOrder reports whether err names a ClOrdID the OMS never saw.
func IsUnknownOrder(err error) bool {
	return errors.Is(err, errGatewayIDNotFound) || errors.Is(err, errOrderIDNotFound)
}

// IsTooLate reports whether the order already reached a terminal state.
func IsTooLate(err error) bool {
	return errors.Is(err, errInvalidOrderStatus)
}
