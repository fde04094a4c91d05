package orderbook

import "github.com/shopspring/decimal"

// quantize snaps price to the nearest multiple of tick, halves away from zero.
func quantize(price, tick decimal.Decimal) decimal.Decimal {
	return price.Div(tick).Round(0).Mul(tick)
}
