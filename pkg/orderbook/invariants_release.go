//go:build !obdebug

package orderbook

const debugInvariants = false
