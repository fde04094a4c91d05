package metrics

import (
	"github.com/joripage/lightengine/pkg/orderbook"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts engine activity per instrument.
type Metrics struct {
	Orders      *prometheus.CounterVec
	Trades      *prometheus.CounterVec
	TradeVolume *prometheus.CounterVec
	Cancels     *prometheus.CounterVec
	Replaces    *prometheus.CounterVec
	Rejects     *prometheus.CounterVec
}

// New builds the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engine_orders_accepted_total",
			Help: "Orders accepted by the book.",
		}, []string{"instrument"}),
		Trades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engine_trades_total",
			Help: "Passive fills.",
		}, []string{"instrument"}),
		TradeVolume: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engine_trade_volume_total",
			Help: "Quantity traded.",
		}, []string{"instrument"}),
		Cancels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engine_cancels_total",
			Help: "Orders cancelled.",
		}, []string{"instrument"}),
		Replaces: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engine_replaces_total",
			Help: "Orders amended.",
		}, []string{"instrument"}),
		Rejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engine_rejects_total",
			Help: "Requests rejected before reaching the book or by it.",
		}, []string{"request"}),
	}

	reg.MustRegister(m.Orders, m.Trades, m.TradeVolume, m.Cancels, m.Replaces, m.Rejects)
	return m
}

// ObserveReports has the signature of a book report callback. Each trade is
// counted once, from its passive side.
func (m *Metrics) ObserveReports(reports []orderbook.ExecutionReport) {
	for _, r := range reports {
		switch r.ExecType {
		case orderbook.ExecTypeNew:
			m.Orders.WithLabelValues(r.Instrument).Inc()
		case orderbook.ExecTypeCanceled:
			m.Cancels.WithLabelValues(r.Instrument).Inc()
		case orderbook.ExecTypeReplaced:
			m.Replaces.WithLabelValues(r.Instrument).Inc()
		case orderbook.ExecTypeTrade:
			if r.TradeInfo == nil || r.TradeInfo.Aggressor {
				continue
			}
			m.Trades.WithLabelValues(r.Instrument).Inc()
			m.TradeVolume.WithLabelValues(r.Instrument).Add(r.TradeInfo.TradeQty.InexactFloat64())
		}
	}
}

func (m *Metrics) Reject(request string) {
	m.Rejects.WithLabelValues(request).Inc()
}
