package orderbook

import "fmt"

// registry indexes live orders by id. It never owns them: the price levels do.
type registry struct {
	orders map[uint64]*Order
}

func newRegistry() *registry {
	return &registry{orders: make(map[uint64]*Order)}
}

func (r *registry) register(o *Order) {
	r.orders[o.ID] = o
}

func (r *registry) lookup(id uint64) (*Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: id=%d", ErrOrderNotFound, id)
	}
	return o, nil
}

func (r *registry) remove(id uint64) {
	delete(r.orders, id)
}

func (r *registry) len() int {
	return len(r.orders)
}
