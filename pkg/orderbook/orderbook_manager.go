package orderbook

import (
	"fmt"
	"sort"
	"sync"

	"github.com/joripage/lightengine/pkg/sequence"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type OrderBookManagerConfig struct {
	// SharedIDs makes every book draw ids from one sequencer so an id names
	// a single order across all instruments.
	SharedIDs bool
	Logger    *zap.Logger
}

type managedBook struct {
	mu   sync.Mutex
	book *OrderBook
}

// OrderBookManager routes requests to one book per instrument and serializes
// access to each book. Books for different instruments run independently.
type OrderBookManager struct {
	books     sync.Map // instrument -> *managedBook
	owners    sync.Map // order id -> instrument, only with SharedIDs
	ids       *sequence.Sequencer
	callbacks []func([]ExecutionReport)
	cfg       *OrderBookManagerConfig
}

func NewOrderBookManager(cfg *OrderBookManagerConfig) *OrderBookManager {
	if cfg == nil {
		cfg = &OrderBookManagerConfig{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	s := &OrderBookManager{cfg: cfg}
	if cfg.SharedIDs {
		s.ids = sequence.New(0)
	}
	return s
}

// AddInstrument creates the book for instrument. Adding an existing
// instrument again is a no-op.
func (s *OrderBookManager) AddInstrument(instrument string, tickSize decimal.Decimal) error {
	if _, ok := s.books.Load(instrument); ok {
		return nil
	}

	opts := []Option{WithLogger(s.cfg.Logger.With(zap.String("instrument", instrument)))}
	if s.ids != nil {
		opts = append(opts, WithIDGenerator(s.ids))
	}
	book, err := New(instrument, tickSize, opts...)
	if err != nil {
		return err
	}

	s.books.LoadOrStore(instrument, &managedBook{book: book})
	return nil
}

// RegisterReportCallback adds fn to the callbacks run, in registration order,
// with the reports of every successful call. Callbacks run while the book is
// still locked so they see reports in book order.
func (s *OrderBookManager) RegisterReportCallback(fn func([]ExecutionReport)) {
	s.callbacks = append(s.callbacks, fn)
}

func (s *OrderBookManager) AddOrder(instrument string, price, qty decimal.Decimal, side Side) ([]ExecutionReport, error) {
	mb, err := s.getBook(instrument)
	if err != nil {
		return nil, err
	}

	mb.mu.Lock()
	defer mb.mu.Unlock()

	reports, err := mb.book.AddOrderDecimal(price, qty, side)
	if err != nil {
		return nil, err
	}
	s.track(instrument, reports)
	return reports, nil
}

func (s *OrderBookManager) CancelOrder(instrument string, id uint64) (ExecutionReport, error) {
	mb, err := s.getBook(instrument)
	if err != nil {
		return ExecutionReport{}, err
	}
	if err := s.checkOwner(instrument, id); err != nil {
		return ExecutionReport{}, err
	}

	mb.mu.Lock()
	defer mb.mu.Unlock()

	report, err := mb.book.CancelOrder(id)
	if err != nil {
		return ExecutionReport{}, err
	}
	s.track(instrument, []ExecutionReport{report})
	return report, nil
}

func (s *OrderBookManager) AmendOrder(instrument string, id uint64, price, qty decimal.Decimal) ([]ExecutionReport, error) {
	mb, err := s.getBook(instrument)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwner(instrument, id); err != nil {
		return nil, err
	}

	mb.mu.Lock()
	defer mb.mu.Unlock()

	reports, err := mb.book.AmendOrderDecimal(id, price, qty)
	if err != nil {
		return nil, err
	}
	s.track(instrument, reports)
	return reports, nil
}

func (s *OrderBookManager) Depth(instrument string, levels int) (Snapshot, error) {
	mb, err := s.getBook(instrument)
	if err != nil {
		return Snapshot{}, err
	}

	mb.mu.Lock()
	defer mb.mu.Unlock()
	return mb.book.Depth(levels), nil
}

func (s *OrderBookManager) Order(instrument string, id uint64) (Order, error) {
	mb, err := s.getBook(instrument)
	if err != nil {
		return Order{}, err
	}
	if err := s.checkOwner(instrument, id); err != nil {
		return Order{}, err
	}

	mb.mu.Lock()
	defer mb.mu.Unlock()
	return mb.book.Order(id)
}

// Instruments lists configured instruments in lexical order.
func (s *OrderBookManager) Instruments() []string {
	var out []string
	s.books.Range(func(k, _ any) bool {
		out = append(out, k.(string))
		return true
	})
	sort.Strings(out)
	return out
}

func (s *OrderBookManager) getBook(instrument string) (*managedBook, error) {
	val, ok := s.books.Load(instrument)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownInstrument, instrument)
	}
	return val.(*managedBook), nil
}

func (s *OrderBookManager) checkOwner(instrument string, id uint64) error {
	if s.ids == nil {
		return nil
	}
	owner, ok := s.owners.Load(id)
	if ok && owner.(string) != instrument {
		return fmt.Errorf("%w: order %d belongs to %s, not %s", ErrInstrumentMismatch, id, owner, instrument)
	}
	return nil
}

// track keeps the owner index in step with the reports and runs callbacks.
// Caller holds the book lock.
func (s *OrderBookManager) track(instrument string, reports []ExecutionReport) {
	if s.ids != nil {
		for _, r := range reports {
			if r.OrderStatus == StatusFilled || r.OrderStatus == StatusCancelled {
				s.owners.Delete(r.OrderInfo.OrderID)
			} else if r.ExecType == ExecTypeNew {
				s.owners.Store(r.OrderInfo.OrderID, instrument)
			}
		}
	}

	for _, cb := range s.callbacks {
		cb(reports)
	}
}
