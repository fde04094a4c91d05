package sequence

import "sync/atomic"

// Sequencer hands out strictly increasing ids. It is safe to share between
// books when ids must be unique across instruments.
type Sequencer struct {
	last atomic.Uint64
}

// New returns a sequencer whose first Next() is start+1.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.last.Store(start)
	return s
}

// Next returns the next id.
func (s *Sequencer) Next() uint64 {
	return s.last.Add(1)
}

// Current returns the last id handed out, 0 if none.
func (s *Sequencer) Current() uint64 {
	return s.last.Load()
}
