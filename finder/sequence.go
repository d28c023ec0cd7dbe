package finder

import "sync/atomic"

// Sequencer stamps requests and rejects responses that arrive after a newer one
// was accepted.
type Sequencer struct {
	next     atomic.Uint64
	accepted atomic.Uint64
}

// Stamp returns a new request stamp, strictly greater than every earlier one.
func (s *Sequencer) Stamp() uint64 {
	return s.next.Add(1)
}

// Accept reports whether the response for seq may be shown. It returns false when
// a response with the same or a later stamp was already accepted.
func (s *Sequencer) Accept(seq uint64) bool {
	for {
		cur := s.accepted.Load()
		if seq <= cur {
			return false
		}
		if s.accepted.CompareAndSwap(cur, seq) {
			return true
		}
	}
}

// Latest reports the most recently issued stamp.
func (s *Sequencer) Latest() uint64 {
	return s.next.Load()
}
