// Package seqguard orders writes from concurrent asynchronous operations.
//
// Each operation takes a ticket when it is issued and must present it when it
// wants to write shared state. Only the holder of the most recently issued
// ticket is allowed to write; older tickets are silently refused.
package seqguard

import "sync"

// Ticket identifies one issued operation. Tickets increase monotonically.
type Ticket uint64

// Sequencer hands out tickets and arbitrates writes. The zero value is ready
// to use. A Sequencer must not be copied after first use.
type Sequencer struct {
	mu      sync.Mutex
	current Ticket
}

// Issue takes a new ticket, superseding every ticket issued before.
func (s *Sequencer) Issue() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current++
	return s.current
}

// Current returns the latest issued ticket, or 0 when none was issued.
func (s *Sequencer) Current() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// IsCurrent reports whether t is still the latest ticket. The answer may be
// stale by the time the caller acts on it; use Commit to write.
func (s *Sequencer) IsCurrent(t Ticket) bool {
	return s.Current() == t
}

// Commit runs apply only when t is still the latest ticket and reports whether
// it ran. No ticket can be issued between the check and the end of apply.
// apply must not call back into the Sequencer.
func (s *Sequencer) Commit(t Ticket, apply func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t != s.current {
		return false
	}
	apply()
	return true
}
