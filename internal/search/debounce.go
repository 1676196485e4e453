package search

import (
	"time"

	"github.com/bep/debounce"
)

// DefaultKeywordDebounce is the idle window after the last keystroke.
const DefaultKeywordDebounce = 250 * time.Millisecond

// KeywordSetter is the part of Controller the debouncer feeds.
type KeywordSetter interface {
	SetKeyword(keyword string)
}

// KeywordDebouncer coalesces rapid keyword edits and forwards only the last
// value once input has been idle for the configured window.
type KeywordDebouncer struct {
	target    KeywordSetter
	debounced func(f func())
}

// NewKeywordDebouncer wraps target. A non-positive window uses the default.
func NewKeywordDebouncer(target KeywordSetter, after time.Duration) *KeywordDebouncer {
	if after <= 0 {
		after = DefaultKeywordDebounce
	}
	return &KeywordDebouncer{
		target:    target,
		debounced: debounce.New(after),
	}
}

// Type records the keyword as typed so far.
func (d *KeywordDebouncer) Type(keyword string) {
	d.debounced(func() { d.target.SetKeyword(keyword) })
}
