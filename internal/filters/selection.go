package filters

import "sync/atomic"

// Selection is the active variant of one preview session. Each session
// owns its own Selection; there is no process-wide filter state.
//
// Writes come from the UI thread; the processing worker reads Current
// concurrently.
type Selection struct {
	current atomic.Int32
}

// NewSelection starts a selection at initial.
func NewSelection(initial Variant) *Selection {
	s := &Selection{}
	s.current.Store(int32(initial))
	return s
}

// Current returns the active variant.
func (s *Selection) Current() Variant {
	return Variant(s.current.Load())
}

// Cycle advances to the next variant and returns it.
func (s *Selection) Cycle() Variant {
	for {
		old := s.current.Load()
		next := Next(Variant(old))
		if s.current.CompareAndSwap(old, int32(next)) {
			return next
		}
	}
}

// Set replaces the active variant.
func (s *Selection) Set(v Variant) {
	s.current.Store(int32(v))
}

// Reset returns to None.
func (s *Selection) Reset() {
	s.Set(None)
}
