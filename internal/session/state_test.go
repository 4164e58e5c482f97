package session

import (
	"errors"
	"testing"
)

func TestLifecycleHappyPath(t *testing.T) {
	l := NewLifecycle()
	if l.State() != NotRequested || l.CanProcess() {
		t.Fatalf("fresh lifecycle is %s", l.State())
	}

	steps := []struct {
		apply      func() error
		want       State
		canProcess bool
	}{
		{func() error { return l.SetAuthorized(true) }, Authorized, false},
		{func() error { return l.SetRunning(true) }, Running, true},
		{func() error { return l.SetRunning(false) }, Stopped, false},
		{func() error { return l.SetRunning(true) }, Running, true},
	}
	for i, s := range steps {
		if err := s.apply(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if l.State() != s.want || l.CanProcess() != s.canProcess {
			t.Fatalf("step %d: state %s canProcess %v", i, l.State(), l.CanProcess())
		}
	}
}

func TestLifecycleRejectsInvalidTransitions(t *testing.T) {
	tests := []struct {
		name  string
		setup []State
		next  State
	}{
		{"run before authorization", nil, Running},
		{"run while denied", []State{Denied}, Running},
		{"stop before running", []State{Authorized}, Stopped},
		{"back to not requested", []State{Authorized}, NotRequested},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLifecycle()
			for _, s := range tt.setup {
				if err := l.Transition(s); err != nil {
					t.Fatalf("setup %s: %v", s, err)
				}
			}
			before := l.State()
			err := l.Transition(tt.next)
			if !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("expected ErrInvalidTransition, got %v", err)
			}
			if l.State() != before {
				t.Fatalf("state moved to %s on a rejected transition", l.State())
			}
		})
	}
}

func TestDeniedCanBeGrantedLater(t *testing.T) {
	l := NewLifecycle()
	if err := l.SetAuthorized(false); err != nil {
		t.Fatal(err)
	}
	if err := l.SetAuthorized(true); err != nil {
		t.Fatalf("re-grant: %v", err)
	}
	if l.State() != Authorized {
		t.Fatalf("state %s", l.State())
	}
}

func TestStopWhenNotRunningIsNoop(t *testing.T) {
	l := NewLifecycle()
	if err := l.SetRunning(false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.State() != NotRequested {
		t.Fatalf("state %s", l.State())
	}
}

func TestOnTransitionListeners(t *testing.T) {
	l := NewLifecycle()

	var seen [][2]State
	l.OnTransition(func(from, to State) {
		seen = append(seen, [2]State{from, to})
	})

	_ = l.SetAuthorized(true)
	_ = l.SetAuthorized(true) // same state, no event
	_ = l.SetRunning(true)
	_ = l.Transition(NotRequested)

	want := [][2]State{{NotRequested, Authorized}, {Authorized, Running}}
	if len(seen) != len(want) {
		t.Fatalf("got %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("event %d = %v, want %v", i, seen[i], want[i])
		}
	}
}

func TestStateString(t *testing.T) {
	if Running.String() != "running" || State(42).String() != "state(42)" {
		t.Fatalf("unexpected names %q %q", Running.String(), State(42).String())
	}
}
