// Package session tracks the camera session lifecycle that gates frame processing.
package session

import (
	"errors"
	"fmt"
	"sync"
)

// State of a camera session.
type State int

const (
	NotRequested State = iota
	Authorized
	Denied
	Running
	Stopped
)

// ErrInvalidTransition is returned for a transition the lifecycle does not allow.
var ErrInvalidTransition = errors.New("invalid session transition")

var stateNames = map[State]string{
	NotRequested: "not_requested",
	Authorized:   "authorized",
	Denied:       "denied",
	Running:      "running",
	Stopped:      "stopped",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// allowed lists legal transitions. Denied can be left again when the user
// grants access later from system settings.
var allowed = map[State][]State{
	NotRequested: {Authorized, Denied},
	Authorized:   {Running, Denied},
	Denied:       {Authorized},
	Running:      {Stopped},
	Stopped:      {Running, Denied},
}

// Lifecycle is a concurrency-safe session state machine.
type Lifecycle struct {
	mu        sync.RWMutex
	state     State
	listeners []func(from, to State)
}

// NewLifecycle starts in NotRequested.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{state: NotRequested}
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// CanProcess reports whether frames may be processed.
func (l *Lifecycle) CanProcess() bool {
	return l.State() == Running
}

// OnTransition registers fn to be called after every successful transition.
// fn runs on the goroutine that made the transition.
func (l *Lifecycle) OnTransition(fn func(from, to State)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, fn)
}

// Transition moves to next. Transitioning to the current state is a no-op.
func (l *Lifecycle) Transition(next State) error {
	l.mu.Lock()
	from := l.state
	if from == next {
		l.mu.Unlock()
		return nil
	}
	if !canTransition(from, next) {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, next)
	}
	l.state = next
	listeners := make([]func(from, to State), len(l.listeners))
	copy(listeners, l.listeners)
	l.mu.Unlock()

	for _, fn := range listeners {
		fn(from, next)
	}
	return nil
}

// SetAuthorized records the result of an authorization request.
func (l *Lifecycle) SetAuthorized(granted bool) error {
	if granted {
		return l.Transition(Authorized)
	}
	return l.Transition(Denied)
}

// SetRunning records a session start or stop reported by the camera.
func (l *Lifecycle) SetRunning(running bool) error {
	if running {
		return l.Transition(Running)
	}
	if l.State() != Running {
		return nil
	}
	return l.Transition(Stopped)
}

func canTransition(from, to State) bool {
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}
