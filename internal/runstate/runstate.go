// Package runstate holds the lifecycle flag shared between a worker group and its owner.
//
// The flag is read on every worker loop iteration and written only on Start, Stop and
// Destroy, so reads take the read side of a RWMutex. Transitions are additionally
// serialized by a plain mutex that also backs the condition workers park on while stopped.
package runstate

import "sync"

// State is the lifecycle flag.
type State int8

const (
	// Destroying is terminal: once set, the state never changes again.
	Destroying State = -1
	// Stopped is the initial state. Workers park until Running or Destroying.
	Stopped State = 0
	// Running lets workers consume their queues.
	Running State = 1
)

func (s State) String() string {
	switch s {
	case Destroying:
		return "destroying"
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	default:
		return "invalid"
	}
}

// Gate guards a State and wakes goroutines parked while it is Stopped.
type Gate struct {
	rw    sync.RWMutex
	state State

	// mu serializes transitions and is the locker of cond.
	mu   sync.Mutex
	cond *sync.Cond
}

// New returns a Gate in the Stopped state.
func New() *Gate {
	g := &Gate{state: Stopped}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// Load returns the current state.
func (g *Gate) Load() State {
	g.rw.RLock()
	s := g.state
	g.rw.RUnlock()
	return s
}

// Running reports whether the current state is Running.
func (g *Gate) Running() bool { return g.Load() == Running }

func (g *Gate) store(s State) {
	g.rw.Lock()
	g.state = s
	g.rw.Unlock()
}

// Set moves the gate to s and broadcasts to parked goroutines.
// It returns the previous state and false when nothing changed: either the gate
// was already in s, or it is Destroying and refuses any further transition.
func (g *Gate) Set(s State) (State, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	prev := g.Load()
	if prev == Destroying || prev == s {
		return prev, false
	}

	g.store(s)
	g.cond.Broadcast()
	return prev, true
}

// Park blocks while the gate is Stopped and returns the state that released it.
// The state is re-read under the transition lock, so a broadcast cannot be missed.
func (g *Gate) Park() State {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := g.Load()
	for s == Stopped {
		g.cond.Wait()
		s = g.Load()
	}
	return s
}

// Hold runs fn with transitions blocked and passes it the current state.
func (g *Gate) Hold(fn func(State) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn(g.Load())
}
