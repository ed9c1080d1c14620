// Package identity tracks which user the local ledger belongs to.
//
// A Monitor compares the identity resolved from the session against the one
// it last saw and hands any change to its Listener. Check is the single
// reconciliation routine; callers decide when to run it.
package identity

import (
	"context"
	"sync"

	"fintracker/internal/log"
	"fintracker/internal/session"
)

// Kind names an identity transition.
type Kind string

const (
	None   Kind = ""
	Login  Kind = "login"
	Logout Kind = "logout"
	Switch Kind = "switch"
)

// Transition is a change of active identity. An empty id means no identity.
type Transition struct {
	Kind Kind
	From string
	To   string
}

// Classify decides the transition from one identity to another.
func Classify(from, to string) Transition {
	switch {
	case from == to:
		return Transition{Kind: None, From: from, To: to}
	case from == "":
		return Transition{Kind: Login, From: from, To: to}
	case to == "":
		return Transition{Kind: Logout, From: from, To: to}
	default:
		return Transition{Kind: Switch, From: from, To: to}
	}
}

// Listener reacts to identity transitions. The ledger store is the
// production listener.
type Listener interface {
	Apply(ctx context.Context, t Transition)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ctx context.Context, t Transition)

func (f ListenerFunc) Apply(ctx context.Context, t Transition) { f(ctx, t) }

type Monitor struct {
	mu       sync.Mutex
	source   session.Source
	listener Listener
	current  string
	logger   *log.Logger
}

func NewMonitor(source session.Source, listener Listener, logger *log.Logger) *Monitor {
	if logger == nil {
		logger = log.Default(log.ComponentIdentity)
	}
	return &Monitor{
		source:   source,
		listener: listener,
		logger:   logger.WithComponent(log.ComponentIdentity),
	}
}

// Current returns the identity the monitor last observed.
func (m *Monitor) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Check resolves the session identity and applies the transition, if any.
// Running it again without a session change does nothing. The boolean is
// false when no transition happened.
func (m *Monitor) Check(ctx context.Context) (Transition, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	resolved := session.ResolveIdentity(ctx, m.source)
	t := Classify(m.current, resolved)
	if t.Kind == None {
		return t, false
	}

	m.logger.Fields(ctx, log.LevelInfo, "Identity changed",
		log.NewFields().
			WithComponent(log.ComponentIdentity).
			WithOperation(log.OpCheck).
			WithTransition(string(t.Kind), t.From, t.To))

	m.current = resolved
	if m.listener != nil {
		m.listener.Apply(ctx, t)
	}
	return t, true
}
