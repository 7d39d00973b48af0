// Package gate is the admin gate: a credential check that, when passed,
// routes the caller to the admin login page.
package gate

import (
	"context"
	"crypto/subtle"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/hpungsan/careerbridge/internal/errors"
)

const (
	MsgEmpty    = "Please enter admin password"
	MsgMismatch = "Invalid admin password. Please try again."

	DefaultRoute = "/adminLogin"
	DefaultDelay = time.Second
)

// Verifier decides whether a credential opens the gate.
type Verifier interface {
	Verify(ctx context.Context, credential string) (bool, error)
}

// AllowList accepts credentials that exactly match one of its entries.
// It is a membership check only, not an authentication scheme.
type AllowList struct {
	entries [][]byte
}

// NewAllowList builds a verifier from the given credentials. Blank entries are skipped.
func NewAllowList(credentials []string) *AllowList {
	a := &AllowList{}
	for _, c := range credentials {
		if c == "" {
			continue
		}
		a.entries = append(a.entries, []byte(c))
	}
	return a
}

func (a *AllowList) Verify(_ context.Context, credential string) (bool, error) {
	got := []byte(credential)
	match := 0
	for _, e := range a.entries {
		match |= subtle.ConstantTimeCompare(e, got)
	}
	return match == 1, nil
}

// State is where the gate currently stands.
type State string

const (
	StateAwaiting  State = "awaiting"
	StateVerifying State = "verifying"
	StateGranted   State = "granted"
)

// Outcome is the result of one submission. Error is the inline message to
// show when the gate stays closed.
type Outcome struct {
	State State  `json:"state"`
	Route string `json:"route,omitempty"`
	Error string `json:"error,omitempty"`
}

// Granted reports whether the submission opened the gate.
func (o Outcome) Granted() bool { return o.State == StateGranted }

// Options configures a Gate.
type Options struct {
	Verifier Verifier
	Delay    time.Duration
	Route    string
	Logger   *log.Logger
}

// Gate is a small state machine: awaiting -> verifying -> granted, or back
// to awaiting with an error.
type Gate struct {
	mu       sync.Mutex
	verifier Verifier
	delay    time.Duration
	route    string
	logger   *log.Logger
	state    State
	lastErr  string
}

// New returns a gate in the awaiting state. A negative delay disables the pause.
func New(opts Options) *Gate {
	g := &Gate{
		verifier: opts.Verifier,
		delay:    opts.Delay,
		route:    opts.Route,
		logger:   opts.Logger,
		state:    StateAwaiting,
	}
	if g.verifier == nil {
		g.verifier = NewAllowList(nil)
	}
	if g.delay == 0 {
		g.delay = DefaultDelay
	}
	if g.delay < 0 {
		g.delay = 0
	}
	if g.route == "" {
		g.route = DefaultRoute
	}
	if g.logger == nil {
		g.logger = log.Default()
	}
	return g
}

// Submit checks credential after the configured pause. A blank credential is
// rejected at once. A mismatch leaves the gate awaiting with an inline error;
// only cancellation or a verifier fault is returned as an error.
func (g *Gate) Submit(ctx context.Context, credential string) (Outcome, error) {
	credential = strings.TrimSpace(credential)

	// a granted gate is checked again; access is never carried over
	g.mu.Lock()
	if g.state == StateVerifying {
		g.mu.Unlock()
		return Outcome{}, errors.NewInvalidRequest("admin verification already in progress")
	}
	if credential == "" {
		g.state = StateAwaiting
		g.lastErr = MsgEmpty
		g.mu.Unlock()
		return Outcome{State: StateAwaiting, Error: MsgEmpty}, nil
	}
	g.state = StateVerifying
	g.lastErr = ""
	g.mu.Unlock()

	ok, err := g.verify(ctx, credential)

	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		g.state = StateAwaiting
		return Outcome{}, err
	}
	if !ok {
		g.state = StateAwaiting
		g.lastErr = MsgMismatch
		g.logger.Printf("gate: admin credential rejected")
		return Outcome{State: StateAwaiting, Error: MsgMismatch}, nil
	}
	g.state = StateGranted
	return Outcome{State: StateGranted, Route: g.route}, nil
}

func (g *Gate) verify(ctx context.Context, credential string) (bool, error) {
	if g.delay > 0 {
		timer := time.NewTimer(g.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-timer.C:
		}
	}
	return g.verifier.Verify(ctx, credential)
}

// Current returns the gate state and the last inline error.
func (g *Gate) Current() Outcome {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := Outcome{State: g.state, Error: g.lastErr}
	if g.state == StateGranted {
		out.Route = g.route
	}
	return out
}

// Reset reopens the gate prompt: awaiting, no error.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = StateAwaiting
	g.lastErr = ""
}
