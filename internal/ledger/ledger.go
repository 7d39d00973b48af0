// Package ledger caches the active user's point total and bounded history.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hpungsan/careerbridge/internal/errors"
	"github.com/hpungsan/careerbridge/internal/events"
	"github.com/hpungsan/careerbridge/internal/kv"
	"github.com/hpungsan/careerbridge/internal/timefmt"
)

const (
	DefaultHistoryLimit = 50
	DefaultRecentLimit  = 5

	defaultAddReason    = "Activity completed"
	defaultDeductReason = "Points deduction"
)

// Entry is one history line. Points is negative for deductions.
type Entry struct {
	ID          int64  `json:"id"`
	Points      int    `json:"points"`
	Reason      string `json:"reason"`
	Time        string `json:"time"`
	TotalPoints int    `json:"totalPoints"`
	Description string `json:"description"`
}

// Activity converts e to the event payload form.
func (e Entry) Activity() events.Activity {
	return events.Activity{Points: e.Points, Reason: e.Reason, Time: e.Time}
}

// Publisher is the subset of the event bus the ledger needs.
type Publisher interface {
	Publish(ctx context.Context, ev events.Event)
}

// Options configures a Ledger. Zero values select defaults.
type Options struct {
	Store        kv.Store
	Publisher    Publisher
	Formatter    *timefmt.Formatter
	Logger       *log.Logger
	Now          func() time.Time
	HistoryLimit int
	RecentLimit  int
}

// Ledger holds the points state of one identity at a time.
type Ledger struct {
	mu           sync.Mutex
	store        kv.Store
	pub          Publisher
	fmt          *timefmt.Formatter
	logger       *log.Logger
	now          func() time.Time
	historyLimit int
	recentLimit  int

	identityID string
	points     int
	history    []Entry
	newUser    bool
	lastID     int64
}

// New returns a ledger with no identity loaded.
func New(opts Options) *Ledger {
	l := &Ledger{
		store:        opts.Store,
		pub:          opts.Publisher,
		fmt:          opts.Formatter,
		logger:       opts.Logger,
		now:          opts.Now,
		historyLimit: opts.HistoryLimit,
		recentLimit:  opts.RecentLimit,
	}
	if l.store == nil {
		l.store = kv.NewMemory()
	}
	if l.fmt == nil {
		l.fmt = timefmt.Default
	}
	if l.logger == nil {
		l.logger = log.Default()
	}
	if l.now == nil {
		l.now = time.Now
	}
	if l.historyLimit <= 0 {
		l.historyLimit = DefaultHistoryLimit
	}
	if l.recentLimit <= 0 {
		l.recentLimit = DefaultRecentLimit
	}
	return l
}

// Load reads identityID's total and history. Missing values are initialized
// to zero and an empty history; unreadable ones are logged and reset.
func (l *Ledger) Load(ctx context.Context, identityID string) error {
	if identityID == "" {
		return errors.NewUnauthenticated()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.identityID = identityID
	l.loadLocked(ctx, true)
	return nil
}

// Refresh re-reads the active identity's state from the store. No events
// are published.
func (l *Ledger) Refresh(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.identityID == "" {
		return nil
	}
	return l.loadLocked(ctx, false)
}

func (l *Ledger) loadLocked(ctx context.Context, seed bool) error {
	id := l.identityID
	var firstErr error
	note := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	storedPoints, hasPoints, err := l.store.Load(ctx, kv.PointsKey(id))
	switch {
	case err != nil:
		l.logger.Printf("ledger: load points for %s: %v", id, err)
		note(err)
		l.points = 0
	case !hasPoints:
		l.points = 0
		if seed {
			l.saveLocked(ctx, kv.PointsKey(id), []byte("0"))
		}
	default:
		n, perr := strconv.Atoi(strings.TrimSpace(string(storedPoints)))
		if perr != nil {
			l.logger.Printf("ledger: stored points for %s unreadable, using 0: %v", id, perr)
		}
		l.points = n
	}

	storedHistory, hasHistory, err := l.store.Load(ctx, kv.HistoryKey(id))
	switch {
	case err != nil:
		l.logger.Printf("ledger: load history for %s: %v", id, err)
		note(err)
		l.history = nil
	case !hasHistory:
		l.history = nil
		if seed {
			l.saveLocked(ctx, kv.HistoryKey(id), []byte("[]"))
		}
	default:
		var history []Entry
		if jerr := json.Unmarshal(storedHistory, &history); jerr != nil {
			l.logger.Printf("ledger: stored history for %s unreadable, resetting: %v", id, jerr)
			history = nil
		}
		l.history = history
	}

	for _, e := range l.history {
		if e.ID > l.lastID {
			l.lastID = e.ID
		}
	}
	if seed {
		l.newUser = !hasPoints || (l.points == 0 && len(l.history) == 0)
	}
	return firstErr
}

// Reset forgets the loaded identity.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.identityID = ""
	l.points = 0
	l.history = nil
	l.newUser = false
}

// AddPoints credits n points and publishes pointsEarned followed by
// ledgerChanged.
func (l *Ledger) AddPoints(ctx context.Context, n int, reason string) (Entry, error) {
	if strings.TrimSpace(reason) == "" {
		reason = defaultAddReason
	}
	l.mu.Lock()
	if l.identityID == "" {
		l.mu.Unlock()
		return Entry{}, errors.NewUnauthenticated()
	}
	if n <= 0 {
		l.mu.Unlock()
		return Entry{}, errors.NewInvalidRequest("points to add must be positive")
	}

	prevPoints, prevHistory := l.points, l.history
	entry := l.appendLocked(n, reason, fmt.Sprintf("+%d points: %s", n, reason))
	if err := l.persistLocked(ctx); err != nil {
		l.points, l.history = prevPoints, prevHistory
		l.mu.Unlock()
		return Entry{}, err
	}
	l.newUser = false
	changed := l.changedLocked()
	pub := l.pub
	l.mu.Unlock()

	if pub != nil {
		pub.Publish(ctx, events.Event{Topic: events.TopicPointsEarned, Payload: events.PointsEarned{
			Points:  n,
			Reason:  reason,
			Message: entry.Description,
		}})
		pub.Publish(ctx, events.Event{Topic: events.TopicLedgerChanged, Payload: changed})
	}
	return entry, nil
}

// DeductPoints debits n points. It fails when n exceeds the current total.
// Only ledgerChanged is published.
func (l *Ledger) DeductPoints(ctx context.Context, n int, reason string) (Entry, error) {
	if strings.TrimSpace(reason) == "" {
		reason = defaultDeductReason
	}
	l.mu.Lock()
	if l.identityID == "" {
		l.mu.Unlock()
		return Entry{}, errors.NewUnauthenticated()
	}
	if n <= 0 {
		l.mu.Unlock()
		return Entry{}, errors.NewInvalidRequest("points to deduct must be positive")
	}
	if n > l.points {
		have := l.points
		l.mu.Unlock()
		return Entry{}, errors.NewInvalidRequest(fmt.Sprintf("cannot deduct %d points; only %d available", n, have))
	}

	prevPoints, prevHistory := l.points, l.history
	entry := l.appendLocked(-n, reason, fmt.Sprintf("-%d points: %s", n, reason))
	if err := l.persistLocked(ctx); err != nil {
		l.points, l.history = prevPoints, prevHistory
		l.mu.Unlock()
		return Entry{}, err
	}
	changed := l.changedLocked()
	pub := l.pub
	l.mu.Unlock()

	if pub != nil {
		pub.Publish(ctx, events.Event{Topic: events.TopicLedgerChanged, Payload: changed})
	}
	return entry, nil
}

func (l *Ledger) appendLocked(delta int, reason, description string) Entry {
	now := l.now()
	id := now.UnixMilli()
	if id <= l.lastID {
		id = l.lastID + 1
	}
	l.lastID = id

	l.points += delta
	entry := Entry{
		ID:          id,
		Points:      delta,
		Reason:      reason,
		Time:        l.fmt.AbsoluteLabel(now),
		TotalPoints: l.points,
		Description: description,
	}
	keep := l.history
	if len(keep) > l.historyLimit-1 {
		keep = keep[:l.historyLimit-1]
	}
	l.history = append([]Entry{entry}, keep...)
	return entry
}

func (l *Ledger) persistLocked(ctx context.Context) error {
	data, err := json.Marshal(l.history)
	if err != nil {
		return errors.NewInternal(err)
	}
	if err := l.store.Save(ctx, kv.PointsKey(l.identityID), []byte(strconv.Itoa(l.points))); err != nil {
		return errors.NewInternal(err)
	}
	if err := l.store.Save(ctx, kv.HistoryKey(l.identityID), data); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

func (l *Ledger) saveLocked(ctx context.Context, key string, value []byte) {
	if err := l.store.Save(ctx, key, value); err != nil {
		l.logger.Printf("ledger: save %s: %v", key, err)
	}
}

func (l *Ledger) changedLocked() events.LedgerChanged {
	return events.LedgerChanged{Total: l.points, Recent: activities(l.recentLocked(l.recentLimit))}
}

func activities(entries []Entry) []events.Activity {
	out := make([]events.Activity, len(entries))
	for i, e := range entries {
		out[i] = e.Activity()
	}
	return out
}

// Points returns the current total.
func (l *Ledger) Points() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.points
}

// History returns a copy of the full history, newest first.
func (l *Ledger) History() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.history...)
}

// RecentActivity returns up to limit entries, newest first. limit <= 0 uses
// the configured default.
func (l *Ledger) RecentActivity(limit int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if limit <= 0 {
		limit = l.recentLimit
	}
	return append([]Entry(nil), l.recentLocked(limit)...)
}

// RecentActivityEvents is RecentActivity in event payload form.
func (l *Ledger) RecentActivityEvents(limit int) []events.Activity {
	return activities(l.RecentActivity(limit))
}

func (l *Ledger) recentLocked(limit int) []Entry {
	if len(l.history) <= limit {
		return l.history
	}
	return l.history[:limit]
}

// TotalEarned sums the history, deductions included.
func (l *Ledger) TotalEarned() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := 0
	for _, e := range l.history {
		total += e.Points
	}
	return total
}

// IsNewUser reports whether the loaded identity had no points state.
func (l *Ledger) IsNewUser() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.newUser
}

// IdentityID returns the loaded identity, or "".
func (l *Ledger) IdentityID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.identityID
}
