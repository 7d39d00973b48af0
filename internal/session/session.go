// Package session is the process-wide context for the signed-in user. It
// creates the event bus at login, wires the ledger and notification center to
// it, and tears everything down at logout.
package session

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/hpungsan/careerbridge/internal/config"
	"github.com/hpungsan/careerbridge/internal/errors"
	"github.com/hpungsan/careerbridge/internal/events"
	"github.com/hpungsan/careerbridge/internal/identity"
	"github.com/hpungsan/careerbridge/internal/kv"
	"github.com/hpungsan/careerbridge/internal/ledger"
	"github.com/hpungsan/careerbridge/internal/notify"
	"github.com/hpungsan/careerbridge/internal/timefmt"
)

// Options configures a Session. Zero values select defaults.
type Options struct {
	Store     kv.Store
	Config    *config.Config
	Formatter *timefmt.Formatter
	Logger    *log.Logger
	Now       func() time.Time
	// NewID overrides notification id generation (tests).
	NewID func() string
}

// Session holds the active identity and the components scoped to it.
type Session struct {
	mu      sync.Mutex
	store   kv.Store
	logger  *log.Logger
	now     func() time.Time
	ledger  *ledger.Ledger
	center  *notify.Center
	bus     *events.Bus
	unsubs  []func()
	current *identity.Identity
}

// New returns a signed-out session.
func New(opts Options) *Session {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if opts.Store == nil {
		opts.Store = kv.NewMemory()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Session{store: opts.Store, logger: opts.Logger, now: opts.Now}
	s.ledger = ledger.New(ledger.Options{
		Store:        opts.Store,
		Publisher:    s,
		Formatter:    opts.Formatter,
		Logger:       opts.Logger,
		Now:          opts.Now,
		HistoryLimit: cfg.HistoryLimit,
		RecentLimit:  cfg.RecentActivityLimit,
	})
	s.center = notify.NewCenter(notify.Options{
		Store:          opts.Store,
		Refresher:      s.ledger,
		Formatter:      opts.Formatter,
		Logger:         opts.Logger,
		Now:            opts.Now,
		NewID:          opts.NewID,
		SoftCap:        cfg.NotificationSoftCap,
		ReminderOffset: time.Duration(cfg.ReminderOffsetMinutes) * time.Minute,
	})
	return s
}

// Ledger returns the points ledger.
func (s *Session) Ledger() *ledger.Ledger { return s.ledger }

// Center returns the notification center.
func (s *Session) Center() *notify.Center { return s.center }

// Publish forwards ev to the bus of the active login. Without a login the
// event is dropped.
func (s *Session) Publish(ctx context.Context, ev events.Event) {
	s.mu.Lock()
	bus := s.bus
	s.mu.Unlock()
	if bus == nil {
		s.logger.Printf("session: dropping %s event, nobody is logged in", ev.Topic)
		return
	}
	bus.Publish(ctx, ev)
}

// Subscribe registers h on the active login's bus. The subscription ends at
// logout. Without a login it returns an error.
func (s *Session) Subscribe(topic events.Topic, h events.Handler) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bus == nil {
		return nil, errors.NewUnauthenticated()
	}
	return s.bus.Subscribe(topic, h), nil
}

// Login makes id the active identity. token is stored alongside when
// non-empty. Logging in as the already-active identity only refreshes the
// stored user record; logging in as someone else logs the current user out first.
func (s *Session) Login(ctx context.Context, id *identity.Identity, token string) error {
	if id == nil || id.ID == "" {
		return errors.NewInvalidRequest("identity with an id is required")
	}

	s.mu.Lock()
	same := s.current != nil && s.current.ID == id.ID
	switching := s.current != nil && !same
	s.mu.Unlock()

	if switching {
		if err := s.Logout(ctx); err != nil {
			return err
		}
	}

	user := *id
	if err := s.saveUser(ctx, &user); err != nil {
		return err
	}
	if token != "" {
		if err := s.store.Save(ctx, kv.TokenKey, []byte(token)); err != nil {
			return errors.NewInternal(err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &user
	if same {
		return nil
	}

	if err := s.ledger.Load(ctx, user.ID); err != nil {
		return err
	}
	if err := s.center.Initialize(ctx, &user); err != nil {
		return err
	}

	s.bus = events.NewBus(s.logger)
	s.unsubs = []func(){
		s.bus.Subscribe(events.TopicPointsEarned, s.center.HandleEvent),
		s.bus.Subscribe(events.TopicLedgerChanged, s.center.HandleEvent),
		s.bus.Subscribe(events.TopicProfilePhotoUpdated, s.handlePhotoUpdated),
	}

	s.center.OnLedgerActivityChanged(ctx, s.ledger.RecentActivityEvents(0))
	s.logger.Printf("session: %s logged in", user.ID)
	return nil
}

// Restore logs back in as the stored currentUser. It reports false when no
// usable record exists; an unreadable record is removed.
func (s *Session) Restore(ctx context.Context) (bool, error) {
	data, ok, err := s.store.Load(ctx, kv.CurrentUserKey)
	if err != nil {
		s.logger.Printf("session: load current user: %v", err)
		return false, nil
	}
	if !ok {
		return false, nil
	}
	var user identity.Identity
	if err := json.Unmarshal(data, &user); err != nil || user.ID == "" {
		s.logger.Printf("session: stored current user unreadable, clearing: %v", err)
		_ = s.store.Delete(ctx, kv.CurrentUserKey)
		return false, nil
	}
	if err := s.Login(ctx, &user, ""); err != nil {
		return false, err
	}
	return true, nil
}

// Logout ends the active login. Persistent notifications stay in memory,
// non-persistent ones are dropped, and the bus is closed.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	user := s.current

	for _, unsub := range s.unsubs {
		unsub()
	}
	s.unsubs = nil
	if s.bus != nil {
		s.bus.Close()
		s.bus = nil
	}

	s.center.Teardown(user)
	s.ledger.Reset()
	s.current = nil

	for _, key := range []string{kv.CurrentUserKey, kv.TokenKey} {
		if err := s.store.Delete(ctx, key); err != nil {
			s.logger.Printf("session: remove %s: %v", key, err)
		}
	}
	s.logger.Printf("session: %s logged out", user.ID)
	return nil
}

// Current returns a copy of the active identity, or nil.
func (s *Session) Current() *identity.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	u := *s.current
	return &u
}

// RequireCurrent returns the active identity or UNAUTHENTICATED.
func (s *Session) RequireCurrent() (*identity.Identity, error) {
	if u := s.Current(); u != nil {
		return u, nil
	}
	return nil, errors.NewUnauthenticated()
}

// IsAuthenticated reports whether a user is active and a token is stored.
func (s *Session) IsAuthenticated(ctx context.Context) bool {
	if s.Current() == nil {
		return false
	}
	_, ok, err := s.store.Load(ctx, kv.TokenKey)
	return err == nil && ok
}

// DisplayName is the active user's display name, or "Guest User".
func (s *Session) DisplayName() string {
	return s.Current().DisplayName()
}

// JoinLabel is the active user's "Month Year" join label, or "Recently".
func (s *Session) JoinLabel() string {
	return s.Current().JoinLabel(s.now())
}

// Update merges the non-empty fields of patch into the active identity and
// stores the result.
func (s *Session) Update(ctx context.Context, patch identity.Identity) (*identity.Identity, error) {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return nil, errors.NewUnauthenticated()
	}
	u := *s.current
	s.mu.Unlock()

	if patch.FirstName != "" {
		u.FirstName = patch.FirstName
	}
	if patch.LastName != "" {
		u.LastName = patch.LastName
	}
	if patch.Email != "" {
		u.Email = patch.Email
	}
	if patch.JoinDate != "" {
		u.JoinDate = patch.JoinDate
	}
	if patch.ProfilePhoto != "" {
		u.ProfilePhoto = patch.ProfilePhoto
	}
	if err := s.saveUser(ctx, &u); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.ID != u.ID {
		return nil, errors.NewUnauthenticated()
	}
	s.current = &u
	out := u
	return &out, nil
}

func (s *Session) handlePhotoUpdated(ctx context.Context, ev events.Event) {
	p, ok := ev.Payload.(events.ProfilePhotoUpdated)
	if !ok {
		s.logger.Printf("session: ignoring %s payload %T", ev.Topic, ev.Payload)
		return
	}
	cur := s.Current()
	if cur == nil || (p.UserID != "" && p.UserID != cur.ID) {
		return
	}
	if _, err := s.Update(ctx, identity.Identity{ProfilePhoto: p.URL}); err != nil {
		s.logger.Printf("session: record new profile photo: %v", err)
	}
}

func (s *Session) saveUser(ctx context.Context, u *identity.Identity) error {
	data, err := json.Marshal(u)
	if err != nil {
		return errors.NewInternal(err)
	}
	if err := s.store.Save(ctx, kv.CurrentUserKey, data); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}
