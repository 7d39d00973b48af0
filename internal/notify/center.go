// Package notify maintains the per-identity notification set: starter
// synthesis, event and activity ingestion, read state, dedupe and persistence.
package notify

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/hpungsan/careerbridge/internal/errors"
	"github.com/hpungsan/careerbridge/internal/events"
	"github.com/hpungsan/careerbridge/internal/identity"
	"github.com/hpungsan/careerbridge/internal/kv"
	"github.com/hpungsan/careerbridge/internal/timefmt"
	"github.com/oklog/ulid/v2"
)

const (
	// DefaultSoftCap is the record count above which a dedupe pass runs.
	DefaultSoftCap = 20
	// DefaultReminderOffset backdates the starter reminder.
	DefaultReminderOffset = 2 * time.Hour

	reminderText = "Complete your profile to earn more points"
)

// Refresher reloads a cached view after points change.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Options configures a Center. Zero values select defaults.
type Options struct {
	Store          kv.Store
	Refresher      Refresher
	Formatter      *timefmt.Formatter
	Logger         *log.Logger
	Now            func() time.Time
	NewID          func() string
	SoftCap        int
	ReminderOffset time.Duration
}

// Center owns the notification set of the active identity.
type Center struct {
	mu          sync.Mutex
	store       kv.Store
	refresher   Refresher
	fmt         *timefmt.Formatter
	logger      *log.Logger
	now         func() time.Time
	newID       func() string
	softCap     int
	reminderOff time.Duration

	identityID string
	active     bool
	records    []Record
}

// NewCenter returns an uninitialized center.
func NewCenter(opts Options) *Center {
	c := &Center{
		store:       opts.Store,
		refresher:   opts.Refresher,
		fmt:         opts.Formatter,
		logger:      opts.Logger,
		now:         opts.Now,
		newID:       opts.NewID,
		softCap:     opts.SoftCap,
		reminderOff: opts.ReminderOffset,
	}
	if c.store == nil {
		c.store = kv.NewMemory()
	}
	if c.fmt == nil {
		c.fmt = timefmt.Default
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.newID == nil {
		c.newID = newULID
	}
	if c.softCap <= 0 {
		c.softCap = DefaultSoftCap
	}
	if c.reminderOff <= 0 {
		c.reminderOff = DefaultReminderOffset
	}
	return c
}

func newULID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(rand.Reader, 0)).String()
}

// Initialize activates the center for id. A persisted set is restored
// verbatim; a missing or unreadable one is replaced by the starter set.
// Calling it again for the active identity does nothing. Initializing a
// different identity tears the current one down first.
func (c *Center) Initialize(ctx context.Context, id *identity.Identity) error {
	if id == nil || id.ID == "" {
		return errors.NewUnauthenticated()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active && c.identityID == id.ID {
		return nil
	}
	if c.active {
		c.teardownLocked()
	}

	c.identityID = id.ID
	c.active = true

	if records, ok := c.restoreLocked(ctx, id.ID); ok {
		c.records = records
	} else {
		c.records = c.starterSet(id)
	}
	c.persistLocked(ctx)
	return nil
}

func (c *Center) restoreLocked(ctx context.Context, identityID string) ([]Record, bool) {
	data, ok, err := c.store.Load(ctx, kv.NotificationsKey(identityID))
	if err != nil {
		c.logger.Printf("notify: load notifications for %s: %v", identityID, err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	records, err := decodeRecords(data)
	if err != nil {
		c.logger.Printf("notify: stored notifications for %s are malformed, regenerating: %v", identityID, err)
		return nil, false
	}
	c.reassignDuplicateIDs(records)
	return records, true
}

func (c *Center) reassignDuplicateIDs(records []Record) {
	seen := make(map[string]bool, len(records))
	for i := range records {
		if seen[records[i].ID] {
			old := records[i].ID
			records[i].ID = c.newID()
			c.logger.Printf("notify: duplicate notification id %s reassigned to %s", old, records[i].ID)
		}
		seen[records[i].ID] = true
	}
}

func (c *Center) starterSet(id *identity.Identity) []Record {
	now := c.now()
	earlier := now.Add(-c.reminderOff)
	return []Record{
		{
			ID:           c.newID(),
			Text:         fmt.Sprintf("Welcome %s!", id.DisplayName()),
			Timestamp:    now,
			Kind:         KindWelcome,
			Unread:       true,
			Persistent:   true,
			Time:         c.fmt.RelativeLabel(now, now),
			DetailedTime: c.fmt.AbsoluteLabel(now),
		},
		{
			ID:           c.newID(),
			Text:         reminderText,
			Timestamp:    earlier,
			Kind:         KindReminder,
			Unread:       true,
			Persistent:   false,
			Time:         c.fmt.RelativeLabel(earlier, now),
			DetailedTime: c.fmt.AbsoluteLabel(earlier),
		},
	}
}

// HandleEvent routes bus deliveries to OnDomainEvent and OnLedgerActivityChanged.
func (c *Center) HandleEvent(ctx context.Context, ev events.Event) {
	switch p := ev.Payload.(type) {
	case events.PointsEarned:
		c.OnDomainEvent(ctx, p)
	case *events.PointsEarned:
		c.OnDomainEvent(ctx, *p)
	case events.LedgerChanged:
		c.OnLedgerActivityChanged(ctx, p.Recent)
	case *events.LedgerChanged:
		c.OnLedgerActivityChanged(ctx, p.Recent)
	default:
		c.logger.Printf("notify: ignoring %s event with payload %T", ev.Topic, ev.Payload)
	}
}

// OnDomainEvent prepends a points-earned record for ev. Repeated events are
// all recorded; only the activity path suppresses duplicates.
func (c *Center) OnDomainEvent(ctx context.Context, ev events.PointsEarned) {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		c.logger.Printf("notify: dropping %s event with no active user", events.TopicPointsEarned)
		return
	}
	text := ev.Message
	if text == "" {
		text = composeText(ev.Points, ev.Reason)
	}
	c.prependLocked(ctx, c.pointsRecord(text, ev.Points))
	refresher := c.refresher
	c.mu.Unlock()

	if refresher != nil {
		if err := refresher.Refresh(ctx); err != nil {
			c.logger.Printf("notify: refresh after points event: %v", err)
		}
	}
}

// OnLedgerActivityChanged prepends a record for every positive activity whose
// composed text is not already present. Returns how many were added.
func (c *Center) OnLedgerActivityChanged(ctx context.Context, activity []events.Activity) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return 0
	}

	present := make(map[string]bool, len(c.records))
	for _, r := range c.records {
		present[r.Text] = true
	}

	var fresh []Record
	for _, a := range activity {
		// deductions are not announced
		if a.Points <= 0 {
			continue
		}
		text := composeText(a.Points, a.Reason)
		if present[text] {
			continue
		}
		present[text] = true
		fresh = append(fresh, c.pointsRecord(text, a.Points))
	}
	if len(fresh) == 0 {
		return 0
	}

	c.records = append(fresh, c.records...)
	c.afterInsertLocked(ctx)
	return len(fresh)
}

func composeText(points int, reason string) string {
	return fmt.Sprintf("+%d points: %s", points, reason)
}

func (c *Center) pointsRecord(text string, points int) Record {
	now := c.now()
	return Record{
		ID:           c.newID(),
		Text:         text,
		Timestamp:    now,
		Kind:         KindPointsEarned,
		Unread:       true,
		Persistent:   false,
		Points:       points,
		Time:         c.fmt.RelativeLabel(now, now),
		DetailedTime: c.fmt.AbsoluteLabel(now),
	}
}

func (c *Center) prependLocked(ctx context.Context, r Record) {
	c.records = append([]Record{r}, c.records...)
	c.afterInsertLocked(ctx)
}

func (c *Center) afterInsertLocked(ctx context.Context) {
	if len(c.records) > c.softCap {
		c.dedupeLocked()
	}
	c.persistLocked(ctx)
}

// MarkRead clears the unread flag of the record with id. Reports whether
// such a record exists.
func (c *Center) MarkRead(ctx context.Context, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return false
	}
	for i := range c.records {
		if c.records[i].ID == id {
			if c.records[i].Unread {
				c.records[i].Unread = false
				c.persistLocked(ctx)
			}
			return true
		}
	}
	return false
}

// MarkAllRead clears every unread flag and returns how many changed.
func (c *Center) MarkAllRead(ctx context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return 0
	}
	changed := 0
	for i := range c.records {
		if c.records[i].Unread {
			c.records[i].Unread = false
			changed++
		}
	}
	if changed > 0 {
		c.persistLocked(ctx)
	}
	return changed
}

// ClearAll empties the set and deletes the persisted entry.
func (c *Center) ClearAll(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return
	}
	c.records = nil
	if err := c.store.Delete(ctx, kv.NotificationsKey(c.identityID)); err != nil {
		c.logger.Printf("notify: delete notifications for %s: %v", c.identityID, err)
	}
}

// Deduplicate drops later records whose text repeats an earlier one and
// returns how many were removed.
func (c *Center) Deduplicate(ctx context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return 0
	}
	removed := c.dedupeLocked()
	if removed > 0 {
		c.persistLocked(ctx)
	}
	return removed
}

func (c *Center) dedupeLocked() int {
	seen := make(map[string]bool, len(c.records))
	kept := c.records[:0:0]
	for _, r := range c.records {
		if seen[r.Text] {
			continue
		}
		seen[r.Text] = true
		kept = append(kept, r)
	}
	removed := len(c.records) - len(kept)
	c.records = kept
	return removed
}

// UnreadCount returns the number of unread records.
func (c *Center) UnreadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, r := range c.records {
		if r.Unread {
			n++
		}
	}
	return n
}

// Teardown deactivates the center on logout. Only persistent records stay in
// memory and nothing is written back. A teardown for an identity other than
// the active one is ignored; nil tears down whoever is active.
func (c *Center) Teardown(id *identity.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return
	}
	if id != nil && id.ID != c.identityID {
		c.logger.Printf("notify: teardown for %s ignored, active user is %s", id.ID, c.identityID)
		return
	}
	c.teardownLocked()
}

func (c *Center) teardownLocked() {
	var kept []Record
	for _, r := range c.records {
		if r.Persistent {
			kept = append(kept, r)
		}
	}
	c.records = kept
	c.active = false
	c.identityID = ""
}

// Active reports whether the center is initialized, and for whom.
func (c *Center) Active() (identityID string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identityID, c.active
}

// Records returns a copy of the set in stored (newest-first insertion) order.
func (c *Center) Records() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Record(nil), c.records...)
}

// Find returns the record with id.
func (c *Center) Find(id string) (Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.records {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}

// View is the display form of the set at a given instant.
type View struct {
	Records []Record `json:"notifications"`
	Unread  int      `json:"unread"`
	Total   int      `json:"total"`
}

// View returns the records newest-first by timestamp (ties keep insertion
// order) with Time and DetailedTime recomputed against now.
func (c *Center) View(now time.Time) View {
	records := c.Records()
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
	unread := 0
	for i := range records {
		records[i].Time = c.fmt.RelativeLabel(records[i].Timestamp, now)
		records[i].DetailedTime = c.fmt.AbsoluteLabel(records[i].Timestamp)
		if records[i].Unread {
			unread++
		}
	}
	return View{Records: records, Unread: unread, Total: len(records)}
}

func (c *Center) persistLocked(ctx context.Context) {
	if !c.active || len(c.records) == 0 {
		return
	}
	data, err := json.Marshal(c.records)
	if err != nil {
		c.logger.Printf("notify: encode notifications for %s: %v", c.identityID, err)
		return
	}
	if err := c.store.Save(ctx, kv.NotificationsKey(c.identityID), data); err != nil {
		c.logger.Printf("notify: save notifications for %s: %v", c.identityID, err)
	}
}
