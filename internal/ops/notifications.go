package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/careerbridge/internal/errors"
	"github.com/hpungsan/careerbridge/internal/notify"
)

// ListNotificationsInput contains parameters for ListNotifications.
type ListNotificationsInput struct {
	Limit      int
	Offset     int
	UnreadOnly bool
}

// ListNotificationsOutput contains the result of ListNotifications.
type ListNotificationsOutput struct {
	Items      []notify.Record `json:"items"`
	Unread     int             `json:"unread"`
	Pagination Pagination      `json:"pagination"`
}

// ListNotifications returns the active user's notifications newest-first
// with labels computed against the current time.
func ListNotifications(_ context.Context, env *Env, input ListNotificationsInput) (*ListNotificationsOutput, error) {
	if _, err := env.Session.RequireCurrent(); err != nil {
		return nil, err
	}
	if input.Offset < 0 {
		return nil, errors.NewInvalidRequest("offset must not be negative")
	}
	limit := clampLimit(input.Limit, DefaultListLimit, MaxListLimit)

	view := env.Session.Center().View(env.Now())
	records := view.Records
	if input.UnreadOnly {
		filtered := records[:0]
		for _, r := range records {
			if r.Unread {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}

	total := len(records)
	start := min(input.Offset, total)
	end := min(start+limit, total)
	items := records[start:end]
	if items == nil {
		items = []notify.Record{}
	}

	return &ListNotificationsOutput{
		Items:  items,
		Unread: view.Unread,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  input.Offset,
			HasMore: end < total,
			Total:   total,
		},
	}, nil
}

// MarkReadInput contains parameters for MarkRead.
type MarkReadInput struct {
	ID string
}

// MarkReadOutput contains the result of MarkRead. Marked is false when no
// record has the id.
type MarkReadOutput struct {
	ID     string `json:"id"`
	Marked bool   `json:"marked"`
	Unread int    `json:"unread"`
}

// MarkRead acknowledges one notification. An unknown id is not an error.
func MarkRead(ctx context.Context, env *Env, input MarkReadInput) (*MarkReadOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	if _, err := env.Session.RequireCurrent(); err != nil {
		return nil, err
	}
	c := env.Session.Center()
	marked := c.MarkRead(ctx, id)
	return &MarkReadOutput{ID: id, Marked: marked, Unread: c.UnreadCount()}, nil
}

// MarkAllReadOutput contains the result of MarkAllRead.
type MarkAllReadOutput struct {
	Marked int `json:"marked"`
}

// MarkAllRead acknowledges every notification.
func MarkAllRead(ctx context.Context, env *Env) (*MarkAllReadOutput, error) {
	if _, err := env.Session.RequireCurrent(); err != nil {
		return nil, err
	}
	return &MarkAllReadOutput{Marked: env.Session.Center().MarkAllRead(ctx)}, nil
}

// ClearNotificationsOutput contains the result of ClearNotifications.
type ClearNotificationsOutput struct {
	Cleared int `json:"cleared"`
}

// ClearNotifications removes every notification and the persisted set.
func ClearNotifications(ctx context.Context, env *Env) (*ClearNotificationsOutput, error) {
	if _, err := env.Session.RequireCurrent(); err != nil {
		return nil, err
	}
	c := env.Session.Center()
	n := len(c.Records())
	c.ClearAll(ctx)
	return &ClearNotificationsOutput{Cleared: n}, nil
}

// UnreadCountOutput contains the result of UnreadCount.
type UnreadCountOutput struct {
	Unread int `json:"unread"`
}

// UnreadCount returns the number of unread notifications, 0 when nobody is
// logged in.
func UnreadCount(_ context.Context, env *Env) *UnreadCountOutput {
	if env.Session.Current() == nil {
		return &UnreadCountOutput{}
	}
	return &UnreadCountOutput{Unread: env.Session.Center().UnreadCount()}
}

// DedupeOutput contains the result of Dedupe.
type DedupeOutput struct {
	Removed int `json:"removed"`
	Total   int `json:"total"`
}

// Dedupe runs a manual dedupe pass.
func Dedupe(ctx context.Context, env *Env) (*DedupeOutput, error) {
	if _, err := env.Session.RequireCurrent(); err != nil {
		return nil, err
	}
	c := env.Session.Center()
	removed := c.Deduplicate(ctx)
	return &DedupeOutput{Removed: removed, Total: len(c.Records())}, nil
}
