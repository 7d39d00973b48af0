package ledger

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"log"
	"testing"
	"time"

	"github.com/hpungsan/careerbridge/internal/errors"
	"github.com/hpungsan/careerbridge/internal/events"
	"github.com/hpungsan/careerbridge/internal/kv"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, ev events.Event) {
	r.events = append(r.events, ev)
}

func newTestLedger(t *testing.T, store *kv.Memory) (*Ledger, *recorder, *bytes.Buffer) {
	t.Helper()
	rec := &recorder{}
	logs := &bytes.Buffer{}
	now := time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)
	l := New(Options{
		Store:     store,
		Publisher: rec,
		Logger:    log.New(logs, "", 0),
		Now:       func() time.Time { return now },
	})
	return l, rec, logs
}

func TestLoad_SeedsMissingState(t *testing.T) {
	store := kv.NewMemory()
	l, _, _ := newTestLedger(t, store)
	ctx := context.Background()

	require.NoError(t, l.Load(ctx, "U1"))
	require.Equal(t, 0, l.Points())
	require.Empty(t, l.History())
	require.True(t, l.IsNewUser())

	v, ok, _ := store.Load(ctx, kv.PointsKey("U1"))
	require.True(t, ok)
	require.Equal(t, "0", string(v))
	v, ok, _ = store.Load(ctx, kv.HistoryKey("U1"))
	require.True(t, ok)
	require.Equal(t, "[]", string(v))
}

func TestLoad_NoIdentity(t *testing.T) {
	l, _, _ := newTestLedger(t, kv.NewMemory())
	require.True(t, errors.Is(l.Load(context.Background(), ""), errors.ErrUnauthenticated))
}

func TestLoad_ExistingState(t *testing.T) {
	store := kv.NewMemory()
	ctx := context.Background()
	_ = store.Save(ctx, kv.PointsKey("U1"), []byte("30"))
	_ = store.Save(ctx, kv.HistoryKey("U1"), []byte(`[{"id":2,"points":20,"reason":"b","totalPoints":30},{"id":1,"points":10,"reason":"a","totalPoints":10}]`))

	l, _, _ := newTestLedger(t, store)
	require.NoError(t, l.Load(ctx, "U1"))
	require.Equal(t, 30, l.Points())
	require.Len(t, l.History(), 2)
	require.False(t, l.IsNewUser())
	require.Equal(t, 30, l.TotalEarned())
}

func TestLoad_MalformedHistoryResets(t *testing.T) {
	store := kv.NewMemory()
	ctx := context.Background()
	_ = store.Save(ctx, kv.PointsKey("U1"), []byte("abc"))
	_ = store.Save(ctx, kv.HistoryKey("U1"), []byte(`{broken`))

	l, _, logs := newTestLedger(t, store)
	require.NoError(t, l.Load(ctx, "U1"))
	require.Equal(t, 0, l.Points())
	require.Empty(t, l.History())
	require.Contains(t, logs.String(), "unreadable")
}

func TestAddPoints(t *testing.T) {
	store := kv.NewMemory()
	l, rec, _ := newTestLedger(t, store)
	ctx := context.Background()
	require.NoError(t, l.Load(ctx, "U1"))

	entry, err := l.AddPoints(ctx, 10, "Completed Personal Information form")
	require.NoError(t, err)
	require.Equal(t, 10, entry.Points)
	require.Equal(t, 10, entry.TotalPoints)
	require.Equal(t, "+10 points: Completed Personal Information form", entry.Description)
	require.Equal(t, "15 Oct 2026, 12:00 pm", entry.Time)
	require.Equal(t, 10, l.Points())
	require.False(t, l.IsNewUser())

	v, _, _ := store.Load(ctx, kv.PointsKey("U1"))
	require.Equal(t, "10", string(v))

	require.Len(t, rec.events, 2)
	require.Equal(t, events.TopicPointsEarned, rec.events[0].Topic)
	earned := rec.events[0].Payload.(events.PointsEarned)
	require.Equal(t, 10, earned.Points)
	require.Equal(t, "+10 points: Completed Personal Information form", earned.Message)

	require.Equal(t, events.TopicLedgerChanged, rec.events[1].Topic)
	changed := rec.events[1].Payload.(events.LedgerChanged)
	require.Equal(t, 10, changed.Total)
	require.Len(t, changed.Recent, 1)
}

func TestAddPoints_DefaultReason(t *testing.T) {
	l, _, _ := newTestLedger(t, kv.NewMemory())
	ctx := context.Background()
	require.NoError(t, l.Load(ctx, "U1"))

	entry, err := l.AddPoints(ctx, 3, "  ")
	require.NoError(t, err)
	require.Equal(t, "Activity completed", entry.Reason)
}

func TestAddPoints_Rejects(t *testing.T) {
	l, rec, _ := newTestLedger(t, kv.NewMemory())
	ctx := context.Background()

	_, err := l.AddPoints(ctx, 10, "x")
	require.True(t, errors.Is(err, errors.ErrUnauthenticated))

	require.NoError(t, l.Load(ctx, "U1"))
	_, err = l.AddPoints(ctx, 0, "x")
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
	_, err = l.AddPoints(ctx, -4, "x")
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
	require.Empty(t, rec.events)
}

func TestAddPoints_SaveFailureRollsBack(t *testing.T) {
	store := kv.NewMemory()
	l, rec, _ := newTestLedger(t, store)
	ctx := context.Background()
	require.NoError(t, l.Load(ctx, "U1"))

	store.FailSave = stderrors.New("disk full")
	_, err := l.AddPoints(ctx, 5, "x")
	require.True(t, errors.Is(err, errors.ErrInternal))
	require.Equal(t, 0, l.Points())
	require.Empty(t, l.History())
	require.Empty(t, rec.events)
}

func TestHistoryCappedAt50(t *testing.T) {
	l, _, _ := newTestLedger(t, kv.NewMemory())
	ctx := context.Background()
	require.NoError(t, l.Load(ctx, "U1"))

	for i := 0; i < 60; i++ {
		_, err := l.AddPoints(ctx, 1, fmt.Sprintf("task %d", i))
		require.NoError(t, err)
	}
	history := l.History()
	require.Len(t, history, 50)
	require.Equal(t, "task 59", history[0].Reason)
	require.Equal(t, 60, l.Points())

	// ids are strictly decreasing even with a frozen clock
	for i := 1; i < len(history); i++ {
		require.Greater(t, history[i-1].ID, history[i].ID)
	}
}

func TestDeductPoints(t *testing.T) {
	l, rec, _ := newTestLedger(t, kv.NewMemory())
	ctx := context.Background()
	require.NoError(t, l.Load(ctx, "U1"))
	_, err := l.AddPoints(ctx, 20, "earned")
	require.NoError(t, err)
	rec.events = nil

	entry, err := l.DeductPoints(ctx, 5, "")
	require.NoError(t, err)
	require.Equal(t, -5, entry.Points)
	require.Equal(t, "Points deduction", entry.Reason)
	require.Equal(t, "-5 points: Points deduction", entry.Description)
	require.Equal(t, 15, l.Points())
	require.Equal(t, 15, l.TotalEarned())

	require.Len(t, rec.events, 1)
	require.Equal(t, events.TopicLedgerChanged, rec.events[0].Topic)

	_, err = l.DeductPoints(ctx, 16, "too much")
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
	_, err = l.DeductPoints(ctx, 0, "zero")
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
	require.Equal(t, 15, l.Points())
}

func TestRecentActivity(t *testing.T) {
	l, _, _ := newTestLedger(t, kv.NewMemory())
	ctx := context.Background()
	require.NoError(t, l.Load(ctx, "U1"))
	for i := 0; i < 7; i++ {
		_, _ = l.AddPoints(ctx, 1, fmt.Sprintf("r%d", i))
	}

	require.Len(t, l.RecentActivity(0), 5)
	require.Len(t, l.RecentActivity(2), 2)
	require.Len(t, l.RecentActivity(100), 7)
	acts := l.RecentActivityEvents(1)
	require.Equal(t, "r6", acts[0].Reason)
}

func TestRefresh(t *testing.T) {
	store := kv.NewMemory()
	l, rec, _ := newTestLedger(t, store)
	ctx := context.Background()
	require.NoError(t, l.Load(ctx, "U1"))

	// another writer changes the stored total
	_ = store.Save(ctx, kv.PointsKey("U1"), []byte("42"))
	require.NoError(t, l.Refresh(ctx))
	require.Equal(t, 42, l.Points())
	require.Empty(t, rec.events)

	store.FailLoad = stderrors.New("gone")
	require.Error(t, l.Refresh(ctx))
}

func TestReset(t *testing.T) {
	l, _, _ := newTestLedger(t, kv.NewMemory())
	ctx := context.Background()
	require.NoError(t, l.Load(ctx, "U1"))
	_, _ = l.AddPoints(ctx, 10, "x")

	l.Reset()
	require.Equal(t, 0, l.Points())
	require.Empty(t, l.History())
	require.Equal(t, "", l.IdentityID())
	require.NoError(t, l.Refresh(ctx))
}

func TestPerIdentityIsolation(t *testing.T) {
	store := kv.NewMemory()
	l, _, _ := newTestLedger(t, store)
	ctx := context.Background()

	require.NoError(t, l.Load(ctx, "U1"))
	_, _ = l.AddPoints(ctx, 10, "u1")
	require.NoError(t, l.Load(ctx, "U2"))
	require.Equal(t, 0, l.Points())
	require.NoError(t, l.Load(ctx, "U1"))
	require.Equal(t, 10, l.Points())
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		points int
		want   string
		level  int
	}{
		{0, "Beginner", 0},
		{9, "Beginner", 0},
		{10, "Starter", 1},
		{49, "Starter", 1},
		{50, "Rookie", 2},
		{200, "Intermediate", 3},
		{499, "Intermediate", 3},
		{500, "Advanced", 4},
		{1000, "Elite", 5},
		{5000, "Elite", 5},
	}
	for _, tt := range tests {
		got := LevelFor(tt.points)
		if got.Rank != tt.want || got.Level != tt.level {
			t.Errorf("LevelFor(%d) = %+v, want %s/%d", tt.points, got, tt.want, tt.level)
		}
	}
}

func TestSummary(t *testing.T) {
	l, _, _ := newTestLedger(t, kv.NewMemory())
	ctx := context.Background()
	require.NoError(t, l.Load(ctx, "U1"))
	_, _ = l.AddPoints(ctx, 60, "big")

	s := l.Summary(0)
	require.Equal(t, 60, s.Points)
	require.Equal(t, "Rookie", s.Level.Rank)
	require.Equal(t, 60, s.TotalEarned)
	require.Len(t, s.Recent, 1)
}
