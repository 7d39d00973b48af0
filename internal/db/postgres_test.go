package db

import (
	"context"
	"os"
	"testing"

	"github.com/hpungsan/careerbridge/internal/kv"
)

// Runs against a live server only when CAREERBRIDGE_TEST_POSTGRES_DSN is set.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("CAREERBRIDGE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CAREERBRIDGE_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	s, err := OpenPostgres(dsn)
	if err != nil {
		t.Fatalf("OpenPostgres failed: %v", err)
	}
	defer s.Close()

	var port kv.Store = s
	key := kv.NotificationsKey("pgtest")
	t.Cleanup(func() { _ = s.Delete(context.Background(), key) })

	if err := port.Save(ctx, key, []byte("[]")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := port.Save(ctx, key, []byte(`[{"id":"1"}]`)); err != nil {
		t.Fatalf("Save (upsert) failed: %v", err)
	}
	got, ok, err := port.Load(ctx, key)
	if err != nil || !ok || string(got) != `[{"id":"1"}]` {
		t.Fatalf("Load = %q %v %v", got, ok, err)
	}
	if err := port.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := port.Load(ctx, key); ok {
		t.Fatal("key present after Delete")
	}
}
