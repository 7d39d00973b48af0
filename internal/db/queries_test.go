package db

import (
	"context"
	"testing"

	"github.com/hpungsan/careerbridge/internal/kv"
)

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	db, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer db.Close()

	if _, ok, err := Get(ctx, db, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok %v err %v", ok, err)
	}

	if err := Put(ctx, db, "currentUser", `{"id":"1"}`); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	v, ok, err := Get(ctx, db, "currentUser")
	if err != nil || !ok || v != `{"id":"1"}` {
		t.Fatalf("Get = %q %v %v", v, ok, err)
	}

	// upsert replaces
	if err := Put(ctx, db, "currentUser", `{"id":"2"}`); err != nil {
		t.Fatalf("Put (replace) failed: %v", err)
	}
	v, _, _ = Get(ctx, db, "currentUser")
	if v != `{"id":"2"}` {
		t.Fatalf("Get after replace = %q", v)
	}
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	db, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer db.Close()

	if err := Remove(ctx, db, "never-there"); err != nil {
		t.Fatalf("Remove(missing) error = %v", err)
	}
	_ = Put(ctx, db, "token", "abc")
	if err := Remove(ctx, db, "token"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, ok, _ := Get(ctx, db, "token"); ok {
		t.Fatal("token still present after Remove")
	}
}

func TestStore_ImplementsPort(t *testing.T) {
	ctx := context.Background()
	sqlDB, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer sqlDB.Close()

	var s kv.Store = NewStore(sqlDB)

	if err := s.Save(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, ok, err := s.Load(ctx, "k")
	if err != nil || !ok || string(got) != "v" {
		t.Fatalf("Load = %q %v %v", got, ok, err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := s.Load(ctx, "k"); ok {
		t.Fatal("key present after Delete")
	}
}
