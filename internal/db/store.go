package db

import (
	"context"
	"database/sql"
)

// Store adapts the sqlite kv table to the kv.Store port.
type Store struct {
	db *sql.DB
}

// NewStore wraps an initialized database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok, err := Get(ctx, s.db, key)
	if err != nil || !ok {
		return nil, ok, err
	}
	return []byte(v), true, nil
}

func (s *Store) Save(ctx context.Context, key string, value []byte) error {
	return Put(ctx, s.db, key, string(value))
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return Remove(ctx, s.db, key)
}
