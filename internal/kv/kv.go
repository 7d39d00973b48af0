// Package kv defines the persisted key/value port shared by the session,
// ledger, notification center and admin session, plus the key layout.
package kv

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Store is a string-keyed byte store. Load reports ok=false for a missing key.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Fixed keys.
const (
	CurrentUserKey     = "currentUser"
	TokenKey           = "token"
	AdminTokenKey      = "adminToken"
	AdminDataKey       = "adminData"
	AdminRememberMeKey = "adminRememberMe"
	AdminEmailKey      = "adminEmail"
)

// NotificationsKey returns the key holding an identity's notification set.
func NotificationsKey(identityID string) string { return "notifications_" + identityID }

// PointsKey returns the key holding an identity's point total.
func PointsKey(identityID string) string { return "userPoints_" + identityID }

// HistoryKey returns the key holding an identity's points history.
func HistoryKey(identityID string) string { return "pointsHistory_" + identityID }

// Memory is an in-process Store. The zero value is ready to use.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte

	// FailSave, when set, is returned by every Save call.
	FailSave error
	// FailLoad, when set, is returned by every Load call.
	FailLoad error
}

// NewMemory returns an empty in-process store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Load(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailLoad != nil {
		return nil, false, m.FailLoad
	}
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *Memory) Save(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSave != nil {
		return m.FailSave
	}
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Keys returns the stored keys with the given prefix, sorted.
func (m *Memory) Keys(prefix string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
