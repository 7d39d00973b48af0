package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Kind is the closed set of notification categories.
type Kind string

const (
	KindWelcome      Kind = "welcome"
	KindPoints       Kind = "points"
	KindPointsEarned Kind = "points-earned"
	KindAchievement  Kind = "achievement"
	KindReminder     Kind = "reminder"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindWelcome, KindPoints, KindPointsEarned, KindAchievement, KindReminder:
		return true
	}
	return false
}

// Record is one user-facing notification. Text and Timestamp never change
// after creation; only Unread is mutated.
type Record struct {
	ID           string    `json:"id"`
	Text         string    `json:"text"`
	Timestamp    time.Time `json:"timestamp"`
	Kind         Kind      `json:"type"`
	Unread       bool      `json:"unread"`
	Persistent   bool      `json:"persistent"`
	Points       int       `json:"points,omitempty"`
	Time         string    `json:"time,omitempty"`
	DetailedTime string    `json:"detailedTime,omitempty"`
}

// UnmarshalJSON accepts numeric ids as well as strings so sets written by
// older clients restore without regeneration.
func (r *Record) UnmarshalJSON(data []byte) error {
	type alias Record
	aux := struct {
		ID json.RawMessage `json:"id"`
		*alias
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	raw := bytes.TrimSpace(aux.ID)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		return fmt.Errorf("notification record missing id")
	case raw[0] == '"':
		if err := json.Unmarshal(raw, &r.ID); err != nil {
			return err
		}
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return fmt.Errorf("notification id: %w", err)
		}
		r.ID = n.String()
	}
	if r.ID == "" {
		return fmt.Errorf("notification record has empty id")
	}
	if !r.Kind.Valid() {
		return fmt.Errorf("notification %s has unknown type %q", r.ID, r.Kind)
	}
	return nil
}

// decodeRecords parses a persisted set.
func decodeRecords(data []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	if records == nil {
		return nil, fmt.Errorf("stored notifications are null")
	}
	return records, nil
}
