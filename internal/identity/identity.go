// Package identity describes the signed-in portal user.
package identity

import (
	"strings"
	"time"
)

// GuestName is shown when nobody is signed in.
const GuestName = "Guest User"

// Identity is the authenticated user as stored under the currentUser key.
type Identity struct {
	ID           string `json:"id"`
	FirstName    string `json:"firstName,omitempty"`
	LastName     string `json:"lastName,omitempty"`
	Email        string `json:"email,omitempty"`
	JoinDate     string `json:"joinDate,omitempty"`
	ProfilePhoto string `json:"profilePhoto,omitempty"`
}

// DisplayName returns "First Last", falling back to the email address.
// A nil identity is the guest.
func (i *Identity) DisplayName() string {
	if i == nil {
		return GuestName
	}
	if name := strings.TrimSpace(i.FirstName + " " + i.LastName); name != "" {
		return name
	}
	return i.Email
}

// JoinLabel renders the join date as "October 2026". A missing or unparseable
// join date is treated as now; a nil identity yields "Recently".
func (i *Identity) JoinLabel(now time.Time) string {
	if i == nil {
		return "Recently"
	}
	joined := now
	if i.JoinDate != "" {
		if t, err := time.Parse(time.RFC3339, i.JoinDate); err == nil {
			joined = t
		} else if t, err := time.Parse(time.DateOnly, i.JoinDate); err == nil {
			joined = t
		}
	}
	return joined.Format("January 2006")
}
