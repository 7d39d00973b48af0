package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/careerbridge/internal/identity"
)

// LoginInput contains parameters for Login.
type LoginInput struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	JoinDate  string
	Token     string
}

// WhoAmIOutput describes the active user.
type WhoAmIOutput struct {
	Authenticated bool               `json:"authenticated"`
	User          *identity.Identity `json:"user,omitempty"`
	DisplayName   string             `json:"display_name"`
	JoinLabel     string             `json:"join_label"`
	Points        int                `json:"points"`
	Unread        int                `json:"unread"`
}

// Login makes the given identity active.
func Login(ctx context.Context, env *Env, input LoginInput) (*WhoAmIOutput, error) {
	id := &identity.Identity{
		ID:        strings.TrimSpace(input.ID),
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Email:     strings.TrimSpace(input.Email),
		JoinDate:  strings.TrimSpace(input.JoinDate),
	}
	if err := env.Session.Login(ctx, id, input.Token); err != nil {
		return nil, err
	}
	return WhoAmI(ctx, env), nil
}

// LogoutOutput contains the result of Logout.
type LogoutOutput struct {
	LoggedOut bool   `json:"logged_out"`
	ID        string `json:"id,omitempty"`
}

// Logout ends the active login. Logging out with nobody logged in succeeds
// with LoggedOut false.
func Logout(ctx context.Context, env *Env) (*LogoutOutput, error) {
	cur := env.Session.Current()
	if cur == nil {
		return &LogoutOutput{}, nil
	}
	if err := env.Session.Logout(ctx); err != nil {
		return nil, err
	}
	return &LogoutOutput{LoggedOut: true, ID: cur.ID}, nil
}

// WhoAmI reports the active user, or a guest view.
func WhoAmI(ctx context.Context, env *Env) *WhoAmIOutput {
	s := env.Session
	out := &WhoAmIOutput{
		Authenticated: s.IsAuthenticated(ctx),
		User:          s.Current(),
		DisplayName:   s.DisplayName(),
		JoinLabel:     s.JoinLabel(),
	}
	// the last user's records stay in memory after logout
	if out.User != nil {
		out.Points = s.Ledger().Points()
		out.Unread = s.Center().UnreadCount()
	}
	return out
}
