package ops

import (
	"context"

	"github.com/hpungsan/careerbridge/internal/admin"
	"github.com/hpungsan/careerbridge/internal/backend"
	"github.com/hpungsan/careerbridge/internal/gate"
)

// GateInput contains parameters for SubmitGate.
type GateInput struct {
	Credential string
}

// GateOutput contains the result of SubmitGate.
type GateOutput struct {
	State   gate.State `json:"state"`
	Granted bool       `json:"granted"`
	Route   string     `json:"route,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// SubmitGate checks an admin gate credential. A mismatch is reported in
// Error, not as a failure.
func SubmitGate(ctx context.Context, env *Env, input GateInput) (*GateOutput, error) {
	out, err := env.Gate.Submit(ctx, input.Credential)
	if err != nil {
		return nil, err
	}
	return &GateOutput{State: out.State, Granted: out.Granted(), Route: out.Route, Error: out.Error}, nil
}

// AdminLoginInput contains parameters for AdminLogin.
type AdminLoginInput struct {
	Email      string
	Password   string
	RememberMe bool
}

// AdminLogin signs an admin in through the API.
func AdminLogin(ctx context.Context, env *Env, input AdminLoginInput) (*admin.LoginResult, error) {
	return env.Admin.Login(ctx, admin.Credentials{
		Email:      input.Email,
		Password:   input.Password,
		RememberMe: input.RememberMe,
	})
}

// AdminStatusOutput contains the result of AdminStatus.
type AdminStatusOutput struct {
	Authenticated bool           `json:"authenticated"`
	Admin         *backend.Admin `json:"admin,omitempty"`
	Email         string         `json:"remembered_email,omitempty"`
}

// AdminStatus reports the stored admin.
func AdminStatus(ctx context.Context, env *Env) (*AdminStatusOutput, error) {
	a, ok, err := env.Admin.Current(ctx)
	if err != nil {
		return nil, err
	}
	return &AdminStatusOutput{Authenticated: ok, Admin: a, Email: env.Admin.RememberedEmail(ctx)}, nil
}

// AdminLogout removes the stored admin.
func AdminLogout(ctx context.Context, env *Env) (*AdminStatusOutput, error) {
	if err := env.Admin.Logout(ctx); err != nil {
		return nil, err
	}
	return AdminStatus(ctx, env)
}
