// Package admin is the admin login session: it checks credentials against the
// API and keeps the admin markers in the local store.
package admin

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log"
	"strings"

	"github.com/hpungsan/careerbridge/internal/backend"
	"github.com/hpungsan/careerbridge/internal/errors"
	"github.com/hpungsan/careerbridge/internal/forms"
	"github.com/hpungsan/careerbridge/internal/kv"
)

const (
	// TokenValue marks an authenticated admin.
	TokenValue = "admin-authenticated"

	DashboardRoute = "/adminDashboard"

	MsgRememberMe  = "Please check 'Remember me' before logging in."
	MsgSuccess     = "✅ Login successful! Redirecting..."
	MsgLoginFailed = "Login failed"
	MsgServerError = "Server error. Please try again later."
)

// Credentials is the admin login form.
type Credentials struct {
	Email      string `json:"email" validate:"notblank,emailish" label:"Email"`
	Password   string `json:"password" validate:"notblank,min=6" label:"Password"`
	RememberMe bool   `json:"remember_me"`
}

// API checks admin credentials.
type API interface {
	AdminLogin(ctx context.Context, email, password string) (*backend.Admin, error)
}

// Options configures a Session.
type Options struct {
	API   API
	Store kv.Store
	// Secrets holds the admin token. Defaults to Store.
	Secrets kv.Store
	Logger  *log.Logger
}

// Session tracks the signed-in admin.
type Session struct {
	api     API
	store   kv.Store
	secrets kv.Store
	logger  *log.Logger
}

// New returns an admin session over opts.Store.
func New(opts Options) *Session {
	if opts.Store == nil {
		opts.Store = kv.NewMemory()
	}
	if opts.Secrets == nil {
		opts.Secrets = opts.Store
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Session{api: opts.API, store: opts.Store, secrets: opts.Secrets, logger: opts.Logger}
}

// LoginResult is a successful admin login.
type LoginResult struct {
	Admin   *backend.Admin `json:"admin"`
	Message string         `json:"message"`
	Route   string         `json:"route"`
}

// Login validates creds, checks them with the API and records the admin.
func (s *Session) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if err := forms.Validate(&creds); err != nil {
		return nil, err
	}
	if !creds.RememberMe {
		return nil, errors.NewInvalidRequest(MsgRememberMe)
	}

	admin, err := s.api.AdminLogin(ctx, creds.Email, creds.Password)
	if err != nil {
		return nil, loginError(err)
	}

	data, err := json.Marshal(admin)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := s.secrets.Save(ctx, kv.AdminTokenKey, []byte(TokenValue)); err != nil {
		return nil, storeError(err)
	}
	for key, value := range map[string]string{
		kv.AdminDataKey:       string(data),
		kv.AdminRememberMeKey: "true",
		kv.AdminEmailKey:      creds.Email,
	} {
		if err := s.store.Save(ctx, key, []byte(value)); err != nil {
			return nil, storeError(err)
		}
	}
	s.logger.Printf("admin: %s logged in", creds.Email)
	return &LoginResult{Admin: admin, Message: MsgSuccess, Route: DashboardRoute}, nil
}

// loginError maps API failures to what the admin is shown.
func loginError(err error) error {
	var bErr *errors.BridgeError
	if !stderrors.As(err, &bErr) {
		return errors.NewInternal(err)
	}
	switch bErr.Code {
	case errors.ErrUpstreamRejected:
		if bErr.Status >= 500 {
			return serverError()
		}
		msg := bErr.Message
		if msg == "" {
			msg = MsgLoginFailed
		}
		return errors.NewInvalidCredential(msg)
	case errors.ErrUpstreamUnavailable:
		return serverError()
	}
	return bErr
}

func serverError() *errors.BridgeError {
	e := errors.NewUpstreamUnavailable(nil)
	e.Message = MsgServerError
	return e
}

func storeError(err error) error {
	var bErr *errors.BridgeError
	if stderrors.As(err, &bErr) {
		return bErr
	}
	return errors.NewInternal(err)
}

// Logout removes the admin data and token. The remembered email stays.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.store.Delete(ctx, kv.AdminDataKey); err != nil {
		return storeError(err)
	}
	if err := s.secrets.Delete(ctx, kv.AdminTokenKey); err != nil {
		return storeError(err)
	}
	return nil
}

// Current returns the stored admin. ok is false unless both the admin data
// and the token are present.
func (s *Session) Current(ctx context.Context) (admin *backend.Admin, ok bool, err error) {
	token, hasToken, err := s.secrets.Load(ctx, kv.AdminTokenKey)
	if err != nil {
		return nil, false, storeError(err)
	}
	data, hasData, err := s.store.Load(ctx, kv.AdminDataKey)
	if err != nil {
		return nil, false, storeError(err)
	}
	if !hasToken || !hasData || string(token) == "" {
		return nil, false, nil
	}
	admin = &backend.Admin{}
	if err := json.Unmarshal(data, admin); err != nil {
		s.logger.Printf("admin: stored admin data unreadable: %v", err)
		return nil, false, nil
	}
	return admin, true, nil
}

// RememberedEmail is the email of the last admin who logged in.
func (s *Session) RememberedEmail(ctx context.Context) string {
	v, ok, err := s.store.Load(ctx, kv.AdminEmailKey)
	if err != nil || !ok {
		return ""
	}
	return string(v)
}
