// Package ops is the operation layer shared by the CLI, the MCP server and
// the web UI. Each operation takes an Input struct and returns an Output
// struct ready for JSON encoding.
package ops

import (
	"log"
	"time"

	"github.com/hpungsan/careerbridge/internal/admin"
	"github.com/hpungsan/careerbridge/internal/backend"
	"github.com/hpungsan/careerbridge/internal/config"
	"github.com/hpungsan/careerbridge/internal/forms"
	"github.com/hpungsan/careerbridge/internal/gate"
	"github.com/hpungsan/careerbridge/internal/kv"
	"github.com/hpungsan/careerbridge/internal/profile"
	"github.com/hpungsan/careerbridge/internal/session"
	"github.com/hpungsan/careerbridge/internal/timefmt"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// Env is the set of components operations run against.
type Env struct {
	Config  *config.Config
	Session *session.Session
	Gate    *gate.Gate
	Admin   *admin.Session
	Profile *profile.Service
	Forms   *forms.Submitter
	Now     func() time.Time
}

// EnvOptions configures Wire.
type EnvOptions struct {
	Config *config.Config
	Store  kv.Store
	// Secrets holds the admin token; nil keeps it in Store.
	Secrets   kv.Store
	API       *backend.Client
	Formatter *timefmt.Formatter
	Logger    *log.Logger
	Now       func() time.Time
}

// Wire builds an Env with every component connected: the ledger and
// notification center through the session's bus, forms and profile through
// the backend client.
func Wire(opts EnvOptions) *Env {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.API == nil {
		opts.API = backend.New(cfg)
	}

	sess := session.New(session.Options{
		Store:     opts.Store,
		Config:    cfg,
		Formatter: opts.Formatter,
		Logger:    opts.Logger,
		Now:       opts.Now,
	})
	return &Env{
		Config:  cfg,
		Session: sess,
		Gate: gate.New(gate.Options{
			Verifier: gate.NewAllowList(cfg.AdminPasswords),
			Delay:    gateDelay(cfg.GateDelayMillis),
			Route:    cfg.AdminRoute,
			Logger:   opts.Logger,
		}),
		Admin: admin.New(admin.Options{
			API:     opts.API,
			Store:   opts.Store,
			Secrets: opts.Secrets,
			Logger:  opts.Logger,
		}),
		Profile: profile.New(opts.API, sess, opts.Logger),
		Forms:   forms.NewSubmitter(opts.API, sess.Ledger(), sess, opts.Logger),
		Now:     opts.Now,
	}
}

// gateDelay maps the configured milliseconds to a gate delay. 0 in config
// means no pause, which the gate spells as a negative duration.
func gateDelay(ms int) time.Duration {
	if ms <= 0 {
		return -1
	}
	return time.Duration(ms) * time.Millisecond
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
