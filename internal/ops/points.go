package ops

import (
	"context"

	"github.com/hpungsan/careerbridge/internal/errors"
	"github.com/hpungsan/careerbridge/internal/ledger"
)

// PointsInput contains parameters for AddPoints and DeductPoints.
type PointsInput struct {
	Points int
	Reason string
}

// PointsOutput contains the result of a ledger change.
type PointsOutput struct {
	Entry  ledger.Entry `json:"entry"`
	Points int          `json:"points"`
	Level  ledger.Level `json:"level"`
}

// AddPoints credits the active user.
func AddPoints(ctx context.Context, env *Env, input PointsInput) (*PointsOutput, error) {
	if input.Points <= 0 {
		return nil, errors.NewInvalidRequest("points must be positive")
	}
	l := env.Session.Ledger()
	entry, err := l.AddPoints(ctx, input.Points, input.Reason)
	if err != nil {
		return nil, err
	}
	return &PointsOutput{Entry: entry, Points: l.Points(), Level: l.Level()}, nil
}

// DeductPoints debits the active user. It fails when the total is too low.
func DeductPoints(ctx context.Context, env *Env, input PointsInput) (*PointsOutput, error) {
	if input.Points <= 0 {
		return nil, errors.NewInvalidRequest("points must be positive")
	}
	l := env.Session.Ledger()
	entry, err := l.DeductPoints(ctx, input.Points, input.Reason)
	if err != nil {
		return nil, err
	}
	return &PointsOutput{Entry: entry, Points: l.Points(), Level: l.Level()}, nil
}

// PointsSummaryInput contains parameters for PointsSummary.
type PointsSummaryInput struct {
	Limit int // recent entries, default 5
}

// PointsSummary returns the active user's ledger snapshot.
func PointsSummary(_ context.Context, env *Env, input PointsSummaryInput) (*ledger.Summary, error) {
	if _, err := env.Session.RequireCurrent(); err != nil {
		return nil, err
	}
	limit := input.Limit
	if limit <= 0 {
		limit = env.Config.RecentActivityLimit
	}
	s := env.Session.Ledger().Summary(limit)
	return &s, nil
}
