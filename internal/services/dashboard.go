package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"brisa/internal/config"
	"brisa/internal/core"
	"brisa/internal/storage"
)

// DashboardStore is the slice of storage the dashboard reads from.
type DashboardStore interface {
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	ListClients(ctx context.Context) ([]core.Client, error)
	PaidClientIDs(ctx context.Context, period core.PeriodKey) (map[string]bool, error)
	GetGoal(ctx context.Context) (core.Goal, error)
	UpsertGoal(ctx context.Context, g core.Goal) error
	VaultTotal(ctx context.Context) (float64, error)
}

// RateSource exposes the last known ARS-per-USD rate.
type RateSource interface {
	Current() float64
}

// GoalSettings drive the fallback goal and the health thresholds.
type GoalSettings struct {
	DefaultLabel  string
	DefaultTarget float64
	// Stored targets below MinTarget are treated as corrupt and
	// replaced by DefaultTarget when rendering.
	MinTarget    float64
	AvgClientFee float64
}

// Dashboard is everything a single period view needs, assembled in one
// round trip.
type Dashboard struct {
	Period       core.PeriodMode
	Rate         float64
	Summary      core.Summary
	Goal         core.Goal
	GoalProgress core.GoalProgress
	Breakdown    []core.CategoryAmount
	Vault        float64
	Transactions []core.Transaction
	Clients      []core.Client
}

type DashboardService struct {
	store        DashboardStore
	rates        RateSource
	goals        GoalSettings
	expenseScope string
	now          func() time.Time
}

func NewDashboardService(store DashboardStore, rates RateSource, goals GoalSettings, expenseScope string) *DashboardService {
	return &DashboardService{
		store:        store,
		rates:        rates,
		goals:        goals,
		expenseScope: expenseScope,
		now:          time.Now,
	}
}

// Build assembles the dashboard for the given view mode. The four
// reads run concurrently. Transactions are the backbone and their
// failure fails the build; goal, clients and vault degrade to their
// fallbacks so one broken table does not blank the whole view.
func (s *DashboardService) Build(ctx context.Context, mode core.PeriodMode) (Dashboard, error) {
	if !mode.Valid() {
		return Dashboard{}, fmt.Errorf("invalid period mode %q", mode)
	}

	now := s.now()
	period := core.CurrentPeriod(now)

	var (
		txs     []core.Transaction
		clients []core.Client
		paid    map[string]bool
		goal    core.Goal
		goalErr error
		vault   float64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.store.ListTransactions(gctx)
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		clients, err = s.store.ListClients(gctx)
		if err != nil {
			slog.WarnContext(gctx, "Dashboard client list unavailable", "error", err)
			clients = nil
			return nil
		}
		paid, err = s.store.PaidClientIDs(gctx, period)
		if err != nil {
			slog.WarnContext(gctx, "Dashboard payment flags unavailable", "error", err)
			paid = nil
		}
		return nil
	})
	g.Go(func() error {
		goal, goalErr = s.store.GetGoal(gctx)
		return nil
	})
	g.Go(func() error {
		var err error
		vault, err = s.store.VaultTotal(gctx)
		if err != nil {
			slog.WarnContext(gctx, "Dashboard vault total unavailable", "error", err)
			vault = 0
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	for i := range clients {
		clients[i].HasPaid = paid[clients[i].ID]
	}

	rate := s.rates.Current()
	filtered := core.FilterPeriod(txs, mode, now)
	summary := core.Summarize(filtered, clients, rate)

	// In year view the projected balance may still subtract only the
	// current month's expenses, depending on configuration.
	if s.expenseScope == config.ScopeMonth && mode == core.PeriodYear {
		monthExpense := core.TotalExpense(core.FilterPeriod(txs, core.PeriodMonth, now), rate)
		summary.ProjectedBalance = summary.ProjectedIncome - monthExpense
	}

	goal = s.effectiveGoal(ctx, goal, goalErr)
	progress, err := core.TrackGoal(summary.ProjectedIncome, goal.TargetAmount, s.goals.AvgClientFee)
	if err != nil {
		slog.WarnContext(ctx, "Goal tracking misconfigured", "error", err, "target", goal.TargetAmount)
		progress = core.GoalProgress{}
	}

	return Dashboard{
		Period:       mode,
		Rate:         rate,
		Summary:      summary,
		Goal:         goal,
		GoalProgress: progress,
		Breakdown:    core.BreakdownByCategory(filtered, rate),
		Vault:        vault,
		Transactions: filtered,
		Clients:      clients,
	}, nil
}

// Goal returns the goal as the dashboard would render it, fallbacks
// applied.
func (s *DashboardService) Goal(ctx context.Context) (core.Goal, error) {
	goal, err := s.store.GetGoal(ctx)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return core.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	return s.effectiveGoal(ctx, goal, err), nil
}

// SetGoal stores a new goal target. Targets below the configured
// minimum are rejected outright instead of being silently replaced
// later.
func (s *DashboardService) SetGoal(ctx context.Context, goal core.Goal) (core.Goal, error) {
	if goal.Label == "" {
		goal.Label = s.goals.DefaultLabel
	}
	if err := goal.Validate(); err != nil {
		return core.Goal{}, err
	}
	if goal.TargetAmount < s.goals.MinTarget {
		return core.Goal{}, core.ErrInvalidGoalTarget
	}
	if err := s.store.UpsertGoal(ctx, goal); err != nil {
		return core.Goal{}, fmt.Errorf("store goal: %w", err)
	}
	return goal, nil
}

// effectiveGoal substitutes the configured default when no goal is
// stored or the stored target is below the valid minimum.
func (s *DashboardService) effectiveGoal(ctx context.Context, goal core.Goal, err error) core.Goal {
	fallback := core.Goal{
		Label:        s.goals.DefaultLabel,
		TargetAmount: s.goals.DefaultTarget,
	}
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			slog.WarnContext(ctx, "Dashboard goal unavailable, using default", "error", err)
		}
		return fallback
	}
	if goal.TargetAmount < s.goals.MinTarget {
		slog.WarnContext(ctx, "Stored goal target below minimum, using default",
			"stored", goal.TargetAmount,
			"minimum", s.goals.MinTarget)
		if goal.Label != "" {
			fallback.Label = goal.Label
		}
		return fallback
	}
	return goal
}
