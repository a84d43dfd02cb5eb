// ABOUTME: Read-only admin aggregation over accounts and the result log
// ABOUTME: Also owns retention enforcement built on the store's bulk delete

package report

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/mindlens/mindlens/internal/store"
)

// Summary holds the dashboard headline counts.
type Summary struct {
	TotalUsers  int64
	TotalAdmins int64
	TotalEvents int64
}

// Reporter aggregates the credential store and event log for admin views.
type Reporter struct {
	store  store.Store
	logger *slog.Logger
}

// New creates a Reporter backed by the given store.
func New(st store.Store) *Reporter {
	return &Reporter{
		store:  st,
		logger: slog.Default().With("component", "report"),
	}
}

// Summary returns the total user, admin, and event counts.
func (r *Reporter) Summary(ctx context.Context) (*Summary, error) {
	users, err := r.store.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting users: %w", err)
	}

	admins, err := r.store.CountAdmins(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting admins: %w", err)
	}

	events, err := r.store.CountResults(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting events: %w", err)
	}

	return &Summary{TotalUsers: users, TotalAdmins: admins, TotalEvents: events}, nil
}

// TopActors ranks registered users by event count, descending, ties broken
// alphabetically. Users with zero events are included so the ranking always
// covers every account. Anonymous events are not attributed to anyone.
func (r *Reporter) TopActors(ctx context.Context, limit int) ([]store.ActorCount, error) {
	if limit <= 0 {
		limit = 10
	}

	accounts, err := r.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	counts, err := r.store.CountResultsByActor(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting events by actor: %w", err)
	}

	byActor := make(map[string]int64, len(counts))
	for _, c := range counts {
		byActor[c.Username] = c.Count
	}

	ranked := make([]store.ActorCount, 0, len(accounts))
	for _, a := range accounts {
		ranked = append(ranked, store.ActorCount{
			Username: a.Username,
			Count:    byActor[a.Username],
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Username < ranked[j].Username
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// LabelDistribution returns the event count per label.
func (r *Reporter) LabelDistribution(ctx context.Context) (map[string]int64, error) {
	counts, err := r.store.CountResultsByLabel(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting events by label: %w", err)
	}
	return counts, nil
}

// EnforceRetention deletes events older than retentionDays. With
// anonymousOnly set only unattributed events are removed. Returns the
// number of events deleted.
func (r *Reporter) EnforceRetention(ctx context.Context, retentionDays int, anonymousOnly bool) (int64, error) {
	if retentionDays < 0 {
		return 0, fmt.Errorf("retention days must not be negative")
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	deleted, err := r.store.DeleteResultsBefore(ctx, cutoff, anonymousOnly)
	if err != nil {
		return 0, fmt.Errorf("enforcing retention: %w", err)
	}

	r.logger.Info("retention enforced",
		"retention_days", retentionDays,
		"anonymous_only", anonymousOnly,
		"deleted", deleted,
	)
	return deleted, nil
}
