// ABOUTME: Analysis event log over the results table
// ABOUTME: Append-only writes, bounded newest-first reads, aggregation, retention deletes

package store

import (
	"context"
	"fmt"
	"time"
)

// AppendResult inserts one analysis event and returns its assigned id.
func (s *SQLiteStore) AppendResult(ctx context.Context, event *AnalysisEvent) (int64, error) {
	query := `
		INSERT INTO results (actor, input_text, translated_text, label, confidence, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	res, err := s.db.ExecContext(ctx, query,
		event.Actor,
		event.InputText,
		event.TranslatedText,
		event.Label,
		event.Confidence,
		event.Timestamp.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting result: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting result id: %w", err)
	}
	event.ID = id

	s.logger.Debug("appended result", "id", id, "label", event.Label)
	return id, nil
}

// RecentResults returns the most recent limit events, newest first.
// Equal timestamps are broken by id descending so ordering stays stable.
// If limit is 0 or negative, a default of 20 is used.
func (s *SQLiteStore) RecentResults(ctx context.Context, limit int) ([]*AnalysisEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 500 {
		limit = 500
	}

	query := `
		SELECT id, actor, input_text, translated_text, label, confidence, timestamp
		FROM results
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []*AnalysisEvent
	for rows.Next() {
		var event AnalysisEvent
		var timestampStr string

		if err := rows.Scan(
			&event.ID,
			&event.Actor,
			&event.InputText,
			&event.TranslatedText,
			&event.Label,
			&event.Confidence,
			&timestampStr,
		); err != nil {
			return nil, fmt.Errorf("scanning result row: %w", err)
		}

		event.Timestamp, err = time.Parse(time.RFC3339, timestampStr)
		if err != nil {
			return nil, fmt.Errorf("parsing timestamp: %w", err)
		}

		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating result rows: %w", err)
	}

	return events, nil
}

// CountResults returns the total event count.
func (s *SQLiteStore) CountResults(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM results").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting results: %w", err)
	}
	return count, nil
}

// CountResultsByLabel returns the number of events per label.
func (s *SQLiteStore) CountResultsByLabel(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT label, COUNT(*) FROM results GROUP BY label")
	if err != nil {
		return nil, fmt.Errorf("querying label counts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int64)
	for rows.Next() {
		var label string
		var count int64
		if err := rows.Scan(&label, &count); err != nil {
			return nil, fmt.Errorf("scanning label count: %w", err)
		}
		counts[label] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating label counts: %w", err)
	}

	return counts, nil
}

// CountResultsByActor returns the number of events per named actor.
// Anonymous events (actor IS NULL) are not included.
func (s *SQLiteStore) CountResultsByActor(ctx context.Context) ([]ActorCount, error) {
	query := `
		SELECT actor, COUNT(*)
		FROM results
		WHERE actor IS NOT NULL
		GROUP BY actor
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying actor counts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var counts []ActorCount
	for rows.Next() {
		var ac ActorCount
		if err := rows.Scan(&ac.Username, &ac.Count); err != nil {
			return nil, fmt.Errorf("scanning actor count: %w", err)
		}
		counts = append(counts, ac)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating actor counts: %w", err)
	}

	return counts, nil
}

// DeleteResultsBefore removes events older than cutoff and returns how many
// were removed. With anonymousOnly set, only rows with a NULL actor match.
// The delete runs in a transaction so the reported count is exact.
func (s *SQLiteStore) DeleteResultsBefore(ctx context.Context, cutoff time.Time, anonymousOnly bool) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `DELETE FROM results WHERE timestamp < ?`
	args := []any{cutoff.UTC().Format(time.RFC3339)}
	if anonymousOnly {
		query += ` AND actor IS NULL`
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting results: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing delete: %w", err)
	}

	if deleted > 0 {
		s.logger.Info("deleted results", "count", deleted, "cutoff", cutoff, "anonymous_only", anonymousOnly)
	}
	return deleted, nil
}
