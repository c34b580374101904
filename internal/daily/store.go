package daily

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/robalobadob/scramble/internal/game"
)

// Result is one finished game.
type Result struct {
	Owner      string    `json:"-"`
	Mode       string    `json:"mode"`
	Date       string    `json:"date"`
	Points     int       `json:"points"`
	Strikes    int       `json:"strikes"`
	Passes     int       `json:"passes"`
	Words      int       `json:"words"`
	Reason     string    `json:"reason"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Store records results in the results table.
type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Insert records r. A zero FinishedAt is set to now; Date defaults to its day.
func (s *Store) Insert(ctx context.Context, r Result) error {
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now().UTC()
	}
	if r.Date == "" {
		r.Date = DateKey(r.FinishedAt)
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO results (owner, mode, date, points, strikes, passes, words, reason, finished_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Owner, r.Mode, r.Date, r.Points, r.Strikes, r.Passes, r.Words, r.Reason,
		r.FinishedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

// LBRow is one leaderboard line.
type LBRow struct {
	Owner  string `json:"owner"`
	Points int    `json:"points"`
	Words  int    `json:"words"`
}

// Leaderboard returns the best results of mode on date: points DESC, then
// fewer words presented, then earliest finish. Default limit is 20.
// In daily mode only the first result of each owner counts.
func (s *Store) Leaderboard(ctx context.Context, mode, date string, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT owner, points, words
        FROM results
        WHERE mode=? AND date=?
          AND (mode<>? OR id IN (SELECT MIN(id) FROM results WHERE mode=? AND date=? GROUP BY owner))
        ORDER BY points DESC, words ASC, finished_at ASC, id ASC
        LIMIT ?`, mode, date, game.ModeDaily, game.ModeDaily, date, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]LBRow, 0, limit)
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.Owner, &r.Points, &r.Words); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ForOwner returns the most recent results of owner, newest first.
func (s *Store) ForOwner(ctx context.Context, owner string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT owner, mode, date, points, strikes, passes, words, reason, finished_at
        FROM results
        WHERE owner=?
        ORDER BY finished_at DESC, id DESC
        LIMIT ?`, owner, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Result{}
	for rows.Next() {
		var (
			r        Result
			finished string
		)
		if err := rows.Scan(&r.Owner, &r.Mode, &r.Date, &r.Points, &r.Strikes, &r.Passes, &r.Words, &r.Reason, &finished); err != nil {
			return nil, err
		}
		r.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

// AlreadyPlayed reports whether owner has a daily result for date.
func (s *Store) AlreadyPlayed(ctx context.Context, owner, date string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM results WHERE owner=? AND mode=? AND date=?`,
		owner, game.ModeDaily, date,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("already played: %w", err)
	}
	return n > 0, nil
}

// ClaimOwner moves every result of from to to.
func (s *Store) ClaimOwner(ctx context.Context, from, to string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE results SET owner=? WHERE owner=?`, to, from)
	return err
}
