package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/freeeve/tetrad/internal/model"
	"github.com/freeeve/tetrad/internal/repository"
)

// ResultRepo stores runs and their result rows.
type ResultRepo struct {
	db *sql.DB
}

// NewResultRepo creates a ResultRepo. Close closes db.
func NewResultRepo(db *sql.DB) *ResultRepo {
	return &ResultRepo{db: db}
}

// Seeds are stored bit-for-bit in a signed BIGINT.
func seedParam(seed *uint64) any {
	if seed == nil {
		return nil
	}
	return int64(*seed)
}

// CreateRun inserts a run.
func (r *ResultRepo) CreateRun(ctx context.Context, run *model.Run) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO runs (id, name, seed, players, graph, turns, prob_end, noise, repetitions, started_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		run.ID, run.Name, seedParam(run.Seed), pq.Array(run.Players), run.Graph,
		run.Turns, run.ProbEnd, run.Noise, run.Repetitions, run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// WriteRows inserts a batch of rows in one transaction. Rows already present
// are skipped, so a retried batch is harmless.
func (r *ResultRepo) WriteRows(ctx context.Context, rows []model.Row) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO result_rows (run_id, interaction_index, slot, player_index, competitor_index, sc1_index, sc2_index,
		   repetition, player_name, competitor_name, sc1_name, sc2_name, actions, score, turns, winner)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		 ON CONFLICT (run_id, interaction_index, slot) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("prepare row insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx,
			row.RunID, row.InteractionIndex, row.Slot,
			row.PlayerIndex, row.CompetitorIndex, row.SC1Index, row.SC2Index,
			row.Repetition, row.PlayerName, row.CompetitorName, row.SC1Name, row.SC2Name,
			row.Actions, row.Score, row.Turns, row.Winner,
		); err != nil {
			return fmt.Errorf("insert row %d/%d: %w", row.InteractionIndex, row.Slot, err)
		}
	}
	return tx.Commit()
}

// FinishRun records the end time and totals of a run.
func (r *ResultRepo) FinishRun(ctx context.Context, runID string, finishedAt time.Time, matches, rows int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = $2, matches = $3, row_count = $4 WHERE id = $1`,
		runID, finishedAt, matches, rows,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", repository.ErrRunNotFound, runID)
	}
	return nil
}

// FindRun returns a run by ID.
func (r *ResultRepo) FindRun(ctx context.Context, runID string) (*model.Run, error) {
	var run model.Run
	var seed sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, seed, players, graph, turns, prob_end, noise, repetitions, matches, row_count, started_at, finished_at
		 FROM runs WHERE id = $1`, runID,
	).Scan(&run.ID, &run.Name, &seed, pq.Array(&run.Players), &run.Graph, &run.Turns, &run.ProbEnd, &run.Noise,
		&run.Repetitions, &run.Matches, &run.Rows, &run.StartedAt, &run.FinishedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", repository.ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("find run: %w", err)
	}
	if seed.Valid {
		s := uint64(seed.Int64)
		run.Seed = &s
	}
	return &run, nil
}

// ListRows returns a run's rows in canonical order.
func (r *ResultRepo) ListRows(ctx context.Context, runID string) ([]model.Row, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT run_id, interaction_index, slot, player_index, competitor_index, sc1_index, sc2_index,
		   repetition, player_name, competitor_name, sc1_name, sc2_name, actions, score, turns, winner
		 FROM result_rows WHERE run_id = $1
		 ORDER BY interaction_index, slot`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list rows: %w", err)
	}
	defer rows.Close()

	var out []model.Row
	for rows.Next() {
		var row model.Row
		if err := rows.Scan(&row.RunID, &row.InteractionIndex, &row.Slot,
			&row.PlayerIndex, &row.CompetitorIndex, &row.SC1Index, &row.SC2Index,
			&row.Repetition, &row.PlayerName, &row.CompetitorName, &row.SC1Name, &row.SC2Name,
			&row.Actions, &row.Score, &row.Turns, &row.Winner); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// DeleteRun removes a run and, by cascade, its rows.
func (r *ResultRepo) DeleteRun(ctx context.Context, runID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM runs WHERE id = $1`, runID)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return nil
}

// Close closes the underlying pool.
func (r *ResultRepo) Close() error {
	return r.db.Close()
}

var _ repository.ResultRepository = (*ResultRepo)(nil)
