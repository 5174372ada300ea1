// Package sqlite is an embedded result store for single-machine runs.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/freeeve/tetrad/internal/model"
	"github.com/freeeve/tetrad/internal/repository"
)

type Store struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Open returns an initialised store at path.
func Open(ctx context.Context, path string) (*Store, error) {
	s := NewStore(path)
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	dsn := s.path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=foreign_keys(1)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}
	// One connection keeps :memory: databases alive and serialises writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *Store) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, errors.New("sqlite store is not initialized")
	}
	return s.db, nil
}

func (s *Store) CreateRun(ctx context.Context, run *model.Run) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	players, err := json.Marshal(run.Players)
	if err != nil {
		return fmt.Errorf("encode players: %w", err)
	}
	var seed any
	if run.Seed != nil {
		seed = int64(*run.Seed)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, name, seed, players, graph, turns, prob_end, noise, repetitions, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Name, seed, string(players), run.Graph, run.Turns, run.ProbEnd, run.Noise,
		run.Repetitions, run.StartedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

func (s *Store) WriteRows(ctx context.Context, rows []model.Row) error {
	if len(rows) == 0 {
		return nil
	}
	db, err := s.getDB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO result_rows (run_id, interaction_index, slot, player_index, competitor_index, sc1_index, sc2_index,
			repetition, player_name, competitor_name, sc1_name, sc2_name, actions, score, turns, winner)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, interaction_index, slot) DO NOTHING
	`)
	if err != nil {
		return err
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

func (s *Store) FinishRun(ctx context.Context, runID string, finishedAt time.Time, matches, rows int) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, `
		UPDATE runs SET finished_at = ?, matches = ?, row_count = ? WHERE id = ?
	`, finishedAt.UTC().Format(time.RFC3339Nano), matches, rows, runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", repository.ErrRunNotFound, runID)
	}
	return nil
}

func (s *Store) FindRun(ctx context.Context, runID string) (*model.Run, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	var (
		run        model.Run
		seed       sql.NullInt64
		players    string
		startedAt  string
		finishedAt sql.NullString
	)
	err = db.QueryRowContext(ctx, `
		SELECT id, name, seed, players, graph, turns, prob_end, noise, repetitions, matches, row_count, started_at, finished_at
		FROM runs WHERE id = ?
	`, runID).Scan(&run.ID, &run.Name, &seed, &players, &run.Graph, &run.Turns, &run.ProbEnd, &run.Noise,
		&run.Repetitions, &run.Matches, &run.Rows, &startedAt, &finishedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", repository.ErrRunNotFound, runID)
		}
		return nil, err
	}

	if seed.Valid {
		v := uint64(seed.Int64)
		run.Seed = &v
	}
	if err := json.Unmarshal([]byte(players), &run.Players); err != nil {
		return nil, fmt.Errorf("decode players of run %s: %w", runID, err)
	}
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return nil, fmt.Errorf("decode start of run %s: %w", runID, err)
	}
	if finishedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("decode finish of run %s: %w", runID, err)
		}
		run.FinishedAt = &t
	}
	return &run, nil
}

func (s *Store) ListRows(ctx context.Context, runID string) ([]model.Row, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT run_id, interaction_index, slot, player_index, competitor_index, sc1_index, sc2_index,
			repetition, player_name, competitor_name, sc1_name, sc2_name, actions, score, turns, winner
		FROM result_rows WHERE run_id = ?
		ORDER BY interaction_index, slot
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Row
	for rows.Next() {
		var row model.Row
		if err := rows.Scan(&row.RunID, &row.InteractionIndex, &row.Slot,
			&row.PlayerIndex, &row.CompetitorIndex, &row.SC1Index, &row.SC2Index,
			&row.Repetition, &row.PlayerName, &row.CompetitorName, &row.SC1Name, &row.SC2Name,
			&row.Actions, &row.Score, &row.Turns, &row.Winner); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			seed INTEGER,
			players TEXT NOT NULL,
			graph TEXT NOT NULL,
			turns INTEGER NOT NULL,
			prob_end REAL NOT NULL DEFAULT 0,
			noise REAL NOT NULL DEFAULT 0,
			repetitions INTEGER NOT NULL,
			matches INTEGER NOT NULL DEFAULT 0,
			row_count INTEGER NOT NULL DEFAULT 0,
			started_at TEXT NOT NULL,
			finished_at TEXT
		);
		CREATE TABLE IF NOT EXISTS result_rows (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			interaction_index INTEGER NOT NULL,
			slot INTEGER NOT NULL,
			player_index INTEGER NOT NULL,
			competitor_index INTEGER NOT NULL,
			sc1_index INTEGER NOT NULL,
			sc2_index INTEGER NOT NULL,
			repetition INTEGER NOT NULL,
			player_name TEXT NOT NULL,
			competitor_name TEXT NOT NULL,
			sc1_name TEXT NOT NULL,
			sc2_name TEXT NOT NULL,
			actions TEXT NOT NULL,
			score REAL NOT NULL,
			turns INTEGER NOT NULL,
			winner INTEGER NOT NULL,
			PRIMARY KEY (run_id, interaction_index, slot)
		);
	`)
	return err
}

var _ repository.ResultRepository = (*Store)(nil)
