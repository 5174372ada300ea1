package repository

import (
	"context"
	"errors"
	"time"

	"github.com/freeeve/tetrad/internal/model"
)

// ErrRunNotFound is returned when a run ID is unknown to a store.
var ErrRunNotFound = errors.New("run not found")

// RowSink receives result rows in canonical order. Implementations are not
// required to be safe for concurrent use; the tournament writes from a single
// goroutine.
type RowSink interface {
	WriteRows(ctx context.Context, rows []model.Row) error
}

// ResultRepository persists tournament runs and their result streams.
type ResultRepository interface {
	RowSink
	CreateRun(ctx context.Context, run *model.Run) error
	FinishRun(ctx context.Context, runID string, finishedAt time.Time, matches, rows int) error
	FindRun(ctx context.Context, runID string) (*model.Run, error)
	ListRows(ctx context.Context, runID string) ([]model.Row, error)
	Close() error
}

// ScoreCache keeps running per-tuple score totals while a run is in flight.
type ScoreCache interface {
	RowSink
	TupleScores(ctx context.Context, runID string) (map[[4]int]TupleScore, error)
	DeleteRun(ctx context.Context, runID string) error
}

// TupleScore is the accumulated score of one role tuple.
type TupleScore struct {
	Sum   float64
	Count int64
	Wins  int64
}

// Discard is a sink that drops every row.
type Discard struct{}

func (Discard) WriteRows(context.Context, []model.Row) error { return nil }

// Tee fans rows out to several sinks in order, stopping at the first error.
type Tee []RowSink

func (t Tee) WriteRows(ctx context.Context, rows []model.Row) error {
	for _, s := range t {
		if err := s.WriteRows(ctx, rows); err != nil {
			return err
		}
	}
	return nil
}
