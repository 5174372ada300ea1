package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/freeeve/tetrad/internal/model"
	"github.com/freeeve/tetrad/internal/repository"
)

// Key patterns for Redis run state.
func runKey(runID string) string        { return "run:" + runID }
func rowsKey(runID string) string       { return "run:" + runID + ":rows" }
func tupleSumKey(runID string) string   { return "run:" + runID + ":tuple_sum" }
func tupleCountKey(runID string) string { return "run:" + runID + ":tuple_count" }
func tupleWinsKey(runID string) string  { return "run:" + runID + ":tuple_wins" }

func runKeys(runID string) []string {
	return []string{runKey(runID), rowsKey(runID), tupleSumKey(runID), tupleCountKey(runID), tupleWinsKey(runID)}
}

func tupleField(roles [4]int) string {
	return fmt.Sprintf("%d,%d,%d,%d", roles[0], roles[1], roles[2], roles[3])
}

func parseTupleField(s string) ([4]int, error) {
	var roles [4]int
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return roles, fmt.Errorf("bad tuple field %q", s)
	}
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return roles, fmt.Errorf("bad tuple field %q: %w", s, err)
		}
		roles[i] = v
	}
	return roles, nil
}

// CreateRun stores the run description.
func (c *Client) CreateRun(ctx context.Context, run *model.Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}
	if err := c.rdb.Set(ctx, runKey(run.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// WriteRows appends rows to the run's list and folds them into the per-tuple
// aggregates. A batch is applied in one MULTI/EXEC.
func (c *Client) WriteRows(ctx context.Context, rows []model.Row) error {
	if len(rows) == 0 {
		return nil
	}
	runID := rows[0].RunID

	encoded := make([]any, len(rows))
	for i, r := range rows {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode row: %w", err)
		}
		encoded[i] = data
	}

	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, rowsKey(runID), encoded...)
		for _, r := range rows {
			field := tupleField(r.Roles())
			pipe.HIncrByFloat(ctx, tupleSumKey(runID), field, r.Score)
			pipe.HIncrBy(ctx, tupleCountKey(runID), field, 1)
			if r.Winner {
				pipe.HIncrBy(ctx, tupleWinsKey(runID), field, 1)
			}
		}
		if c.ttl > 0 {
			for _, k := range runKeys(runID) {
				pipe.Expire(ctx, k, c.ttl)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// FinishRun records the end time and totals of a run.
func (c *Client) FinishRun(ctx context.Context, runID string, finishedAt time.Time, matches, rows int) error {
	run, err := c.FindRun(ctx, runID)
	if err != nil {
		return err
	}
	run.FinishedAt = &finishedAt
	run.Matches = matches
	run.Rows = rows
	return c.CreateRun(ctx, run)
}

// FindRun returns the run description.
func (c *Client) FindRun(ctx context.Context, runID string) (*model.Run, error) {
	data, err := c.rdb.Get(ctx, runKey(runID)).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("%w: %s", repository.ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("find run: %w", err)
	}
	var run model.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", runID, err)
	}
	return &run, nil
}

// ListRows returns the run's rows in the order they were written.
func (c *Client) ListRows(ctx context.Context, runID string) ([]model.Row, error) {
	items, err := c.rdb.LRange(ctx, rowsKey(runID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list rows: %w", err)
	}
	rows := make([]model.Row, 0, len(items))
	for _, item := range items {
		var r model.Row
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			return nil, fmt.Errorf("decode row: %w", err)
		}
		rows = append(rows, r)
	}
	return rows, nil
}

// TupleScores returns the running totals per role tuple.
func (c *Client) TupleScores(ctx context.Context, runID string) (map[[4]int]repository.TupleScore, error) {
	var sums, counts, wins *redis.MapStringStringCmd
	_, err := c.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		sums = pipe.HGetAll(ctx, tupleSumKey(runID))
		counts = pipe.HGetAll(ctx, tupleCountKey(runID))
		wins = pipe.HGetAll(ctx, tupleWinsKey(runID))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("tuple scores: %w", err)
	}

	out := make(map[[4]int]repository.TupleScore, len(counts.Val()))
	for field, raw := range counts.Val() {
		roles, err := parseTupleField(field)
		if err != nil {
			return nil, err
		}
		var ts repository.TupleScore
		if ts.Count, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return nil, fmt.Errorf("tuple %s count: %w", field, err)
		}
		if s, ok := sums.Val()[field]; ok {
			if ts.Sum, err = strconv.ParseFloat(s, 64); err != nil {
				return nil, fmt.Errorf("tuple %s sum: %w", field, err)
			}
		}
		if w, ok := wins.Val()[field]; ok {
			if ts.Wins, err = strconv.ParseInt(w, 10, 64); err != nil {
				return nil, fmt.Errorf("tuple %s wins: %w", field, err)
			}
		}
		out[roles] = ts
	}
	return out, nil
}

// DeleteRun removes every key of a run.
func (c *Client) DeleteRun(ctx context.Context, runID string) error {
	return c.rdb.Del(ctx, runKeys(runID)...).Err()
}

var (
	_ repository.ResultRepository = (*Client)(nil)
	_ repository.ScoreCache       = (*Client)(nil)
)
