package csvfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/freeeve/tetrad/internal/model"
	"github.com/freeeve/tetrad/internal/repository"
)

// Store keeps each run as <dir>/<run id>.csv plus <dir>/<run id>.json.
type Store struct {
	dir string

	mu    sync.Mutex
	files map[string]*os.File
}

// Open returns a Store rooted at dir, creating it if needed.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("csv output directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Store{dir: dir, files: make(map[string]*os.File)}, nil
}

func (s *Store) csvPath(runID string) string  { return filepath.Join(s.dir, runID+".csv") }
func (s *Store) metaPath(runID string) string { return filepath.Join(s.dir, runID+".json") }

// CSVPath returns where the rows of runID are written.
func (s *Store) CSVPath(runID string) string { return s.csvPath(runID) }

// CreateRun writes the sidecar and an empty result file with its header.
func (s *Store) CreateRun(_ context.Context, run *model.Run) error {
	if err := s.writeMeta(run); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.csvPath(run.ID), os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("create run file: %w", err)
	}
	w := NewWriter(f)
	if err := w.Write(nil); err != nil {
		f.Close()
		return err
	}
	s.files[run.ID] = f
	return nil
}

// WriteRows appends rows to the run's file. A batch is encoded in memory and
// written at once; on a failed write the file is cut back so a retry does not
// leave a partial batch behind.
func (s *Store) WriteRows(_ context.Context, rows []model.Row) error {
	if len(rows) == 0 {
		return nil
	}
	runID := rows[0].RunID

	var buf bytes.Buffer
	if err := NewAppender(&buf).Write(rows); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.file(runID)
	if err != nil {
		return err
	}
	offset, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("seek run file: %w", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		if terr := f.Truncate(offset); terr != nil {
			return fmt.Errorf("write rows: %w (truncate: %v)", err, terr)
		}
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

func (s *Store) file(runID string) (*os.File, error) {
	if f, ok := s.files[runID]; ok {
		return f, nil
	}
	f, err := os.OpenFile(s.csvPath(runID), os.O_RDWR, 0o644)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", repository.ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("open run file: %w", err)
	}
	s.files[runID] = f
	return f, nil
}

// FinishRun records the totals in the sidecar and closes the result file.
func (s *Store) FinishRun(ctx context.Context, runID string, finishedAt time.Time, matches, rows int) error {
	run, err := s.FindRun(ctx, runID)
	if err != nil {
		return err
	}
	run.FinishedAt = &finishedAt
	run.Matches = matches
	run.Rows = rows
	if err := s.writeMeta(run); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.files[runID]; ok {
		delete(s.files, runID)
		if err := f.Sync(); err != nil {
			f.Close()
			return fmt.Errorf("sync run file: %w", err)
		}
		return f.Close()
	}
	return nil
}

// FindRun reads the run's sidecar.
func (s *Store) FindRun(_ context.Context, runID string) (*model.Run, error) {
	data, err := os.ReadFile(s.metaPath(runID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", repository.ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("read run: %w", err)
	}
	var run model.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", runID, err)
	}
	return &run, nil
}

// ListRows reads the run's result file back.
func (s *Store) ListRows(_ context.Context, runID string) ([]model.Row, error) {
	f, err := os.Open(s.csvPath(runID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", repository.ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("open run file: %w", err)
	}
	defer f.Close()
	return ReadRows(f, runID)
}

// Close closes any result files still open.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for id, f := range s.files {
		errs = append(errs, f.Close())
		delete(s.files, id)
	}
	return errors.Join(errs...)
}

// writeMeta replaces the sidecar through a temp file and rename.
func (s *Store) writeMeta(run *model.Run) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}
	tmp := s.metaPath(run.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	if err := os.Rename(tmp, s.metaPath(run.ID)); err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

var _ repository.ResultRepository = (*Store)(nil)
