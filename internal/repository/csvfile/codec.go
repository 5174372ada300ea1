// Package csvfile stores tournament results as CSV files, one per run, with
// the run description kept in a JSON sidecar.
package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/freeeve/tetrad/internal/model"
)

// ErrBadHeader is returned when a CSV stream does not start with the result header.
var ErrBadHeader = errors.New("unexpected result header")

// Writer writes rows as CSV. The header goes out before the first row.
type Writer struct {
	w           *csv.Writer
	wroteHeader bool
}

// NewWriter returns a Writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: csv.NewWriter(w)}
}

// NewAppender returns a Writer that assumes the header is already present.
func NewAppender(w io.Writer) *Writer {
	return &Writer{w: csv.NewWriter(w), wroteHeader: true}
}

// WriteHeader writes the header if it has not been written yet.
func (w *Writer) WriteHeader() error {
	if w.wroteHeader {
		return nil
	}
	if err := w.w.Write(model.RowHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	w.wroteHeader = true
	return nil
}

// Write encodes rows and flushes them to the underlying writer.
func (w *Writer) Write(rows []model.Row) error {
	if err := w.WriteHeader(); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.w.Write(encodeRow(r)); err != nil {
			return fmt.Errorf("write row %d/%d: %w", r.InteractionIndex, r.Slot, err)
		}
	}
	w.w.Flush()
	return w.w.Error()
}

func encodeRow(r model.Row) []string {
	winner := "0"
	if r.Winner {
		winner = "1"
	}
	return []string{
		strconv.Itoa(r.InteractionIndex),
		strconv.Itoa(r.PlayerIndex),
		strconv.Itoa(r.CompetitorIndex),
		strconv.Itoa(r.SC1Index),
		strconv.Itoa(r.SC2Index),
		strconv.Itoa(r.Repetition),
		r.PlayerName,
		r.CompetitorName,
		r.SC1Name,
		r.SC2Name,
		r.Actions,
		strconv.FormatFloat(r.Score, 'f', -1, 64),
		strconv.Itoa(r.Turns),
		winner,
	}
}

// ReadRows decodes a CSV result stream. The file carries no slot column; slots
// are recovered from row order within each interaction.
func ReadRows(r io.Reader, runID string) ([]model.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(model.RowHeader)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if !slices.Equal(header, model.RowHeader) {
		return nil, fmt.Errorf("%w: %v", ErrBadHeader, header)
	}

	var rows []model.Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		row, err := decodeRow(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		row.RunID = runID
		if n := len(rows); n > 0 && rows[n-1].InteractionIndex == row.InteractionIndex {
			row.Slot = rows[n-1].Slot + 1
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func decodeRow(rec []string) (model.Row, error) {
	var r model.Row
	ints := []struct {
		dst *int
		col int
	}{
		{&r.InteractionIndex, 0},
		{&r.PlayerIndex, 1},
		{&r.CompetitorIndex, 2},
		{&r.SC1Index, 3},
		{&r.SC2Index, 4},
		{&r.Repetition, 5},
		{&r.Turns, 12},
	}
	for _, f := range ints {
		v, err := strconv.Atoi(rec[f.col])
		if err != nil {
			return r, fmt.Errorf("column %q: %w", model.RowHeader[f.col], err)
		}
		*f.dst = v
	}
	r.PlayerName = rec[6]
	r.CompetitorName = rec[7]
	r.SC1Name = rec[8]
	r.SC2Name = rec[9]
	r.Actions = rec[10]

	score, err := strconv.ParseFloat(rec[11], 64)
	if err != nil {
		return r, fmt.Errorf("column %q: %w", model.RowHeader[11], err)
	}
	r.Score = score

	// Older files spell the flag True/False.
	winner, err := strconv.ParseBool(rec[13])
	if err != nil {
		return r, fmt.Errorf("column %q: %w", model.RowHeader[13], err)
	}
	r.Winner = winner
	return r, nil
}
