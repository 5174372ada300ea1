package csvfile

import (
	"bytes"
	"context"
	"errors"
	"os"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/freeeve/tetrad/internal/model"
	"github.com/freeeve/tetrad/internal/repository"
)

func sampleRows(runID string, interaction int) []model.Row {
	roles := [4][4]int{{0, 1, 2, 3}, {1, 0, 3, 2}, {2, 3, 0, 1}, {3, 2, 1, 0}}
	names := []string{"Always W", "Cycler", "TFT-2p", "Mimic"}
	rows := make([]model.Row, 4)
	for s := range rows {
		r := roles[s]
		rows[s] = model.Row{
			RunID:            runID,
			InteractionIndex: interaction,
			Slot:             s,
			PlayerIndex:      r[0],
			CompetitorIndex:  r[1],
			SC1Index:         r[2],
			SC2Index:         r[3],
			PlayerName:       names[r[0]],
			CompetitorName:   names[r[1]],
			SC1Name:          names[r[2]],
			SC2Name:          names[r[3]],
			Actions:          "WXYZ",
			Score:            float64(s) - 1.5,
			Turns:            4,
			Winner:           s == 3,
		}
	}
	return rows
}

func TestWriterFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriter(&buf).Write(sampleRows("r", 7)[:1]); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected header and one row, got %d lines", len(lines))
	}
	if lines[0] != strings.Join(model.RowHeader, ",") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if want := "7,0,1,2,3,0,Always W,Cycler,TFT-2p,Mimic,WXYZ,-1.5,4,0"; lines[1] != want {
		t.Errorf("Expected %q, got %q", want, lines[1])
	}
}

func TestReadRowsRecoversSlots(t *testing.T) {
	want := append(sampleRows("r", 0), sampleRows("r", 1)...)
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.Write(want[:4]); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Write(want[4:]); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	got, err := ReadRows(&buf, "r")
	if err != nil {
		t.Fatalf("ReadRows failed: %v", err)
	}
	if !slices.Equal(got, want) {
		t.Errorf("rows differ after reading back:\n got %+v\nwant %+v", got, want)
	}
}

func TestReadRowsAcceptsBoolWords(t *testing.T) {
	in := strings.Join(model.RowHeader, ",") + "\n" +
		"0,0,0,0,0,0,a,a,a,a,WW,2,2,True\n"
	rows, err := ReadRows(strings.NewReader(in), "")
	if err != nil {
		t.Fatalf("ReadRows failed: %v", err)
	}
	if !rows[0].Winner {
		t.Error("Expected True to parse as a win")
	}
}

func TestReadRowsRejectsBadInput(t *testing.T) {
	if _, err := ReadRows(strings.NewReader("a,b,c\n"), ""); err == nil {
		t.Error("Expected an error for a short header")
	}
	bad := strings.Join(model.RowHeader[:13], ",") + ",Champion\n"
	if _, err := ReadRows(strings.NewReader(bad), ""); !errors.Is(err, ErrBadHeader) {
		t.Errorf("Expected ErrBadHeader, got %v", err)
	}
	row := strings.Join(model.RowHeader, ",") + "\nx,0,0,0,0,0,a,a,a,a,W,1,1,0\n"
	if _, err := ReadRows(strings.NewReader(row), ""); err == nil {
		t.Error("Expected an error for a non-numeric index")
	}
}

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	seed := uint64(99)
	run := &model.Run{ID: "run-1", Name: "smoke", Seed: &seed, Players: []string{"a", "b"}, Graph: "complete", Turns: 4, Repetitions: 1, StartedAt: time.Now().UTC()}
	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	rows := append(sampleRows("run-1", 0), sampleRows("run-1", 1)...)
	if err := s.WriteRows(ctx, rows[:4]); err != nil {
		t.Fatalf("WriteRows failed: %v", err)
	}
	if err := s.WriteRows(ctx, rows[4:]); err != nil {
		t.Fatalf("WriteRows failed: %v", err)
	}
	if err := s.FinishRun(ctx, "run-1", time.Now().UTC(), 2, 8); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	got, err := s.FindRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("FindRun failed: %v", err)
	}
	if got.Name != "smoke" || got.Seed == nil || *got.Seed != 99 || got.Rows != 8 || got.FinishedAt == nil {
		t.Errorf("unexpected run %+v", got)
	}

	back, err := s.ListRows(ctx, "run-1")
	if err != nil {
		t.Fatalf("ListRows failed: %v", err)
	}
	if !slices.Equal(back, rows) {
		t.Errorf("Expected %d rows back unchanged, got %d", len(rows), len(back))
	}

	if _, err := os.Stat(s.CSVPath("run-1")); err != nil {
		t.Errorf("Expected result file on disk: %v", err)
	}
}

func TestStoreUnknownRun(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := s.FindRun(ctx, "nope"); !errors.Is(err, repository.ErrRunNotFound) {
		t.Errorf("FindRun: expected ErrRunNotFound, got %v", err)
	}
	if _, err := s.ListRows(ctx, "nope"); !errors.Is(err, repository.ErrRunNotFound) {
		t.Errorf("ListRows: expected ErrRunNotFound, got %v", err)
	}
	if err := s.WriteRows(ctx, sampleRows("nope", 0)); !errors.Is(err, repository.ErrRunNotFound) {
		t.Errorf("WriteRows: expected ErrRunNotFound, got %v", err)
	}
}
