package model

import "time"

// Run describes one tournament execution.
type Run struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Seed        *uint64    `json:"seed,omitempty"`
	Players     []string   `json:"players"`
	Graph       string     `json:"graph"` // complete or partial
	Turns       int        `json:"turns"`
	ProbEnd     float64    `json:"prob_end"`
	Noise       float64    `json:"noise"`
	Repetitions int        `json:"repetitions"`
	Matches     int        `json:"matches"`
	Rows        int        `json:"rows"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// Row is one line of the result stream: one slot of one repetition of one
// match. The index and name columns are resolved from the row's own slot, so
// CompetitorIndex is whoever that slot sees as its competitor.
type Row struct {
	RunID            string  `json:"run_id,omitempty"`
	InteractionIndex int     `json:"interaction_index"`
	Slot             int     `json:"slot"`
	PlayerIndex      int     `json:"player_index"`
	CompetitorIndex  int     `json:"competitor_index"`
	SC1Index         int     `json:"sc1_index"`
	SC2Index         int     `json:"sc2_index"`
	Repetition       int     `json:"repetition"`
	PlayerName       string  `json:"player_name"`
	CompetitorName   string  `json:"competitor_name"`
	SC1Name          string  `json:"sc1_name"`
	SC2Name          string  `json:"sc2_name"`
	Actions          string  `json:"actions"`
	Score            float64 `json:"score"`
	Turns            int     `json:"turns"`
	Winner           bool    `json:"winner"`
}

// Roles returns the participant indices in role order.
func (r Row) Roles() [4]int {
	return [4]int{r.PlayerIndex, r.CompetitorIndex, r.SC1Index, r.SC2Index}
}

// RowHeader is the column order of the tabular result stream.
var RowHeader = []string{
	"Interaction index",
	"Player index",
	"Competitor index",
	"SC1 index",
	"SC2 index",
	"Repetition",
	"Player name",
	"Competitor name",
	"SC1 name",
	"SC2 name",
	"Actions",
	"Score",
	"Turns",
	"Winner",
}
