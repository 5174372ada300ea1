// Package analysis aggregates result rows by role tuple and by participant.
package analysis

import (
	"cmp"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/freeeve/tetrad/internal/model"
	"github.com/freeeve/tetrad/internal/repository"
)

// TupleStats summarises every row that shares one (player, competitor, sc1,
// sc2) assignment.
type TupleStats struct {
	Roles   [4]int    `json:"roles"`
	Names   [4]string `json:"names,omitempty"`
	Count   int       `json:"count"`
	Mean    float64   `json:"mean"`
	StdDev  float64   `json:"stddev"`
	Wins    int       `json:"wins"`
	WinRate float64   `json:"win_rate"`
}

// Standing is one participant's line in a ranking.
type Standing struct {
	Rank    int     `json:"rank"`
	Index   int     `json:"index"`
	Name    string  `json:"name"`
	Rows    int     `json:"rows"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"stddev"`
	Median  float64 `json:"median"`
	Wins    int     `json:"wins"`
	WinRate float64 `json:"win_rate"`
}

// meanStdDev is stat.MeanStdDev with a zero deviation for fewer than two samples.
func meanStdDev(xs []float64) (float64, float64) {
	switch len(xs) {
	case 0:
		return 0, 0
	case 1:
		return xs[0], 0
	}
	return stat.MeanStdDev(xs, nil)
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := slices.Clone(xs)
	slices.Sort(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}

func compareRoles(a, b [4]int) int {
	for i := range a {
		if c := cmp.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

// ByTuple groups rows by role tuple, ordered by tuple.
func ByTuple(rows []model.Row) []TupleStats {
	type acc struct {
		names  [4]string
		scores []float64
		wins   int
	}
	groups := make(map[[4]int]*acc)
	for _, r := range rows {
		key := r.Roles()
		a, ok := groups[key]
		if !ok {
			a = &acc{names: [4]string{r.PlayerName, r.CompetitorName, r.SC1Name, r.SC2Name}}
			groups[key] = a
		}
		a.scores = append(a.scores, r.Score)
		if r.Winner {
			a.wins++
		}
	}

	out := make([]TupleStats, 0, len(groups))
	for roles, a := range groups {
		mean, sd := meanStdDev(a.scores)
		out = append(out, TupleStats{
			Roles:   roles,
			Names:   a.names,
			Count:   len(a.scores),
			Mean:    mean,
			StdDev:  sd,
			Wins:    a.wins,
			WinRate: float64(a.wins) / float64(len(a.scores)),
		})
	}
	slices.SortFunc(out, func(x, y TupleStats) int { return compareRoles(x.Roles, y.Roles) })
	return out
}

// FromTupleScores converts running aggregates into tuple stats. Sums carry no
// spread, so StdDev stays zero.
func FromTupleScores(scores map[[4]int]repository.TupleScore) []TupleStats {
	out := make([]TupleStats, 0, len(scores))
	for roles, s := range scores {
		ts := TupleStats{Roles: roles, Count: int(s.Count), Wins: int(s.Wins)}
		if s.Count > 0 {
			ts.Mean = s.Sum / float64(s.Count)
			ts.WinRate = float64(s.Wins) / float64(s.Count)
		}
		out = append(out, ts)
	}
	slices.SortFunc(out, func(x, y TupleStats) int { return compareRoles(x.Roles, y.Roles) })
	return out
}

// Ranking orders participants by mean score per row, best first. Ties keep
// roster order.
func Ranking(rows []model.Row) []Standing {
	type acc struct {
		name   string
		scores []float64
		wins   int
	}
	byIndex := make(map[int]*acc)
	for _, r := range rows {
		a, ok := byIndex[r.PlayerIndex]
		if !ok {
			a = &acc{name: r.PlayerName}
			byIndex[r.PlayerIndex] = a
		}
		a.scores = append(a.scores, r.Score)
		if r.Winner {
			a.wins++
		}
	}

	out := make([]Standing, 0, len(byIndex))
	for idx, a := range byIndex {
		mean, sd := meanStdDev(a.scores)
		out = append(out, Standing{
			Index:   idx,
			Name:    a.name,
			Rows:    len(a.scores),
			Mean:    mean,
			StdDev:  sd,
			Median:  median(a.scores),
			Wins:    a.wins,
			WinRate: float64(a.wins) / float64(len(a.scores)),
		})
	}
	slices.SortFunc(out, func(x, y Standing) int {
		if c := cmp.Compare(y.Mean, x.Mean); c != 0 {
			return c
		}
		return cmp.Compare(x.Index, y.Index)
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
