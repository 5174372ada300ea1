package tournament

import "fmt"

// Graph selects how participant tuples are enumerated.
type Graph string

const (
	// Complete enumerates every ordered 4-tuple, n^4 matches.
	Complete Graph = "complete"
	// Partial pairs unordered pairs-with-replacement with each other,
	// (n(n+1)/2)^2 matches. That is fewer than Complete only for n >= 2; a
	// single participant gets the same one tuple from both. It relies on the payoff table being symmetric
	// under the swaps it skips, so it does not reproduce complete-graph
	// statistics in general.
	Partial Graph = "partial"
)

// ParseGraph accepts "complete", "partial" or "" (complete).
func ParseGraph(s string) (Graph, error) {
	switch Graph(s) {
	case "", Complete:
		return Complete, nil
	case Partial:
		return Partial, nil
	}
	return "", fmt.Errorf("%w: unknown graph %q", ErrInvalidConfig, s)
}

// Edges returns the tuples of g over n participants.
func (g Graph) Edges(n int) [][4]int {
	if g == Partial {
		return PartialGraph(n)
	}
	return CompleteGraph(n)
}

// CompleteGraph returns every ordered 4-tuple of [0, n) in lexicographic
// order, so each participant meets every combination in every slot.
func CompleteGraph(n int) [][4]int {
	if n <= 0 {
		return nil
	}
	edges := make([][4]int, 0, n*n*n*n)
	for a := 0; a < n; a++ {
		for b := 0; b < n; b++ {
			for c := 0; c < n; c++ {
				for d := 0; d < n; d++ {
					edges = append(edges, [4]int{a, b, c, d})
				}
			}
		}
	}
	return edges
}

// PartialGraph concatenates every pair-with-replacement (i <= j) with every
// other one, in lexicographic order of the pairs.
func PartialGraph(n int) [][4]int {
	var pairs [][2]int
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			pairs = append(pairs, [2]int{i, j})
		}
	}
	edges := make([][4]int, 0, len(pairs)*len(pairs))
	for _, p := range pairs {
		for _, q := range pairs {
			edges = append(edges, [4]int{p[0], p[1], q[0], q[1]})
		}
	}
	return edges
}
