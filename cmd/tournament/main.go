package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/tetrad/internal/analysis"
	"github.com/freeeve/tetrad/internal/config"
	"github.com/freeeve/tetrad/internal/logger"
	"github.com/freeeve/tetrad/internal/model"
	"github.com/freeeve/tetrad/internal/repository"
	"github.com/freeeve/tetrad/internal/repository/csvfile"
	redisrepo "github.com/freeeve/tetrad/internal/repository/redis"
	"github.com/freeeve/tetrad/internal/strategy"
	"github.com/freeeve/tetrad/internal/tournament"
	"github.com/freeeve/tetrad/pkg/tetrad"
)

func main() {
	logger.Init(os.Stderr)
	cfg := config.Load()

	var (
		roster   string
		name     string
		turns    int
		probEnd  float64
		noise    float64
		reps     int
		graph    string
		seedStr  string
		workers  int
		store    string
		outDir   string
		toStdout bool
		cache    bool
		jsonOut  bool
		list     bool
	)

	flag.StringVar(&roster, "players", "tft-2p,pavlov-2p,random,cycler", "Roster (e.g. tft-2p*2,random:0.1/0.2/0.3,always-z)")
	flag.StringVar(&name, "name", "", "Tournament name")
	flag.IntVar(&turns, "turns", tetrad.DefaultTurns, "Rounds per match (cap when -prob-end is set)")
	flag.Float64Var(&probEnd, "prob-end", 0, "Per-round termination probability (0 = fixed length)")
	flag.Float64Var(&noise, "noise", 0, "Probability of flipping each move")
	flag.IntVar(&reps, "reps", 1, "Repetitions per match")
	flag.StringVar(&graph, "graph", "complete", "Match graph: complete or partial")
	flag.StringVar(&seedStr, "seed", "", "Tournament seed (empty = clock)")
	flag.IntVar(&workers, "workers", cfg.Workers, "Concurrent matches")
	flag.StringVar(&store, "store", cfg.ResultsStore, "Result store: csv, postgres, sqlite, redis or none")
	flag.StringVar(&outDir, "out", cfg.OutputDir, "Output directory for the csv store")
	flag.BoolVar(&toStdout, "stdout", false, "Also stream CSV rows to stdout")
	flag.BoolVar(&cache, "cache", false, "Keep running per-tuple scores in Redis")
	flag.BoolVar(&jsonOut, "json", false, "Output results as JSON")
	flag.BoolVar(&list, "list", false, "List available strategies and exit")

	flag.Parse()

	if list {
		fmt.Println(strings.Join(strategy.Names(), "\n"))
		return
	}

	players, err := strategy.ParseRoster(roster)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid roster")
	}
	g, err := tournament.ParseGraph(graph)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid graph")
	}
	seed, err := parseSeed(seedStr)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid seed")
	}

	runID := logger.NewRunID()
	if name == "" {
		name = "tournament-" + runID[:8]
	}

	ctx, cancel := context.WithCancel(logger.WithRunID(context.Background(), runID))
	defer cancel()

	// Handle graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("Shutting down...")
		cancel()
	}()

	tour, err := tournament.New(tournament.Config{
		Name:        name,
		RunID:       runID,
		Players:     players,
		Turns:       turns,
		ProbEnd:     probEnd,
		Noise:       noise,
		Repetitions: reps,
		Graph:       g,
		Seed:        seed,
		Workers:     workers,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid tournament")
	}

	base, err := openStore(ctx, store, cfg, outDir)
	if err != nil {
		log.Fatal().Err(err).Str("store", store).Msg("Result store unavailable")
	}
	repo := base
	if repo != nil {
		defer repo.Close()
		repo = repository.WithRetry(repo, repository.RetryPolicy{
			Attempts: cfg.SinkRetries,
			Backoff:  cfg.SinkBackoff,
			MaxWait:  repository.DefaultRetryPolicy.MaxWait,
		})
	}

	var scoreCache repository.ScoreCache
	separateCache := false
	if cache {
		c, separate, err := scoreCacheFor(base, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Redis connection failed")
		}
		if separate {
			defer c.Close()
		}
		scoreCache, separateCache = c, separate
	}

	run := &model.Run{
		ID:          runID,
		Name:        name,
		Seed:        seed,
		Players:     tour.Names(),
		Graph:       string(g),
		Turns:       turns,
		ProbEnd:     probEnd,
		Noise:       noise,
		Repetitions: tour.Repetitions(),
		StartedAt:   time.Now().UTC(),
	}

	var sinks repository.Tee
	var mem *memorySink
	if repo != nil {
		if err := repo.CreateRun(ctx, run); err != nil {
			log.Fatal().Err(err).Msg("Could not record run")
		}
		sinks = append(sinks, repo)
	} else {
		mem = &memorySink{}
		sinks = append(sinks, mem)
	}
	if separateCache {
		sinks = append(sinks, scoreCache)
	}
	if toStdout {
		sinks = append(sinks, csvWriterSink{csvfile.NewWriter(os.Stdout)})
	}

	summary, err := tour.Run(ctx, sinks)
	if err != nil {
		log.Fatal().Err(err).Msg("Tournament failed")
	}

	rows := mem.Rows()
	if repo != nil {
		if err := repo.FinishRun(ctx, runID, time.Now().UTC(), summary.Matches, summary.Rows); err != nil {
			log.Error().Err(err).Msg("Could not finish run")
		}
		if rows, err = repo.ListRows(ctx, runID); err != nil {
			log.Fatal().Err(err).Msg("Could not read rows back")
		}
	}

	var cached []analysis.TupleStats
	if scoreCache != nil {
		scores, err := scoreCache.TupleScores(ctx, runID)
		if err != nil {
			log.Error().Err(err).Msg("Could not read cached tuple scores")
		}
		cached = analysis.FromTupleScores(scores)
	}

	ranking := analysis.Ranking(rows)
	if jsonOut {
		printJSON(run, summary, ranking, cached)
	} else if !toStdout {
		printSummary(run, summary, ranking, store, outDir)
	}
}

// parseSeed returns nil for an empty string.
func parseSeed(s string) (*uint64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("seed %q: %w", s, err)
	}
	return &v, nil
}

// memorySink keeps rows when no store is configured.
type memorySink struct {
	rows []model.Row
}

func (m *memorySink) WriteRows(_ context.Context, rows []model.Row) error {
	m.rows = append(m.rows, rows...)
	return nil
}

func (m *memorySink) Rows() []model.Row {
	if m == nil {
		return nil
	}
	return m.rows
}

// scoreCacheFor returns the Redis score cache for a run. A Redis result store
// already aggregates tuple scores as it writes, so it is reused and reported as
// not separate; any other store gets its own client that must also receive rows.
func scoreCacheFor(store repository.ResultRepository, cfg *config.Config) (*redisrepo.Client, bool, error) {
	if c, ok := store.(*redisrepo.Client); ok {
		return c, false, nil
	}
	c, err := redisrepo.NewClient(cfg.RedisURL)
	if err != nil {
		return nil, false, err
	}
	return c, true, nil
}

type csvWriterSink struct{ w *csvfile.Writer }

func (s csvWriterSink) WriteRows(_ context.Context, rows []model.Row) error { return s.w.Write(rows) }

func printSummary(run *model.Run, summary *tournament.Summary, ranking []analysis.Standing, store, outDir string) {
	fmt.Printf("\n%s (%d players, %d matches, %d rows, %s):\n",
		run.Name, len(run.Players), summary.Matches, summary.Rows, summary.Duration.Round(time.Millisecond))
	if run.Seed != nil {
		fmt.Printf("  seed %d\n", *run.Seed)
	}

	for _, s := range ranking {
		fmt.Printf("  %2d. %-20s mean %8.3f  sd %7.3f  median %7.2f  wins %6.2f%%\n",
			s.Rank, s.Name, s.Mean, s.StdDev, s.Median, 100*s.WinRate)
	}

	switch store {
	case "csv":
		fmt.Printf("\nRows written to %s/%s.csv\n", outDir, run.ID)
	case "none", "":
	default:
		fmt.Printf("\nRun %s saved to %s\n", run.ID, store)
	}
}

func printJSON(run *model.Run, summary *tournament.Summary, ranking []analysis.Standing, cached []analysis.TupleStats) {
	out := struct {
		Run     *model.Run            `json:"run"`
		Summary *tournament.Summary   `json:"summary"`
		Ranking []analysis.Standing   `json:"ranking"`
		Tuples  []analysis.TupleStats `json:"cached_tuples,omitempty"`
	}{
		Run:     run,
		Summary: summary,
		Ranking: ranking,
		Tuples:  cached,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Error().Err(err).Msg("Could not write JSON output")
	}
}
