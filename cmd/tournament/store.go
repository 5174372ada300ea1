package main

import (
	"context"
	"fmt"

	"github.com/freeeve/tetrad/internal/config"
	"github.com/freeeve/tetrad/internal/repository"
	"github.com/freeeve/tetrad/internal/repository/csvfile"
	"github.com/freeeve/tetrad/internal/repository/postgres"
	redisrepo "github.com/freeeve/tetrad/internal/repository/redis"
	"github.com/freeeve/tetrad/internal/repository/sqlite"
)

// openStore returns the result repository named by kind, or nil for "none".
func openStore(ctx context.Context, kind string, cfg *config.Config, outDir string) (repository.ResultRepository, error) {
	switch kind {
	case "none", "":
		return nil, nil
	case "csv":
		s, err := csvfile.Open(outDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		s, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		db, err := postgres.Connect(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		return postgres.NewResultRepo(db), nil
	case "redis":
		c, err := redisrepo.NewClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, fmt.Errorf("unknown result store %q", kind)
}
