package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/FutingLiang/dmv-routes-frontend/internal/config"
	"github.com/FutingLiang/dmv-routes-frontend/internal/store"
)

// openStore connects to the routes table named by ingest.table.
func openStore(ctx context.Context, mode string) (*store.PostgresStore, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}
	st, err := store.NewPostgres(ctx, cfg.Database.URL, cfg.Ingest.Table, &store.PoolConfig{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "connect %s", config.RedactDSN(cfg.Database.URL))
	}
	return st, nil
}
