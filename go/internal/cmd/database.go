package main

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/draftroom/go/internal/dbconfig"
	"github.com/mcdev12/draftroom/go/internal/draftroom/store"
)

func setupStore(ctx context.Context) (*store.Store, error) {
	cfg := dbconfig.NewConfigFromEnv()

	st, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Msg("connected to database")
	return st, nil
}
