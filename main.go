package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/scramble/internal/config"
	"github.com/robalobadob/scramble/internal/daily"
	"github.com/robalobadob/scramble/internal/httpserver"
	"github.com/robalobadob/scramble/internal/shell"
	"github.com/robalobadob/scramble/internal/store"
	"github.com/robalobadob/scramble/internal/words"
)

// Usage:
//
//	scramble        serve the JSON API on $PORT
//	scramble play   play in the terminal
func main() {
	cfg := config.Load()
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	play := len(os.Args) > 1 && os.Args[1] == "play"
	if play {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	ctx := context.Background()

	bank, err := words.Load(cfg.WordsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load vocabulary")
	}

	db, err := store.OpenSQLite(ctx, cfg.SQLitePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.SQLitePath).Msg("failed to open sqlite")
	}
	defer db.Close()

	kv, closeKV, err := openKV(ctx, cfg, db)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open snapshot store")
	}
	defer closeKV()

	if play {
		sh := shell.New(bank, kv, cfg.DailySalt, os.Stdout)
		history := filepath.Join(os.TempDir(), "scramble.history")
		if err := sh.Loop(ctx, history); err != nil {
			log.Error().Err(err).Msg("shell exited")
		}
		return
	}

	srv := httpserver.New(httpserver.Deps{
		Config:  cfg,
		Bank:    bank,
		KV:      kv,
		Users:   store.NewUsers(db.DB()),
		Results: daily.NewStore(db.DB()),
	})
	log.Info().Str("port", cfg.Port).Int("vocabulary", bank.Len()).Str("store", cfg.StoreDriver).Msg("starting scramble server")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

// openKV picks the snapshot backend. Accounts and results always live in db.
func openKV(ctx context.Context, cfg config.Config, db *store.SQLite) (store.KV, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return store.NewMemory(), func() {}, nil
	case config.DriverPostgres:
		pg, err := store.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil
	default:
		return db, func() {}, nil
	}
}
