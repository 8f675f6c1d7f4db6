package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"

	"github.com/cyberinferno/boggle-server/boggle"
	"github.com/cyberinferno/boggle-server/cacher"
	"github.com/cyberinferno/boggle-server/config"
	"github.com/cyberinferno/boggle-server/dictionary"
	"github.com/cyberinferno/boggle-server/game"
	"github.com/cyberinferno/boggle-server/logger"
	"github.com/cyberinferno/boggle-server/server"
	"github.com/cyberinferno/boggle-server/tcpserver"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the game server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "optional file of BOGGLE_* variables"},
			&cli.StringFlag{Name: "addr", Usage: "listen address (overrides BOGGLE_ADDR)"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error (overrides BOGGLE_LOG_LEVEL)"},
			&cli.StringFlag{Name: "log-dir", Usage: "directory for daily log files (overrides BOGGLE_LOG_DIR)"},
			&cli.StringFlag{Name: "dictionary", Usage: "word list, one word per line (overrides BOGGLE_DICTIONARY)"},
		},
		Action: runServe,
	}
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("env-file"))
	if err != nil {
		return err
	}

	overrides := map[string]*string{
		"addr":       &cfg.Addr,
		"log-level":  &cfg.LogLevel,
		"log-dir":    &cfg.LogDir,
		"dictionary": &cfg.Dictionary,
	}
	for name, dst := range overrides {
		if cmd.IsSet(name) {
			*dst = cmd.String(name)
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(AppName, cfg.LogDir, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Close()

	dict, err := dictionary.Load(cfg.Dictionary)
	if err != nil {
		return err
	}
	log.Info("dictionary loaded", logger.Field{Key: "path", Value: cfg.Dictionary}, logger.Field{Key: "words", Value: dict.Size()})

	cache, closeCache, err := newBoardCache(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeCache()

	store := game.NewStore(boggle.NewOracle(dict, cache, cfg.CacheTTL), game.WithLogger(log))

	opts := server.Options{
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		MaxBodyBytes: cfg.MaxBodyBytes,
	}
	srv := tcpserver.New("boggle", cfg.Addr, server.NewSessionFunc(server.NewHandler(store), opts, log), log)
	if err := srv.Start(); err != nil {
		return err
	}
	log.Info("accepting requests", logger.Field{Key: "path_prefix", Value: cfg.PathPrefix}, logger.Field{Key: "cache", Value: cfg.CacheBackend})

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = srv.Stop(stopCtx)

	stats := store.Stats()
	log.Info("final state",
		logger.Field{Key: "users", Value: stats.Users},
		logger.Field{Key: "pending", Value: stats.Pending},
		logger.Field{Key: "active", Value: stats.Active},
		logger.Field{Key: "completed", Value: stats.Completed},
	)

	return err
}

// newBoardCache builds the cache for board searches selected by the
// configuration. The returned func releases its connections.
func newBoardCache(ctx context.Context, cfg *config.Config, log logger.Logger) (cacher.Cacher[bool], func(), error) {
	switch cfg.CacheBackend {
	case config.CacheRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.RedisAddr, err)
		}

		log.Info("using redis board cache", logger.Field{Key: "addr", Value: cfg.RedisAddr}, logger.Field{Key: "db", Value: cfg.RedisDB})
		return cacher.NewRedisCacher[bool](rdb, AppName+":"), func() { _ = rdb.Close() }, nil

	case config.CacheNone:
		return nil, func() {}, nil

	default:
		return cacher.NewMemoryCacher[bool](cfg.CacheTTL, cfg.CacheTTL/2), func() {}, nil
	}
}
