package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/llehouerou/tubeq/internal/app"
	"github.com/llehouerou/tubeq/internal/config"
	"github.com/llehouerou/tubeq/internal/logger"
	"github.com/llehouerou/tubeq/internal/metadata"
	"github.com/llehouerou/tubeq/internal/player"
	"github.com/llehouerou/tubeq/internal/search"
	"github.com/llehouerou/tubeq/internal/state"
)

// env is everything a command needs: config, logger, store and app.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	store  state.Store
	app    *app.App

	closeLog func() error
}

// envOptions customizes openEnv for commands that play.
type envOptions struct {
	// backends builds the players once config and logger are ready.
	backends func(cfg *config.Config, log *zap.Logger) []player.Backend
	// debounce wraps the searcher so rapid queries collapse into one.
	debounce bool
}

// openEnv loads config, opens the store and builds the app.
func openEnv(ctx context.Context, configPath string, opts envOptions) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, closeLog, err := logger.New(cfg.GetLogConfig(), os.Stderr)
	if err != nil {
		return nil, err
	}

	store, err := openStore(cfg.GetStorageConfig())
	if err != nil {
		_ = closeLog()
		return nil, err
	}

	var backends []player.Backend
	if opts.backends != nil {
		backends = opts.backends(cfg, log)
	}
	searcher := newSearcher(cfg)
	if searcher != nil && opts.debounce {
		delay := time.Duration(cfg.GetSearchConfig().DebounceMS) * time.Millisecond
		searcher = search.Debounce(searcher, delay)
	}

	a, err := app.New(ctx, store, app.Options{
		Backends:      backends,
		Fetcher:       newFetcher(cfg),
		Searcher:      searcher,
		DefaultVolume: cfg.GetPlayerConfig().Volume,
		Logger:        log,
	})
	if err != nil {
		_ = store.Close()
		_ = closeLog()
		return nil, fmt.Errorf("initialize application: %w", err)
	}

	return &env{cfg: cfg, logger: log, store: store, app: a, closeLog: closeLog}, nil
}

func (e *env) Close() error {
	err := errors.Join(e.app.Close(), e.store.Close())
	_ = e.logger.Sync()
	return errors.Join(err, e.closeLog())
}

func openStore(cfg config.StorageConfig) (state.Store, error) {
	if cfg.Driver == "redis" {
		return state.OpenRedis(state.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
	}

	path := cfg.Path
	if path == "" {
		var err error
		if path, err = state.DefaultDBPath(); err != nil {
			return nil, err
		}
	}
	return state.OpenSQLite(path)
}

func newFetcher(cfg *config.Config) metadata.Fetcher {
	if cfg.Metadata.Offline {
		return metadata.Offline{}
	}
	return metadata.NewOEmbed(cfg.Metadata.OEmbedURL, nil)
}

// newSearcher returns nil when YouTube search is not configured, which
// makes the app search stored titles.
func newSearcher(cfg *config.Config) search.Searcher {
	if !cfg.HasYouTubeSearch() {
		return nil
	}
	sc := cfg.GetSearchConfig()
	return search.NewYouTube(sc.Endpoint, sc.YouTubeAPIKey, nil)
}
