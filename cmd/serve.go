package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/llehouerou/tubeq/internal/config"
	"github.com/llehouerou/tubeq/internal/mpris"
	"github.com/llehouerou/tubeq/internal/notify"
	"github.com/llehouerou/tubeq/internal/player"
	"github.com/llehouerou/tubeq/internal/playlist"
	"github.com/llehouerou/tubeq/internal/remote"
	"github.com/llehouerou/tubeq/internal/server"
)

func newServeCmd(configPath func() string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the player and its web interface",
		Long: `Serve the JSON API and the player page. Open the page in a browser
to attach the video player; playback is driven from the API or the page.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, configPath(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func serve(ctx context.Context, configPath, addr string) (err error) {
	var bridge *remote.Bridge
	e, err := openEnv(ctx, configPath, envOptions{
		backends: func(cfg *config.Config, log *zap.Logger) []player.Backend {
			bridge = remote.NewBridge(log.Named("remote"))
			backends := []player.Backend{bridge.Backend(playlist.SourceVideo)}
			if cfg.GetPlayerConfig().Audio == "local" {
				return append(backends, player.NewAudioBackend(player.WithLogger(log.Named("audio"))))
			}
			return append(backends, bridge.Backend(playlist.SourceAudio))
		},
		debounce: true,
	})
	if err != nil {
		return err
	}
	defer func() {
		bridge.Close()
		err = errors.Join(err, e.Close())
	}()

	if addr == "" {
		addr = e.cfg.GetServerConfig().Addr
	}

	e.app.Start(ctx)
	stopDesktop := startDesktop(ctx, e)
	defer stopDesktop()

	srv := server.New(e.app, bridge, e.logger.Named("http"))
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		return err
	}
	e.logger.Info("shutting down")
	return nil
}

// startDesktop attaches MPRIS and now playing notifications when enabled.
// Both degrade to nothing without a session bus.
func startDesktop(ctx context.Context, e *env) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	var closers []func() error

	if e.cfg.MPRISEnabled() {
		adapter, err := mpris.New(e.app.Playback)
		if err != nil {
			e.logger.Warn("mpris unavailable", zap.Error(err))
		} else {
			closers = append(closers, adapter.Close)
		}
	}

	done := make(chan struct{})
	if e.cfg.NotificationsEnabled() {
		sub := e.app.Playback.Subscribe()
		go func() {
			defer close(done)
			notify.NowPlaying(ctx, notify.Connect(), sub, e.cfg.GetNotifyTimeout(), e.logger.Named("notify"))
		}()
	} else {
		close(done)
	}

	return func() {
		cancel()
		<-done
		for _, c := range closers {
			if err := c(); err != nil {
				e.logger.Debug("close desktop integration", zap.Error(err))
			}
		}
	}
}
