package servecmder

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/reportrelay/cmd/reportrelay/config"
	"github.com/papercomputeco/reportrelay/pkg/logger"
	"github.com/papercomputeco/reportrelay/relay"
)

const serveLongDesc string = `Run the report relay HTTP server.

The server accepts POST /api/ai-proxy with {"prompt": "..."} and
POST /api/ai-image-proxy with {"images": ["<base64>", ...]}, forwards
each request to the upstream AI API with the server-held credential
and returns the report JSON from the model's reply.

The credential is read from AI_API_KEY.

Examples:
  AI_API_KEY=... reportrelay serve
  reportrelay serve --config /etc/reportrelay.toml --listen :9000`

const serveShortDesc string = "Run the report relay server"

type serveCommander struct {
	listen string
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", "", "Address to listen on (overrides config)")

	return cmd
}

func (c *serveCommander) run(ctx context.Context, cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if c.listen != "" {
		cfg.Listen = c.listen
	}

	log := logger.NewLogger(debug || cfg.Debug)
	defer log.Sync()

	if cfg.Upstream.APIKey == "" {
		log.Warn("no API key configured; upstream calls will fail authentication",
			zap.String("env", config.EnvAPIKey),
		)
	}

	r, err := relay.New(cfg.Relay(), log)
	if err != nil {
		return fmt.Errorf("could not create relay: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- r.Run()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("relay server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("shutting down relay server")
		return r.Shutdown()
	}
}
