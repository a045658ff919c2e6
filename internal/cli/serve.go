package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/WrongGitUsername/gns3-snapshot/internal/server"
	"github.com/WrongGitUsername/gns3-snapshot/pkg/config"
	"github.com/WrongGitUsername/gns3-snapshot/pkg/metrics"
	"github.com/WrongGitUsername/gns3-snapshot/pkg/observability"
)

// serveCommand creates the serve command, which exposes batch rendering
// over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var configPath, addr, server, outputDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the thumbnail HTTP API",
		Long: `Serve POST /v1/thumbnails, GET /healthz and GET /metrics.

Every request runs its own batch against the configured GNS3 server and
writes thumbnails to the configured output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			fl := cmd.Flags()
			if fl.Changed("addr") {
				cfg.Serve.Addr = addr
			}
			if fl.Changed("server") {
				cfg.Server.URL = server
			}
			if fl.Changed("output-dir") {
				cfg.Output.Dir = outputDir
			}
			cfg.Render.SetDefaults()
			if err := cfg.Validate(); err != nil {
				return err
			}
			return c.runServe(cmd.Context(), cfg)
		},
	}

	def := config.Default()
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "configuration file (.toml, .yaml)")
	cmd.Flags().StringVar(&addr, "addr", def.Serve.Addr, "listen address")
	cmd.Flags().StringVar(&server, "server", def.Server.URL, "GNS3 server URL")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", def.Output.Dir, "directory for thumbnails")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, cfg config.Config) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	reg := metrics.NewRegistry()
	observability.SetBatchHooks(reg)
	observability.SetIconHooks(reg)
	observability.SetHTTPHooks(reg)
	defer observability.Reset()

	runner, closeRunner, err := newRunner(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeRunner() }()

	srv := server.New(runner, batchOptions(cfg, logger),
		server.WithMetrics(reg.Handler()),
		server.WithLogger(logger))

	prog.done("Server ready")
	logger.Info("listening", "addr", cfg.Serve.Addr, "gns3", cfg.Server.URL)

	err = srv.ListenAndServe(ctx, cfg.Serve.Addr)
	if errors.Is(err, context.Canceled) {
		logger.Info("server stopped")
		return nil
	}
	return err
}
