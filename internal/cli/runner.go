package cli

import (
	"context"
	"errors"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/charmbracelet/log"

	"github.com/WrongGitUsername/gns3-snapshot/pkg/config"
	snaperrors "github.com/WrongGitUsername/gns3-snapshot/pkg/errors"
	"github.com/WrongGitUsername/gns3-snapshot/pkg/icons"
	"github.com/WrongGitUsername/gns3-snapshot/pkg/integrations/gns3"
	"github.com/WrongGitUsername/gns3-snapshot/pkg/pipeline"
)

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner wires a pipeline runner from cfg: the GNS3 client as topology
// fetcher and first icon tier, the optional tiers, and the output sink. The
// returned close function releases the Redis connection, if any.
func newRunner(ctx context.Context, cfg config.Config, logger *log.Logger) (*pipeline.Runner, func() error, error) {
	client := gns3.NewClient(cfg.Server.URL,
		gns3.WithCredentials(cfg.Server.Username, cfg.Server.Password),
		gns3.WithLogger(logger))

	sources, closeSources, err := iconSources(client, cfg.Icons)
	if err != nil {
		return nil, nil, err
	}

	sink, err := newSink(ctx, cfg.Output)
	if err != nil {
		_ = closeSources()
		return nil, nil, err
	}

	runner := pipeline.NewRunner(client, sink, logger)
	runner.IconSources = sources
	return runner, closeSources, nil
}

// iconSources builds the lookup chain: server, local directory, Redis, mirror.
func iconSources(server icons.SymbolFetcher, cfg config.IconsConfig) ([]icons.Source, func() error, error) {
	sources := []icons.Source{icons.NewServerSource(server)}
	closer := func() error { return nil }

	if cfg.SymbolsDir != "" {
		sources = append(sources, icons.NewDirSource(cfg.SymbolsDir))
	}
	if cfg.RedisURL != "" {
		src, client, err := icons.NewRedisSourceFromURL(cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, nil, snaperrors.Wrap(snaperrors.ErrCodeInvalidConfig, err, "redis url")
		}
		sources = append(sources, src)
		closer = client.Close
	}
	if cfg.Mirror != "" {
		sources = append(sources, icons.NewMirrorSource(cfg.Mirror))
	}
	return sources, closer, nil
}

// newSink returns an S3 sink when a bucket is configured, a directory sink
// otherwise.
func newSink(ctx context.Context, out config.OutputConfig) (pipeline.Sink, error) {
	if out.S3Bucket == "" {
		if out.Dir == "" {
			return nil, snaperrors.New(snaperrors.ErrCodeInvalidConfig, "no output directory or S3 bucket configured")
		}
		return pipeline.NewFileSink(out.Dir), nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, snaperrors.Wrap(snaperrors.ErrCodeInvalidConfig, err, "load AWS configuration")
	}
	return pipeline.NewS3Sink(s3.NewFromConfig(awsCfg), out.S3Bucket, out.S3Prefix), nil
}

// batchOptions maps the configuration onto pipeline options.
func batchOptions(cfg config.Config, logger *log.Logger) pipeline.Options {
	return pipeline.Options{
		Workers:    cfg.Workers,
		Render:     cfg.Render,
		JobTimeout: cfg.JobTimeout,
		SaveSVG:    cfg.Output.SaveSVG,
		SaveDOT:    cfg.Output.SaveDOT,
		Logger:     logger,
	}
}

// errNoProjectIDs is returned when the id list is empty after cleanup.
var errNoProjectIDs = errors.New("no valid project IDs provided")
