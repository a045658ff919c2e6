// Package pkg provides the core libraries for gns3-snapshot.
//
// # Overview
//
// gns3-snapshot turns GNS3 project topologies into PNG thumbnails. The pkg
// directory is organized by stage:
//
//  1. [topology] - The node/link model and GNS3 payload decoding
//  2. [integrations] - HTTP client infrastructure and the GNS3 REST client
//  3. [icons] - The per-run symbol cache and its source chain
//  4. [render] - Layout into a backend-neutral drawing, SVG serialization
//  5. [pipeline] - Concurrent batch orchestration and output sinks
//
// # Architecture
//
// The data flow for one project:
//
//	GNS3 server
//	     ↓
//	[integrations/gns3] (fetch topology: project file, or API fallback)
//	     ↓
//	[render] (fit to canvas, shapes or icons, clipped links, port labels)
//	     ↓
//	[render/raster] (PNG via fogleman/gg)
//	     ↓
//	[pipeline] Sink (directory or S3)
//
// [pipeline.Runner] runs many of these flows on a bounded worker pool and
// collects one result per input id into a [pipeline.BatchReport].
//
// # Quick Start
//
//	client := gns3.NewClient("http://localhost:3080")
//	runner := pipeline.NewRunner(client, pipeline.NewFileSink("thumbnails"), nil)
//	report, err := runner.Run(ctx, []string{"5e6f1c2a-..."}, pipeline.Options{
//	    Workers: pipeline.Auto,
//	    Render:  render.DefaultConfig(),
//	})
//
// # Supporting Packages
//
// [config] loads TOML/YAML configuration with environment overrides.
// [errors] defines the error codes carried by failed results.
// [observability] declares hook interfaces; [metrics] implements them with
// Prometheus. [fonts] embeds the Go fonts used for labels. [buildinfo]
// carries version information set at link time.
//
// [topology]: https://pkg.go.dev/github.com/WrongGitUsername/gns3-snapshot/pkg/topology
// [integrations]: https://pkg.go.dev/github.com/WrongGitUsername/gns3-snapshot/pkg/integrations
// [integrations/gns3]: https://pkg.go.dev/github.com/WrongGitUsername/gns3-snapshot/pkg/integrations/gns3
// [icons]: https://pkg.go.dev/github.com/WrongGitUsername/gns3-snapshot/pkg/icons
// [render]: https://pkg.go.dev/github.com/WrongGitUsername/gns3-snapshot/pkg/render
// [render/raster]: https://pkg.go.dev/github.com/WrongGitUsername/gns3-snapshot/pkg/render/raster
// [pipeline]: https://pkg.go.dev/github.com/WrongGitUsername/gns3-snapshot/pkg/pipeline
// [pipeline.Runner]: https://pkg.go.dev/github.com/WrongGitUsername/gns3-snapshot/pkg/pipeline#Runner
// [pipeline.BatchReport]: https://pkg.go.dev/github.com/WrongGitUsername/gns3-snapshot/pkg/pipeline#BatchReport
// [config]: https://pkg.go.dev/github.com/WrongGitUsername/gns3-snapshot/pkg/config
// [errors]: https://pkg.go.dev/github.com/WrongGitUsername/gns3-snapshot/pkg/errors
// [observability]: https://pkg.go.dev/github.com/WrongGitUsername/gns3-snapshot/pkg/observability
// [metrics]: https://pkg.go.dev/github.com/WrongGitUsername/gns3-snapshot/pkg/metrics
// [fonts]: https://pkg.go.dev/github.com/WrongGitUsername/gns3-snapshot/pkg/fonts
// [buildinfo]: https://pkg.go.dev/github.com/WrongGitUsername/gns3-snapshot/pkg/buildinfo
package pkg
