package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/WrongGitUsername/gns3-snapshot/pkg/config"
	snaperrors "github.com/WrongGitUsername/gns3-snapshot/pkg/errors"
	"github.com/WrongGitUsername/gns3-snapshot/pkg/metrics"
	"github.com/WrongGitUsername/gns3-snapshot/pkg/observability"
	"github.com/WrongGitUsername/gns3-snapshot/pkg/pipeline"
)

// renderFlags holds the command-line flags for the render command. Only
// flags the user actually set override the configuration file.
type renderFlags struct {
	config     string
	projectIDs []string
	quiet      bool

	server, username, password string

	outputDir   string
	s3Bucket    string
	s3Prefix    string
	saveSVG     bool
	saveDOT     bool
	report      string
	metricsFile string

	width, height     int
	padding           int
	nodeSize          int
	fontSize          int
	background        string
	noInterfaceLabels bool
	useIcons          bool

	workers    string
	jobTimeout time.Duration

	iconMirror string
	symbolsDir string
	redisURL   string
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	f := &renderFlags{}

	cmd := &cobra.Command{
		Use:   "render [project-id...]",
		Short: "Render PNG thumbnails for GNS3 projects",
		Long: `Render one PNG thumbnail per project id.

Project ids come from --project-ids (comma-separated) and positional
arguments. The command exits with status 1 if any thumbnail failed.`,
		Example: `  gns3-snapshot render --project-ids abc-123-def
  gns3-snapshot render --server http://192.168.1.100:3080 --project-ids abc-123,def-456
  gns3-snapshot render --config snapshot.toml --use-node-icons --workers 16 abc-123`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.projectIDs = append(f.projectIDs, args...)
			return c.runRender(cmd, f)
		},
	}
	f.register(cmd.Flags())

	return cmd
}

// register binds the flags to fl, with defaults from [config.Default].
func (f *renderFlags) register(fl *pflag.FlagSet) {
	def := config.Default()

	fl.StringVarP(&f.config, "config", "c", "", "configuration file (.toml, .yaml)")
	fl.StringSliceVar(&f.projectIDs, "project-ids", nil, "comma-separated GNS3 project ids")
	fl.BoolVarP(&f.quiet, "quiet", "q", false, "suppress progress and summary output")

	fl.StringVar(&f.server, "server", def.Server.URL, "GNS3 server URL")
	fl.StringVar(&f.username, "username", "", "GNS3 username")
	fl.StringVar(&f.password, "password", "", "GNS3 password")

	fl.StringVarP(&f.outputDir, "output-dir", "o", def.Output.Dir, "directory for thumbnails")
	fl.StringVar(&f.s3Bucket, "s3-bucket", "", "upload thumbnails to this S3 bucket instead of --output-dir")
	fl.StringVar(&f.s3Prefix, "s3-prefix", "", "key prefix inside the S3 bucket")
	fl.BoolVar(&f.saveSVG, "save-svg", false, "also store the SVG drawing")
	fl.BoolVar(&f.saveDOT, "save-dot", false, "also store a Graphviz DOT export")
	fl.StringVar(&f.report, "report", "", "write the batch report as JSON to this file")
	fl.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")

	fl.IntVar(&f.width, "width", def.Render.Width, "thumbnail width in pixels")
	fl.IntVar(&f.height, "height", def.Render.Height, "thumbnail height in pixels")
	fl.IntVar(&f.padding, "padding", def.Render.Padding, "canvas padding in pixels")
	fl.IntVar(&f.nodeSize, "node-size", def.Render.NodeSize, "node icon size in pixels")
	fl.IntVar(&f.fontSize, "font-size", def.Render.FontSize, "node label font size")
	fl.StringVar(&f.background, "background", def.Render.Background, "background color (name or #hex)")
	fl.BoolVar(&f.noInterfaceLabels, "no-interface-labels", false, "hide interface labels on links")
	fl.BoolVar(&f.useIcons, "use-node-icons", false, "draw GNS3 symbols instead of generic shapes")

	fl.StringVarP(&f.workers, "workers", "w", def.Workers.String(), `parallel workers: "auto" or a number`)
	fl.DurationVar(&f.jobTimeout, "job-timeout", def.JobTimeout, "timeout for fetching one topology")

	fl.StringVar(&f.iconMirror, "icon-mirror", def.Icons.Mirror, "base URL of the fallback symbol mirror")
	fl.StringVar(&f.symbolsDir, "symbols-dir", "", "local directory of symbol files")
	fl.StringVar(&f.redisURL, "redis-url", "", "Redis symbol store (redis://host:port/db)")
}

// apply overlays the flags the user set onto cfg.
func (f *renderFlags) apply(fs *pflag.FlagSet, cfg *config.Config) error {
	set := fs.Changed

	if set("server") {
		cfg.Server.URL = f.server
	}
	if set("username") {
		cfg.Server.Username = f.username
	}
	if set("password") {
		cfg.Server.Password = f.password
	}
	if set("output-dir") {
		cfg.Output.Dir = f.outputDir
	}
	if set("s3-bucket") {
		cfg.Output.S3Bucket = f.s3Bucket
	}
	if set("s3-prefix") {
		cfg.Output.S3Prefix = f.s3Prefix
	}
	if set("save-svg") {
		cfg.Output.SaveSVG = f.saveSVG
	}
	if set("save-dot") {
		cfg.Output.SaveDOT = f.saveDOT
	}
	if set("report") {
		cfg.Output.Report = f.report
	}
	if set("metrics-file") {
		cfg.Output.MetricsFile = f.metricsFile
	}

	r := &cfg.Render
	if set("width") {
		r.Width = f.width
	}
	if set("height") {
		r.Height = f.height
	}
	if set("padding") {
		r.Padding = f.padding
	}
	if set("node-size") {
		r.NodeSize = f.nodeSize
	}
	if set("font-size") {
		r.FontSize = f.fontSize
	}
	if set("background") {
		r.Background = f.background
	}
	if set("no-interface-labels") {
		r.ShowInterfaceLabels = !f.noInterfaceLabels
	}
	if set("use-node-icons") {
		r.UseIcons = f.useIcons
	}

	if set("workers") {
		w, err := pipeline.ParseWorkers(f.workers)
		if err != nil {
			return err
		}
		cfg.Workers = w
	}
	if set("job-timeout") {
		cfg.JobTimeout = f.jobTimeout
	}
	if set("icon-mirror") {
		cfg.Icons.Mirror = f.iconMirror
	}
	if set("symbols-dir") {
		cfg.Icons.SymbolsDir = f.symbolsDir
	}
	if set("redis-url") {
		cfg.Icons.RedisURL = f.redisURL
	}
	return nil
}

// cleanProjectIDs trims ids and drops empty ones, keeping order and
// duplicates.
func cleanProjectIDs(raw []string) []string {
	var ids []string
	for _, s := range raw {
		for _, id := range strings.Split(s, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func (c *CLI) runRender(cmd *cobra.Command, f *renderFlags) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	cfg, err := loadRenderConfig(cmd.Flags(), f)
	if err != nil {
		return err
	}
	ids := cleanProjectIDs(f.projectIDs)
	if len(ids) == 0 {
		return errNoProjectIDs
	}
	if f.quiet && logger.GetLevel() == log.InfoLevel {
		logger.SetLevel(log.WarnLevel)
	}

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

	opts := batchOptions(cfg, logger)
	var rep reporter
	if !f.quiet {
		printInfo(out, "Rendering %s from %s",
			StyleNumber.Render(fmt.Sprintf("%d projects", len(ids))), StyleValue.Render(cfg.Server.URL))
		rep = newReporter(ctx, errOut, len(ids))
		opts.OnProgress = rep.Update
	}

	report, err := runner.Run(ctx, ids, opts)
	if rep != nil {
		rep.Close()
	}
	if err != nil {
		return err
	}

	if cfg.Output.Report != "" {
		if err := writeReport(cfg.Output.Report, report); err != nil {
			return err
		}
	}
	if cfg.Output.MetricsFile != "" {
		if err := reg.WriteTextfile(cfg.Output.MetricsFile); err != nil {
			return snaperrors.Wrap(snaperrors.ErrCodeWrite, err, "write metrics")
		}
	}
	if !f.quiet {
		printSummary(out, report)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if failed := len(report.Failed()); failed > 0 {
		return fmt.Errorf("%d of %d thumbnails failed", failed, len(report.Results))
	}
	return nil
}

// loadRenderConfig resolves file, environment and flags into a validated
// configuration.
func loadRenderConfig(fs *pflag.FlagSet, f *renderFlags) (config.Config, error) {
	cfg, err := config.Load(f.config)
	if err != nil {
		return cfg, err
	}
	if err := f.apply(fs, &cfg); err != nil {
		return cfg, err
	}
	cfg.Render.SetDefaults()
	return cfg, cfg.Validate()
}

func writeReport(path string, report *pipeline.BatchReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return snaperrors.Wrap(snaperrors.ErrCodeInternal, err, "encode report")
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return snaperrors.Wrap(snaperrors.ErrCodeWrite, err, "write report")
	}
	return nil
}

// printSummary prints timing, throughput, counts and one line per failure.
func printSummary(w io.Writer, report *pipeline.BatchReport) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, StyleTitle.Render("Summary"))
	printKeyValue(w, "Total time", report.Elapsed.Round(time.Millisecond).String())
	printKeyValue(w, "Throughput", fmt.Sprintf("%.2f projects/sec", report.Throughput()))
	printKeyValue(w, "Workers", fmt.Sprint(report.Workers))
	printKeyValue(w, "Success", fmt.Sprint(len(report.Succeeded())))
	printKeyValue(w, "Failed", fmt.Sprint(len(report.Failed())))

	var fallbacks int
	for _, res := range report.Results {
		fallbacks += res.IconFallbacks
	}
	if fallbacks > 0 {
		printWarning(w, "%d nodes drawn as shapes because their icon was unavailable", fallbacks)
	}

	for _, res := range report.Results {
		if !res.Success {
			printError(w, "%s: %s", res.ProjectID, res.Reason)
			printDetail(w, "%s", res.Code)
		}
	}
	if report.OK() && len(report.Results) > 0 {
		printSuccess(w, "%d thumbnails written", len(report.Results))
		if dir := commonDir(report); dir != "" {
			printFile(w, dir)
		}
	}
}

// commonDir returns the directory of the first thumbnail path.
func commonDir(report *pipeline.BatchReport) string {
	for _, res := range report.Results {
		if res.Path == "" {
			continue
		}
		if i := strings.LastIndex(res.Path, "/"); i > 0 {
			return res.Path[:i]
		}
		return res.Path
	}
	return ""
}
