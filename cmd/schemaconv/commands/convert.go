// Package commands implements CLI command handlers for schemaconv.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Sumatoshi-tech/schemaconv/internal/observability"
	"github.com/Sumatoshi-tech/schemaconv/pkg/config"
	"github.com/Sumatoshi-tech/schemaconv/pkg/convert"
	"github.com/Sumatoshi-tech/schemaconv/pkg/transform"
	"github.com/Sumatoshi-tech/schemaconv/pkg/version"
)

// Sentinel errors.
var (
	// ErrNoInput is returned when neither a flag nor the configuration names
	// the input directory.
	ErrNoInput = errors.New("no input directory: use -i or convert.input")
	// ErrFilesFailed is returned when at least one file could not be converted.
	ErrFilesFailed = errors.New("some files failed to convert")
)

const spanBatch = "schemaconv.batch"

type observabilityInit func(observability.Config) (observability.Providers, error)

// ConvertCommand holds the flags and dependencies of the convert command.
type ConvertCommand struct {
	configPath string

	initObservability observabilityInit
}

// NewConvertCommand creates the convert command.
func NewConvertCommand() *cobra.Command {
	return newConvertCommandWithDeps(observability.Init)
}

func newConvertCommandWithDeps(initObs observabilityInit) *cobra.Command {
	cc := &ConvertCommand{initObservability: initObs}

	cmd := &cobra.Command{
		Use:     "convert",
		Aliases: []string{"convert-schemas"},
		Short:   "Convert a directory of schema files",
		Long: `Convert every schema source under the input directory and write the
results, renamed to typed extensions (.js to .ts, .jsx to .tsx), into the
output directory. Files without a root schema are copied unchanged.`,
		Args: cobra.NoArgs,
		RunE: cc.run,
	}

	flags := cmd.Flags()
	flags.StringVarP(&cc.configPath, "config", "c", "", "Config file (default: .schemaconv.yaml)")
	flags.StringP("input", "i", "", "Directory containing the schema sources")
	flags.StringP("output", "o", "", "Directory receiving the converted files")
	flags.StringSlice("remove-field-types", nil, "Field types to remove, comma-separated (example: color,markdown)")
	flags.StringSlice("include", []string{config.DefaultInclude}, "Globs selecting source files, relative to the input")
	flags.StringSlice("ignore", []string{config.DefaultIgnore}, "Globs excluding source files")
	flags.String("heuristic", config.DefaultHeuristic, "Root schema detection: type-name or title-name")
	flags.Int("workers", config.DefaultWorkers, "Number of parallel workers (0 = use CPU count)")
	flags.String("max-file-size", config.DefaultMaxFileSize, "Skip sources larger than this (e.g. '1MB'; '0' = no limit)")
	flags.Bool("dry-run", false, "Print diffs instead of writing files")
	flags.String("report", "", "Write a JSON or YAML report to this path")
	flags.String("log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error")
	flags.String("log-format", config.DefaultLogFormat, "Log format: text or json")
	flags.String("metrics-file", "", "Write Prometheus metrics to this file on exit")
	flags.Bool("trace-verbose", false, "Export a span per converted file")

	return cmd
}

func (cc *ConvertCommand) run(cmd *cobra.Command, _ []string) error {
	if boolFlag(cmd, "no-color") {
		color.NoColor = true //nolint:reassign // intentional override of library global
	}

	cfg, err := config.Load(cc.configPath, cmd.Flags())
	if err != nil {
		return err
	}

	if cfg.Convert.Input == "" {
		return ErrNoInput
	}

	quiet := boolFlag(cmd, "quiet")

	obsCfg, err := observabilityConfig(cfg, boolFlag(cmd, "verbose"), quiet)
	if err != nil {
		return err
	}

	providers, err := cc.initObservability(obsCfg)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	logger := providers.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	defer func() {
		if providers.Shutdown == nil {
			return
		}

		shutdownErr := providers.Shutdown(context.Background())
		if shutdownErr != nil {
			logger.Warn("observability shutdown failed", "error", shutdownErr)
		}
	}()

	tracer := providers.Tracer
	if tracer == nil {
		tracer = otel.Tracer("schemaconv")
	}

	ctx, span := tracer.Start(cmd.Context(), spanBatch)
	defer span.End()

	summary, err := cc.convert(ctx, cfg, providers, logger)
	if summary != nil {
		span.SetAttributes(
			attribute.Int("batch.files", summary.Totals.Files),
			attribute.Int("batch.converted", summary.Totals.Converted),
			attribute.Int("batch.failed", summary.Totals.Failed),
			attribute.Bool("batch.dry_run", summary.DryRun),
		)

		outErr := cc.output(cmd.OutOrStdout(), cfg, summary, quiet)
		if outErr != nil {
			err = errors.Join(err, outErr)
		}
	}

	if err == nil && summary.Totals.Failed > 0 {
		err = fmt.Errorf("%w: %d of %d", ErrFilesFailed, summary.Totals.Failed, summary.Totals.Files)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "conversion failed")

		return err
	}

	return nil
}

func (cc *ConvertCommand) convert(
	ctx context.Context,
	cfg *config.Config,
	providers observability.Providers,
	logger *slog.Logger,
) (*convert.Summary, error) {
	opts, err := cfg.Convert.TransformOptions(logger)
	if err != nil {
		return nil, err
	}

	maxSize, err := cfg.Convert.MaxFileSizeBytes()
	if err != nil {
		return nil, err
	}

	var metrics *observability.ConversionMetrics

	if providers.Meter != nil {
		metrics, err = observability.NewConversionMetrics(providers.Meter)
		if err != nil {
			return nil, fmt.Errorf("create metrics: %w", err)
		}
	}

	runner, err := convert.NewRunner(transform.New(opts), convert.Options{
		Input:       cfg.Convert.Input,
		Output:      cfg.Convert.Output,
		Include:     cfg.Convert.Include,
		Ignore:      cfg.Convert.Ignore,
		Workers:     cfg.Convert.Workers,
		MaxFileSize: maxSize,
		CacheSize:   cfg.Convert.CacheSize,
		DryRun:      cfg.Convert.DryRun,
		Logger:      logger,
		Metrics:     metrics,
	})
	if err != nil {
		return nil, err
	}

	return runner.Run(ctx)
}

func (cc *ConvertCommand) output(w io.Writer, cfg *config.Config, summary *convert.Summary, quiet bool) error {
	if cfg.Convert.Report != "" {
		err := convert.WriteReport(cfg.Convert.Report, summary)
		if err != nil {
			return err
		}
	}

	if quiet {
		return nil
	}

	if summary.DryRun {
		for idx := range summary.Files {
			if summary.Files[idx].Diff == "" {
				continue
			}

			_, err := fmt.Fprint(w, convert.Colorize(summary.Files[idx].Diff))
			if err != nil {
				return fmt.Errorf("write diff: %w", err)
			}
		}
	}

	return convert.RenderSummary(w, summary)
}

func observabilityConfig(cfg *config.Config, verbose, quiet bool) (observability.Config, error) {
	level, err := cfg.Logging.SlogLevel()
	if err != nil {
		return observability.Config{}, err
	}

	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelWarn
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Environment = cfg.Telemetry.Environment
	obsCfg.MetricsFile = cfg.Telemetry.MetricsFile
	obsCfg.TraceVerbose = cfg.Telemetry.TraceVerbose
	obsCfg.LogLevel = level
	obsCfg.LogJSON = cfg.Logging.Format == "json"
	obsCfg.ApplyEnv()

	if cfg.Convert.DryRun {
		obsCfg.Mode = observability.ModeDryRun
	}

	return obsCfg, nil
}

// boolFlag reads a local or inherited boolean flag, false when undefined.
func boolFlag(cmd *cobra.Command, name string) bool {
	flag := cmd.Flags().Lookup(name)
	if flag == nil {
		return false
	}

	return flag.Value.String() == "true"
}
