package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/UnknownOlympus/gaia/internal/areas"
	"github.com/UnknownOlympus/gaia/internal/catalog"
	"github.com/UnknownOlympus/gaia/internal/config"
	"github.com/UnknownOlympus/gaia/internal/fetch"
	"github.com/UnknownOlympus/gaia/internal/metrics"
	"github.com/UnknownOlympus/gaia/internal/prompt"
	"github.com/UnknownOlympus/gaia/internal/service"
	"github.com/UnknownOlympus/gaia/internal/tiles"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

const defaultDataDir = "data"

// options holds the command line flags.
type options struct {
	force      bool
	skipCrops  bool
	skipForest bool
	areasFile  string
}

// main is the entry point of the application.
func main() {
	// Cancel in-flight downloads when an interrupt signal is received.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "gaia [data_dir]",
		Short: "Download crop and forest-loss rasters for the areas of interest",
		Long: `Gaia downloads the MapSPAM crop rasters filtered to one crop type and the
Global Forest Change loss-year tiles covering every area of a GeoJSON file.

Remote locations and filters are configured with GAIA_* environment variables.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir := defaultDataDir
			if len(args) == 1 {
				dataDir = args[0]
			}
			return run(cmd, dataDir, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "Force downloading without asking permission")
	cmd.Flags().BoolVar(&opts.skipCrops, "skip-crops", false, "Do not download the crop archives")
	cmd.Flags().BoolVar(&opts.skipForest, "skip-forest", false, "Do not download the forest-loss tiles")
	cmd.Flags().StringVar(&opts.areasFile, "areas", "", "Local GeoJSON file with the areas (downloaded when empty)")

	return cmd
}

func run(cmd *cobra.Command, dataDir string, opts *options) error {
	ctx := cmd.Context()

	// Load application configuration.
	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	// Create a separate registry for the run metrics.
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	dataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return fmt.Errorf("failed to resolve data directory: %w", err)
	}
	if err = os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	var confirmer prompt.Confirmer = prompt.NewTerminal(cmd.InOrStdin(), cmd.OutOrStdout())
	if opts.force {
		confirmer = prompt.Always(true)
		fmt.Fprintf(cmd.OutOrStdout(), "Downloading data into %s\n", dataDir)
	} else {
		ok, confirmErr := confirmer.Confirm(ctx,
			fmt.Sprintf("I'm about to download the data into %s.\nDo you want to continue", dataDir))
		if confirmErr != nil {
			return confirmErr
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Canceling...")
			return nil
		}
	}

	downloader := fetch.NewDownloader(cfg.HTTPTimeout, cfg.RateLimit, logger)
	var errs []error

	if !opts.skipCrops {
		crops := service.NewCropService(
			logger,
			downloader,
			confirmer,
			appMetrics,
			fetch.ExtractMatching,
			dataDir,
			cfg.Sources.CropType,
			cfg.Sources.SpamURLs,
		)
		if err = crops.Run(ctx); err != nil {
			errs = append(errs, fmt.Errorf("crop download: %w", err))
		}
	}

	if !opts.skipForest {
		err = runForest(ctx, cmd.OutOrStdout(), logger, cfg, downloader, confirmer, appMetrics, dataDir, opts.areasFile)
		if err != nil {
			if errors.Is(err, service.ErrDownloadDeclined) {
				fmt.Fprintln(cmd.OutOrStdout(), "Canceling...")
			} else {
				errs = append(errs, fmt.Errorf("forest download: %w", err))
			}
		}
	}

	if cfg.MetricsFile != "" {
		if err = metrics.WriteTextfile(cfg.MetricsFile, reg); err != nil {
			logger.ErrorContext(ctx, "Failed to write metrics", "error", err)
		}
	}

	if err = errors.Join(errs...); err != nil {
		logger.ErrorContext(ctx, "Download finished with errors", "error", err)
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "\nAll done!")

	return nil
}

// runForest resolves the areas file, selects the tiles covering each area and downloads them
// into <dataDir>/forest/<area label>.
func runForest(
	ctx context.Context,
	out io.Writer,
	logger *slog.Logger,
	cfg *config.Config,
	downloader *fetch.Downloader,
	confirmer prompt.Confirmer,
	appMetrics *metrics.Metrics,
	dataDir string,
	areasFile string,
) error {
	if areasFile == "" {
		areasFile = filepath.Join(dataDir, tiles.FileName(cfg.Sources.AreasURL))
		if _, err := os.Stat(areasFile); errors.Is(err, os.ErrNotExist) {
			logger.InfoContext(ctx, "Downloading areas", "url", cfg.Sources.AreasURL)
			if _, err = downloader.Download(ctx, cfg.Sources.AreasURL, areasFile); err != nil {
				return fmt.Errorf("failed to download areas: %w", err)
			}
		}
	}

	areaList, err := areas.NewLoader(cfg.Sources.AreasLabel, logger).LoadFile(ctx, areasFile)
	if err != nil {
		return err
	}

	forest := service.NewForestService(
		logger,
		catalog.NewHTTPSource(cfg.Sources.ForestCatalogURL, cfg.HTTPTimeout, logger),
		downloader,
		confirmer,
		appMetrics,
		cfg.Workers,
		filepath.Join(dataDir, "forest"),
	).WithProgress(out)

	_, err = forest.Execute(ctx, areaList)

	return err
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelWarn,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelError,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)

		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}
