package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/UnknownOlympus/gaia/internal/fetch"
	"github.com/UnknownOlympus/gaia/internal/metrics"
	"github.com/UnknownOlympus/gaia/internal/prompt"
	"github.com/UnknownOlympus/gaia/internal/tiles"
)

const cropDataset = "crops"

// ExtractFunc unpacks the archive members whose name contains filter into destDir.
type ExtractFunc func(archive, destDir, filter string) ([]string, error)

// CropService downloads the crop archives and keeps only the rasters of one crop type.
type CropService struct {
	log       *slog.Logger     // Logger for logging service activities
	fetcher   fetch.Fetcher    // Fetcher performing the downloads
	confirmer prompt.Confirmer // Confirmer asked before reusing an existing directory
	metrics   *metrics.Metrics // Metrics for tracking service performance
	extract   ExtractFunc      // Archive extraction
	dataDir   string           // Directory receiving the archives and their contents
	cropType  string           // Member name filter, e.g. SOYB
	urls      []string         // Archive locations
}

// NewCropService creates a new instance of CropService.
func NewCropService(
	log *slog.Logger,
	fetcher fetch.Fetcher,
	confirmer prompt.Confirmer,
	metrics *metrics.Metrics,
	extract ExtractFunc,
	dataDir string,
	cropType string,
	urls []string,
) *CropService {
	return &CropService{
		log:       log,
		fetcher:   fetcher,
		confirmer: confirmer,
		metrics:   metrics,
		extract:   extract,
		dataDir:   dataDir,
		cropType:  cropType,
		urls:      urls,
	}
}

// Run processes every archive in turn. A failing archive does not stop the
// others; all failures are returned joined.
func (cs *CropService) Run(ctx context.Context) error {
	var errs []error

	for _, url := range cs.urls {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		if err := cs.process(ctx, url); err != nil {
			cs.log.ErrorContext(ctx, "Failed to process crop archive", "url", url, "error", err)
			cs.metrics.Downloads.WithLabelValues(cropDataset, "failure").Inc()
			errs = append(errs, fmt.Errorf("%s: %w", url, err))
		}
	}

	return errors.Join(errs...)
}

func (cs *CropService) process(ctx context.Context, url string) error {
	filename := tiles.FileName(url)
	archive := filepath.Join(cs.dataDir, filename)
	destDir := filepath.Join(cs.dataDir, ArchiveDirName(filename))

	if _, err := os.Stat(destDir); err == nil {
		question := fmt.Sprintf("Looks like %s already exists.\nDo you want to continue and unzip data into it", destDir)
		ok, confirmErr := cs.confirmer.Confirm(ctx, question)
		if confirmErr != nil {
			return fmt.Errorf("failed to confirm extraction: %w", confirmErr)
		}
		if !ok {
			cs.log.InfoContext(ctx, "Skipping existing crop directory", "dir", destDir)
			cs.metrics.Downloads.WithLabelValues(cropDataset, "skipped").Inc()
			return nil
		}
	}

	cs.log.InfoContext(ctx, "Downloading crop archive", "file", filename)
	startTime := time.Now()
	written, err := cs.fetcher.Download(ctx, url, archive)
	cs.metrics.DownloadSeconds.WithLabelValues(cropDataset).Observe(time.Since(startTime).Seconds())
	if err != nil {
		return err
	}
	cs.metrics.DownloadedBytes.Add(float64(written))

	extracted, err := cs.extract(archive, destDir, cs.cropType)
	if err != nil {
		return fmt.Errorf("failed to extract %s: %w", filename, err)
	}

	if err = os.Remove(archive); err != nil && !errors.Is(err, os.ErrNotExist) {
		cs.log.WarnContext(ctx, "Failed to remove crop archive", "file", archive, "error", err)
	}

	cs.log.InfoContext(ctx, "Crop archive extracted", "dir", destDir, "files", len(extracted), "crop", cs.cropType)
	cs.metrics.Downloads.WithLabelValues(cropDataset, "success").Inc()

	return nil
}

// ArchiveDirName names the directory an archive is unpacked into:
// spam2010v2r0_global_yield.geotiff.zip becomes spam2010v2r0_global_yield.
func ArchiveDirName(filename string) string {
	if name, ok := strings.CutSuffix(filename, ".geotiff.zip"); ok {
		return name
	}

	return strings.TrimSuffix(filename, filepath.Ext(filename))
}
