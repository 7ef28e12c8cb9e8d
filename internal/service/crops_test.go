package service_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/Flaque/filet"
	"github.com/UnknownOlympus/gaia/internal/metrics"
	"github.com/UnknownOlympus/gaia/internal/service"
	"github.com/UnknownOlympus/gaia/test/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	yieldURL = "https://s3.amazonaws.com/mapspam/2010/v2.0/geotiff/spam2010v2r0_global_yield.geotiff.zip"
	prodURL  = "https://s3.amazonaws.com/mapspam/2010/v2.0/geotiff/spam2010v2r0_global_prod.geotiff.zip"
)

type extractCall struct {
	archive, destDir, filter string
}

// recordingExtract writes one file per call into destDir and remembers its arguments.
func recordingExtract(calls *[]extractCall) service.ExtractFunc {
	return func(archive, destDir, filter string) ([]string, error) {
		*calls = append(*calls, extractCall{archive: archive, destDir: destDir, filter: filter})
		if err := os.MkdirAll(destDir, 0o755); err != nil {
			return nil, err
		}
		target := filepath.Join(destDir, filter+".tif")
		return []string{target}, os.WriteFile(target, []byte(filter), 0o644)
	}
}

func newCropService(
	t *testing.T,
	fetcher *mocks.Fetcher,
	confirmer *mocks.Confirmer,
	extract service.ExtractFunc,
	dataDir string,
	urls []string,
) (*service.CropService, *metrics.Metrics) {
	t.Helper()
	appMetrics := metrics.NewMetrics(prometheus.NewRegistry())

	return service.NewCropService(slog.Default(), fetcher, confirmer, appMetrics, extract, dataDir, "SOYB", urls), appMetrics
}

func TestCropService_Run(t *testing.T) {
	defer filet.CleanUp(t)
	ctx := t.Context()

	t.Run("downloads, extracts and removes archives", func(t *testing.T) {
		dataDir := filet.TmpDir(t, "")
		fetcher := mocks.NewFetcher(t)
		var calls []extractCall
		fetcher.On("Download", mock.Anything, yieldURL, filepath.Join(dataDir, "spam2010v2r0_global_yield.geotiff.zip")).
			Return(writingFetcher).Once()
		fetcher.On("Download", mock.Anything, prodURL, filepath.Join(dataDir, "spam2010v2r0_global_prod.geotiff.zip")).
			Return(writingFetcher).Once()
		svc, appMetrics := newCropService(t, fetcher, mocks.NewConfirmer(t), recordingExtract(&calls), dataDir,
			[]string{yieldURL, prodURL})

		err := svc.Run(ctx)

		require.NoError(t, err)
		require.Len(t, calls, 2)
		assert.Equal(t, extractCall{
			archive: filepath.Join(dataDir, "spam2010v2r0_global_yield.geotiff.zip"),
			destDir: filepath.Join(dataDir, "spam2010v2r0_global_yield"),
			filter:  "SOYB",
		}, calls[0])
		assert.False(t, filet.Exists(t, filepath.Join(dataDir, "spam2010v2r0_global_yield.geotiff.zip")))
		assert.True(t, filet.Exists(t, filepath.Join(dataDir, "spam2010v2r0_global_prod", "SOYB.tif")))
		assert.InDelta(t, 2, testutil.ToFloat64(appMetrics.Downloads.WithLabelValues("crops", "success")), 0)
	})

	t.Run("existing directory is skipped when declined", func(t *testing.T) {
		dataDir := filet.TmpDir(t, "")
		require.NoError(t, os.MkdirAll(filepath.Join(dataDir, "spam2010v2r0_global_yield"), 0o755))
		fetcher := mocks.NewFetcher(t)
		confirmer := mocks.NewConfirmer(t)
		var calls []extractCall
		confirmer.On("Confirm", ctx, mock.AnythingOfType("string")).Return(false, nil).Once()
		svc, appMetrics := newCropService(t, fetcher, confirmer, recordingExtract(&calls), dataDir, []string{yieldURL})

		err := svc.Run(ctx)

		require.NoError(t, err)
		assert.Empty(t, calls)
		assert.InDelta(t, 1, testutil.ToFloat64(appMetrics.Downloads.WithLabelValues("crops", "skipped")), 0)
	})

	t.Run("existing directory is reused when confirmed", func(t *testing.T) {
		dataDir := filet.TmpDir(t, "")
		require.NoError(t, os.MkdirAll(filepath.Join(dataDir, "spam2010v2r0_global_yield"), 0o755))
		fetcher := mocks.NewFetcher(t)
		confirmer := mocks.NewConfirmer(t)
		var calls []extractCall
		confirmer.On("Confirm", ctx, mock.AnythingOfType("string")).Return(true, nil).Once()
		fetcher.On("Download", mock.Anything, yieldURL, mock.AnythingOfType("string")).Return(writingFetcher).Once()
		svc, _ := newCropService(t, fetcher, confirmer, recordingExtract(&calls), dataDir, []string{yieldURL})

		require.NoError(t, svc.Run(ctx))
		assert.Len(t, calls, 1)
	})

	t.Run("failing archive does not stop the others", func(t *testing.T) {
		dataDir := filet.TmpDir(t, "")
		fetcher := mocks.NewFetcher(t)
		var calls []extractCall
		fetcher.On("Download", mock.Anything, yieldURL, mock.AnythingOfType("string")).Return(int64(0), assert.AnError).Once()
		fetcher.On("Download", mock.Anything, prodURL, mock.AnythingOfType("string")).Return(writingFetcher).Once()
		svc, appMetrics := newCropService(t, fetcher, mocks.NewConfirmer(t), recordingExtract(&calls), dataDir,
			[]string{yieldURL, prodURL})

		err := svc.Run(ctx)

		require.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), yieldURL)
		assert.Len(t, calls, 1)
		assert.InDelta(t, 1, testutil.ToFloat64(appMetrics.Downloads.WithLabelValues("crops", "failure")), 0)
	})

	t.Run("extraction error", func(t *testing.T) {
		dataDir := filet.TmpDir(t, "")
		fetcher := mocks.NewFetcher(t)
		fetcher.On("Download", mock.Anything, yieldURL, mock.AnythingOfType("string")).Return(writingFetcher).Once()
		failing := func(_, _, _ string) ([]string, error) { return nil, assert.AnError }
		svc, _ := newCropService(t, fetcher, mocks.NewConfirmer(t), failing, dataDir, []string{yieldURL})

		err := svc.Run(ctx)

		require.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "failed to extract")
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		svc, _ := newCropService(t, mocks.NewFetcher(t), mocks.NewConfirmer(t), nil, filet.TmpDir(t, ""), []string{yieldURL})

		require.ErrorIs(t, svc.Run(cctx), context.Canceled)
	})
}

func TestArchiveDirName(t *testing.T) {
	assert.Equal(t, "spam2010v2r0_global_yield", service.ArchiveDirName("spam2010v2r0_global_yield.geotiff.zip"))
	assert.Equal(t, "archive", service.ArchiveDirName("archive.zip"))
	assert.Equal(t, "plain", service.ArchiveDirName("plain"))
}
