package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/UnknownOlympus/gaia/internal/catalog"
	"github.com/UnknownOlympus/gaia/internal/fetch"
	"github.com/UnknownOlympus/gaia/internal/metrics"
	"github.com/UnknownOlympus/gaia/internal/models"
	"github.com/UnknownOlympus/gaia/internal/prompt"
	"github.com/UnknownOlympus/gaia/internal/tiles"
)

const forestDataset = "forest"

// ErrDownloadDeclined is returned when the user refuses to start the downloads.
var ErrDownloadDeclined = errors.New("download declined")

// ForestService selects the forest-loss tiles covering each area and downloads them.
type ForestService struct {
	log        *slog.Logger     // Logger for logging service activities
	source     catalog.Source   // Source of the tile catalog
	fetcher    fetch.Fetcher    // Fetcher performing the downloads
	confirmer  prompt.Confirmer // Confirmer asked before downloading
	metrics    *metrics.Metrics // Metrics for tracking service performance
	numWorkers int              // Number of concurrent download workers
	destDir    string           // Root directory, one subdirectory per area
	progress   io.Writer        // Progress receives one line per finished tile
}

// Plan is the outcome of tile selection for a set of areas.
type Plan struct {
	Areas []models.AreaPlan    // Areas holds the per-area selection, in input order.
	Jobs  []models.DownloadJob // Jobs holds one entry per unique catalog URL.
}

// NewForestService creates a new instance of ForestService.
func NewForestService(
	log *slog.Logger,
	source catalog.Source,
	fetcher fetch.Fetcher,
	confirmer prompt.Confirmer,
	metrics *metrics.Metrics,
	numWorkers int,
	destDir string,
) *ForestService {
	return &ForestService{
		log:        log,
		source:     source,
		fetcher:    fetcher,
		confirmer:  confirmer,
		metrics:    metrics,
		numWorkers: max(numWorkers, 1),
		destDir:    destDir,
		progress:   io.Discard,
	}
}

// WithProgress makes the service print an "n/total" line to w for every finished tile.
func (fs *ForestService) WithProgress(w io.Writer) *ForestService {
	fs.progress = w
	return fs
}

// Execute plans the downloads for areas, asks for confirmation and runs them.
func (fs *ForestService) Execute(ctx context.Context, areas []models.Area) (*Plan, error) {
	plan, err := fs.Plan(ctx, areas)
	if err != nil {
		return nil, err
	}

	if len(plan.Jobs) == 0 {
		fs.log.WarnContext(ctx, "No forest tiles match the areas, nothing to download.")
		return plan, nil
	}

	question := fmt.Sprintf("About to download %d forest tiles for %d areas into %s.\nDo you want to continue",
		len(plan.Jobs), len(plan.Areas), fs.destDir)
	ok, err := fs.confirmer.Confirm(ctx, question)
	if err != nil {
		return plan, fmt.Errorf("failed to confirm forest download: %w", err)
	}
	if !ok {
		fs.log.InfoContext(ctx, "Forest download cancelled by user.")
		return plan, ErrDownloadDeclined
	}

	return plan, fs.Run(ctx, plan)
}

// Plan fetches the catalog and selects the tiles of every area.
// Areas with invalid geometry are recorded with their error and skipped.
func (fs *ForestService) Plan(ctx context.Context, areas []models.Area) (*Plan, error) {
	entries, err := fs.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tile catalog: %w", err)
	}

	baseName, err := tiles.BaseName(entries)
	if err != nil {
		fs.log.WarnContext(ctx, "Tile catalog is empty", "error", err)
	}

	plan := &Plan{Areas: make([]models.AreaPlan, 0, len(areas))}
	for _, area := range areas {
		areaPlan := SelectTiles(area, entries, baseName)
		if areaPlan.Err != nil {
			fs.log.ErrorContext(ctx, "Skipping area", "label", area.Label, "error", areaPlan.Err)
			fs.metrics.AreasProcessed.WithLabelValues("invalid").Inc()
		} else {
			fs.log.InfoContext(ctx, "Tiles selected for area",
				"label", area.Label,
				"candidates", len(areaPlan.Candidates),
				"matches", len(areaPlan.Matches))
			fs.metrics.AreasProcessed.WithLabelValues("success").Inc()
			fs.metrics.TileCandidates.Add(float64(len(areaPlan.Candidates)))
			fs.metrics.TilesMatched.Add(float64(len(areaPlan.Matches)))
		}
		plan.Areas = append(plan.Areas, areaPlan)
	}

	plan.Jobs = fs.aggregate(plan.Areas)

	return plan, nil
}

// SelectTiles runs the grid expansion, name generation and catalog matching for one area.
// An empty baseName means the catalog had no tiles, which yields no matches.
func SelectTiles(area models.Area, entries []string, baseName string) models.AreaPlan {
	anchors, err := tiles.Expand(area.BBox)
	if err != nil {
		return models.AreaPlan{Area: area, Err: fmt.Errorf("area %q: %w", area.Label, err), Matches: []string{}}
	}

	if baseName == "" {
		return models.AreaPlan{Area: area, Anchors: anchors, Matches: []string{}}
	}

	candidates := tiles.Generate(anchors, baseName)

	return models.AreaPlan{
		Area:       area,
		Anchors:    anchors,
		Candidates: candidates,
		Matches:    tiles.Match(entries, candidates),
	}
}

// aggregate merges the per-area matches so every URL is fetched once,
// keeping the order in which URLs were first selected.
func (fs *ForestService) aggregate(areas []models.AreaPlan) []models.DownloadJob {
	index := make(map[string]int)
	jobs := []models.DownloadJob{}

	for _, area := range areas {
		for _, url := range area.Matches {
			dest := filepath.Join(fs.destDir, area.Area.Label, tiles.FileName(url))

			idx, ok := index[url]
			if !ok {
				index[url] = len(jobs)
				jobs = append(jobs, models.DownloadJob{URL: url, Destinations: []string{dest}})
				continue
			}
			if !slices.Contains(jobs[idx].Destinations, dest) {
				jobs[idx].Destinations = append(jobs[idx].Destinations, dest)
			}
		}
	}

	return jobs
}

// Run downloads every job of the plan with a pool of workers and returns
// the joined errors of the jobs that failed.
func (fs *ForestService) Run(ctx context.Context, plan *Plan) error {
	if len(plan.Jobs) == 0 {
		return nil
	}

	fs.log.InfoContext(ctx, "Starting forest downloads.", "jobs", len(plan.Jobs), "num_workers", fs.numWorkers)

	jobs := make(chan models.DownloadJob, len(plan.Jobs))
	failures := &errorList{}
	tracker := &progressTracker{out: fs.progress, total: len(plan.Jobs)}
	var wgr sync.WaitGroup

	for i := 1; i <= fs.numWorkers; i++ {
		wgr.Add(1)
		go fs.worker(ctx, i, &wgr, jobs, failures, tracker)
	}

	for _, job := range plan.Jobs {
		jobs <- job
	}
	close(jobs)

	wgr.Wait()
	fs.log.InfoContext(ctx, "Forest downloads finished", "failed", failures.count())

	return failures.join()
}

// worker downloads jobs from the channel until it is closed. The first
// destination receives the download and the others get a local copy.
func (fs *ForestService) worker(
	ctx context.Context,
	idx int,
	wg *sync.WaitGroup,
	jobs <-chan models.DownloadJob,
	failures *errorList,
	tracker *progressTracker,
) {
	defer wg.Done()
	for job := range jobs {
		if err := ctx.Err(); err != nil {
			failures.add(fmt.Errorf("%s: %w", job.URL, err))
			continue
		}

		fs.metrics.ActiveWorkers.Inc()
		fs.log.DebugContext(ctx, "Downloading tile", "worker", idx, "url", job.URL)

		startTime := time.Now()
		written, err := fs.fetcher.Download(ctx, job.URL, job.Destinations[0])
		fs.metrics.DownloadSeconds.WithLabelValues(forestDataset).Observe(time.Since(startTime).Seconds())

		if err != nil {
			fs.log.ErrorContext(ctx, "Failed to download tile", "worker", idx, "url", job.URL, "error", err)
			fs.metrics.Downloads.WithLabelValues(forestDataset, "failure").Inc()
			failures.add(fmt.Errorf("%s: %w", job.URL, err))
			tracker.done(job.URL, "failed")
			fs.metrics.ActiveWorkers.Dec()
			continue
		}

		fs.metrics.Downloads.WithLabelValues(forestDataset, "success").Inc()
		fs.metrics.DownloadedBytes.Add(float64(written))

		for _, dest := range job.Destinations[1:] {
			if _, err = fetch.Copy(job.Destinations[0], dest); err != nil {
				fs.log.ErrorContext(ctx, "Failed to copy shared tile", "worker", idx, "dest", dest, "error", err)
				failures.add(fmt.Errorf("%s: %w", dest, err))
			}
		}

		fs.log.InfoContext(ctx, "Tile downloaded", "worker", idx, "url", job.URL, "bytes", written)
		tracker.done(job.URL, "ok")
		fs.metrics.ActiveWorkers.Dec()
	}
}

// progressTracker prints one line per finished job, shared by all workers.
type progressTracker struct {
	mu       sync.Mutex
	out      io.Writer
	total    int
	finished int
}

func (p *progressTracker) done(url, status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finished++
	fmt.Fprintf(p.out, "[%d/%d] %s %s\n", p.finished, p.total, tiles.FileName(url), status)
}

type errorList struct {
	mu   sync.Mutex
	errs []error
}

func (l *errorList) add(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, err)
}

func (l *errorList) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.errs)
}

func (l *errorList) join() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return errors.Join(l.errs...)
}
