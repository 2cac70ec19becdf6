package export

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Zumgugger/reformat-sub001/internal/codec"
	"github.com/Zumgugger/reformat-sub001/internal/fsutil"
	"github.com/Zumgugger/reformat-sub001/internal/geometry"
	"github.com/Zumgugger/reformat-sub001/internal/item"
	"github.com/Zumgugger/reformat-sub001/internal/logging"
	"github.com/Zumgugger/reformat-sub001/internal/metrics"
	"github.com/Zumgugger/reformat-sub001/internal/pipeline"
	"github.com/Zumgugger/reformat-sub001/internal/scheduler"
)

// ErrMissingBuffer marks a buffer-origin item whose bytes are no longer
// registered at export time.
var ErrMissingBuffer = errors.New("buffer not registered")

// collectInterval paces the metrics gauge refresh during a run.
const collectInterval = time.Second

// ItemSettings carries the per-item orientation and crop, exactly as
// adjusted in the preview.
type ItemSettings struct {
	Transform geometry.Transform
	Crop      geometry.CropRect
}

// RunConfig is the run-wide conversion recipe plus the per-item settings
// map, keyed by item ID. Items without an entry convert untouched.
type RunConfig struct {
	Format   codec.Format
	Resize   pipeline.ResizeSpec
	Quality  pipeline.QualitySpec
	Settings map[string]ItemSettings
}

// clone returns a copy whose settings map is independent of the
// caller's. ItemSettings holds only value fields, so a map copy is a
// full copy.
func (c RunConfig) clone() RunConfig {
	settings := make(map[string]ItemSettings, len(c.Settings))
	for id, s := range c.Settings {
		settings[id] = s
	}
	c.Settings = settings
	return c
}

// BatchOptions configure one ExportBatch call.
type BatchOptions struct {
	// DestDir overrides the folder policy when set.
	DestDir string
	// Concurrency is passed through to the scheduler.
	Concurrency int
	// Token cancels the run cooperatively.
	Token *scheduler.Token
	// OnProgress receives every task resolution, after the run's own
	// bookkeeping.
	OnProgress func(scheduler.Progress)
	// Buffers resolves buffer-origin items; nil fails them.
	Buffers item.BufferSource
	// Engine decodes and encodes. Required.
	Engine codec.Engine
	// Now is the clock for the date-stamped folder name; nil means
	// time.Now.
	Now func() time.Time
}

// ItemResult reports one item's outcome.
type ItemResult struct {
	ItemID      string
	Name        string
	Status      scheduler.Outcome
	OutputPath  string
	OutputBytes int64
	Warnings    []string
	Err         string
}

// RunSummary aggregates a finished run. Results are indexed by
// submission order.
type RunSummary struct {
	RunID     string
	OutputDir string
	Total     int
	Succeeded int
	Failed    int
	Canceled  int
	Results   []ItemResult
}

// ExportBatch converts a batch of items and returns the per-item
// results in submission order. The config is copied on entry, so caller
// mutation during the run has no effect.
//
// Only the output directory failing to create is fatal; everything per
// item — unreadable source, decode or encode failure, a missing buffer
// — becomes a failed ItemResult while the rest of the batch continues.
// A tripped token stops not-yet-started items; outputs already written
// stay on disk.
func ExportBatch(items []item.Item, cfg RunConfig, opts BatchOptions) (RunSummary, error) {
	summary := RunSummary{RunID: uuid.NewString()}
	if len(items) == 0 {
		return summary, nil
	}
	if opts.Engine == nil {
		return RunSummary{}, fmt.Errorf("no codec engine configured")
	}
	cfg = cfg.clone()

	outDir := ResolveOutputDir(items, opts.DestDir, opts.Now)
	if err := fsutil.EnsureDir(outDir); err != nil {
		return RunSummary{}, err
	}
	summary.OutputDir = outDir

	paths := resolveOutputPaths(outDir, items, cfg.Format)

	logging.Info("run %s: %d items -> %s (%s)", summary.RunID, len(items), outDir, opts.Engine.Name())
	metrics.RunsTotal.Inc()
	started := time.Now()

	state := &runState{total: len(items)}
	collector := metrics.NewCollector(state, collectInterval)
	collector.Start()
	defer collector.Stop()

	proc := &pipeline.Processor{Engine: opts.Engine}
	tasks := make([]scheduler.Task[pipeline.Result], len(items))
	for i, it := range items {
		dest := paths[i]
		settings := cfg.Settings[it.ID]
		tasks[i] = func() (pipeline.Result, error) {
			state.taskStarted()
			defer state.taskDone()

			src, err := resolveSource(it, opts.Buffers)
			if err != nil {
				return pipeline.Result{OutputPath: dest}, err
			}

			res, err := proc.Process(pipeline.Request{
				Source:         src,
				Dest:           dest,
				Transform:      settings.Transform,
				Crop:           settings.Crop,
				Resize:         cfg.Resize,
				Quality:        cfg.Quality,
				Format:         cfg.Format,
				SourceFormat:   it.Format,
				SourceHasAlpha: it.HasAlpha,
				Token:          opts.Token,
			})
			if err != nil {
				return res, err
			}

			if it.Origin == item.OriginFile && !it.ModTime.IsZero() {
				fsutil.BestEffort("preserve mtime", func() error {
					return fsutil.PreserveTimes(dest, it.ModTime)
				})
			}
			return res, nil
		}
	}

	results := scheduler.Run(tasks, scheduler.Options{
		Concurrency: opts.Concurrency,
		Token:       opts.Token,
		OnProgress: func(p scheduler.Progress) {
			state.observe(p)
			if opts.OnProgress != nil {
				opts.OnProgress(p)
			}
		},
	})

	metrics.RunDuration.Observe(time.Since(started).Seconds())

	summary.Total = len(results)
	summary.Results = make([]ItemResult, len(results))
	for i, r := range results {
		ir := ItemResult{
			ItemID:      items[i].ID,
			Name:        items[i].Name,
			Status:      r.Outcome,
			OutputPath:  r.Value.OutputPath,
			OutputBytes: r.Value.OutputBytes,
			Warnings:    r.Value.Warnings,
		}
		if r.Err != nil {
			ir.Err = r.Err.Error()
		}

		switch r.Outcome {
		case scheduler.OutcomeSucceeded:
			summary.Succeeded++
		case scheduler.OutcomeFailed:
			summary.Failed++
			logging.Warn("item %s failed: %s", ir.Name, ir.Err)
		case scheduler.OutcomeCanceled:
			summary.Canceled++
		}
		metrics.RunItemsTotal.WithLabelValues(string(r.Outcome)).Inc()
		metrics.RunWarningsTotal.Add(float64(len(ir.Warnings)))

		summary.Results[i] = ir
	}

	logging.Info("run %s done: %d succeeded, %d failed, %d canceled in %s",
		summary.RunID, summary.Succeeded, summary.Failed, summary.Canceled,
		time.Since(started).Round(time.Millisecond))
	return summary, nil
}

// resolveSource turns an item into a decodable source, or the per-item
// failure that skips the pipeline entirely.
func resolveSource(it item.Item, buffers item.BufferSource) (codec.Source, error) {
	switch it.Origin {
	case item.OriginBuffer:
		if buffers == nil {
			return codec.Source{}, fmt.Errorf("item %q: %w", it.Name, ErrMissingBuffer)
		}
		data, ok := buffers.Bytes(it.ID)
		if !ok {
			return codec.Source{}, fmt.Errorf("item %q: %w", it.Name, ErrMissingBuffer)
		}
		return codec.BytesSource(data), nil
	default:
		if !fsutil.Exists(it.Path) {
			return codec.Source{}, fmt.Errorf("source file missing: %s", it.Path)
		}
		return codec.FileSource(it.Path), nil
	}
}

// runState feeds the metrics collector while a run is active. Scheduler
// progress arrives through observe; in-flight tracking wraps the task
// bodies themselves.
type runState struct {
	mu       sync.Mutex
	total    int
	inFlight int
	progress scheduler.Progress
}

func (s *runState) taskStarted() {
	s.mu.Lock()
	s.inFlight++
	s.mu.Unlock()
}

func (s *runState) taskDone() {
	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()
}

func (s *runState) observe(p scheduler.Progress) {
	s.mu.Lock()
	s.progress = p
	s.mu.Unlock()
}

// GetStats implements metrics.StatsProvider.
func (s *runState) GetStats() metrics.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return metrics.Stats{
		Total:     s.total,
		InFlight:  s.inFlight,
		Done:      s.progress.Done,
		Succeeded: s.progress.Succeeded,
		Failed:    s.progress.Failed,
		Canceled:  s.progress.Canceled,
	}
}
