package wallpaper

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/dixieflatline76/rngpaper/pkg/settings"
	"github.com/dixieflatline76/rngpaper/pkg/sysinfo"
	"github.com/dixieflatline76/rngpaper/pkg/wallhaven"
	"github.com/dixieflatline76/rngpaper/util"
	"github.com/dixieflatline76/rngpaper/util/log"
	"github.com/google/uuid"
)

// Changer runs wallpaper changes: query, select, cache, optionally fit, then set. Triggers
// queue changes on a bounded worker pool and never wait for them.
type Changer struct {
	settings *settings.Holder
	searcher Searcher
	cache    *CacheStore
	desktop  Desktop
	fitter   *Fitter
	recorder Recorder

	notifyMu sync.RWMutex
	notifier Notifier

	pipelineMu sync.Mutex
	pipeline   *Pipeline

	inFlight *util.SafeCounter
	applied  *util.SafeCounter

	backoff    time.Duration
	intn       func(n int) int
	now        func() time.Time
	screenSize func() (int, int, error)
}

// ChangerOption configures a Changer.
type ChangerOption func(*Changer)

// WithFitter enables fitting when the settings ask for it.
func WithFitter(f *Fitter) ChangerOption {
	return func(c *Changer) { c.fitter = f }
}

// WithRecorder records every applied change.
func WithRecorder(r Recorder) ChangerOption {
	return func(c *Changer) { c.recorder = r }
}

// WithNotifier reports every applied change.
func WithNotifier(n Notifier) ChangerOption {
	return func(c *Changer) { c.notifier = n }
}

// WithRandom replaces the random source used for tag, page and item selection.
func WithRandom(intn func(n int) int) ChangerOption {
	return func(c *Changer) { c.intn = intn }
}

// WithEmptyPagesBackoff replaces the wait between retries on empty results.
func WithEmptyPagesBackoff(d time.Duration) ChangerOption {
	return func(c *Changer) { c.backoff = d }
}

// WithScreenSize replaces screen size detection for image_resolution = "screen".
func WithScreenSize(fn func() (int, int, error)) ChangerOption {
	return func(c *Changer) { c.screenSize = fn }
}

// NewChanger wires a changer. Call Start before using Trigger.
func NewChanger(h *settings.Holder, searcher Searcher, cache *CacheStore, desktop Desktop, opts ...ChangerOption) *Changer {
	c := &Changer{
		settings: h,
		searcher: searcher,
		cache:    cache,
		desktop:  desktop,
		inFlight: util.NewSafeInt(),
		applied:  util.NewSafeInt(),
		backoff:  EmptyPagesBackoff,
		intn:     rand.IntN,
		now:      time.Now,

		screenSize: sysinfo.ScreenDimensions,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetNotifier replaces the change notifier.
func (c *Changer) SetNotifier(n Notifier) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	c.notifier = n
}

// Start starts the worker pool. Its workers stop when ctx is cancelled or Stop is called.
func (c *Changer) Start(ctx context.Context) {
	c.pipelineMu.Lock()
	defer c.pipelineMu.Unlock()
	if c.pipeline != nil {
		return
	}
	workers := c.settings.Snapshot().Workers
	if workers < 1 {
		workers = DefaultWorkers
	}
	c.pipeline = NewPipeline(ctx, jobQueueSize, func(ctx context.Context, job ChangeJob) {
		_, _ = c.change(ctx, job.ID, job.Source)
	})
	c.pipeline.Start(workers)
}

// Stop cancels in-flight changes and waits for the workers.
func (c *Changer) Stop() {
	c.pipelineMu.Lock()
	p := c.pipeline
	c.pipelineMu.Unlock()
	if p != nil {
		p.Stop()
	}
}

// Trigger queues a change and returns immediately. It returns false when the change could
// not be queued.
func (c *Changer) Trigger(source string) bool {
	c.pipelineMu.Lock()
	p := c.pipeline
	c.pipelineMu.Unlock()
	if p == nil {
		log.Printf("Ignoring %s trigger: changer not started", source)
		return false
	}

	job := ChangeJob{ID: uuid.NewString(), Source: source}
	if !p.Submit(job) {
		log.Printf("[%s] Dropping %s trigger: queue full or changer stopped", job.ID, source)
		return false
	}
	log.Debugf("[%s] Queued change from %s", job.ID, source)
	return true
}

// ChangeNow runs one change synchronously.
func (c *Changer) ChangeNow(ctx context.Context, source string) (Result, error) {
	return c.change(ctx, uuid.NewString(), source)
}

// EmptyCache removes every cached wallpaper. The current wallpaper is left as is.
func (c *Changer) EmptyCache() error {
	return c.cache.EmptyCache()
}

// Stats reports the changer's queue and counters.
type Stats struct {
	Pending  int `json:"pending"`
	InFlight int `json:"in_flight"`
	Applied  int `json:"applied"`
}

// Stats returns a point-in-time view of the changer.
func (c *Changer) Stats() Stats {
	c.pipelineMu.Lock()
	p := c.pipeline
	c.pipelineMu.Unlock()

	s := Stats{InFlight: c.inFlight.Value(), Applied: c.applied.Value()}
	if p != nil {
		s.Pending = p.Pending()
	}
	return s
}

func (c *Changer) change(ctx context.Context, id, source string) (Result, error) {
	c.inFlight.Increment()
	defer c.inFlight.Decrement()

	snap := c.settings.Snapshot()
	if snap.ChangeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, snap.ChangeTimeout)
		defer cancel()
	}

	result, err := c.apply(ctx, id, source, snap)
	if err != nil {
		log.Printf("[%s] Wallpaper change from %s failed: %v", id, source, err)
		return Result{}, err
	}
	return result, nil
}

func (c *Changer) apply(ctx context.Context, id, source string, snap settings.Snapshot) (Result, error) {
	q := wallhaven.NewQueryWith(snap, c.intn)
	log.Printf("[%s] Changing wallpaper (%s): %s", id, source, q)

	selector := NewSelector(c.searcher)
	selector.MaxRetries = snap.MaxEmptyRetries
	selector.Backoff = c.backoff
	selector.IncludeLastPage = snap.IncludeLastPage
	selector.Intn = c.intn
	item, err := selector.Select(ctx, q)
	if err != nil {
		return Result{}, fmt.Errorf("select wallpaper: %w", err)
	}
	log.Debugf("[%s] Selected %s (%s)", id, item.ID, item.Path)

	localPath, err := c.cache.ResolveOrFetch(ctx, item.Path)
	if err != nil {
		return Result{}, fmt.Errorf("cache wallpaper: %w", err)
	}

	if snap.Fit && c.fitter != nil {
		localPath = c.fit(ctx, id, localPath, snap)
	}

	previous, err := c.desktop.CurrentWallpaper()
	if err != nil {
		log.Printf("[%s] Could not read current wallpaper: %v", id, err)
		previous = ""
	}

	if err := c.desktop.SetWallpaper(localPath); err != nil {
		return Result{}, fmt.Errorf("set wallpaper: %w", err)
	}

	if previous == "" {
		log.Printf("[%s] Wallpaper changed: none -> %s", id, localPath)
	} else {
		log.Printf("[%s] Wallpaper changed: %s -> %s", id, previous, localPath)
	}
	c.applied.Increment()

	result := Result{
		ID:        id,
		At:        c.now(),
		Source:    source,
		Tag:       q.Tag,
		Item:      item,
		LocalPath: localPath,
		Previous:  previous,
	}

	if c.recorder != nil {
		if err := c.recorder.Record(ctx, result.entry()); err != nil {
			log.Printf("[%s] Failed to record history: %v", id, err)
		}
	}

	c.notifyMu.RLock()
	n := c.notifier
	c.notifyMu.RUnlock()
	if n != nil {
		n.WallpaperChanged(result)
	}
	return result, nil
}

// fit returns the fitted derivative of localPath, or localPath itself when fitting fails.
func (c *Changer) fit(ctx context.Context, id, localPath string, snap settings.Snapshot) string {
	var w, h int
	var err error
	if snap.ImageResolution == settings.ScreenResolution {
		w, h, err = c.screenSize()
	} else {
		w, h, err = snap.ResolutionSize()
	}
	if err != nil {
		log.Printf("[%s] Skipping fit: %v", id, err)
		return localPath
	}
	fitted, err := c.fitter.Fit(ctx, localPath, w, h)
	if err != nil {
		log.Printf("[%s] Fit failed, using original: %v", id, err)
		return localPath
	}
	return fitted
}
