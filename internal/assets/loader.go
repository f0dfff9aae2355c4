// Package assets owns the declarative asset manifest and the store of loaded
// assets, and gates game start on a complete load.
package assets

import (
	"context"
	"fmt"
	stlog "log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/semaphore"

	"github.com/sandruandrei/SGDemo/internal/signals"
)

// Option configures a Loader.
type Option func(*Loader)

// WithBasePath sets the prefix for relative asset paths. A trailing slash is
// stripped.
func WithBasePath(base string) Option {
	return func(l *Loader) { l.basePath = strings.TrimRight(base, "/") }
}

// WithLogger sets the loader's logger.
func WithLogger(logger *stlog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// WithMetrics sets the loader's metrics.
func WithMetrics(m *Metrics) Option {
	return func(l *Loader) { l.metrics = m }
}

// WithMaxConcurrentFetches caps in-flight fetches across all categories.
// Zero or less means unlimited.
func WithMaxConcurrentFetches(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.fetchSem = semaphore.NewWeighted(int64(n))
		} else {
			l.fetchSem = nil
		}
	}
}

// pass is one run of Start. Results arriving after the pass closed are
// dropped.
type pass struct {
	id     uint64
	closed bool
}

// Loader fetches every declared asset concurrently and keeps the results.
type Loader struct {
	bus      signals.Emitter
	fetcher  Fetcher
	decoder  Decoder
	basePath string
	logger   *stlog.Logger
	metrics  *Metrics
	fetchSem *semaphore.Weighted

	loading atomic.Bool

	mu       sync.RWMutex
	declared map[Category]map[string]string
	passSeq  uint64

	textures  map[string]Texture
	sheets    map[string]*Spritesheet
	videos    map[string]*VideoClip
	audio     map[string]Sound
	audioKeys []string
	svgs      map[string]Texture
	ttf       map[string]Font
	bitmap    map[string]*BitmapFont
}

// New creates a loader that fetches with fetcher, decodes with decoder and
// reports completion on bus.
func New(bus signals.Emitter, fetcher Fetcher, decoder Decoder, opts ...Option) *Loader {
	l := &Loader{
		bus:      bus,
		fetcher:  fetcher,
		decoder:  decoder,
		declared: make(map[Category]map[string]string, len(Categories)),
		textures: make(map[string]Texture),
		sheets:   make(map[string]*Spritesheet),
		videos:   make(map[string]*VideoClip),
		audio:    make(map[string]Sound),
		svgs:     make(map[string]Texture),
		ttf:      make(map[string]Font),
		bitmap:   make(map[string]*BitmapFont),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = stlog.Default()
	}
	l.logger = l.logger.With("component", "assets")
	if l.metrics == nil {
		l.metrics = NewMetrics(nil)
	}
	for _, c := range Categories {
		l.declared[c] = make(map[string]string)
	}
	l.logger.Info("Initialized", "basePath", l.basePath)
	return l
}

// SetManifest replaces the declared assets with the valid entries of m and
// returns how many were accepted. Entries with an empty path are logged and
// skipped. Already loaded assets stay in the store.
func (l *Loader) SetManifest(m Manifest) int {
	l.logger.Info("Setting manifest")

	l.mu.Lock()
	defer l.mu.Unlock()

	total := 0
	for _, c := range Categories {
		declared := make(map[string]string)
		for key, p := range m.Entries(c) {
			if p == "" {
				l.logger.Error("Invalid path for asset", "key", key, "category", c)
				continue
			}
			declared[key] = p
		}
		l.declared[c] = declared
		total += len(declared)
	}

	l.logger.Info("Processed manifest", "total", total)
	for _, c := range Categories {
		l.logger.Info("Manifest category", "category", c, "count", len(l.declared[c]))
	}
	return total
}

// TotalAssetCount returns the number of declared assets.
func (l *Loader) TotalAssetCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	total := 0
	for _, entries := range l.declared {
		total += len(entries)
	}
	return total
}

// IsLoading reports whether a pass is in flight.
func (l *Loader) IsLoading() bool {
	return l.loading.Load()
}

// Start loads every declared asset. Categories load concurrently and so do
// the items inside each category; the first failure ends the pass. On
// success loading-complete is emitted, on failure loading-failed is emitted
// and a *LoadError is returned. Calling Start while a pass is in flight is a
// no-op.
func (l *Loader) Start(ctx context.Context) error {
	if !l.loading.CompareAndSwap(false, true) {
		l.logger.Info("Already loading assets")
		return nil
	}

	started := time.Now()
	total, err := l.runPass(ctx)
	if err != nil {
		loadErr := &LoadError{Message: "failed to load assets", Err: err}
		l.logger.Error("Loading failed", "error", err)
		l.bus.Emit(ctx, signals.LoadingFailed{Message: loadErr.Message, Details: err})
		return loadErr
	}

	l.logger.Info("Successfully loaded assets", "files", total, "elapsed", time.Since(started))
	l.bus.Emit(ctx, signals.LoadingComplete{})
	return nil
}

func (l *Loader) runPass(ctx context.Context) (int, error) {
	defer l.loading.Store(false)

	p, jobs := l.beginPass()
	defer l.endPass(p)

	l.metrics.passes.Inc()
	timer := prometheus.NewTimer(l.metrics.passDuration)
	defer timer.ObserveDuration()

	total := 0
	tasks := make([]func() error, 0, len(jobs))
	for _, c := range Categories {
		entries := jobs[c]
		if len(entries) == 0 {
			continue
		}
		total += len(entries)
		tasks = append(tasks, func() error { return l.loadCategory(ctx, p, c, entries) })
	}

	l.logger.Info("Starting loading", "files", total, "pass", p.id)
	if total == 0 {
		return 0, nil
	}
	return total, awaitAll(ctx, tasks)
}

func (l *Loader) beginPass() (*pass, map[Category]map[string]string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.passSeq++
	jobs := make(map[Category]map[string]string, len(l.declared))
	for c, entries := range l.declared {
		copied := make(map[string]string, len(entries))
		for k, v := range entries {
			copied[k] = v
		}
		jobs[c] = copied
	}
	return &pass{id: l.passSeq}, jobs
}

func (l *Loader) endPass(p *pass) {
	l.mu.Lock()
	p.closed = true
	l.mu.Unlock()
}

// commit applies a store write unless the pass already ended.
func (l *Loader) commit(p *pass, apply func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if p.closed {
		return false
	}
	apply()
	return true
}

// awaitAll runs every task concurrently and returns at the first failure or
// once all succeeded. Tasks still running after a failure finish on their
// own; the buffered channel keeps them from blocking. A panicking task fails
// like one returning an error.
func awaitAll(ctx context.Context, tasks []func() error) error {
	errc := make(chan error, len(tasks))
	for _, task := range tasks {
		go func() { errc <- runTask(task) }()
	}
	for range tasks {
		select {
		case err := <-errc:
			if err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func runTask(task func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return task()
}

func (l *Loader) loadCategory(ctx context.Context, p *pass, c Category, entries map[string]string) error {
	tasks := make([]func() error, 0, len(entries))
	for key, assetPath := range entries {
		tasks = append(tasks, func() error {
			location := l.resolve(assetPath)
			l.logger.Debug("Loading asset", "category", c, "key", key, "location", location)
			if err := runTask(func() error { return l.loadOne(ctx, p, c, key, location) }); err != nil {
				l.metrics.failures.WithLabelValues(string(c)).Inc()
				l.logger.Error("Failed to load asset", "category", c, "key", key, "location", location, "error", err)
				return fmt.Errorf("load %s %q: %w", c, key, err)
			}
			l.metrics.loaded.WithLabelValues(string(c)).Inc()
			return nil
		})
	}
	return awaitAll(ctx, tasks)
}

func (l *Loader) loadOne(ctx context.Context, p *pass, c Category, key, location string) error {
	data, err := l.fetch(ctx, location)
	if err != nil {
		return err
	}

	switch c {
	case CategoryImages:
		tex, err := l.decoder.DecodeTexture(location, data)
		if err != nil {
			return err
		}
		l.commit(p, func() { l.textures[key] = tex })

	case CategorySpritesheets:
		sheet, err := ParseSpritesheet(data)
		if err != nil {
			return err
		}
		page := resolveSibling(location, sheet.Image)
		tex, err := l.fetchTexture(ctx, page)
		if err != nil {
			return err
		}
		sheet.Texture = tex
		l.commit(p, func() { l.sheets[key] = sheet })

	case CategoryAudio:
		sound, err := l.decoder.DecodeAudio(location, data)
		if err != nil {
			return err
		}
		l.commit(p, func() {
			if _, exists := l.audio[key]; !exists {
				l.audioKeys = append(l.audioKeys, key)
			}
			l.audio[key] = sound
		})

	case CategoryVideos:
		clip, err := newVideoClip(location, data)
		if err != nil {
			return err
		}
		l.commit(p, func() { l.videos[key] = clip })

	case CategorySVGs:
		tex, err := l.decoder.DecodeSVG(location, data)
		if err != nil {
			return err
		}
		l.commit(p, func() { l.svgs[key] = tex })

	case CategoryTTFFonts:
		font, err := l.decoder.DecodeFont(key, data)
		if err != nil {
			return err
		}
		l.commit(p, func() { l.ttf[key] = font })

	case CategoryBitmapFonts:
		font, err := ParseBitmapFont(data)
		if err != nil {
			return err
		}
		pages := make([]func() error, len(font.Pages))
		for i, file := range font.Pages {
			pages[i] = func() error {
				tex, err := l.fetchTexture(ctx, resolveSibling(location, file))
				if err != nil {
					return err
				}
				font.Textures[i] = tex
				return nil
			}
		}
		if err := awaitAll(ctx, pages); err != nil {
			return err
		}
		l.commit(p, func() { l.bitmap[key] = font })

	default:
		return fmt.Errorf("unknown category %q", c)
	}
	return nil
}

func (l *Loader) fetchTexture(ctx context.Context, location string) (Texture, error) {
	data, err := l.fetch(ctx, location)
	if err != nil {
		return nil, err
	}
	return l.decoder.DecodeTexture(location, data)
}

func (l *Loader) fetch(ctx context.Context, location string) ([]byte, error) {
	if l.fetchSem != nil {
		if err := l.fetchSem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer l.fetchSem.Release(1)
	}
	return l.fetcher.Fetch(ctx, location)
}

// resolve keeps absolute URLs and prefixes everything else with the base
// path.
func (l *Loader) resolve(p string) string {
	if isAbsoluteURL(p) {
		return p
	}
	if l.basePath != "" && !strings.HasPrefix(p, "/") {
		return l.basePath + "/" + p
	}
	return l.basePath + p
}
