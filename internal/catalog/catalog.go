package catalog

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temoto-labs/taassist/internal/descriptor"
	"github.com/temoto-labs/taassist/internal/logging"
	"github.com/temoto-labs/taassist/internal/umrf"
)

const (
	// DefaultInterval is the time between two background scans.
	DefaultInterval = 4 * time.Second

	// settleDelay batches bursts of filesystem events into one rescan.
	settleDelay = 200 * time.Millisecond
)

// ErrStopTimeout is returned by Stop when the background scan does not end
// before the context is done.
var ErrStopTimeout = errors.New("catalog indexer did not stop in time")

// Indexer scans its roots for node descriptors and publishes snapshots.
type Indexer struct {
	roots    []string
	interval time.Duration
	workers  int
	watch    bool
	log      *zap.Logger

	current atomic.Pointer[Snapshot]

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithInterval sets the time between background scans.
func WithInterval(d time.Duration) Option {
	return func(ix *Indexer) {
		if d > 0 {
			ix.interval = d
		}
	}
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l *zap.Logger) Option {
	return func(ix *Indexer) { ix.log = logging.OrNop(l) }
}

// WithWatch turns filesystem notifications on or off. When on (the
// default), a change under a root triggers a rescan without waiting for the
// next interval.
func WithWatch(on bool) Option {
	return func(ix *Indexer) { ix.watch = on }
}

// WithWorkers bounds how many descriptors are parsed concurrently.
func WithWorkers(n int) Option {
	return func(ix *Indexer) {
		if n > 0 {
			ix.workers = n
		}
	}
}

// NewIndexer returns an indexer over roots. Its snapshot is empty until the
// first scan.
func NewIndexer(roots []string, opts ...Option) *Indexer {
	ix := &Indexer{
		roots:    roots,
		interval: DefaultInterval,
		workers:  runtime.GOMAXPROCS(0),
		watch:    true,
		log:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	ix.current.Store(newSnapshot(nil, nil, time.Time{}))
	return ix
}

// Start runs the background scan loop until Stop is called or ctx ends. The
// first scan starts immediately. Calling Start on a running indexer does
// nothing.
func (ix *Indexer) Start(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.done != nil {
		return nil
	}

	var w *fsnotify.Watcher
	if ix.watch {
		var err error
		if w, err = fsnotify.NewWatcher(); err != nil {
			ix.log.Warn("filesystem watch unavailable, relying on interval", zap.Error(err))
			w = nil
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	ix.cancel = cancel
	ix.done = make(chan struct{})
	go ix.run(runCtx, w, ix.done)
	return nil
}

// Stop ends the background loop and waits for it, at most until ctx is
// done.
func (ix *Indexer) Stop(ctx context.Context) error {
	ix.mu.Lock()
	cancel, done := ix.cancel, ix.done
	ix.cancel, ix.done = nil, nil
	ix.mu.Unlock()
	if done == nil {
		return nil
	}

	cancel()
	select {
	case <-done:
		ix.log.Debug("catalog indexer stopped")
		return nil
	case <-ctx.Done():
		return ErrStopTimeout
	}
}

func (ix *Indexer) run(ctx context.Context, w *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	var events <-chan fsnotify.Event
	var watchErrs <-chan error
	if w != nil {
		defer w.Close()
		events, watchErrs = w.Events, w.Errors
	}

	ticker := time.NewTicker(ix.interval)
	defer ticker.Stop()

	ix.scanAndLog(ctx, w)
	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ix.scanAndLog(ctx, w)
		case <-settle:
			settle = nil
			ix.scanAndLog(ctx, w)
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if settle == nil && relevant(ev) {
				settle = time.After(settleDelay)
			}
		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			ix.log.Warn("filesystem watch error", zap.Error(err))
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	// Directory events carry no extension; a new package directory must be
	// watched before its descriptor shows up.
	return descriptor.IsNodeFile(ev.Name) || filepath.Ext(base) == ""
}

func (ix *Indexer) scanAndLog(ctx context.Context, w *fsnotify.Watcher) {
	snap, err := ix.scan(ctx, w)
	if err != nil {
		if ctx.Err() == nil {
			ix.log.Warn("catalog scan failed", zap.Error(err))
		}
		return
	}
	ix.log.Debug("catalog scanned",
		zap.Int("actions", snap.Count()),
		zap.Int("skipped", len(snap.Errors)))
}

// Refresh runs one scan now and publishes its result.
func (ix *Indexer) Refresh(ctx context.Context) (*Snapshot, error) {
	return ix.scan(ctx, nil)
}

func (ix *Indexer) scan(ctx context.Context, w *fsnotify.Watcher) (*Snapshot, error) {
	var paths []string
	var errs []error
	for _, root := range ix.roots {
		found, err := descriptor.FindFiles(root, descriptor.IsNodeFile)
		if err != nil {
			errs = append(errs, err)
			ix.log.Warn("skipping catalog root", zap.String("root", root), zap.Error(err))
			continue
		}
		paths = append(paths, found...)
		if w != nil {
			ix.watchTree(w, root)
		}
	}

	nodes := make([]*umrf.Node, len(paths))
	parseErrs := make([]error, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			nodes[i], parseErrs[i] = descriptor.ReadNodeFile(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(paths))
	for i, path := range paths {
		if parseErrs[i] != nil {
			ix.log.Warn("skipping descriptor", zap.String("path", path), zap.Error(parseErrs[i]))
			errs = append(errs, parseErrs[i])
			continue
		}
		entries = append(entries, Entry{Node: nodes[i], Path: path})
	}

	snap := newSnapshot(entries, errs, time.Now())
	ix.current.Store(snap)
	return snap, nil
}

// watchTree adds root and its non-hidden subdirectories to w. Adding a
// directory twice is harmless.
func (ix *Indexer) watchTree(w *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		if err := w.Add(path); err != nil {
			ix.log.Debug("cannot watch directory", zap.String("dir", path), zap.Error(err))
		}
		return nil
	})
}

// Snapshot returns the most recently published snapshot.
func (ix *Indexer) Snapshot() *Snapshot { return ix.current.Load() }

// Get looks name up in the current snapshot.
func (ix *Indexer) Get(name string) (*umrf.Node, bool) { return ix.Snapshot().Get(name) }

// Has reports whether name is in the current snapshot.
func (ix *Indexer) Has(name string) bool { return ix.Snapshot().Has(name) }

// Count returns the number of packages in the current snapshot.
func (ix *Indexer) Count() int { return ix.Snapshot().Count() }

// Names returns the package names in the current snapshot.
func (ix *Indexer) Names() []string { return ix.Snapshot().Names() }
