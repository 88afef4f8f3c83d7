// Package configwatch watches the proxy's config.toml for changes and
// hot-reloads the cache layer (capacity, eviction policy, comparison
// policy, mode) without restarting the process, mirroring the original
// colander proxy-server's `notify`-crate-backed watcher. The default TTL
// and maximum body size are handed to the proxy handler once at startup
// and are not changed by a reload.
package configwatch

import (
	"context"

	"github.com/fsnotify/fsnotify"
	"github.com/kclaka/colander/internal/config"
	"go.uber.org/zap"

	"github.com/kclaka/colander/cache"
)

// Watcher reloads path on every filesystem write/create event and swaps
// a freshly built CacheLayer into lp. Unsafe-to-reload fields (listen
// addresses) are logged and ignored — only onLoad is invoked with the
// full newly-parsed Config so the caller can react to those too if it
// chooses.
type Watcher struct {
	path   string
	lp     *cache.LayerPointer
	log    *zap.Logger
	onLoad func(config.Config)
}

// New constructs a Watcher for path. onLoad, if non-nil, is called with
// every successfully reloaded Config (the initial one is not included —
// callers load that themselves before starting the watcher).
func New(path string, lp *cache.LayerPointer, log *zap.Logger, onLoad func(config.Config)) *Watcher {
	return &Watcher{path: path, lp: lp, log: log, onLoad: onLoad}
}

// Run blocks, watching path until ctx is cancelled. Errors from the
// underlying fsnotify watcher are logged, not fatal — a broken watcher
// just means reload stops working, not that the proxy should crash.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.path); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("config watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := config.Load(w.path)
	if err != nil {
		w.log.Warn("config reload failed, keeping previous config", zap.Error(err))
		return
	}

	next, err := cfg.BuildLayer()
	if err != nil {
		w.log.Warn("config reload produced an invalid cache layer, keeping previous config", zap.Error(err))
		return
	}

	old := w.lp.Swap(next)
	w.log.Info("config reloaded",
		zap.String("old_policy", old.PrimaryName()),
		zap.String("new_policy", next.PrimaryName()),
		zap.Int("new_capacity", next.Capacity()),
	)
	w.log.Info("listen addresses are not hot-reloadable; restart the process to apply server.* changes")

	if w.onLoad != nil {
		w.onLoad(cfg)
	}
}
