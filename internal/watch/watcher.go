// Package watch turns archive drops under the blob store root into intake
// triggers. It is the local stand-in for bucket notifications: when a .zip
// lands under <root>/<bucket>/Answer_Scripts_Zip_Files/..., a Trigger with
// that object's bucket and key comes out of the channel.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kjusys/script-intake/constants"
)

// Trigger identifies one dropped archive.
type Trigger struct {
	Bucket string
	Key    string
}

type Config struct {
	Root        string        // blob store root; the first path segment below it is the bucket
	Debounce    time.Duration // coalesce rapid write bursts into one trigger
	InitialScan bool          // emit archives already present under Root
}

// Start watches Root recursively and reports archive drops until ctx ends.
// Directories created later join the watch as they appear. Both channels
// close when the watcher stops.
func Start(ctx context.Context, cfg Config, logger *slog.Logger) (<-chan Trigger, <-chan error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Root == "" {
		return nil, nil, errors.New("no watch root provided")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, fmt.Errorf("create watcher: %w", err)
	}

	evCh := make(chan Trigger, 64)
	errCh := make(chan error, 1)

	walkErr := filepath.WalkDir(cfg.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(p)
		}
		if !cfg.InitialScan {
			return nil
		}
		if trig, ok := triggerFor(cfg.Root, p); ok {
			select {
			case evCh <- trig:
			default:
			}
		}
		return nil
	})
	if walkErr != nil {
		_ = w.Close()
		return nil, nil, fmt.Errorf("walk %s: %w", cfg.Root, walkErr)
	}

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer func() { _ = w.Close() }()

		var timer *time.Timer
		var timerCh <-chan time.Time
		pending := map[Trigger]struct{}{}

		flush := func() {
			for trig := range pending {
				select {
				case evCh <- trig:
				default:
					logger.Warn("watch.trigger_dropped", "bucket", trig.Bucket, "key", trig.Key)
				}
				delete(pending, trig)
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-timerCh:
				flush()
				timerCh = nil
			case e := <-w.Events:
				if e.Op&fsnotify.Create != 0 {
					// New directories join the watch. Add fails on plain
					// files and that is fine.
					_ = w.Add(e.Name)
				}
				if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				trig, ok := triggerFor(cfg.Root, e.Name)
				if !ok {
					continue
				}
				pending[trig] = struct{}{}
				if cfg.Debounce <= 0 {
					flush()
					continue
				}
				if timer == nil {
					timer = time.NewTimer(cfg.Debounce)
				} else {
					timer.Reset(cfg.Debounce)
				}
				timerCh = timer.C
			case err := <-w.Errors:
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	logger.Info("watch.started", "root", cfg.Root, "debounce", cfg.Debounce)
	return evCh, errCh, nil
}

// triggerFor maps a path under root to its bucket and key. Only .zip objects
// under the archive prefix produce triggers, which keeps extracted files and
// metadata sidecars from re-triggering intake.
func triggerFor(root, p string) (Trigger, bool) {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return Trigger{}, false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return Trigger{}, false
	}
	bucket, key, found := strings.Cut(rel, "/")
	if !found || bucket == "" || key == "" {
		return Trigger{}, false
	}
	if !strings.HasPrefix(key, constants.ZipFilesPrefix+"/") {
		return Trigger{}, false
	}
	if !strings.EqualFold(path.Ext(key), ".zip") {
		return Trigger{}, false
	}
	return Trigger{Bucket: bucket, Key: key}, true
}
