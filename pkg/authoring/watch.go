package authoring

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"gambit/internal/logging"
)

// debounceWindow suppresses duplicate events from editors that write files
// in multiple syscalls.
const debounceWindow = 100 * time.Millisecond

// Watcher reloads a library file on change. Successfully reloaded libraries
// arrive on Libraries; parse and validation failures arrive on Errors so a
// live session keeps its last good library.
type Watcher struct {
	watcher   *fsnotify.Watcher
	path      string
	Libraries chan *Library
	Errors    chan error
	closeCh   chan struct{}
	once      sync.Once
}

// WatchLibrary starts watching a library file's directory. The file itself
// is not watched directly because rename-based saves would drop the watch.
func WatchLibrary(path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, err
	}

	w := &Watcher{
		watcher:   fw,
		path:      filepath.Clean(path),
		Libraries: make(chan *Library, 1),
		Errors:    make(chan error, 1),
		closeCh:   make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Close stops the watcher. Safe to call more than once. The output channels
// are closed by the watch goroutine once it has stopped, so a reload that is
// mid-flight during Close still delivers or drops safely.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
	})
	return err
}

// run is the only sender on Libraries and Errors and therefore the only
// place allowed to close them.
func (w *Watcher) run() {
	defer close(w.Libraries)
	defer close(w.Errors)

	var last time.Time
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			now := time.Now()
			if now.Sub(last) < debounceWindow {
				continue
			}
			last = now

			lib, err := LoadLibrary(w.path)
			if err != nil {
				logging.New("authoring").Warn("library reload failed", "path", w.path, "err", err)
				select {
				case w.Errors <- err:
				default:
				}
				continue
			}
			logging.New("authoring").Info("library reloaded",
				"path", w.path, "actions", len(lib.Actions), "goals", len(lib.Goals))
			select {
			case w.Libraries <- lib:
			default:
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}
