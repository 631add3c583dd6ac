package storage

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Notifier signals the arrival of new entries in a storage directory so
// a consumer can block on Arrivals instead of polling Front. It watches
// the real filesystem; a store backed by an in-memory afero.Fs cannot
// be observed this way.
type Notifier struct {
	watcher  *fsnotify.Watcher
	arrivals chan string
}

// NewNotifier starts watching dir. The directory must already exist;
// constructing the store first guarantees that.
func NewNotifier(dir string) (*Notifier, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating filesystem watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching storage directory %s: %w", dir, err)
	}

	n := &Notifier{
		watcher:  watcher,
		arrivals: make(chan string, 16),
	}
	go n.watch()
	return n, nil
}

// Arrivals yields the file name of each newly published entry. The
// channel is closed when the notifier is closed. Signals may be dropped
// when the consumer lags; treat each one as a hint to rescan, not as a
// per-message delivery.
func (n *Notifier) Arrivals() <-chan string {
	return n.arrivals
}

// Close stops watching and closes the Arrivals channel.
func (n *Notifier) Close() error {
	return n.watcher.Close()
}

// watch handles filesystem events until the watcher is closed. An entry
// is published via rename, which the watcher reports as a create event
// for the final name.
func (n *Notifier) watch() {
	defer close(n.arrivals)

	for {
		select {
		case event, ok := <-n.watcher.Events:
			if !ok {
				return
			}
			name := filepath.Base(event.Name)
			if _, isEntry := parseEntryName(name); !isEntry {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			select {
			case n.arrivals <- name:
			default:
				slog.Debug("Dropping arrival signal, consumer lagging", "file", name)
			}

		case err, ok := <-n.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Storage watcher error", "error", err)
		}
	}
}
