package storage

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/spf13/afero"

	"github.com/nfrund/persiq/internal/metrics"
)

// Latest is a durable store that retains only the most recently added
// message. Add publishes the new entry first and deletes the previous
// one only afterwards, so a concurrent Front never observes an empty
// store between two adds.
type Latest struct {
	fs  afero.Fs
	dir string

	// mu guards the sequence counter and the name of the previous
	// entry; readers coordinate with Add through the filesystem alone.
	mu      sync.Mutex
	nextSeq uint64
	current string

	hasNew atomic.Bool
}

// NewLatest opens (or creates) the store directory. If entries survive
// from a previous run, all but the newest are removed and HasNew
// reports true, mirroring a freshly added message.
func NewLatest(fs afero.Fs, dir string) (*Latest, error) {
	l := &Latest{fs: fs, dir: dir}

	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, &StorageError{Op: "create", Path: dir, Err: err}
	}

	maxSeq, found, err := recoverDir(fs, dir)
	if err != nil {
		return nil, err
	}
	if found {
		l.nextSeq = maxSeq + 1
		l.current = entryName(maxSeq)
		l.hasNew.Store(true)

		// A crash between publish and delete can leave a superseded
		// entry behind; finish the job now.
		seqs, err := entrySeqs(fs, dir)
		if err != nil {
			return nil, err
		}
		for _, seq := range seqs {
			if seq == maxSeq {
				continue
			}
			if err := fs.Remove(filepath.Join(dir, entryName(seq))); err != nil && !errors.Is(err, os.ErrNotExist) {
				return nil, &StorageError{Op: "recover", Path: filepath.Join(dir, entryName(seq)), Err: err}
			}
		}
	}
	return l, nil
}

// Add replaces the stored message. The new entry is published
// atomically under a fresh sequence number before the previous entry
// is deleted.
func (l *Latest) Add(msg []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	name := entryName(l.nextSeq)
	if err := publishEntry(l.fs, l.dir, name, msg); err != nil {
		return err
	}
	l.nextSeq++

	prev := l.current
	l.current = name
	l.hasNew.Store(true)
	metrics.MessagesAdded.WithLabelValues("latest").Inc()

	if prev != "" && prev != name {
		if err := l.fs.Remove(filepath.Join(l.dir, prev)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return &StorageError{Op: "add", Path: filepath.Join(l.dir, prev), Err: err}
		}
	}
	return nil
}

// Front returns the newest stored message, or ok == false when nothing
// has been stored. Reading it clears the HasNew flag. The flag is
// cleared before the scan: an Add racing the read re-sets it
// afterwards, so the clear can only err toward a spurious HasNew,
// never a lost signal.
func (l *Latest) Front() ([]byte, bool, error) {
	l.hasNew.Store(false)
	for {
		seqs, err := entrySeqs(l.fs, l.dir)
		if err != nil {
			return nil, false, err
		}
		if len(seqs) == 0 {
			return nil, false, nil
		}

		path := filepath.Join(l.dir, entryName(seqs[len(seqs)-1]))
		msg, err := afero.ReadFile(l.fs, path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				// Raced with a concurrent add or pop; rescan.
				continue
			}
			return nil, false, &StorageError{Op: "front", Path: path, Err: err}
		}
		return msg, true, nil
	}
}

// PopFront removes the stored message, if any.
func (l *Latest) PopFront() (bool, error) {
	seqs, err := entrySeqs(l.fs, l.dir)
	if err != nil {
		return false, err
	}
	if len(seqs) == 0 {
		return false, nil
	}

	popped := false
	for _, seq := range seqs {
		if err := l.fs.Remove(filepath.Join(l.dir, entryName(seq))); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return popped, &StorageError{Op: "pop_front", Path: filepath.Join(l.dir, entryName(seq)), Err: err}
		}
		popped = true
	}
	if popped {
		metrics.MessagesPopped.WithLabelValues("latest").Inc()
	}
	return popped, nil
}

// Len reports 0 or 1. An in-flight Add may briefly leave two files on
// disk; the count is clamped so a concurrent reader never observes a
// size above one.
func (l *Latest) Len() (int, error) {
	seqs, err := entrySeqs(l.fs, l.dir)
	if err != nil {
		return 0, err
	}
	if len(seqs) == 0 {
		return 0, nil
	}
	return 1, nil
}

// HasNew reports whether a message arrived since the last Front call.
// It lets a consumer poll cheaply without re-reading the entry file.
func (l *Latest) HasNew() bool {
	return l.hasNew.Load()
}
