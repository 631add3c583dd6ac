package storage

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/nfrund/persiq/internal/metrics"
)

// Queue is a durable FIFO store. Every added message is retained on
// disk until explicitly popped, in arrival order. Sequence numbers are
// strictly increasing and never reused, even across process restarts.
type Queue struct {
	fs  afero.Fs
	dir string

	// mu guards only the sequence counter. Front and PopFront share no
	// in-memory state with Add; they coordinate through the filesystem.
	mu      sync.Mutex
	nextSeq uint64
}

// NewQueue opens (or creates) the queue directory and resumes sequence
// numbering from the highest entry already on disk. Temporary files
// left over from a crash mid-publish are removed; foreign files are
// ignored.
func NewQueue(fs afero.Fs, dir string) (*Queue, error) {
	q := &Queue{fs: fs, dir: dir}

	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, &StorageError{Op: "create", Path: dir, Err: err}
	}

	maxSeq, found, err := recoverDir(fs, dir)
	if err != nil {
		return nil, err
	}
	if found {
		q.nextSeq = maxSeq + 1
	}
	return q, nil
}

// recoverDir scans dir, deletes stale temporary files, and returns the
// highest sequence number present.
func recoverDir(fs afero.Fs, dir string) (maxSeq uint64, found bool, err error) {
	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		return 0, false, &StorageError{Op: "scan", Path: dir, Err: err}
	}

	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		name := info.Name()

		if filepath.Ext(name) == tmpExt {
			// Leftover from a crash before the publishing rename.
			if err := fs.Remove(filepath.Join(dir, name)); err != nil {
				return 0, false, &StorageError{Op: "recover", Path: filepath.Join(dir, name), Err: err}
			}
			slog.Debug("Removed stale temporary file", "dir", dir, "file", name)
			continue
		}

		seq, ok := parseEntryName(name)
		if !ok {
			slog.Debug("Ignoring foreign file in storage directory", "dir", dir, "file", name)
			continue
		}
		if !found || seq > maxSeq {
			maxSeq = seq
			found = true
		}
	}
	return maxSeq, found, nil
}

// Add persists msg under the next sequence number. The entry becomes
// visible atomically; a concurrent reader either sees the complete
// message or nothing.
func (q *Queue) Add(msg []byte) error {
	q.mu.Lock()
	seq := q.nextSeq
	q.nextSeq++
	q.mu.Unlock()

	if err := publishEntry(q.fs, q.dir, entryName(seq), msg); err != nil {
		return err
	}
	metrics.MessagesAdded.WithLabelValues("fifo").Inc()
	return nil
}

// Front returns the message with the smallest sequence number on disk.
// An entry vanishing mid-read means a concurrent pop raced us; the scan
// is simply retried. All other read failures propagate.
func (q *Queue) Front() ([]byte, bool, error) {
	for {
		seqs, err := entrySeqs(q.fs, q.dir)
		if err != nil {
			return nil, false, err
		}
		if len(seqs) == 0 {
			return nil, false, nil
		}

		path := filepath.Join(q.dir, entryName(seqs[0]))
		msg, err := afero.ReadFile(q.fs, path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, false, &StorageError{Op: "front", Path: path, Err: err}
		}
		return msg, true, nil
	}
}

// PopFront removes the current front entry. It returns false without
// error when the queue is empty; front and pop race with Add by design,
// so an empty pop is not an error condition. Remaining entries are
// never renumbered.
func (q *Queue) PopFront() (bool, error) {
	for {
		seqs, err := entrySeqs(q.fs, q.dir)
		if err != nil {
			return false, err
		}
		if len(seqs) == 0 {
			return false, nil
		}

		path := filepath.Join(q.dir, entryName(seqs[0]))
		if err := q.fs.Remove(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				// Another reader popped it first.
				continue
			}
			return false, &StorageError{Op: "pop_front", Path: path, Err: err}
		}
		metrics.MessagesPopped.WithLabelValues("fifo").Inc()
		return true, nil
	}
}

// Len counts the entries currently on disk.
func (q *Queue) Len() (int, error) {
	seqs, err := entrySeqs(q.fs, q.dir)
	if err != nil {
		return 0, err
	}
	return len(seqs), nil
}
