// Package storage provides crash-tolerant, disk-backed message stores.
//
// Each store owns a directory and persists one message per file, named
// by a zero-padded sequence number so a lexicographic directory listing
// reflects arrival order. Entries are published atomically: content is
// written to a temporary file and made visible by a single rename, so a
// concurrent reader never observes a partial write. The filesystem's
// rename/unlink atomicity is the sole synchronization primitive between
// the writer and readers; no in-process lock spans the operations.
// This assumption must hold on the underlying filesystem and OS (it
// does for POSIX rename); exotic filesystems may weaken it.
//
// A directory supports exactly one writer process at a time, with any
// number of concurrent readers.
package storage

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// Storage is the contract shared by the FIFO Queue and the
// latest-value store.
type Storage interface {
	// Add persists a message and makes it visible for retrieval.
	Add(msg []byte) error
	// Front returns the current front message without removing it.
	// ok is false when the store is empty.
	Front() (msg []byte, ok bool, err error)
	// PopFront removes the current front entry. Popping an empty store
	// is a no-op and returns false.
	PopFront() (bool, error)
	// Len reports the number of entries currently on disk.
	Len() (int, error)
}

const (
	entryExt = ".bin"
	tmpExt   = ".tmp"
	seqWidth = 20
)

// entryName renders a sequence number as an entry file name. The width
// guarantees lexicographic order matches numeric order for the full
// uint64 range.
func entryName(seq uint64) string {
	return fmt.Sprintf("%0*d%s", seqWidth, seq, entryExt)
}

// parseEntryName extracts the sequence number from an entry file name.
// Foreign files yield ok == false.
func parseEntryName(name string) (seq uint64, ok bool) {
	stem, found := strings.CutSuffix(name, entryExt)
	if !found || len(stem) != seqWidth {
		return 0, false
	}
	seq, err := strconv.ParseUint(stem, 10, 64)
	if err != nil {
		return 0, false
	}
	return seq, true
}

// publishEntry writes msg to a temporary file and renames it into
// place. The rename is the publication point; on failure the temporary
// file is removed so the directory never accumulates partial writes.
func publishEntry(fs afero.Fs, dir, name string, msg []byte) error {
	final := filepath.Join(dir, name)
	tmp := final + tmpExt
	if err := afero.WriteFile(fs, tmp, msg, 0o644); err != nil {
		return &StorageError{Op: "add", Path: tmp, Err: err}
	}
	if err := fs.Rename(tmp, final); err != nil {
		_ = fs.Remove(tmp)
		return &StorageError{Op: "add", Path: final, Err: err}
	}
	return nil
}

// entrySeqs lists the sequence numbers present in dir, ascending.
func entrySeqs(fs afero.Fs, dir string) ([]uint64, error) {
	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, &StorageError{Op: "scan", Path: dir, Err: err}
	}
	seqs := make([]uint64, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		if seq, ok := parseEntryName(info.Name()); ok {
			seqs = append(seqs, seq)
		}
	}
	// ReadDir returns names sorted, and zero padding makes the
	// lexicographic order numeric, so seqs is already ascending.
	return seqs, nil
}
