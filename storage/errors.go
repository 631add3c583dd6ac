package storage

import "fmt"

// StorageError wraps a filesystem failure during a storage operation.
// Storage errors propagate synchronously to the caller of the failing
// operation; no retries are performed here.
type StorageError struct {
	// Op is the failing operation: "create", "scan", "recover", "add",
	// "front" or "pop_front".
	Op string
	// Path is the file or directory the operation touched.
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
