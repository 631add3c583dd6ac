package filter

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
)

const timestampFile = "last_timestamp"

// MinPeriod passes only messages that arrive at least a configured
// period after the previously passed one. With a persistence directory
// the timestamp of the last passed message survives restarts, so the
// rate limit cannot be reset by bouncing the process.
type MinPeriod struct {
	period time.Duration
	now    func() time.Time

	mu   sync.Mutex
	last time.Time

	fs   afero.Fs
	path string
}

// NewMinPeriod creates the filter. A nil fs keeps the last-pass
// timestamp in memory only; otherwise it is persisted under dir.
func NewMinPeriod(period time.Duration, fs afero.Fs, dir string) (*MinPeriod, error) {
	mp := &MinPeriod{period: period, now: time.Now}
	if fs == nil {
		return mp, nil
	}

	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating filter directory %s: %w", dir, err)
	}
	mp.fs = fs
	mp.path = filepath.Join(dir, timestampFile)

	raw, err := afero.ReadFile(fs, mp.path)
	switch {
	case err == nil:
		last, perr := time.Parse(time.RFC3339Nano, strings.TrimSpace(string(raw)))
		if perr != nil {
			return nil, fmt.Errorf("parsing persisted timestamp in %s: %w", mp.path, perr)
		}
		mp.last = last
	case errors.Is(err, os.ErrNotExist):
		// First run, nothing persisted yet.
	default:
		return nil, fmt.Errorf("reading persisted timestamp %s: %w", mp.path, err)
	}
	return mp, nil
}

// Filter implements the Filter contract for use in a Chain.
func (mp *MinPeriod) Filter(msg []byte) []byte {
	if msg == nil {
		return nil
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	now := mp.now()
	if !mp.last.IsZero() && now.Sub(mp.last) < mp.period {
		return nil
	}
	mp.last = now

	if mp.fs != nil {
		raw := []byte(now.Format(time.RFC3339Nano))
		if err := afero.WriteFile(mp.fs, mp.path, raw, 0o644); err != nil {
			// The message still passes; only restart persistence of the
			// rate limit is affected.
			slog.Warn("Failed to persist min-period timestamp", "path", mp.path, "error", err)
		}
	}
	return msg
}
