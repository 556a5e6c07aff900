package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfsplit/internal/storage"
)

// Results persists extraction output under a single directory with
// caller-chosen names. When a password is configured the bytes are encrypted
// at rest.
type Results struct {
	dir      string
	password string
}

func NewResults(dir, password string) (*Results, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create results dir: %w", err)
	}
	return &Results{dir: dir, password: password}, nil
}

// Dir returns the directory results are stored under.
func (r *Results) Dir() string { return r.dir }

func (r *Results) Save(name string, data []byte) error {
	if r.password != "" {
		enc, err := storage.Encrypt(r.password, data)
		if err != nil {
			return fmt.Errorf("encrypt result: %w", err)
		}
		data = enc
	}
	return os.WriteFile(filepath.Join(r.dir, name), data, 0o644)
}

func (r *Results) Open(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(r.dir, name))
	if err != nil {
		return nil, err
	}
	if r.password != "" {
		dec, err := storage.Decrypt(r.password, data)
		if err != nil {
			return nil, fmt.Errorf("decrypt result: %w", err)
		}
		data = dec
	}
	return data, nil
}

func (r *Results) Remove(name string) error {
	return os.Remove(filepath.Join(r.dir, name))
}

// Sweep removes stored results older than maxAge and reports how many files
// were deleted.
func (r *Results) Sweep(maxAge time.Duration) int {
	now := time.Now()
	removed := 0
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return 0
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) >= maxAge {
			if os.Remove(filepath.Join(r.dir, e.Name())) == nil {
				removed++
			}
		}
	}
	return removed
}

// StartSweeper runs Sweep on a ticker until the returned stop function is
// called.
func (r *Results) StartSweeper(interval, maxAge time.Duration) func() {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if n := r.Sweep(maxAge); n > 0 {
					log.Debug().Int("removed", n).Msg("swept stale results")
				}
			}
		}
	}()
	return func() { close(stop) }
}
