package statistics

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/lox/lantern/internal/fileutil"
)

// FileStore keeps counters in memory and rewrites a JSON file after every
// change.
type FileStore struct {
	*MemoryStore
	path string
	mu   sync.Mutex
}

// OpenFileStore loads path if it exists.
func OpenFileStore(path string) (*FileStore, error) {
	fs := &FileStore{MemoryStore: NewMemoryStore(), path: path}

	var saved map[string]PlayerStats
	err := fileutil.ReadJSON(path, &saved)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to load statistics: %w", err)
	default:
		fs.load(saved)
	}
	return fs, nil
}

func (f *FileStore) Record(ctx context.Context, playerID string, c Counter) error {
	if err := f.MemoryStore.Record(ctx, playerID, c); err != nil {
		return err
	}
	return f.flush()
}

// Close writes the file one last time.
func (f *FileStore) Close() error {
	return f.flush()
}

func (f *FileStore) flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := fileutil.WriteJSONAtomic(f.path, f.snapshot(), 0o644); err != nil {
		return fmt.Errorf("failed to save statistics: %w", err)
	}
	return nil
}
