// Package jsonfile implements pkg/storage's Driver over a single JSON file.
//
// The whole collection is held in memory and rewritten on every mutation
// via an atomic replace: marshal to a temp file in the same directory, then
// rename over the old file. A crash mid-write leaves the previous committed
// state intact. A missing file is an empty store; an unreadable or corrupt
// file degrades to an empty store with a warning rather than failing open.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/papercomputeco/liner/pkg/memory"
	"github.com/papercomputeco/liner/pkg/storage"
)

// Config holds configuration for the JSON file store.
type Config struct {
	// Path is the location of the store file, e.g. ".liner/memories.json".
	Path string
}

// Driver implements storage.Driver over a JSON file.
type Driver struct {
	mu      sync.Mutex
	path    string
	logger  *slog.Logger
	records []memory.Memory
	index   map[string]int
}

// NewDriver opens the store at cfg.Path, loading any committed records.
func NewDriver(cfg Config, logger *slog.Logger) (*Driver, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("jsonfile: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("jsonfile: creating store directory: %w", err)
	}

	d := &Driver{
		path:   cfg.Path,
		logger: logger,
		index:  make(map[string]int),
	}
	d.load()

	return d, nil
}

// load reads the store file into memory. Corruption is not fatal: the
// store starts empty and the damaged file is overwritten on the next
// committed write.
func (d *Driver) load() {
	data, err := os.ReadFile(d.path)
	if os.IsNotExist(err) {
		return
	}
	if err != nil {
		d.logger.Warn("unreadable memory store, starting empty", "path", d.path, "error", err)
		return
	}

	var records []memory.Memory
	if err := json.Unmarshal(data, &records); err != nil {
		d.logger.Warn("corrupt memory store, starting empty", "path", d.path, "error", err)
		return
	}

	d.records = records
	for i, m := range records {
		d.index[m.MemoryID] = i
	}
}

// flush writes the collection to a temp file and renames it into place.
func (d *Driver) flush() error {
	data, err := json.MarshalIndent(d.records, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonfile: encoding store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(d.path), ".memories-*.json")
	if err != nil {
		return fmt.Errorf("jsonfile: creating temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("jsonfile: writing store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("jsonfile: closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), d.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("jsonfile: committing store: %w", err)
	}

	return nil
}

// Write stores a new memory and commits the collection to disk.
func (d *Driver) Write(_ context.Context, m memory.Memory) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.index[m.MemoryID]; ok {
		return storage.DuplicateKeyError{ID: m.MemoryID}
	}

	d.records = append(d.records, m)
	d.index[m.MemoryID] = len(d.records) - 1

	if err := d.flush(); err != nil {
		// Roll back the in-memory append so memory and disk agree.
		d.records = d.records[:len(d.records)-1]
		delete(d.index, m.MemoryID)
		return err
	}

	return nil
}

// Read retrieves a memory by its id.
func (d *Driver) Read(_ context.Context, id string) (memory.Memory, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	i, ok := d.index[id]
	if !ok {
		return memory.Memory{}, storage.NotFoundError{ID: id}
	}

	return d.records[i], nil
}

// Update applies a partial update, commits, and returns the new record.
func (d *Driver) Update(_ context.Context, id string, p storage.Patch) (memory.Memory, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	i, ok := d.index[id]
	if !ok {
		return memory.Memory{}, storage.NotFoundError{ID: id}
	}

	updated := d.records[i]
	if err := p.Apply(&updated); err != nil {
		return memory.Memory{}, err
	}

	previous := d.records[i]
	d.records[i] = updated
	if err := d.flush(); err != nil {
		d.records[i] = previous
		return memory.Memory{}, err
	}

	return updated, nil
}

// ListAll returns every memory in insertion order.
func (d *Driver) ListAll(_ context.Context) ([]memory.Memory, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	all := make([]memory.Memory, len(d.records))
	copy(all, d.records)

	return all, nil
}

// ListIDsFor returns the ids owned by a conversation, in insertion order.
func (d *Driver) ListIDsFor(_ context.Context, conversationID string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var ids []string
	for _, m := range d.records {
		if m.ConversationID == conversationID {
			ids = append(ids, m.MemoryID)
		}
	}

	return ids, nil
}

// Close is a no-op; every mutation is already committed.
func (d *Driver) Close() error {
	return nil
}

var _ storage.Driver = (*Driver)(nil)
