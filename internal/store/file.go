package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

// File is a Memory store mirrored to a single JSON document on disk. Every
// mutation rewrites the whole snapshot through a temp file and rename, so a
// crash never leaves a half-written file behind.
type File struct {
	*Memory
	path    string
	writeMu sync.Mutex
}

// OpenFile loads path (missing file means empty store) and returns a File store.
func OpenFile(path string) (*File, error) {
	f := &File{Memory: NewMemory(), path: path}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, failure("read snapshot", err)
	default:
		var snap map[string]map[string]json.RawMessage
		if err := json.Unmarshal(raw, &snap); err != nil {
			return nil, failure("decode snapshot", err)
		}
		for bucket, records := range snap {
			for key, value := range records {
				f.Memory.write(bucket, key, value)
			}
		}
	}

	f.Memory.afterWrite = f.persist
	log.Info().Str("path", path).Msg("File store opened")
	return f, nil
}

// persist writes the current snapshot. Failures are logged and surfaced; the
// in-memory change stays applied.
func (f *File) persist() error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	snap := f.Memory.snapshot()
	doc := make(map[string]map[string]json.RawMessage, len(snap))
	for bucket, records := range snap {
		doc[bucket] = make(map[string]json.RawMessage, len(records))
		for k, v := range records {
			doc[bucket][k] = v
		}
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return f.fail("encode snapshot", err)
	}

	if dir := filepath.Dir(f.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return f.fail("create data dir", err)
		}
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return f.fail("write snapshot", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return f.fail("replace snapshot", err)
	}
	return nil
}

func (f *File) fail(op string, err error) error {
	log.Error().Err(err).Str("path", f.path).Str("op", op).Msg("Failed to save snapshot")
	return failure(op, fmt.Errorf("%s: %w", f.path, err))
}
