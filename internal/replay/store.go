package replay

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FileStore keeps one state record per device under a directory.
type FileStore struct {
	dir string
	log *slog.Logger
}

// NewFileStore creates a store rooted at dir. The directory is created
// on first save.
func NewFileStore(dir string, log *slog.Logger) *FileStore {
	if log == nil {
		log = slog.Default()
	}
	return &FileStore{dir: dir, log: log}
}

// Path returns the record location for a device.
func (f *FileStore) Path(device string) string {
	return filepath.Join(f.dir, device+".state")
}

// Load returns the persisted state for the device, or a cold-start
// state when no usable record exists. A corrupt record is logged, not
// fatal; the windows refill within one pass of samples.
func (f *FileStore) Load(device string) *State {
	data, err := os.ReadFile(f.Path(device))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			f.log.Warn("state unreadable, starting cold", "device", device, "error", err)
		}
		return NewState()
	}

	s, err := Decode(data)
	if err != nil {
		f.log.Warn("state corrupt, starting cold", "device", device, "error", err)
		return NewState()
	}
	return s
}

// Save writes the state record whole.
func (f *FileStore) Save(device string, s *State) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(f.Path(device), Encode(s), 0o644); err != nil {
		return fmt.Errorf("write state for %s: %w", device, err)
	}
	return nil
}

// Remove discards the device's record. A missing record is not an error.
func (f *FileStore) Remove(device string) error {
	if err := os.Remove(f.Path(device)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove state for %s: %w", device, err)
	}
	return nil
}
