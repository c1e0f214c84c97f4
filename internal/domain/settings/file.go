package settings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/TextWarden/internal/infrastructure/logging"
)

// MaxFileSize bounds settings files
const MaxFileSize = 1 << 20

// reloadDelay lets editors finish writing before the file is re-read
const reloadDelay = 100 * time.Millisecond

// FileStore persists settings as YAML (.yaml, .yml, .json) or TOML (.toml)
// and reloads them when the file changes on disk
type FileStore struct {
	*MemoryStore
	path   string
	logger *logging.Logger
}

// OpenFile loads settings from path. A missing file yields defaults.
func OpenFile(path string, logger *logging.Logger) (*FileStore, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	s, err := readFile(path)
	if errors.Is(err, os.ErrNotExist) {
		s, err = Default(), nil
	}
	if err != nil {
		return nil, err
	}

	mem, err := NewMemoryStore(s)
	if err != nil {
		return nil, err
	}
	return &FileStore{MemoryStore: mem, path: path, logger: logger}, nil
}

// Path returns the backing file
func (f *FileStore) Path() string {
	return f.path
}

// Save writes the current settings to disk
func (f *FileStore) Save() error {
	data, err := encode(f.path, f.Get())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0o600)
}

// Reload re-reads the file and notifies subscribers on change
func (f *FileStore) Reload() error {
	s, err := readFile(f.path)
	if err != nil {
		return err
	}
	return f.Set(s)
}

// Watch reloads the file whenever it changes until ctx is done. The parent
// directory is watched so editors that replace the file are handled.
func (f *FileStore) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(f.path)); err != nil {
		w.Close()
		return err
	}

	target := filepath.Clean(f.path)
	go func() {
		defer w.Close()
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target || (!event.Has(fsnotify.Write) && !event.Has(fsnotify.Create)) {
					continue
				}
				time.Sleep(reloadDelay)
				if err := f.Reload(); err != nil {
					f.logger.Warn("Failed to reload settings", zap.String("path", f.path), zap.Error(err))
					continue
				}
				f.logger.Info("Settings reloaded", zap.String("path", f.path))
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				f.logger.Error("Settings watcher error", zap.Error(err))
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func readFile(path string) (Settings, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Settings{}, err
	}
	if info.Size() > MaxFileSize {
		return Settings{}, fmt.Errorf("settings file %s exceeds %d bytes", path, MaxFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}
	return decode(path, data)
}

// decode starts from defaults so omitted keys keep their default values
func decode(path string, data []byte) (Settings, error) {
	s := Default()
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &s)
	case ".yaml", ".yml", ".json", "":
		err = yaml.Unmarshal(data, &s)
	default:
		return Settings{}, fmt.Errorf("unsupported settings format %q", filepath.Ext(path))
	}
	if err != nil {
		return Settings{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return s, nil
}

func encode(path string, s Settings) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Marshal(s)
	case ".yaml", ".yml", "":
		return yaml.Marshal(s)
	default:
		return nil, fmt.Errorf("unsupported settings format %q", filepath.Ext(path))
	}
}
