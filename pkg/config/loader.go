package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Loader reads the configuration file and can watch it for changes in serve
// mode. When a reload fails, the previous configuration is retained.
type Loader struct {
	path     string
	watcher  *fsnotify.Watcher
	current  *Config
	mu       sync.RWMutex
	onChange func(*Config)
	close    chan struct{}
}

// NewLoader creates a Loader for the given path.
func NewLoader(path string) (*Loader, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	return &Loader{
		path:  absPath,
		close: make(chan struct{}),
	}, nil
}

// Load reads the file, expands environment variables, parses the YAML, and
// applies defaults. The loaded config becomes Current only when every step
// succeeds.
func (l *Loader) Load() (*Config, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("parse config YAML: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	l.mu.Lock()
	l.current = &cfg
	l.mu.Unlock()

	return &cfg, nil
}

// Watch starts monitoring the config file and invokes onChange with each
// successfully reloaded configuration. Editors save atomically via
// rename, so the parent directory is watched rather than the file itself.
func (l *Loader) Watch(onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	l.watcher = watcher
	l.onChange = onChange

	go l.watchLoop()

	if err := l.watcher.Add(filepath.Dir(l.path)); err != nil {
		l.watcher.Close()
		return fmt.Errorf("watch config directory: %w", err)
	}
	return nil
}

func (l *Loader) watchLoop() {
	for {
		select {
		case <-l.close:
			return
		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != l.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				// A failed Load leaves Current untouched.
				if cfg, err := l.Load(); err == nil && l.onChange != nil {
					l.onChange(cfg)
				}
			}
		case _, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// Current returns the most recently loaded configuration.
func (l *Loader) Current() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Close stops the watcher.
func (l *Loader) Close() error {
	close(l.close)
	if l.watcher != nil {
		return l.watcher.Close()
	}
	return nil
}
