package config

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/leonardotrapani/transcribebridge/internal/logger"
	"github.com/rs/zerolog"
)

// Manager holds the current configuration and reloads it when the file changes.
type Manager struct {
	path string
	log  zerolog.Logger

	mu       sync.RWMutex
	config   *Config
	onChange []func(*Config)

	watcher *fsnotify.Watcher
	wg      sync.WaitGroup
}

// NewManager loads the config at path, or the user config when path is empty.
func NewManager(path string) (*Manager, error) {
	l := logger.For("config")

	var (
		config *Config
		err    error
	)
	if path == "" {
		if path, err = GetConfigPath(); err != nil {
			return nil, err
		}
		config, err = Load()
	} else {
		config, err = LoadFile(path)
	}
	if err != nil {
		l.Error().Err(err).Msg("failed to load initial configuration")
		return nil, err
	}

	if err := config.Validate(); err != nil {
		l.Warn().Err(err).Msg("validation warning")
	}

	return &Manager{path: path, log: l, config: config}, nil
}

// Path returns the file the manager loads from
func (m *Manager) Path() string { return m.path }

func (m *Manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	configCopy := *m.config
	return &configCopy
}

// OnChange registers fn to run with every successfully reloaded config.
func (m *Manager) OnChange(fn func(*Config)) {
	m.mu.Lock()
	m.onChange = append(m.onChange, fn)
	m.mu.Unlock()
}

func (m *Manager) StartWatching(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// watch the directory so editors that replace the file are still seen
	if err := watcher.Add(filepath.Dir(m.path)); err != nil {
		watcher.Close()
		return err
	}
	m.watcher = watcher

	m.wg.Add(1)
	go m.watchLoop(ctx)

	m.log.Info().Str("path", m.path).Msg("watching for changes")
	return nil
}

func (m *Manager) Stop() {
	if m.watcher != nil {
		m.watcher.Close()
	}
	m.wg.Wait()
}

func (m *Manager) watchLoop(ctx context.Context) {
	defer m.wg.Done()
	configFileName := filepath.Base(m.path)

	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != configFileName {
				continue
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				m.log.Debug().Str("file", event.Name).Msg("file change detected, reloading")
				m.reloadConfig()
			}

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.log.Warn().Err(err).Msg("watcher error")

		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) reloadConfig() {
	newConfig, err := LoadFile(m.path)
	if err != nil {
		m.log.Error().Err(err).Msg("failed to reload config")
		return
	}
	if err := newConfig.Validate(); err != nil {
		m.log.Error().Err(err).Msg("invalid config after reload")
		return
	}

	m.mu.Lock()
	m.config = newConfig
	callbacks := append([]func(*Config){}, m.onChange...)
	m.mu.Unlock()

	for _, fn := range callbacks {
		configCopy := *newConfig
		fn(&configCopy)
	}
	m.log.Info().Msg("configuration reloaded")
}
