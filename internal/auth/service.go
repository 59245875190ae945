// Package auth implements optional token authentication for the HTTP API.
//
// fwecd runs in open mode by default: the API is meant for localhost. When a
// token file exists in the config directory, every request must carry the
// token, which matters once the daemon is advertised over mDNS.
package auth

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

const tokenFileName = "token"

// Service gates API access on a shared token loaded from the config
// directory. The token file is watched so rotating it does not require a
// restart.
type Service struct {
	mu        sync.RWMutex
	configDir string
	token     string
	watcher   *fsnotify.Watcher
}

// NewService creates an auth service watching the given config directory.
// A missing token file means open mode.
func NewService(configDir string) (*Service, error) {
	s := &Service{configDir: configDir}

	if err := s.Reload(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("auth: could not create fsnotify watcher", "err", err)
		return s, nil
	}
	s.watcher = watcher

	if err := watcher.Add(configDir); err != nil {
		slog.Warn("auth: could not watch config dir", "err", err)
	}
	go s.watchLoop()

	return s, nil
}

// Close stops the token file watcher.
func (s *Service) Close() {
	if s.watcher != nil {
		s.watcher.Close()
	}
}

func (s *Service) tokenPath() string {
	return filepath.Join(s.configDir, tokenFileName)
}

// Reload reads the token file. An absent file clears the token (open mode).
func (s *Service) Reload() error {
	data, err := os.ReadFile(s.tokenPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.mu.Lock()
			s.token = ""
			s.mu.Unlock()
			return err
		}
		return err
	}

	s.mu.Lock()
	s.token = strings.TrimSpace(string(data))
	s.mu.Unlock()
	return nil
}

// IsOpenMode reports whether no token is configured.
func (s *Service) IsOpenMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token == ""
}

// VerifyToken checks a presented token in constant time.
func (s *Service) VerifyToken(presented string) bool {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()
	if token == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(presented)) == 1
}

func (s *Service) watchLoop() {
	tokenPath := s.tokenPath()
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if event.Name != tokenPath {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) {
				if err := s.Reload(); err != nil && !errors.Is(err, os.ErrNotExist) {
					slog.Warn("auth: failed to reload token", "err", err)
					continue
				}
				slog.Info("auth: token file changed", "open_mode", s.IsOpenMode())
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("auth: watcher error", "err", err)
		}
	}
}
