package core

import (
	stderrors "errors"
	"fmt"
	"os"
	"sync"

	"github.com/Fuabioo/gitdl/internal/logging"
)

// CleanupManager tracks per-run artifacts and removes them in LIFO order.
type CleanupManager struct {
	mu    sync.Mutex
	funcs []cleanupFunc
	log   *logging.Logger
}

type cleanupFunc struct {
	name string
	fn   func() error
}

// NewCleanupManager creates a new cleanup manager. A nil log discards output.
func NewCleanupManager(log *logging.Logger) *CleanupManager {
	if log == nil {
		log = logging.Nop()
	}
	return &CleanupManager{log: log}
}

// Add registers a cleanup function. Functions are executed in LIFO order
// (last added, first executed).
func (m *CleanupManager) Add(name string, fn func() error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.funcs = append([]cleanupFunc{{name, fn}}, m.funcs...)
}

// Execute runs all registered functions, continuing past failures, and
// returns the failures joined. Functions run at most once.
func (m *CleanupManager) Execute() error {
	m.mu.Lock()
	funcs := m.funcs
	m.funcs = nil
	m.mu.Unlock()

	var errs []error
	for _, cleanup := range funcs {
		if err := cleanup.fn(); err != nil {
			m.log.Warn().Err(err).Str("step", cleanup.name).Msg("cleanup failed")
			errs = append(errs, fmt.Errorf("%s: %w", cleanup.name, err))
			continue
		}
		m.log.Debug().Str("step", cleanup.name).Msg("cleanup done")
	}
	return stderrors.Join(errs...)
}

// RemovePath deletes path and, for directories, everything beneath it,
// children before parents. A missing path is not an error; removed reports
// whether anything was there.
func RemovePath(path string) (removed bool, err error) {
	if _, err := os.Lstat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := os.RemoveAll(path); err != nil {
		return true, err
	}
	return true, nil
}
