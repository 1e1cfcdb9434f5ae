package connectivity

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ReadStatusFile returns the status recorded at path. A missing file means
// Online: without a host telling us otherwise we try the network.
func ReadStatusFile(path string) (Status, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Online, nil
	}
	if err != nil {
		return Offline, fmt.Errorf("failed to read status file %s: %w", path, err)
	}

	s, ok := ParseStatus(strings.TrimSpace(strings.ToLower(string(data))))
	if !ok {
		return Offline, fmt.Errorf("unrecognized status %q in %s", strings.TrimSpace(string(data)), path)
	}
	return s, nil
}

// WriteStatusFile records status at path, replacing the file atomically so a
// watcher never reads a half-written value.
func WriteStatusFile(path string, status Status) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create status directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(status.String()+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write status file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace status file: %w", err)
	}
	return nil
}

// FileSource feeds a Monitor from a status file that the host (or
// `planner net`) rewrites on network changes. It watches the containing
// directory with fsnotify so atomic replacements are seen.
type FileSource struct {
	path    string
	monitor *Monitor
	logger  *log.Logger

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewFileSource creates a FileSource for path. It does nothing until Start.
func NewFileSource(path string, monitor *Monitor, logger *log.Logger) (*FileSource, error) {
	if path == "" {
		return nil, fmt.Errorf("status file path cannot be empty")
	}
	if monitor == nil {
		return nil, fmt.Errorf("monitor cannot be nil")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileSource{
		path:    path,
		monitor: monitor,
		logger:  logger,
		watcher: watcher,
		done:    make(chan struct{}),
	}, nil
}

// Start applies the current file content to the monitor and begins watching.
func (s *FileSource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("file source already running")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create status directory: %w", err)
	}
	if err := s.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	s.apply()

	s.running = true
	s.wg.Add(1)
	go s.processEvents()

	return nil
}

// Stop stops watching and waits for the event goroutine to exit.
func (s *FileSource) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return s.watcher.Close()
	}
	s.running = false
	s.mu.Unlock()

	close(s.done)

	if err := s.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	s.wg.Wait()
	return nil
}

func (s *FileSource) processEvents() {
	defer s.wg.Done()

	target := filepath.Clean(s.path)

	for {
		select {
		case <-s.done:
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			s.apply()

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Printf("Watcher error: %v", err)
		}
	}
}

// apply reads the file and forwards its status. Unreadable content leaves the
// monitor unchanged.
func (s *FileSource) apply() {
	status, err := ReadStatusFile(s.path)
	if err != nil {
		s.logger.Printf("Warning: %v", err)
		return
	}
	if s.monitor.Set(status) {
		s.logger.Printf("Connectivity changed: %s", status)
	}
}
