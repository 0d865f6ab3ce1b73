package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileSinkConfig configures the file sink.
type FileSinkConfig struct {
	// BasePath is the directory audit files are written under.
	BasePath string
	// MaxSize is the file size in bytes that triggers rotation.
	MaxSize int64
	// MaxFiles is the number of rotated files to keep.
	MaxFiles int
}

// DefaultFileSinkConfig returns the production defaults.
func DefaultFileSinkConfig() FileSinkConfig {
	return FileSinkConfig{
		BasePath: "/var/log/fleetgate/audit",
		MaxSize:  100 * 1024 * 1024,
		MaxFiles: 10,
	}
}

// FileSink appends audit events as JSON lines to audit.log under the
// configured directory, rotating by size.
type FileSink struct {
	config  FileSinkConfig
	mu      sync.Mutex
	file    *os.File
	encoder *json.Encoder
	size    int64
}

// NewFileSink opens or creates the audit log file.
func NewFileSink(config FileSinkConfig) (*FileSink, error) {
	if config.MaxSize == 0 {
		config.MaxSize = 100 * 1024 * 1024
	}
	if config.MaxFiles == 0 {
		config.MaxFiles = 10
	}

	if err := os.MkdirAll(config.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}

	s := &FileSink{config: config}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileSink) path() string {
	return filepath.Join(s.config.BasePath, "audit.log")
}

func (s *FileSink) open() error {
	file, err := os.OpenFile(s.path(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to stat audit log: %w", err)
	}

	s.file = file
	s.encoder = json.NewEncoder(file)
	s.size = info.Size()
	return nil
}

// Record appends the event as one JSON line. Write failures are silently
// dropped; audit must not fail the request path.
func (s *FileSink) Record(_ context.Context, event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.size >= s.config.MaxSize {
		if err := s.rotate(); err != nil {
			return
		}
	}

	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	n, err := s.file.Write(append(data, '\n'))
	if err != nil {
		return
	}
	s.size += int64(n)
}

// rotate shifts audit.log to audit.log.1, audit.log.1 to audit.log.2, and
// so on, discarding the oldest file.
func (s *FileSink) rotate() error {
	s.file.Close()

	oldest := fmt.Sprintf("%s.%d", s.path(), s.config.MaxFiles-1)
	os.Remove(oldest)

	for i := s.config.MaxFiles - 2; i >= 1; i-- {
		os.Rename(fmt.Sprintf("%s.%d", s.path(), i), fmt.Sprintf("%s.%d", s.path(), i+1))
	}
	os.Rename(s.path(), s.path()+".1")

	return s.open()
}

// Close flushes and closes the underlying file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
