// Package monitor periodically writes a JSON status file for operators.
package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ethria/headlamp/internal/light"
)

// StatusSource reports the engine state.
type StatusSource interface {
	Status() light.Status
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Engine     StatusSource
	Pending    func() int // queued journal rows, optional
	SessionKey string
	StatusFile string
	Interval   time.Duration
	Logger     *slog.Logger
	Now        func() time.Time
}

// Status is one snapshot written to the status file.
type Status struct {
	Time           time.Time    `json:"time"`
	Session        string       `json:"session,omitempty"`
	Engine         light.Status `json:"engine"`
	JournalPending int          `json:"journalPending"`
	Uptime         string       `json:"uptime"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	started   time.Time
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Interval <= 0 {
		deps.Interval = 10 * time.Second
	}
	return &Service{
		deps:     deps,
		started:  deps.Now(),
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetStatus returns the current status. The engine is only read through
// the tracker's and registry's own locks.
func (s *Service) GetStatus() Status {
	now := s.deps.Now()
	st := Status{
		Time:    now,
		Session: s.deps.SessionKey,
		Uptime:  now.Sub(s.started).Truncate(time.Second).String(),
	}
	if s.deps.Engine != nil {
		st.Engine = s.deps.Engine.Status()
	}
	if s.deps.Pending != nil {
		st.JournalPending = s.deps.Pending()
	}
	return st
}

// WriteStatus writes one snapshot to the status file.
func (s *Service) WriteStatus() error {
	data, err := json.MarshalIndent(s.GetStatus(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding status: %w", err)
	}

	if dir := filepath.Dir(s.deps.StatusFile); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating status directory: %w", err)
		}
	}

	// write then rename so readers never see a half-written file
	tmp := s.deps.StatusFile + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing status file: %w", err)
	}
	return os.Rename(tmp, s.deps.StatusFile)
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	if s.deps.StatusFile == "" {
		return fmt.Errorf("monitor: status file not configured")
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		s.deps.Logger.Debug("Starting status monitor", "file", s.deps.StatusFile, "interval", s.deps.Interval)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			if err := s.WriteStatus(); err != nil {
				s.deps.Logger.Error("Error writing status file", "error", err)
			}
			select {
			case <-stop:
				return
			case <-ticker.C:
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and waits for the goroutine to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()

	<-done
}
