// Package light keeps per-actor light markers in sync with the headgear each
// actor wears. A periodic reconciliation pass is the only thing that places
// markers; event handlers and lifecycle hooks only ever remove them.
package light

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethria/headlamp/internal/registry"
	"github.com/ethria/headlamp/internal/tracker"
	"github.com/ethria/headlamp/pkg/core"
	"github.com/ethria/headlamp/pkg/host"
)

// ErrSchedulerUnavailable is returned by Start when the host refuses the repeating task.
var ErrSchedulerUnavailable = errors.New("scheduler unavailable")

// Journal receives every marker mutation. Implementations must not block.
type Journal interface {
	RecordMarkerEvent(e *core.MarkerEvent) error
}

// PassRecorder receives statistics after each reconciliation pass.
type PassRecorder interface {
	RecordPass(stats PassStats)
}

// PassStats summarises one reconciliation pass.
type PassStats struct {
	Time      time.Time
	Actors    int
	Placed    int
	Cleared   int
	Untracked int
	Failures  int
	Tracked   int
	Duration  time.Duration
}

// Dependencies holds everything the engine is built from.
type Dependencies struct {
	Host     host.Host
	Registry *registry.Registry
	Tracker  *tracker.Tracker
	Logger   *slog.Logger
	Journal  Journal      // optional
	Recorder PassRecorder // optional
	Now      func() time.Time
}

// Engine owns the reconciliation task and the marker algorithms.
type Engine struct {
	host     host.Host
	registry *registry.Registry
	tracker  *tracker.Tracker
	logger   *slog.Logger
	journal  Journal
	recorder PassRecorder
	now      func() time.Time
	ins      *instruments

	running atomic.Bool

	mu       sync.Mutex
	settings Settings
	task     host.Task
}

// New creates a stopped engine.
func New(deps Dependencies, settings Settings) (*Engine, error) {
	if deps.Host == nil || deps.Registry == nil || deps.Tracker == nil {
		return nil, errors.New("light: host, registry and tracker are required")
	}

	e := &Engine{
		host:     deps.Host,
		registry: deps.Registry,
		tracker:  deps.Tracker,
		logger:   deps.Logger,
		journal:  deps.Journal,
		recorder: deps.Recorder,
		now:      deps.Now,
		settings: settings,
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.now == nil {
		e.now = time.Now
	}

	ins, err := newInstruments(e.tracker.MarkerCount)
	if err != nil {
		return nil, err
	}
	e.ins = ins

	return e, nil
}

// Settings returns the active settings.
func (e *Engine) Settings() Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// Running reports whether the reconciliation task is scheduled. It does not
// take the engine lock, so it is safe to call from log handlers.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// TrackedMarkers returns the number of markers tracked across all actors.
func (e *Engine) TrackedMarkers() int {
	return e.tracker.MarkerCount()
}

// Status is a point-in-time view of the engine.
type Status struct {
	Running      bool `json:"running"`
	Markers      int  `json:"markers"`
	Actors       int  `json:"actors"`
	GlowingItems int  `json:"glowingItems"`
}

// Status reads the tracker and registry under their own locks.
func (e *Engine) Status() Status {
	return Status{
		Running:      e.Running(),
		Markers:      e.tracker.MarkerCount(),
		Actors:       len(e.tracker.Actors()),
		GlowingItems: e.registry.Len(),
	}
}

// Start schedules the reconciliation pass every UpdateInterval ticks, first
// run on the next tick. Starting a running engine restarts the task.
func (e *Engine) Start() error {
	e.mu.Lock()
	interval, err := e.startLocked()
	e.mu.Unlock()
	if err != nil {
		return err
	}

	e.logger.Info("Light reconciliation started", "interval", interval)
	return nil
}

// startLocked must be called with e.mu held. It does not log.
func (e *Engine) startLocked() (uint64, error) {
	if e.task != nil {
		e.task.Cancel()
		e.task = nil
		e.running.Store(false)
	}

	interval := e.settings.interval()
	task, err := e.host.RunTimer(0, interval, e.tick)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSchedulerUnavailable, err)
	}
	e.task = task
	e.running.Store(true)
	return interval, nil
}

// Stop cancels future passes. Already scheduled fast-path checks still run.
func (e *Engine) Stop() {
	e.mu.Lock()
	stopped := e.task != nil
	if stopped {
		e.task.Cancel()
		e.task = nil
		e.running.Store(false)
	}
	e.mu.Unlock()

	if stopped {
		e.logger.Info("Light reconciliation stopped")
	}
}

// Reload replaces the registry entries and settings. A running engine is
// restarted when the update interval changed.
func (e *Engine) Reload(settings Settings, glowingItems map[string]any) (registry.LoadResult, error) {
	res := e.registry.Load(glowingItems)

	e.mu.Lock()
	changed := settings.interval() != e.settings.interval()
	e.settings = settings
	var err error
	restarted := changed && e.task != nil
	if restarted {
		_, err = e.startLocked()
	}
	e.mu.Unlock()

	e.logger.Info("Light settings reloaded",
		"glowingItems", res.Loaded,
		"skipped", res.Skipped,
		"radius", settings.RemovalRadius,
		"interval", settings.interval(),
		"maxMarkers", settings.MaxMarkersPerActor,
		"restarted", restarted,
	)
	return res, err
}

// Shutdown stops the engine and removes every tracked marker from the world.
func (e *Engine) Shutdown() error {
	e.Stop()

	var errs []error
	for id, locs := range e.tracker.PurgeAll() {
		if err := e.clearPurged(id, locs, core.ReasonShutdown, nil); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) tick() {
	e.Reconcile()
}

// Reconcile runs one pass over every connected actor. A failure on one actor
// is logged and does not stop the others.
func (e *Engine) Reconcile() PassStats {
	start := e.now()
	s := e.Settings()

	stats := PassStats{Time: start}
	for _, snap := range e.host.OnlineActors() {
		stats.Actors++
		if err := e.isolate(snap.ID, func() error { return e.reconcileActor(snap, s, &stats) }); err != nil {
			stats.Failures++
			e.ins.failures.Add(context.Background(), 1)
			e.logger.Error("Failed to update light for actor", "actor", snap.ID, "name", snap.Name, "error", err)
		}
	}

	stats.Tracked = e.tracker.MarkerCount()
	stats.Duration = e.now().Sub(start)
	e.ins.duration.Record(context.Background(), float64(stats.Duration.Microseconds())/1000)

	if e.recorder != nil {
		e.recorder.RecordPass(stats)
	}
	return stats
}

// isolate runs fn and converts a panic into an error.
func (e *Engine) isolate(id core.ActorID, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic processing actor %s: %v", id, r)
		}
	}()
	return fn()
}

func (e *Engine) reconcileActor(snap core.ActorSnapshot, s Settings, stats *PassStats) error {
	id := snap.ID
	desired := DesiredLocation(snap.Position, s.VerticalOffset)

	var errs []error

	if level, ok := e.registry.Lookup(snap.Headgear); ok {
		if err := e.place(id, desired, level, s, stats); err != nil {
			errs = append(errs, fmt.Errorf("placing at %s: %w", desired, err))
		}
	} else if s.RemoveAllOnUnequip && e.tracker.MarkerLen(id) > 0 {
		for _, loc := range e.tracker.Markers(id) {
			if err := e.clear(id, loc, core.ReasonUnequip, stats); err != nil {
				errs = append(errs, err)
			}
		}
	}

	// eviction runs before trim so trim sees the already shrunk set
	for _, loc := range Distant(e.tracker.Markers(id), desired, s.RemovalRadius) {
		if err := e.clear(id, loc, core.ReasonDistance, stats); err != nil {
			errs = append(errs, err)
		}
	}
	for _, loc := range Overflow(e.tracker.Markers(id), s.MaxMarkersPerActor) {
		if err := e.clear(id, loc, core.ReasonCapacity, stats); err != nil {
			errs = append(errs, err)
		}
	}

	e.tracker.RecordObservation(id, snap.Headgear, snap.Position.Key())
	return errors.Join(errs...)
}

// place writes a light at loc when the cell is free or already a light,
// and tracks it once the world holds it.
func (e *Engine) place(id core.ActorID, loc core.Location, level core.Level, s Settings, stats *PassStats) error {
	if s.MaxMarkersPerActor <= 0 {
		return nil
	}

	cell, err := e.host.Cell(loc)
	if err != nil {
		return err
	}
	if !Placeable(cell) {
		return nil
	}

	if cell.Occupant != core.OccupantLight || cell.Level != level {
		if err := e.host.SetCell(loc, core.Cell{Occupant: core.OccupantLight, Level: level}); err != nil {
			return err
		}
		if stats != nil {
			stats.Placed++
		}
		e.ins.placed.Add(context.Background(), 1)
	}

	if e.tracker.Track(id, loc) {
		e.record(id, loc, level, core.MarkerPlaced, core.ReasonPlacement)
	}
	return nil
}

// clear reverts loc to empty if it still holds a light, then untracks it.
// The location is untracked even when the host fails, so the bound holds.
func (e *Engine) clear(id core.ActorID, loc core.Location, reason string, stats *PassStats) error {
	defer e.tracker.Untrack(id, loc)
	return e.revert(id, loc, reason, stats)
}

func (e *Engine) clearPurged(id core.ActorID, locs []core.Location, reason string, stats *PassStats) error {
	var errs []error
	for _, loc := range locs {
		if err := e.revert(id, loc, reason, stats); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) revert(id core.ActorID, loc core.Location, reason string, stats *PassStats) error {
	cell, err := e.host.Cell(loc)
	if err != nil {
		return fmt.Errorf("reading %s: %w", loc, err)
	}

	e.ins.markerCleared(reason)

	if cell.Occupant != core.OccupantLight {
		if stats != nil {
			stats.Untracked++
		}
		e.record(id, loc, 0, core.MarkerUntracked, reason)
		return nil
	}

	if err := e.host.SetCell(loc, core.Cell{Occupant: core.OccupantEmpty}); err != nil {
		return fmt.Errorf("clearing %s: %w", loc, err)
	}
	if stats != nil {
		stats.Cleared++
	}
	e.record(id, loc, cell.Level, core.MarkerCleared, reason)
	return nil
}

func (e *Engine) record(id core.ActorID, loc core.Location, level core.Level, kind core.MarkerEventKind, reason string) {
	if e.journal == nil {
		return
	}
	err := e.journal.RecordMarkerEvent(&core.MarkerEvent{
		Time:     e.now(),
		Actor:    id,
		Location: loc,
		Level:    level,
		Kind:     kind,
		Reason:   reason,
	})
	if err != nil {
		e.logger.Warn("Failed to journal marker event", "actor", id, "location", loc.String(), "error", err)
	}
}
