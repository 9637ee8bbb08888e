package scheduler

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pai-sh/pai/internal/events"
)

// DefaultCooldown is the minimum interval between two triggers of the same entry.
const DefaultCooldown = 60 * time.Second

// TriggerFunc runs a fired schedule entry. trigger describes what fired
// it: "cron", "interval", or "event:<type>".
type TriggerFunc func(entry *ScheduleEntry, trigger string) error

// Config holds dependencies for the scheduler.
type Config struct {
	Bus     *events.Bus
	Store   *ScheduleStore // nil-safe: entries are not persisted without a store
	Trigger TriggerFunc
}

type runtimeEntry struct {
	id          string
	title       string
	project     string
	target      Target
	cron        *CronExpr
	intervalSec int
	onEvent     *EventTrigger
	cooldown    time.Duration
	maxRuns     int
	runCount    int
	enabled     bool
	lastRun     time.Time
}

// Scheduler manages cron-based, interval-based, and event-triggered
// execution of schedule entries.
type Scheduler struct {
	bus     *events.Bus
	store   *ScheduleStore
	trigger TriggerFunc

	mu      sync.Mutex
	entries map[string]*runtimeEntry

	done        chan struct{}
	unsubscribe func()
}

// New creates a new Scheduler.
func New(cfg Config) *Scheduler {
	return &Scheduler{
		bus:     cfg.Bus,
		store:   cfg.Store,
		trigger: cfg.Trigger,
		entries: make(map[string]*runtimeEntry),
		done:    make(chan struct{}),
	}
}

// Start loads persisted entries and begins the cron/interval tickers and
// event subscription.
func (s *Scheduler) Start() {
	s.loadPersistedEntries()

	slog.Info("scheduler started", "entries", len(s.entries))

	if s.bus != nil {
		s.unsubscribe = s.bus.Subscribe(s.handleEvent)
	}
	go s.cronLoop()
	go s.intervalLoop()
}

// Stop halts the scheduler.
func (s *Scheduler) Stop() {
	close(s.done)
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	slog.Info("scheduler stopped")
}

// AddEntry registers a schedule entry at runtime and persists it.
func (s *Scheduler) AddEntry(se *ScheduleEntry) error {
	if se.CronSpec == "" && se.IntervalSec == 0 && se.OnEvent == nil {
		return fmt.Errorf("schedule entry must have cron, interval, or on_event trigger")
	}
	if se.IntervalSec > 0 && se.IntervalSec < 5 {
		return fmt.Errorf("interval must be at least 5 seconds")
	}
	if err := se.Target.Validate(); err != nil {
		return err
	}

	if se.ID == "" {
		se.ID = GenerateScheduleID()
	}

	re, err := toRuntime(se)
	if err != nil {
		return err
	}

	if s.store != nil {
		if err := s.store.Create(se); err != nil {
			return fmt.Errorf("persist schedule: %w", err)
		}
	}

	s.mu.Lock()
	s.entries[se.ID] = re
	s.mu.Unlock()

	slog.Info("scheduler: added entry", "id", se.ID, "title", se.Title, "target", se.Target.Kind)
	return nil
}

// RemoveEntry removes a schedule entry by ID.
func (s *Scheduler) RemoveEntry(id string) error {
	s.mu.Lock()
	_, ok := s.entries[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("schedule entry not found: %s", id)
	}
	delete(s.entries, id)
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Delete(id); err != nil {
			slog.Warn("scheduler: failed to delete persisted entry", "id", id, "error", err)
		}
	}

	slog.Info("scheduler: removed entry", "id", id)
	return nil
}

// GetEntry returns a schedule entry by ID.
func (s *Scheduler) GetEntry(id string) (*ScheduleEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	re, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	return toScheduleEntry(re), true
}

// ListEntries returns a snapshot of all schedule entries.
func (s *Scheduler) ListEntries() []*ScheduleEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*ScheduleEntry, 0, len(s.entries))
	for _, re := range s.entries {
		result = append(result, toScheduleEntry(re))
	}
	return result
}

func toRuntime(se *ScheduleEntry) (*runtimeEntry, error) {
	re := &runtimeEntry{
		id:          se.ID,
		title:       se.Title,
		project:     se.Project,
		target:      se.Target,
		intervalSec: se.IntervalSec,
		onEvent:     se.OnEvent,
		cooldown:    time.Duration(se.CooldownSec) * time.Second,
		maxRuns:     se.MaxRuns,
		runCount:    se.RunCount,
		enabled:     se.Enabled,
	}
	if se.CronSpec != "" {
		expr, err := ParseCron(se.CronSpec)
		if err != nil {
			return nil, err
		}
		re.cron = expr
	}
	if re.cooldown == 0 {
		re.cooldown = DefaultCooldown
	}
	if se.LastRunAt != nil {
		re.lastRun = *se.LastRunAt
	}
	return re, nil
}

func toScheduleEntry(re *runtimeEntry) *ScheduleEntry {
	se := &ScheduleEntry{
		ID:          re.id,
		Title:       re.title,
		Project:     re.project,
		Target:      re.target,
		IntervalSec: re.intervalSec,
		OnEvent:     re.onEvent,
		CooldownSec: int(re.cooldown / time.Second),
		MaxRuns:     re.maxRuns,
		RunCount:    re.runCount,
		Enabled:     re.enabled,
	}
	if re.cron != nil {
		se.CronSpec = re.cron.String()
	}
	if !re.lastRun.IsZero() {
		t := re.lastRun
		se.LastRunAt = &t
	}
	return se
}

func (s *Scheduler) loadPersistedEntries() {
	if s.store == nil {
		return
	}

	entries, err := s.store.List()
	if err != nil {
		slog.Warn("scheduler: failed to load persisted entries", "error", err)
		return
	}

	for _, se := range entries {
		if !se.Enabled {
			continue
		}
		re, err := toRuntime(se)
		if err != nil {
			slog.Warn("scheduler: invalid persisted entry", "id", se.ID, "error", err)
			continue
		}
		s.entries[se.ID] = re
		slog.Info("scheduler: loaded persisted entry", "id", se.ID, "title", se.Title)
	}
}

func (s *Scheduler) cronLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.checkCron(now)
		}
	}
}

func (s *Scheduler) intervalLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.checkIntervals(now)
		}
	}
}

func (s *Scheduler) checkCron(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.entries {
		if entry.cron == nil || !entry.enabled {
			continue
		}
		if !entry.cron.Matches(now) {
			continue
		}
		if now.Sub(entry.lastRun) < entry.cooldown {
			continue
		}

		s.fire(entry, "cron")
	}
}

func (s *Scheduler) checkIntervals(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.entries {
		if entry.intervalSec <= 0 || !entry.enabled {
			continue
		}
		interval := time.Duration(entry.intervalSec) * time.Second
		if now.Sub(entry.lastRun) < interval {
			continue
		}

		s.fire(entry, "interval")
	}
}

func (s *Scheduler) handleEvent(e events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for _, entry := range s.entries {
		if entry.onEvent == nil || !entry.enabled {
			continue
		}
		if !MatchEvent(e, entry.onEvent) {
			continue
		}
		if now.Sub(entry.lastRun) < entry.cooldown {
			continue
		}

		s.fire(entry, "event:"+string(e.Type))
	}
}

// fire runs a schedule entry. Caller must hold s.mu.
func (s *Scheduler) fire(re *runtimeEntry, trigger string) {
	re.lastRun = time.Now()
	re.runCount++

	se := toScheduleEntry(re)

	if s.trigger != nil {
		if err := s.trigger(se, trigger); err != nil {
			slog.Error("scheduler: trigger failed", "id", re.id, "error", err)
		}
	}

	if s.store != nil {
		s.updateStoredEntry(re)
	}

	// Auto-disable at max runs.
	if re.maxRuns > 0 && re.runCount >= re.maxRuns {
		re.enabled = false
		slog.Info("scheduler: entry reached max runs, disabled", "id", re.id, "runs", re.runCount)
		if s.store != nil {
			s.updateStoredEntry(re)
		}
	}

	if s.bus != nil {
		s.bus.Publish(events.NewProjectEvent(events.EventScheduleTrigger, events.SourceScheduler, map[string]any{
			"entry_id": re.id,
			"target":   re.target.Kind + ":" + re.target.Name,
			"trigger":  trigger,
		}, re.project))
	}

	slog.Info("scheduler: triggered", "id", re.id, "trigger", trigger)
}

// updateStoredEntry persists runtime state back to the store. Caller must hold s.mu.
func (s *Scheduler) updateStoredEntry(re *runtimeEntry) {
	if err := s.store.Update(toScheduleEntry(re)); err != nil {
		slog.Warn("scheduler: failed to update persisted entry", "id", re.id, "error", err)
	}
}
