// Package watch provides the long-running plan monitor: it re-evaluates
// plans when their files change and reports signals that were raised or
// cleared since the previous evaluation.
package watch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/finphase/internal/model"
	"github.com/theirongolddev/finphase/internal/pipeline"
	"github.com/theirongolddev/finphase/internal/signals"
	"github.com/theirongolddev/finphase/internal/source"
	"github.com/theirongolddev/finphase/internal/store"
)

// Event types.
const (
	EventSnapshot       = "snapshot"
	EventSignalsChanged = "signals_changed"
	EventPlanRemoved    = "plan_removed"
)

// Config controls the watch service.
type Config struct {
	PlansDir string
	Options  source.Options
	Engine   *signals.Engine
	UseCache bool
	// CachePath defaults to pipeline.CachePath().
	CachePath string
	// Interval is the fallback rescan period for changes fsnotify misses.
	Interval time.Duration
	// Addr enables the HTTP API when non-empty.
	Addr         string
	EventsBuffer int
	Publisher    Publisher
	Logger       zerolog.Logger
}

// Publisher forwards events to an external system.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Snapshot is a compact portfolio state for status and event payloads.
type Snapshot struct {
	At             time.Time       `json:"at"`
	Plans          int             `json:"plans"`
	Forecast       decimal.Decimal `json:"forecast"`
	ApprovedBudget decimal.Decimal `json:"approved_budget"`
	Critical       int             `json:"critical"`
	Warning        int             `json:"warning"`
	Info           int             `json:"info"`
	Unreconciled   int             `json:"unreconciled"`
	FileErrors     int             `json:"file_errors"`
}

// Event is emitted when a plan's signal set changes.
type Event struct {
	ID        int64          `json:"id"`
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	PlanID    string         `json:"plan_id,omitempty"`
	Raised    []model.Signal `json:"raised,omitempty"`
	Cleared   []model.Signal `json:"cleared,omitempty"`
	Snapshot  Snapshot       `json:"snapshot"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollCount       int64     `json:"poll_count"`
	PlansDir        string    `json:"plans_dir"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service watches a plans directory and keeps the latest evaluation.
type Service struct {
	cfg Config
	log zerolog.Logger
	now func() time.Time

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	signals     map[string][]model.Signal
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a watch service with the provided config.
func New(cfg Config) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = time.Minute
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.CachePath == "" {
		cfg.CachePath = pipeline.CachePath()
	}
	if cfg.Engine == nil {
		cfg.Engine = signals.NewEngine(signals.DefaultConfig(), nil)
	}

	return &Service{
		cfg:       cfg,
		log:       cfg.Logger.With().Str("component", "watch").Logger(),
		now:       time.Now,
		startedAt: time.Now(),
		signals:   make(map[string][]model.Signal),
		subs:      make(map[int]chan Event),
	}
}

// Run watches for changes until ctx is canceled. The HTTP API is served
// when Config.Addr is set.
func (s *Service) Run(ctx context.Context) error {
	w, err := NewWatcher(s.cfg.PlansDir)
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.Start(); err != nil {
		return fmt.Errorf("watching %s: %w", s.cfg.PlansDir, err)
	}
	defer w.Stop()

	errCh := make(chan error, 1)
	var server *http.Server
	if s.cfg.Addr != "" {
		server = &http.Server{
			Addr:              s.cfg.Addr,
			Handler:           s.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if server == nil {
				return nil
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case path, ok := <-w.Changes:
			if !ok {
				return nil
			}
			s.log.Debug().Str("file", path).Msg("plan file changed")
			s.drain(w.Changes)
			s.pollOnce(ctx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("watch http server: %w", err)
		}
	}
}

// drain discards queued change notifications; one poll covers them all.
func (s *Service) drain(ch <-chan string) {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

func (s *Service) pollOnce(ctx context.Context) {
	res, err := s.load()
	if err == nil {
		var pf pipeline.Portfolio
		pf, err = pipeline.AggregatePortfolio(ctx, res.Plans, s.cfg.Engine)
		if err == nil {
			s.apply(ctx, pf, len(res.FileErrors))
			return
		}
	}

	s.mu.Lock()
	s.lastError = err.Error()
	s.lastPollAt = s.now()
	s.pollCount++
	s.mu.Unlock()
	s.log.Error().Err(err).Msg("poll failed")
}

func (s *Service) load() (*pipeline.LoadResult, error) {
	if s.cfg.UseCache {
		st, err := store.Open(s.cfg.CachePath)
		if err == nil {
			defer func() { _ = st.Close() }()
			cr, loadErr := pipeline.LoadWithCache(s.cfg.PlansDir, s.cfg.Options, st, nil)
			if loadErr == nil {
				return &cr.LoadResult, nil
			}
			s.log.Warn().Err(loadErr).Msg("cached load failed, reparsing")
		}
	}
	return pipeline.Load(s.cfg.PlansDir, s.cfg.Options, nil)
}

// apply records a new evaluation and emits events for every plan whose
// signal set changed.
func (s *Service) apply(ctx context.Context, pf pipeline.Portfolio, fileErrors int) {
	now := s.now()
	snap := snapshotFromPortfolio(pf, fileErrors, now)

	current := make(map[string][]model.Signal, len(pf.Reports))
	for _, r := range pf.Reports {
		current[r.PlanID] = r.Signals
	}

	var pending []Event
	s.mu.Lock()
	prev := s.signals
	first := !s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.signals = current
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	if first {
		pending = append(pending, Event{Type: EventSnapshot})
	} else {
		for _, id := range sortedKeys(current) {
			raised, cleared := DiffSignals(prev[id], current[id])
			if len(raised) > 0 || len(cleared) > 0 {
				pending = append(pending, Event{Type: EventSignalsChanged, PlanID: id, Raised: raised, Cleared: cleared})
			}
		}
		for _, id := range sortedKeys(prev) {
			if _, ok := current[id]; !ok {
				pending = append(pending, Event{Type: EventPlanRemoved, PlanID: id, Cleared: prev[id]})
			}
		}
	}
	for i := range pending {
		s.nextEventID++
		pending[i].ID = s.nextEventID
		pending[i].Timestamp = now
		pending[i].Snapshot = snap
	}
	s.mu.Unlock()

	for _, ev := range pending {
		s.publishEvent(ctx, ev)
	}
}

func sortedKeys(m map[string][]model.Signal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func snapshotFromPortfolio(pf pipeline.Portfolio, fileErrors int, at time.Time) Snapshot {
	return Snapshot{
		At:             at,
		Plans:          pf.PlanCount,
		Forecast:       pf.Forecast(),
		ApprovedBudget: pf.ApprovedBudget,
		Critical:       pf.Signals[model.SeverityCritical],
		Warning:        pf.Signals[model.SeverityWarning],
		Info:           pf.Signals[model.SeverityInfo],
		Unreconciled:   pf.Unreconciled,
		FileErrors:     fileErrors,
	}
}

// DiffSignals compares two evaluations of the same plan. A signal is raised
// when its key is new or its severity changed, and cleared when its key is
// gone.
func DiffSignals(prev, curr []model.Signal) (raised, cleared []model.Signal) {
	before := make(map[string]model.Severity, len(prev))
	for _, sig := range prev {
		before[sig.Key()] = sig.Severity
	}
	after := make(map[string]struct{}, len(curr))
	for _, sig := range curr {
		after[sig.Key()] = struct{}{}
		if sev, ok := before[sig.Key()]; !ok || sev != sig.Severity {
			raised = append(raised, sig)
		}
	}
	for _, sig := range prev {
		if _, ok := after[sig.Key()]; !ok {
			cleared = append(cleared, sig)
		}
	}
	return raised, cleared
}

func (s *Service) publishEvent(ctx context.Context, ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()

	s.log.Info().
		Str("type", ev.Type).
		Str("plan", ev.PlanID).
		Int("raised", len(ev.Raised)).
		Int("cleared", len(ev.Cleared)).
		Msg("event")

	// Publishing failures never stop the watcher.
	if s.cfg.Publisher != nil {
		if err := s.cfg.Publisher.Publish(ctx, ev); err != nil {
			s.log.Warn().Err(err).Int64("event_id", ev.ID).Msg("publish failed")
		}
	}
}

// Events returns a copy of the retained events.
func (s *Service) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Signals returns the latest signals for a plan.
func (s *Service) Signals(planID string) []model.Signal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Signal(nil), s.signals[planID]...)
}

// Status returns the current service status.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollCount:       s.pollCount,
		PlansDir:        s.cfg.PlansDir,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/signals", s.handleSignals)
	mux.HandleFunc("/v1/stream", s.handleStream)
	return mux
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.Status())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.Events())
}

func (s *Service) handleSignals(w http.ResponseWriter, r *http.Request) {
	planID := r.URL.Query().Get("plan")
	if planID == "" {
		http.Error(w, "missing plan parameter", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.Signals(planID))
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	writeSSE(w, Event{
		Type:      EventSnapshot,
		Timestamp: s.now(),
		Snapshot:  s.Status().Summary,
	})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
