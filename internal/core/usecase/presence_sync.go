package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/attendee-presence/internal/core/domain"
	"github.com/kirillkom/attendee-presence/internal/core/ports"
)

const DefaultSyncTimeout = 10 * time.Second

type PresenceSyncOptions struct {
	EventID string
	Timeout time.Duration
	// Signal is optional. Without it only observers in this process converge.
	Signal ports.PresenceSignal
	Logger *slog.Logger
}

// PresenceSync is one viewer's read-through, write-through copy of the
// authoritative presence records for an event.
//
// Consistency across viewers is best effort: a viewer that is not listening
// when another viewer publishes a change stays stale until its next Refresh.
type PresenceSync struct {
	remote   ports.StatusService
	signal   ports.PresenceSignal
	eventID  string
	timeout  time.Duration
	viewerID string
	logger   *slog.Logger

	mu      sync.RWMutex
	records map[string]domain.PresenceRecord
	loaded  bool

	obsMu     sync.Mutex
	observers []observerEntry
	nextObsID int
}

type observerEntry struct {
	id int
	fn ports.PresenceObserver
}

func NewPresenceSync(remote ports.StatusService, opts PresenceSyncOptions) *PresenceSync {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultSyncTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PresenceSync{
		remote:   remote,
		signal:   opts.Signal,
		eventID:  strings.TrimSpace(opts.EventID),
		timeout:  timeout,
		viewerID: uuid.NewString(),
		logger:   logger,
		records:  make(map[string]domain.PresenceRecord),
	}
}

func (s *PresenceSync) ViewerID() string {
	return s.viewerID
}

// Refresh replaces the cache with the store's current records and notifies
// observers of every record that is new or differs from the cached one, in
// attendee id order. On failure the cache is left as it was.
func (s *PresenceSync) Refresh(ctx context.Context) error {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	records, err := s.remote.List(callCtx, s.eventID)
	if err != nil {
		return domain.WrapError(domain.ErrSyncFailed, "refresh presence", err)
	}

	next := make(map[string]domain.PresenceRecord, len(records))
	for _, rec := range records {
		next[rec.AttendeeID] = rec
	}

	s.mu.Lock()
	changed := make([]domain.PresenceRecord, 0, len(next))
	for id, rec := range next {
		if prev, ok := s.records[id]; !ok || !samePresence(prev, rec) {
			changed = append(changed, rec)
		}
	}
	s.records = next
	s.loaded = true
	s.mu.Unlock()

	sort.Slice(changed, func(i, j int) bool { return changed[i].AttendeeID < changed[j].AttendeeID })
	for _, rec := range changed {
		s.notify(rec)
	}
	return nil
}

// Loaded reports whether at least one Refresh succeeded.
func (s *PresenceSync) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// GetByID reads the cache only.
func (s *PresenceSync) GetByID(attendeeID string) (domain.PresenceRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[attendeeID]
	return rec, ok
}

// All returns the cached records ordered by attendee id.
func (s *PresenceSync) All() []domain.PresenceRecord {
	s.mu.RLock()
	out := make([]domain.PresenceRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].AttendeeID < out[j].AttendeeID })
	return out
}

// Subscribe registers fn for every applied change and returns a func that
// removes it. Observers run synchronously, in subscription order.
func (s *PresenceSync) Subscribe(fn ports.PresenceObserver) func() {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()

	s.nextObsID++
	id := s.nextObsID
	s.observers = append(s.observers, observerEntry{id: id, fn: fn})

	return func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		for i, entry := range s.observers {
			if entry.id == id {
				s.observers = append(s.observers[:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

// UpdateStatus writes through to the store and, only after it confirmed,
// replaces the cached record with the confirmed one and notifies local
// observers. A confirmed record for another event is returned and published
// but never enters this viewer's cache. An empty eventID uses the viewer's
// event.
func (s *PresenceSync) UpdateStatus(
	ctx context.Context,
	attendeeID string,
	status domain.PresenceStatus,
	eventID string,
) (domain.PresenceRecord, error) {
	if strings.TrimSpace(eventID) == "" {
		eventID = s.eventID
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	confirmed, err := s.remote.Update(callCtx, attendeeID, status, eventID)
	cancel()
	if err != nil {
		return domain.PresenceRecord{}, domain.WrapError(
			domain.ErrSyncFailed,
			fmt.Sprintf("update presence attendee=%s", attendeeID),
			err,
		)
	}

	if s.ownsEvent(confirmed) && s.apply(confirmed) {
		s.notify(confirmed)
	}

	if s.signal != nil {
		change := domain.PresenceChange{ViewerID: s.viewerID, Record: confirmed}
		if err := s.signal.PublishPresenceChanged(ctx, change); err != nil {
			s.logger.Warn("presence_signal_publish_failed", "attendee_id", attendeeID, "error", err)
		}
	}
	return confirmed, nil
}

// Listen applies changes published by other viewers until ctx is done.
// It returns nil immediately when no signal is configured.
func (s *PresenceSync) Listen(ctx context.Context) error {
	if s.signal == nil {
		return nil
	}
	err := s.signal.SubscribePresenceChanged(ctx, func(_ context.Context, change domain.PresenceChange) error {
		s.HandleSignal(change)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("listen presence signals: %w", err)
	}
	return nil
}

// HandleSignal applies one change raised by another viewer.
func (s *PresenceSync) HandleSignal(change domain.PresenceChange) {
	if change.ViewerID == s.viewerID {
		return
	}
	if !s.ownsEvent(change.Record) {
		return
	}
	if s.apply(change.Record) {
		s.notify(change.Record)
	}
}

func (s *PresenceSync) ownsEvent(rec domain.PresenceRecord) bool {
	return s.eventID == "" || rec.EventID == "" || rec.EventID == s.eventID
}

func samePresence(a, b domain.PresenceRecord) bool {
	if a.Status != b.Status || !a.LastUpdated.Equal(b.LastUpdated) || a.DisplayName != b.DisplayName {
		return false
	}
	if a.CheckedInAt == nil || b.CheckedInAt == nil {
		return a.CheckedInAt == nil && b.CheckedInAt == nil
	}
	return a.CheckedInAt.Equal(*b.CheckedInAt)
}

// apply stores rec unless the cache already holds a strictly newer record
// for the same attendee.
func (s *PresenceSync) apply(rec domain.PresenceRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.records[rec.AttendeeID]; ok && !rec.NewerThan(current) {
		return false
	}
	s.records[rec.AttendeeID] = rec
	return true
}

func (s *PresenceSync) notify(rec domain.PresenceRecord) {
	s.obsMu.Lock()
	observers := make([]ports.PresenceObserver, 0, len(s.observers))
	for _, entry := range s.observers {
		observers = append(observers, entry.fn)
	}
	s.obsMu.Unlock()

	for _, fn := range observers {
		fn(rec)
	}
}
