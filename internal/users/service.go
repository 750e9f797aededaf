// Package users owns the shared per-chat map and serializes every mutation
// behind one lock before persisting it. Writes to the store happen after the
// lock is released and are ordered per chat by a version stamp.
package users

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/m3rciful/weatherbot/core/logger"
	"github.com/m3rciful/weatherbot/internal/domain"
	"github.com/m3rciful/weatherbot/internal/store"
)

// Stats summarizes the loaded user base.
type Stats struct {
	Users        int `json:"users"`
	WithHomeTown int `json:"with_home_town"`
	Alerts       int `json:"alerts"`
	ActiveAlerts int `json:"active_alerts"`
}

// Service is the single owner of in-memory UserData.
type Service struct {
	mu       sync.Mutex
	users    map[int64]domain.UserData
	versions map[int64]uint64
	writers  map[int64]*writer
	store    store.Store
}

// writer orders store writes for one chat; written is the last version sent.
type writer struct {
	mu      sync.Mutex
	written uint64
}

func NewService(st store.Store) *Service {
	return &Service{
		users:    make(map[int64]domain.UserData),
		versions: make(map[int64]uint64),
		writers:  make(map[int64]*writer),
		store:    st,
	}
}

// Load replaces the in-memory map with the store's contents.
func (s *Service) Load(ctx context.Context) (int, error) {
	all, err := s.store.LoadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("load users: %w", err)
	}
	s.mu.Lock()
	s.users = all
	s.mu.Unlock()
	return len(all), nil
}

// Get returns a copy of the chat's record, or a fresh one when unknown.
func (s *Service) Get(chatID int64) domain.UserData {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[chatID]; ok {
		return u.Clone()
	}
	return domain.NewUserData(chatID)
}

// Update applies fn to a working copy of the chat's record. When fn returns
// nil the copy replaces the record and is saved; otherwise nothing changes.
// A failed save is logged and the in-memory change stands.
func (s *Service) Update(ctx context.Context, chatID int64, fn func(u *domain.UserData) error) (domain.UserData, error) {
	s.mu.Lock()
	cur, ok := s.users[chatID]
	if !ok {
		cur = domain.NewUserData(chatID)
	}
	work := cur.Clone()
	if err := fn(&work); err != nil {
		s.mu.Unlock()
		return cur.Clone(), err
	}
	s.users[chatID] = work
	saved := work.Clone()
	ver, w := s.stampLocked(chatID)
	s.mu.Unlock()

	s.persist(ctx, w, ver, saved)
	return saved.Clone(), nil
}

// Snapshot copies every record for read-only iteration outside the lock.
func (s *Service) Snapshot() []domain.UserData {
	s.mu.Lock()
	out := make([]domain.UserData, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u.Clone())
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ChatID < out[j].ChatID })
	return out
}

// ChatIDs lists known chats in ascending order.
func (s *Service) ChatIDs() []int64 {
	s.mu.Lock()
	ids := make([]int64, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// MarkTriggered records a delivered notification. A missing chat or alert
// (removed while the notification was in flight) is reported as ErrNotFound.
func (s *Service) MarkTriggered(ctx context.Context, chatID int64, alertID string, at time.Time) error {
	s.mu.Lock()
	cur, ok := s.users[chatID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("chat %d: %w", chatID, domain.ErrNotFound)
	}
	work := cur.Clone()
	if err := work.MarkTriggered(alertID, at); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("alert %s: %w", alertID, err)
	}
	s.users[chatID] = work
	saved := work.Clone()
	ver, w := s.stampLocked(chatID)
	s.mu.Unlock()

	s.persist(ctx, w, ver, saved)
	return nil
}

// Forget drops the chat from memory and from the store.
func (s *Service) Forget(ctx context.Context, chatID int64) error {
	s.mu.Lock()
	delete(s.users, chatID)
	ver, w := s.stampLocked(chatID)
	s.mu.Unlock()

	w.mu.Lock()
	defer w.mu.Unlock()
	if ver <= w.written {
		return nil
	}
	w.written = ver
	if err := s.store.Remove(ctx, chatID); err != nil {
		return fmt.Errorf("forget %d: %w", chatID, err)
	}
	return nil
}

func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Stats{Users: len(s.users)}
	for _, u := range s.users {
		if u.HasHomeTown() {
			st.WithHomeTown++
		}
		st.Alerts += len(u.Alerts)
		st.ActiveAlerts += u.ActiveAlerts()
	}
	return st
}

// stampLocked bumps the chat's version. s.mu must be held.
func (s *Service) stampLocked(chatID int64) (uint64, *writer) {
	s.versions[chatID]++
	w, ok := s.writers[chatID]
	if !ok {
		w = &writer{}
		s.writers[chatID] = w
	}
	return s.versions[chatID], w
}

// persist saves u unless a newer version of the chat already reached the store.
func (s *Service) persist(ctx context.Context, w *writer, ver uint64, u domain.UserData) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if ver <= w.written {
		logger.Debug(ctx, logger.ComponentUsers, "users.save",
			slog.String("status", "skip"),
			slog.Int64("chat_id", u.ChatID),
			slog.Uint64("version", ver),
		)
		return
	}
	w.written = ver
	if err := s.store.Save(ctx, u); err != nil {
		logger.Warn(ctx, logger.ComponentUsers, "users.save",
			slog.String("status", "fail"),
			slog.Int64("chat_id", u.ChatID),
			slog.String("err", err.Error()),
		)
	}
}
