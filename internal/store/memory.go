package store

import (
	"context"
	"sync"

	"github.com/m3rciful/weatherbot/internal/domain"
)

// Memory keeps records in process; used for development and tests.
type Memory struct {
	mu    sync.RWMutex
	users map[int64]domain.UserData
}

func NewMemory() *Memory {
	return &Memory{users: make(map[int64]domain.UserData)}
}

func (m *Memory) Load(_ context.Context, chatID int64) (domain.UserData, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[chatID]
	if !ok {
		return domain.UserData{}, false, nil
	}
	return u.Clone(), true, nil
}

func (m *Memory) Save(_ context.Context, u domain.UserData) error {
	m.mu.Lock()
	m.users[u.ChatID] = u.Clone()
	m.mu.Unlock()
	return nil
}

func (m *Memory) LoadAll(_ context.Context) (map[int64]domain.UserData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[int64]domain.UserData, len(m.users))
	for id, u := range m.users {
		out[id] = u.Clone()
	}
	return out, nil
}

func (m *Memory) Remove(_ context.Context, chatID int64) error {
	m.mu.Lock()
	delete(m.users, chatID)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }
