// Package store persists per-chat UserData records.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/m3rciful/weatherbot/internal/domain"
)

// Store is the durable backing of the per-chat map. Implementations must be
// safe for concurrent use.
type Store interface {
	// Load returns the record for chatID; ok is false when none exists.
	Load(ctx context.Context, chatID int64) (user domain.UserData, ok bool, err error)
	// Save inserts or replaces the record keyed by u.ChatID.
	Save(ctx context.Context, u domain.UserData) error
	// LoadAll returns every stored record keyed by chat id.
	LoadAll(ctx context.Context) (map[int64]domain.UserData, error)
	// Remove deletes the record; removing an absent record is not an error.
	Remove(ctx context.Context, chatID int64) error
	Close() error
}

func encode(u domain.UserData) ([]byte, error) {
	raw, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("encode user %d: %w", u.ChatID, err)
	}
	return raw, nil
}

func decode(chatID int64, raw []byte) (domain.UserData, error) {
	u := domain.NewUserData(chatID)
	if err := json.Unmarshal(raw, &u); err != nil {
		return domain.UserData{}, fmt.Errorf("decode user %d: %w", chatID, err)
	}
	u.ChatID = chatID
	if u.InterestedTowns == nil {
		u.InterestedTowns = []string{}
	}
	if u.Alerts == nil {
		u.Alerts = []domain.Alert{}
	}
	return u, nil
}
