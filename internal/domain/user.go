package domain

import (
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when an alert id is not registered for a chat.
var ErrNotFound = errors.New("not found")

// UserData is everything the bot remembers about one chat.
type UserData struct {
	ChatID          int64        `json:"chat_id"`
	HomeTown        string       `json:"home_town,omitempty"`
	InterestedTowns []string     `json:"interested_towns"`
	Alerts          []Alert      `json:"weather_alerts"`
	Conversation    Conversation `json:"conversation"`
}

// NewUserData returns an empty record for chatID.
func NewUserData(chatID int64) UserData {
	return UserData{ChatID: chatID, InterestedTowns: []string{}, Alerts: []Alert{}}
}

// HasHomeTown reports whether a home town was set.
func (u *UserData) HasHomeTown() bool { return u.HomeTown != "" }

// HasTown reports whether town is already in the interested list.
func (u *UserData) HasTown(town string) bool {
	for _, t := range u.InterestedTowns {
		if t == town {
			return true
		}
	}
	return false
}

// AddTown appends town unless it is already present.
func (u *UserData) AddTown(town string) bool {
	if u.HasTown(town) {
		return false
	}
	u.InterestedTowns = append(u.InterestedTowns, town)
	return true
}

// RemoveTown deletes the matching entry, keeping the order of the rest.
func (u *UserData) RemoveTown(town string) bool {
	for i, t := range u.InterestedTowns {
		if t == town {
			u.InterestedTowns = append(u.InterestedTowns[:i:i], u.InterestedTowns[i+1:]...)
			return true
		}
	}
	return false
}

// AddAlert registers a, replacing any alert with the same id.
func (u *UserData) AddAlert(a Alert) {
	for i := range u.Alerts {
		if u.Alerts[i].ID == a.ID {
			u.Alerts[i] = a
			return
		}
	}
	u.Alerts = append(u.Alerts, a)
}

// RemoveAlert deletes the alert with id.
func (u *UserData) RemoveAlert(id string) bool {
	for i := range u.Alerts {
		if u.Alerts[i].ID == id {
			u.Alerts = append(u.Alerts[:i:i], u.Alerts[i+1:]...)
			return true
		}
	}
	return false
}

// Alert returns a pointer into the record for in-place updates.
func (u *UserData) Alert(id string) (*Alert, error) {
	for i := range u.Alerts {
		if u.Alerts[i].ID == id {
			return &u.Alerts[i], nil
		}
	}
	return nil, ErrNotFound
}

// ToggleAlert flips is_active of the alert with id.
func (u *UserData) ToggleAlert(id string) (bool, error) {
	a, err := u.Alert(id)
	if err != nil {
		return false, err
	}
	return a.Toggle(), nil
}

// MarkTriggered stamps last_triggered on the alert with id.
func (u *UserData) MarkTriggered(id string, at time.Time) error {
	a, err := u.Alert(id)
	if err != nil {
		return err
	}
	t := at.UTC()
	a.LastTriggered = &t
	return nil
}

// ActiveAlerts counts alerts with is_active set.
func (u *UserData) ActiveAlerts() int {
	n := 0
	for _, a := range u.Alerts {
		if a.Active {
			n++
		}
	}
	return n
}

// Restart clears the conversation, the home town and the interested towns.
// Alerts survive a restart.
func (u *UserData) Restart() {
	u.Conversation.Reset()
	u.HomeTown = ""
	u.InterestedTowns = []string{}
}

// SetHomeTown trims and stores the home town.
func (u *UserData) SetHomeTown(town string) {
	u.HomeTown = strings.TrimSpace(town)
}

// Clone returns a deep copy that shares no slices with u.
func (u UserData) Clone() UserData {
	out := u
	out.InterestedTowns = append([]string{}, u.InterestedTowns...)
	out.Alerts = make([]Alert, len(u.Alerts))
	for i, a := range u.Alerts {
		out.Alerts[i] = a.Clone()
	}
	out.Conversation = u.Conversation.clone()
	return out
}
