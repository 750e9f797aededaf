package netutil

import (
	"errors"
	"strings"

	tele "gopkg.in/telebot.v4"
)

var goneMarkers = []string{"chat not found", "blocked", "kicked", "forbidden", "deactivated"}

// IsChatGone reports whether err means the bot can no longer reach the chat,
// e.g. the user blocked it or the chat was deleted.
func IsChatGone(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, tele.ErrBlockedByUser) || errors.Is(err, tele.ErrChatNotFound) ||
		errors.Is(err, tele.ErrKickedFromGroup) || errors.Is(err, tele.ErrUserIsDeactivated) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, m := range goneMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
