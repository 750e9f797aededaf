// Package commands describes slash commands registered with the bot.
package commands

import tele "gopkg.in/telebot.v4"

// Command is a slash command handler and its menu entry.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly commands are gated by the admin middleware and listed only
	// in the admin's chat menu.
	AdminOnly bool
	// Hidden commands work but never appear in a menu.
	Hidden bool
}

// InMenu reports whether the command is listed in a menu for admin or
// regular chats.
func (c Command) InMenu(admin bool) bool {
	if c.Hidden {
		return false
	}
	return admin || !c.AdminOnly
}
