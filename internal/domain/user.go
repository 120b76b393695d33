package domain

import "strings"

// User is a chat-platform identity as seen by the bot core.
type User struct {
	ID       string
	Username string
	// Tag is the display form used in notices and transcripts.
	Tag string
}

// NormalizedUsername returns the lower-cased username used in channel names.
func (u User) NormalizedUsername() string {
	return strings.ToLower(strings.TrimSpace(u.Username))
}

// DisplayTag falls back to the username when no tag is known.
func (u User) DisplayTag() string {
	if u.Tag != "" {
		return u.Tag
	}
	return u.Username
}
