package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

// ChannelSuggestion is a channel the model proposes to create
type ChannelSuggestion struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Reason      string `json:"reason"`
}

type CleanupAction string

const (
	ActionArchive    CleanupAction = "archive"
	ActionDelete     CleanupAction = "delete"
	ActionReorganize CleanupAction = "reorganize"
)

// Marker returns the emoji shown next to a cleanup suggestion.
func (a CleanupAction) Marker() string {
	switch a {
	case ActionArchive:
		return "📦"
	case ActionDelete:
		return "🗑️"
	case ActionReorganize:
		return "🔄"
	default:
		return "❓"
	}
}

// CleanupSuggestion is advisory only, nothing applies it.
type CleanupSuggestion struct {
	Name   string        `json:"name"`
	Reason string        `json:"reason"`
	Action CleanupAction `json:"action"`
}

// ChannelActivitySnapshot describes one text channel for cleanup analysis
type ChannelActivitySnapshot struct {
	Name         string    `json:"name"`
	Members      int       `json:"members"`
	InactiveDays int       `json:"inactive_days"`
	CreatedAt    time.Time `json:"created_at"`
}

// ValidateChannelName reports whether name is non-empty and at most max characters long.
func ValidateChannelName(name string, max int) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	return utf8.RuneCountInString(name) <= max
}
