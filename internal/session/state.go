package session

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// State is a session's position in the burn workflow.
type State string

const (
	StateIdle             State = "idle"
	StateAwaitingSubtitle State = "awaiting_subtitle"
	StateAwaitingVideo    State = "awaiting_video"
	StateReady            State = "ready"
	StateEncoding         State = "encoding"
	StateDelivering       State = "delivering"
	StateCompleted        State = "completed"
	StateFailed           State = "failed"
)

var titleCaser = cases.Title(language.English)

// Label renders the state for people, e.g. "Awaiting Subtitle".
func (s State) Label() string {
	return titleCaser.String(strings.ReplaceAll(string(s), "_", " "))
}

// Terminal reports whether the session has concluded.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Processing reports whether render or delivery owns the session.
func (s State) Processing() bool {
	return s == StateReady || s == StateEncoding || s == StateDelivering
}

func isValidTransition(from, to State) bool {
	switch from {
	case StateIdle:
		return to == StateAwaitingSubtitle || to == StateAwaitingVideo
	case StateAwaitingSubtitle, StateAwaitingVideo:
		return to == StateReady
	case StateReady:
		return to == StateEncoding || to == StateFailed
	case StateEncoding:
		return to == StateDelivering || to == StateFailed
	case StateDelivering:
		return to == StateCompleted || to == StateFailed
	default:
		return false
	}
}

// stateFor derives the collection state from which inputs are stored.
func stateFor(hasVideo, hasSubtitle bool) State {
	switch {
	case hasVideo && hasSubtitle:
		return StateReady
	case hasVideo:
		return StateAwaitingSubtitle
	case hasSubtitle:
		return StateAwaitingVideo
	default:
		return StateIdle
	}
}

func transitionError(from, to State) error {
	return fmt.Errorf("invalid transition: %s -> %s", from, to)
}
