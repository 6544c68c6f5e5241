// Package protocol defines the typed context/message envelope exchanged
// between buyer and seller network participants, and the single decoding
// boundary that turns raw request bodies into those types.
package protocol

import (
	"fmt"
	"strings"
)

// Action identifies a protocol step. Request actions have an asynchronous
// counterpart prefixed with "on_".
type Action string

const (
	ActionSearch   Action = "search"
	ActionSelect   Action = "select"
	ActionInit     Action = "init"
	ActionUpdate   Action = "update"
	ActionCancel   Action = "cancel"
	ActionTrack    Action = "track"
	ActionStatus   Action = "status"
	ActionOnSearch Action = "on_search"
	ActionOnSelect Action = "on_select"
	ActionOnInit   Action = "on_init"
	ActionOnUpdate Action = "on_update"
	ActionOnCancel Action = "on_cancel"
	ActionOnTrack  Action = "on_track"
	ActionOnStatus Action = "on_status"
)

const callbackPrefix = "on_"

// RequestActions lists the base actions in flow order.
var RequestActions = []Action{
	ActionSearch, ActionSelect, ActionInit, ActionUpdate, ActionCancel, ActionTrack, ActionStatus,
}

// ParseAction converts a raw action name, accepting either the base or the
// callback form.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("unknown action %q", s)
	}
	return a, nil
}

// Valid reports whether a is one of the fourteen protocol actions.
func (a Action) Valid() bool {
	base := a.Base()
	for _, known := range RequestActions {
		if base == known {
			return true
		}
	}
	return false
}

// IsCallback reports whether a is an "on_" action.
func (a Action) IsCallback() bool {
	return strings.HasPrefix(string(a), callbackPrefix)
}

// Base strips the callback prefix: on_search -> search.
func (a Action) Base() Action {
	return Action(strings.TrimPrefix(string(a), callbackPrefix))
}

// Callback returns the asynchronous counterpart: search -> on_search.
// Callback actions map to themselves.
func (a Action) Callback() Action {
	if a.IsCallback() {
		return a
	}
	return Action(callbackPrefix + string(a))
}

func (a Action) String() string { return string(a) }
