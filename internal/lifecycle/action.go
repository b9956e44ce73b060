// Copyright (C) 2023 Jared Allard <jared@rgst.io>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package lifecycle implements the stop/start/restart sequencing for a
// single instance.
package lifecycle

import "github.com/pkg/errors"

// ErrInvalidAction is returned when an action outside of restart, stop,
// and start is requested.
var ErrInvalidAction = errors.New("invalid action")

// Action is a lifecycle action to perform on an instance
type Action string

// This block contains all of the valid actions
var (
	ActionRestart Action = "restart"
	ActionStop    Action = "stop"
	ActionStart   Action = "start"
)

// DefaultAction is used when the caller does not request an action
var DefaultAction = ActionRestart

// ParseAction validates a requested action string. Anything outside of
// the known actions is rejected before any provider call is made.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionRestart, ActionStop, ActionStart:
		return a, nil
	}

	return "", errors.Wrapf(ErrInvalidAction, "action %q", s)
}
