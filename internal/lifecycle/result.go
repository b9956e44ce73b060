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

package lifecycle

// Result is the outcome of a single invocation, returned to the
// caller. It lives for exactly one request/response cycle.
type Result struct {
	// Status is "ok" or "error"
	Status string `json:"status"`

	// Message holds the failure description when Status is "error"
	Message string `json:"message,omitempty"`

	// Action is the action that was requested
	Action Action `json:"action"`

	// Project, Zone, and Instance identify the target
	Project  string `json:"project"`
	Zone     string `json:"zone"`
	Instance string `json:"instance"`

	// Operations are the provider operation names issued, in order
	Operations []string `json:"operations"`
}
