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

// Package cloud defines the provider abstraction the lifecycle executor
// drives. A provider issues asynchronous stop/start calls against a
// single instance and exposes the status of the operations those calls
// create.
package cloud

import "context"

// OperationStatus is the observed state of an asynchronous provider
// operation.
type OperationStatus struct {
	// Done is true once the operation reached a terminal state
	Done bool

	// Errors contains the provider-reported error messages. Only
	// meaningful once Done is true.
	Errors []string
}

// Provider is a cloud provider bound to a project and zone. Stop and
// Start return the name of the asynchronous operation the provider
// created to satisfy the call.
type Provider interface {
	// Stop stops a remote instance
	Stop(ctx context.Context, instanceID string) (string, error)

	// Start starts a remote instance
	Start(ctx context.Context, instanceID string) (string, error)

	// OperationStatus fetches the status of an operation previously
	// returned by Stop or Start
	OperationStatus(ctx context.Context, operation string) (OperationStatus, error)
}
