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

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/jaredallard/vm-lifecycle/internal/cloud"
)

// Waiter blocks until an operation reaches a terminal state
type Waiter interface {
	Wait(ctx context.Context, operation string) error
}

// Executor issues lifecycle actions against a provider
type Executor struct {
	// log is our executor's logger
	log *log.Logger

	// provider is the cloud provider the instance lives on
	provider cloud.Provider

	// waiter blocks on the provider's asynchronous operations
	waiter Waiter

	// instance is the name of the instance to act on
	instance string
}

// NewExecutor creates a new executor for a single instance
func NewExecutor(logger *log.Logger, provider cloud.Provider, waiter Waiter, instance string) *Executor {
	return &Executor{
		log:      logger,
		provider: provider,
		waiter:   waiter,
		instance: instance,
	}
}

// Execute performs the requested action, returning the names of the
// operations that were issued, in order. When wait is true each issued
// operation is polled to a terminal state before the next step runs.
//
// A rejected stop issuance is tolerated so that restart succeeds on an
// instance that is already stopped or stopping; a failure discovered
// while waiting on an accepted operation always propagates.
func (e *Executor) Execute(ctx context.Context, action Action, wait bool) ([]string, error) {
	switch action {
	case ActionRestart, ActionStop, ActionStart:
	default:
		return nil, errors.Wrapf(ErrInvalidAction, "action %q", action)
	}

	operations := []string{}

	if action == ActionRestart || action == ActionStop {
		op, err := e.provider.Stop(ctx, e.instance)
		if err != nil {
			e.log.Warn("stop request rejected, continuing", "instance", e.instance, "err", err)
		} else {
			operations = append(operations, op)
			e.log.Info("stop requested", "instance", e.instance, "operation", op)

			if wait {
				if err := e.waiter.Wait(ctx, op); err != nil {
					return operations, errors.Wrap(err, "failed to stop instance")
				}
				e.log.Info("stop completed", "instance", e.instance, "operation", op)
			}
		}
	}

	if action == ActionRestart || action == ActionStart {
		op, err := e.provider.Start(ctx, e.instance)
		if err != nil {
			return operations, errors.Wrap(err, "failed to start instance")
		}

		operations = append(operations, op)
		e.log.Info("start requested", "instance", e.instance, "operation", op)

		if wait {
			if err := e.waiter.Wait(ctx, op); err != nil {
				return operations, errors.Wrap(err, "failed to start instance")
			}
			e.log.Info("start completed", "instance", e.instance, "operation", op)
		}
	}

	return operations, nil
}
