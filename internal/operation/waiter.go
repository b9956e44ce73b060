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

// Package operation implements waiting on asynchronous provider
// operations. A waiter converts an eventually-consistent operation
// into a synchronous result the caller can branch on.
package operation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/jaredallard/vm-lifecycle/internal/cloud"
)

// Defaults used when the waiter is constructed with non-positive
// values.
const (
	DefaultPollInterval = 5 * time.Second
	DefaultTimeout      = 10 * time.Minute
)

// ErrTimeout is returned when an operation does not reach a terminal
// state before the configured timeout.
var ErrTimeout = errors.New("timed out waiting for operation")

// errNotDone marks a poll that observed a still-pending operation,
// signaling the retry loop to poll again.
var errNotDone = errors.New("operation not done")

// Error is returned when the provider reports an operation as done
// but carrying errors.
type Error struct {
	// Operation is the name of the failed operation
	Operation string

	// Messages are the provider-reported error messages
	Messages []string
}

// Error implements error
func (e *Error) Error() string {
	return fmt.Sprintf("operation %q finished with errors: %s",
		e.Operation, strings.Join(e.Messages, ", "))
}

// Poller fetches the current status of an operation
type Poller interface {
	OperationStatus(ctx context.Context, operation string) (cloud.OperationStatus, error)
}

// Waiter polls an asynchronous operation until it reaches a terminal
// state or a deadline elapses.
type Waiter struct {
	// log is our waiter's logger
	log *log.Logger

	// poller is the source of operation status
	poller Poller

	// pollInterval is the delay between status polls
	pollInterval time.Duration

	// timeout bounds how long a single Wait call may block
	timeout time.Duration
}

// NewWaiter creates a new waiter. Non-positive interval or timeout
// values fall back to the package defaults.
func NewWaiter(logger *log.Logger, poller Poller, pollInterval, timeout time.Duration) *Waiter {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Waiter{
		log:          logger,
		poller:       poller,
		pollInterval: pollInterval,
		timeout:      timeout,
	}
}

// Wait blocks until the operation reports done, the timeout elapses,
// or the provided context is canceled. A done operation that carries
// provider errors fails with *Error; a missed deadline fails with an
// error wrapping ErrTimeout.
func (w *Waiter) Wait(ctx context.Context, operation string) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	b := backoff.WithContext(backoff.NewConstantBackOff(w.pollInterval), ctx)
	err := backoff.Retry(func() error {
		st, err := w.poller.OperationStatus(ctx, operation)
		if err != nil {
			// poll failures are not retried
			return backoff.Permanent(errors.Wrapf(err, "failed to get status of operation %q", operation))
		}

		if !st.Done {
			w.log.Debug("operation still pending", "operation", operation)
			return errNotDone
		}

		if len(st.Errors) != 0 {
			return backoff.Permanent(&Error{Operation: operation, Messages: st.Errors})
		}

		return nil
	}, b)
	if err == nil {
		return nil
	}

	if errors.Is(err, errNotDone) || errors.Is(err, context.DeadlineExceeded) {
		return errors.Wrapf(ErrTimeout, "operation %q did not complete within %s", operation, w.timeout)
	}

	return err
}
