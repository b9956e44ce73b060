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

package operation_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"gotest.tools/v3/assert"

	"github.com/jaredallard/vm-lifecycle/internal/cloud"
	"github.com/jaredallard/vm-lifecycle/internal/operation"
)

// poll is a single scripted status response
type poll struct {
	status cloud.OperationStatus
	err    error
}

// scriptedPoller returns a fixed sequence of responses, repeating the
// last one once the script is exhausted.
type scriptedPoller struct {
	script []poll
	polls  int
}

func (s *scriptedPoller) OperationStatus(_ context.Context, _ string) (cloud.OperationStatus, error) {
	i := s.polls
	if i >= len(s.script) {
		i = len(s.script) - 1
	}
	s.polls++

	p := s.script[i]
	return p.status, p.err
}

func TestWait_ReturnsOnFirstDonePoll(t *testing.T) {
	p := &scriptedPoller{script: []poll{
		{status: cloud.OperationStatus{Done: true}},
	}}

	w := operation.NewWaiter(log.New(os.Stderr), p, time.Millisecond, time.Second)
	assert.NilError(t, w.Wait(context.Background(), "op-1"))
	assert.Equal(t, p.polls, 1)
}

func TestWait_PollsUntilDone(t *testing.T) {
	p := &scriptedPoller{script: []poll{
		{status: cloud.OperationStatus{}},
		{status: cloud.OperationStatus{}},
		{status: cloud.OperationStatus{Done: true}},
	}}

	w := operation.NewWaiter(log.New(os.Stderr), p, time.Millisecond, time.Second)
	assert.NilError(t, w.Wait(context.Background(), "op-1"))
	assert.Equal(t, p.polls, 3)
}

func TestWait_DoneWithErrors(t *testing.T) {
	p := &scriptedPoller{script: []poll{
		{status: cloud.OperationStatus{
			Done:   true,
			Errors: []string{"QUOTA_EXCEEDED: quota exceeded", "RESOURCE_NOT_READY: still busy"},
		}},
	}}

	w := operation.NewWaiter(log.New(os.Stderr), p, time.Millisecond, time.Second)
	err := w.Wait(context.Background(), "op-1")
	assert.Assert(t, err != nil)

	// the failure message carries every provider error and the
	// operation name
	assert.ErrorContains(t, err, "op-1")
	assert.ErrorContains(t, err, "QUOTA_EXCEEDED: quota exceeded")
	assert.ErrorContains(t, err, "RESOURCE_NOT_READY: still busy")

	var opErr *operation.Error
	assert.Assert(t, errors.As(err, &opErr))
	assert.Equal(t, opErr.Operation, "op-1")
}

func TestWait_Timeout(t *testing.T) {
	// never reports done
	p := &scriptedPoller{script: []poll{
		{status: cloud.OperationStatus{}},
	}}

	w := operation.NewWaiter(log.New(os.Stderr), p, time.Millisecond, 25*time.Millisecond)
	err := w.Wait(context.Background(), "op-1")
	assert.Assert(t, errors.Is(err, operation.ErrTimeout))
	assert.Assert(t, p.polls >= 1)
}

func TestWait_PollErrorIsNotRetried(t *testing.T) {
	p := &scriptedPoller{script: []poll{
		{err: fmt.Errorf("transport broke")},
	}}

	w := operation.NewWaiter(log.New(os.Stderr), p, time.Millisecond, time.Second)
	err := w.Wait(context.Background(), "op-1")
	assert.ErrorContains(t, err, "transport broke")
	assert.Equal(t, p.polls, 1)
}

func TestWait_ContextCancellation(t *testing.T) {
	p := &scriptedPoller{script: []poll{
		{status: cloud.OperationStatus{}},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := operation.NewWaiter(log.New(os.Stderr), p, time.Millisecond, time.Second)
	err := w.Wait(ctx, "op-1")
	assert.Assert(t, err != nil)
}
