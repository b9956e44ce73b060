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

package server_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/charmbracelet/log"
	"gotest.tools/v3/assert"

	"github.com/jaredallard/vm-lifecycle/internal/config"
	"github.com/jaredallard/vm-lifecycle/internal/lifecycle"
	"github.com/jaredallard/vm-lifecycle/internal/server"
)

// call records a single Execute invocation
type call struct {
	action lifecycle.Action
	wait   bool
}

// fakeExecutor plays back a scripted result and records its calls
type fakeExecutor struct {
	operations []string
	err        error

	calls []call
}

func (f *fakeExecutor) Execute(_ context.Context, action lifecycle.Action, wait bool) ([]string, error) {
	f.calls = append(f.calls, call{action: action, wait: wait})
	if f.err != nil {
		return nil, f.err
	}

	return f.operations, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Project:  "my-project",
		Zone:     "us-central1-a",
		Instance: "vm-1",
	}
}

func do(t *testing.T, executor *fakeExecutor, target string) (*httptest.ResponseRecorder, *lifecycle.Result) {
	t.Helper()

	s := server.New(log.New(os.Stderr), testConfig(), executor)

	req := httptest.NewRequest(http.MethodPost, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var result lifecycle.Result
	assert.NilError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	return rec, &result
}

func TestHandleAction_OK(t *testing.T) {
	executor := &fakeExecutor{operations: []string{"op-stop-1", "op-start-1"}}

	rec, result := do(t, executor, "/?action=restart&wait=true")
	assert.Equal(t, rec.Code, http.StatusOK)

	assert.Equal(t, result.Status, "ok")
	assert.Equal(t, result.Action, lifecycle.ActionRestart)
	assert.Equal(t, result.Project, "my-project")
	assert.Equal(t, result.Zone, "us-central1-a")
	assert.Equal(t, result.Instance, "vm-1")
	assert.DeepEqual(t, result.Operations, []string{"op-stop-1", "op-start-1"})

	assert.Equal(t, len(executor.calls), 1)
	assert.Equal(t, executor.calls[0], call{action: lifecycle.ActionRestart, wait: true})
}

func TestHandleAction_DefaultsToRestartWithoutWait(t *testing.T) {
	executor := &fakeExecutor{operations: []string{"op-stop-1", "op-start-1"}}

	rec, result := do(t, executor, "/")
	assert.Equal(t, rec.Code, http.StatusOK)
	assert.Equal(t, result.Action, lifecycle.ActionRestart)

	assert.Equal(t, len(executor.calls), 1)
	assert.Equal(t, executor.calls[0], call{action: lifecycle.ActionRestart, wait: false})
}

func TestHandleAction_InvalidAction(t *testing.T) {
	executor := &fakeExecutor{}

	rec, result := do(t, executor, "/?action=bogus")
	assert.Equal(t, rec.Code, http.StatusBadRequest)
	assert.Equal(t, result.Status, "error")

	// rejected before the executor is ever invoked
	assert.Equal(t, len(executor.calls), 0)
}

func TestHandleAction_ExecutionFailure(t *testing.T) {
	executor := &fakeExecutor{err: fmt.Errorf("failed to start instance")}

	rec, result := do(t, executor, "/?action=start")
	assert.Equal(t, rec.Code, http.StatusInternalServerError)
	assert.Equal(t, result.Status, "error")
	assert.Equal(t, result.Message, "failed to start instance")
}

func TestHealthEndpoints(t *testing.T) {
	s := server.New(log.New(os.Stderr), testConfig(), &fakeExecutor{})

	for _, path := range []string{"/healthz/live", "/healthz/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		assert.Equal(t, rec.Code, http.StatusOK, path)
	}
}
