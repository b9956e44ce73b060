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

// Package server implements the HTTP control surface: a single action
// endpoint plus health and metrics endpoints.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/heptiolabs/healthcheck"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jaredallard/vm-lifecycle/internal/config"
	"github.com/jaredallard/vm-lifecycle/internal/lifecycle"
	"github.com/jaredallard/vm-lifecycle/internal/metrics"
)

// Executor runs a lifecycle action
type Executor interface {
	Execute(ctx context.Context, action lifecycle.Action, wait bool) ([]string, error)
}

// errorResponse is the payload returned on failures
type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Server serves the lifecycle action endpoint
type Server struct {
	// log is our server's logger
	log *log.Logger

	// conf holds the target identity and listen address
	conf *config.Config

	// executor performs the requested actions
	executor Executor

	echo *echo.Echo
}

// New creates a new server
func New(logger *log.Logger, conf *config.Config, executor Executor) *Server {
	s := &Server{
		log:      logger,
		conf:     conf,
		executor: executor,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	e.GET("/", s.handleAction)
	e.POST("/", s.handleAction)

	health := healthcheck.NewHandler()
	e.GET("/healthz/live", echo.WrapHandler(http.HandlerFunc(health.LiveEndpoint)))
	e.GET("/healthz/ready", echo.WrapHandler(http.HandlerFunc(health.ReadyEndpoint)))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	s.echo = e
	return s
}

// Handler returns the server's handler, used by tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// handleAction performs the requested action and renders the result.
// The action parameter defaults to restart; waiting holds the request
// open for up to the full operation timeout, so it's opt-in here.
func (s *Server) handleAction(c echo.Context) error {
	action := lifecycle.DefaultAction
	if v := c.FormValue("action"); v != "" {
		var err error
		if action, err = lifecycle.ParseAction(v); err != nil {
			metrics.Actions.WithLabelValues(v, "invalid").Inc()
			return c.JSON(http.StatusBadRequest, errorResponse{Status: "error", Message: err.Error()})
		}
	}

	wait := c.FormValue("wait") == "true"

	s.log.Info("handling action", "action", action, "instance", s.conf.Instance, "wait", wait)

	start := time.Now()
	operations, err := s.executor.Execute(c.Request().Context(), action, wait)
	metrics.ActionDuration.WithLabelValues(string(action)).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.Actions.WithLabelValues(string(action), "error").Inc()
		s.log.Error("action failed", "action", action, "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Status: "error", Message: err.Error()})
	}

	metrics.Actions.WithLabelValues(string(action), "ok").Inc()
	return c.JSON(http.StatusOK, lifecycle.Result{
		Status:     "ok",
		Action:     action,
		Project:    s.conf.Project,
		Zone:       s.conf.Zone,
		Instance:   s.conf.Instance,
		Operations: operations,
	})
}

// Start starts the server and blocks until the context is canceled,
// then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.echo.Start(s.conf.ListenAddress); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.log.Info("listening", "address", s.conf.ListenAddress)

	select {
	case err := <-errCh:
		return errors.Wrap(err, "failed to serve")
	case <-ctx.Done():
	}

	s.log.Info("Shutting down")

	// create a new context with a 15 second timeout
	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return s.echo.Shutdown(sctx)
}
