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

// Package main implements an HTTP daemon that exposes the lifecycle
// action endpoint for a single configured GCE instance, along with
// health and metrics endpoints.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jaredallard/vm-lifecycle/internal/cloud/gcp"
	"github.com/jaredallard/vm-lifecycle/internal/config"
	"github.com/jaredallard/vm-lifecycle/internal/lifecycle"
	"github.com/jaredallard/vm-lifecycle/internal/operation"
	"github.com/jaredallard/vm-lifecycle/internal/server"
	"github.com/jaredallard/vm-lifecycle/internal/version"
)

// rootCmd is the root command used by cobra
var rootCmd = &cobra.Command{
	Use:     "vm-lifecycled",
	Version: version.Version,

	Short: "vm-lifecycled serves stop/start/restart for a GCE instance over HTTP",
	RunE:  entrypoint,
}

// entrypoint is the entrypoint for the root command
func entrypoint(cCmd *cobra.Command, _ []string) error {
	ctx := cCmd.Context()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportCaller: true, ReportTimestamp: true})

	conf, err := config.Load(cCmd.Flag("config").Value.String())
	if err != nil {
		return err
	}

	if v, _ := cCmd.Flags().GetString("listen-address"); v != "" {
		conf.ListenAddress = v
	}

	if err := conf.Validate(); err != nil {
		return err
	}

	client, err := gcp.NewClient(ctx, conf.Project, conf.Zone)
	if err != nil {
		return errors.Wrap(err, "failed to create compute client")
	}

	waiter := operation.NewWaiter(logger, client, conf.Wait.PollInterval(), conf.Wait.Timeout())
	executor := lifecycle.NewExecutor(logger, client, waiter, conf.Instance)

	logger.Info("serving", "instance", conf.Instance, "zone", conf.Zone, "project", conf.Project)

	srv := server.New(logger, conf, executor)
	return srv.Start(ctx)
}

// main is the entrypoint for the daemon
func main() {
	exitCode := 0
	defer func() {
		os.Exit(exitCode)
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootCmd.PersistentFlags().String("config", "", "config file")
	rootCmd.PersistentFlags().String("listen-address", "", "address to listen on (or set LISTEN_ADDRESS)")

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		exitCode = 1
	}
}
