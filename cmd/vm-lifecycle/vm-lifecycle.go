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

// Package main implements a CLI that stops, starts, or restarts a
// single GCE instance, optionally waiting for the resulting zonal
// operations to complete before exiting.
package main

import (
	"context"
	"encoding/json"
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
	"github.com/jaredallard/vm-lifecycle/internal/version"
)

// rootCmd is the root command used by cobra
var rootCmd = &cobra.Command{
	Use:     "vm-lifecycle",
	Version: version.Version,

	Short: "vm-lifecycle stops, starts, or restarts a GCE instance",
	Long: `vm-lifecycle performs a lifecycle action on a single GCE instance and ` +
		`waits for the resulting zonal operations to reach a terminal state.` + "\n" +
		`Credentials come from the application default credentials chain.`,
	RunE: entrypoint,
}

// entrypoint is the entrypoint for the root command
func entrypoint(cCmd *cobra.Command, _ []string) error {
	ctx := cCmd.Context()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})

	conf, err := config.Load(cCmd.Flag("config").Value.String())
	if err != nil {
		return err
	}

	// flags override file and environment configuration
	if v, _ := cCmd.Flags().GetString("project"); v != "" {
		conf.Project = v
	}
	if v, _ := cCmd.Flags().GetString("zone"); v != "" {
		conf.Zone = v
	}
	if v, _ := cCmd.Flags().GetString("instance"); v != "" {
		conf.Instance = v
	}
	if v, _ := cCmd.Flags().GetInt("timeout"); v > 0 {
		conf.Wait.TimeoutSeconds = v
	}
	if v, _ := cCmd.Flags().GetInt("poll-interval"); v > 0 {
		conf.Wait.PollIntervalSeconds = v
	}

	if err := conf.Validate(); err != nil {
		return err
	}

	action, err := lifecycle.ParseAction(cCmd.Flag("action").Value.String())
	if err != nil {
		return err
	}

	noWait, _ := cCmd.Flags().GetBool("no-wait")

	client, err := gcp.NewClient(ctx, conf.Project, conf.Zone)
	if err != nil {
		return errors.Wrap(err, "failed to create compute client")
	}

	waiter := operation.NewWaiter(logger, client, conf.Wait.PollInterval(), conf.Wait.Timeout())
	executor := lifecycle.NewExecutor(logger, client, waiter, conf.Instance)

	logger.Info("performing action", "action", action, "instance", conf.Instance,
		"zone", conf.Zone, "project", conf.Project)

	operations, eerr := executor.Execute(ctx, action, !noWait)

	result := lifecycle.Result{
		Status:     "ok",
		Action:     action,
		Project:    conf.Project,
		Zone:       conf.Zone,
		Instance:   conf.Instance,
		Operations: operations,
	}
	if eerr != nil {
		result.Status = "error"
		result.Message = eerr.Error()
	}

	out, err := json.MarshalIndent(&result, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to render result")
	}
	fmt.Println(string(out))

	if eerr != nil {
		return errors.Wrap(eerr, "action failed")
	}

	logger.Info("action complete", "operations", operations)
	return nil
}

// main is the entrypoint for the CLI
func main() {
	exitCode := 0
	defer func() {
		os.Exit(exitCode)
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootCmd.PersistentFlags().StringP("action", "a", string(lifecycle.DefaultAction), "action to perform (restart, stop, start)")
	rootCmd.PersistentFlags().StringP("project", "p", "", "GCP project ID (or set PROJECT_ID)")
	rootCmd.PersistentFlags().StringP("zone", "z", "", "GCE zone (or set ZONE)")
	rootCmd.PersistentFlags().StringP("instance", "i", "", "GCE instance name (or set INSTANCE_NAME)")
	rootCmd.PersistentFlags().String("config", "", "config file")
	rootCmd.PersistentFlags().Bool("no-wait", false, "do not wait for operations to reach a terminal state")
	rootCmd.PersistentFlags().Int("timeout", 0, "seconds to wait for each operation")
	rootCmd.PersistentFlags().Int("poll-interval", 0, "seconds between operation status polls")

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		exitCode = 1
	}
}
