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

// Package config loads the target instance identity and wait settings
// from an optional yaml file and the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/compute/metadata"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config configures a lifecycle invocation
type Config struct {
	// Project is the GCP project the instance lives in
	Project string `yaml:"project" envconfig:"PROJECT_ID"`

	// Zone is the zone the instance lives in
	Zone string `yaml:"zone" envconfig:"ZONE"`

	// Instance is the name of the instance
	Instance string `yaml:"instance" envconfig:"INSTANCE_NAME"`

	// ListenAddress is the address the HTTP daemon listens on
	ListenAddress string `yaml:"listenAddress" envconfig:"LISTEN_ADDRESS"`

	// Wait configures how issued operations are polled
	Wait WaitConfig `yaml:"wait"`
}

// WaitConfig configures operation polling
type WaitConfig struct {
	// PollIntervalSeconds is the delay between status polls
	PollIntervalSeconds int `yaml:"pollIntervalSeconds" envconfig:"POLL_INTERVAL_SECONDS"`

	// TimeoutSeconds bounds how long a single operation may take to
	// reach a terminal state
	TimeoutSeconds int `yaml:"timeoutSeconds" envconfig:"WAIT_TIMEOUT_SECONDS"`
}

// PollInterval returns the poll interval as a duration
func (w *WaitConfig) PollInterval() time.Duration {
	return time.Duration(w.PollIntervalSeconds) * time.Second
}

// Timeout returns the wait timeout as a duration
func (w *WaitConfig) Timeout() time.Duration {
	return time.Duration(w.TimeoutSeconds) * time.Second
}

// applyDefaults applies default values to the configuration
func applyDefaults(conf *Config) {
	if conf.ListenAddress == "" {
		conf.ListenAddress = "0.0.0.0:8080"
	}
	if conf.Wait.PollIntervalSeconds == 0 {
		conf.Wait.PollIntervalSeconds = 5
	}
	if conf.Wait.TimeoutSeconds == 0 {
		conf.Wait.TimeoutSeconds = 600
	}
}

// applyMetadata fills the project and zone from the GCE metadata
// server when running on GCE and the values weren't otherwise
// supplied. A value the metadata server can't provide stays empty and
// is caught by Validate.
func applyMetadata(conf *Config) {
	if conf.Project != "" && conf.Zone != "" {
		return
	}

	if !metadata.OnGCE() {
		return
	}

	if conf.Project == "" {
		if project, err := metadata.ProjectID(); err == nil {
			conf.Project = project
		}
	}
	if conf.Zone == "" {
		if zone, err := metadata.Zone(); err == nil {
			conf.Zone = zone
		}
	}
}

// Validate ensures the target instance is fully identified. This is
// checked before any provider client is constructed.
func (c *Config) Validate() error {
	if c.Project == "" {
		return fmt.Errorf("project is required (flag or PROJECT_ID)")
	}
	if c.Zone == "" {
		return fmt.Errorf("zone is required (flag or ZONE)")
	}
	if c.Instance == "" {
		return fmt.Errorf("instance is required (flag or INSTANCE_NAME)")
	}

	return nil
}

// Load loads configuration from an optional yaml file and the
// environment. Environment variables override file values. Validation
// is left to the caller so that flag overrides can be applied first.
func Load(path string) (*Config, error) {
	var conf Config

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open config file")
		}
		defer f.Close()

		if err := yaml.NewDecoder(f).Decode(&conf); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal config file")
		}
	}

	if err := envconfig.Process("", &conf); err != nil {
		return nil, errors.Wrap(err, "failed to load config from env")
	}

	applyMetadata(&conf)
	applyDefaults(&conf)

	return &conf, nil
}
