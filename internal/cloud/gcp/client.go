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

// Package gcp implements cloud.Provider on top of the GCE compute v1
// API. Stop and start are zonal operations; the returned operation
// names are polled via ZoneOperations.Get.
package gcp

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/oauth2/google"
	compute "google.golang.org/api/compute/v1"
	"google.golang.org/api/option"

	"github.com/jaredallard/vm-lifecycle/internal/cloud"
)

// operationDone is the terminal status of a zonal operation
const operationDone = "DONE"

// Client is a GCE client
type Client struct {
	compute *compute.Service

	project string
	zone    string
}

// NewClient creates a new client bound to a project and zone.
// Credentials come from the application default credentials chain.
func NewClient(ctx context.Context, project, zone string) (*Client, error) {
	httpClient, err := google.DefaultClient(ctx, compute.ComputeScope)
	if err != nil {
		return nil, errors.Wrap(err, "failed to acquire default credentials")
	}

	svc, err := compute.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create compute service")
	}

	return &Client{
		compute: svc,
		project: project,
		zone:    zone,
	}, nil
}

// Stop stops an instance, returning the name of the zonal operation
// the provider created.
func (c *Client) Stop(ctx context.Context, instanceID string) (string, error) {
	op, err := c.compute.Instances.Stop(c.project, c.zone, instanceID).Context(ctx).Do()
	if err != nil {
		return "", err
	}

	return op.Name, nil
}

// Start starts an instance, returning the name of the zonal operation
// the provider created.
func (c *Client) Start(ctx context.Context, instanceID string) (string, error) {
	op, err := c.compute.Instances.Start(c.project, c.zone, instanceID).Context(ctx).Do()
	if err != nil {
		return "", err
	}

	return op.Name, nil
}

// OperationStatus returns the status of a zonal operation
func (c *Client) OperationStatus(ctx context.Context, operation string) (cloud.OperationStatus, error) {
	op, err := c.compute.ZoneOperations.Get(c.project, c.zone, operation).Context(ctx).Do()
	if err != nil {
		return cloud.OperationStatus{}, err
	}

	st := cloud.OperationStatus{Done: op.Status == operationDone}
	if op.Error != nil {
		for _, e := range op.Error.Errors {
			st.Errors = append(st.Errors, e.Message)
		}
	}

	return st, nil
}
