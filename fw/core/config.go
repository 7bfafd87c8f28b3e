/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package core

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/named-data/kite/std/log"
)

// Global initial configuration of the forwarder.
// This configuration is IMMUTABLE. Do not modify it.
var C = DefaultConfig()

// Config represents the configuration of the forwarder.
type Config struct {
	Core struct {
		// Logging level
		LogLevel string `json:"log_level"`
		// Output log to file
		LogFile string `json:"log_file"`

		// Config file base dir
		BaseDir string `json:"-"`
	} `json:"core"`

	Fw struct {
		// Number of forwarding threads
		Threads int `json:"threads"`
		// Size of queues in the forwarding system
		QueueSize int `json:"queue_size"`
		// Strategy used for prefixes without an explicit strategy choice
		DefaultStrategy string `json:"default_strategy"`
		// Send a NoRoute Nack downstream when a strategy rejects an Interest
		NackOnReject bool `json:"nack_on_reject"`
	} `json:"fw"`

	Tables struct {
		Pit struct {
			// Lifetime of Interests that do not carry one (milliseconds)
			DefaultLifetime int `json:"default_lifetime"`
		} `json:"pit"`

		DeadNonceList struct {
			// Lifetime of entries in the Dead Nonce List (milliseconds)
			Lifetime int `json:"lifetime"`
		} `json:"dead_nonce_list"`

		Tib struct {
			// Lifetime of trace next hops inserted without one (milliseconds).
			// Zero means trace hops never expire on their own.
			DefaultLifetime int `json:"default_lifetime"`
			// Interval between purges of expired trace next hops (milliseconds), zero to disable
			PruneInterval int `json:"prune_interval"`
		} `json:"tib"`
	} `json:"tables"`

	Metrics struct {
		// Whether forwarding counters are exported to Prometheus
		Enabled bool `json:"enabled"`
		// Listen address of the /metrics endpoint, empty to disable serving
		Listen string `json:"listen"`
	} `json:"metrics"`
}

func DefaultConfig() *Config {
	c := &Config{}
	c.Core.LogLevel = "INFO"
	c.Core.LogFile = ""
	c.Core.BaseDir = ""

	c.Fw.Threads = 1
	c.Fw.QueueSize = 1024
	c.Fw.DefaultStrategy = "/localhost/nfd/strategy/best-route/v=1"
	c.Fw.NackOnReject = true

	c.Tables.Pit.DefaultLifetime = 4000
	c.Tables.DeadNonceList.Lifetime = 6000
	c.Tables.Tib.DefaultLifetime = 0
	c.Tables.Tib.PruneInterval = 10000

	c.Metrics.Enabled = false
	c.Metrics.Listen = ""

	return c
}

// Validate checks the values that cannot be caught by the YAML decoder.
func (c *Config) Validate() error {
	var errs []error
	if _, err := log.ParseLevel(c.Core.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("core.log_level %q: %w", c.Core.LogLevel, err))
	}
	if c.Fw.Threads < 1 {
		errs = append(errs, fmt.Errorf("fw.threads must be positive, got %d", c.Fw.Threads))
	}
	if c.Fw.QueueSize < 1 {
		errs = append(errs, fmt.Errorf("fw.queue_size must be positive, got %d", c.Fw.QueueSize))
	}
	if c.Tables.Pit.DefaultLifetime <= 0 {
		errs = append(errs, fmt.Errorf("tables.pit.default_lifetime must be positive, got %d", c.Tables.Pit.DefaultLifetime))
	}
	if c.Tables.DeadNonceList.Lifetime <= 0 {
		errs = append(errs, fmt.Errorf("tables.dead_nonce_list.lifetime must be positive, got %d", c.Tables.DeadNonceList.Lifetime))
	}
	if c.Tables.Tib.DefaultLifetime < 0 {
		errs = append(errs, fmt.Errorf("tables.tib.default_lifetime must not be negative, got %d", c.Tables.Tib.DefaultLifetime))
	}
	if c.Tables.Tib.PruneInterval < 0 {
		errs = append(errs, fmt.Errorf("tables.tib.prune_interval must not be negative, got %d", c.Tables.Tib.PruneInterval))
	}
	return errors.Join(errs...)
}

// ResolveRelPath resolves a possibly relative path based on config file path.
func (c *Config) ResolveRelPath(target string) string {
	if filepath.IsAbs(target) {
		return target
	}
	return filepath.Join(c.Core.BaseDir, target)
}
