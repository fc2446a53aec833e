// Package coord implements the work-dispatch coordinator: the single node that
// owns the on-disk scrape state, hands ID batches to workers, and records every
// outcome durably.
/*
 * Copyright (c) 2025, AO3Scraper Authors. All rights reserved.
 */
package coord

import (
	"fmt"
	"net"
	"path/filepath"
	"strconv"

	"github.com/apaz-cli/ao3scraper/cmn/fname"
)

const (
	DfltStartID = 1
	DfltEndID   = 16_000_000
	DfltPort    = 8000
)

type Config struct {
	OutputDir string
	StartID   int64
	EndID     int64
	Host      string
	Port      int
}

func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output dir must be specified")
	}
	if c.StartID < 1 {
		return fmt.Errorf("start-id must be positive, got %d", c.StartID)
	}
	if c.EndID < c.StartID {
		return fmt.Errorf("end-id %d precedes start-id %d", c.EndID, c.StartID)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *Config) PublicPath() string  { return filepath.Join(c.OutputDir, fname.PublicIDs) }
func (c *Config) PrivatePath() string { return filepath.Join(c.OutputDir, fname.PrivateIDs) }
func (c *Config) ResultsPath() string { return filepath.Join(c.OutputDir, fname.Results) }

func (c *Config) RotatedPath(k int) string {
	return filepath.Join(c.OutputDir, fmt.Sprintf(fname.RotatedFmt, k))
}
