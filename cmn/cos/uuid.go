// Package cos provides common low-level types and utilities for the ao3scraper projects
/*
 * Copyright (c) 2025, AO3Scraper Authors. All rights reserved.
 */
package cos

import (
	"sync"

	"github.com/teris-io/shortid"
)

const (
	// Alphabet for generating UUIDs similar to the shortid.DEFAULT_ABC
	uuidABC = "-5nZJDft6LuzsjGNpPwY7rQa39vehq4i1cV2FROo8yHSlC0BUEdWbIxMmTgKXAk_"

	LenShortID = 9 // UUID length, as per https://github.com/teris-io/shortid#id-length
)

var (
	sid     *shortid.Shortid
	sidOnce sync.Once
)

func InitShortID(seed uint64) {
	sidOnce.Do(func() {
		sid = shortid.MustNew(4 /*worker*/, uuidABC, seed)
	})
}

// GenUUID generates a short unique ID for run and batch-lease identification
// (logs and stats labels only, never the wire protocol).
func GenUUID() string {
	return sid.MustGenerate()
}
