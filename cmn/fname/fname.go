// Package fname contains filename constants for the coordinator's output directory
/*
 * Copyright (c) 2025, AO3Scraper Authors. All rights reserved.
 */
package fname

const (
	// membership logs: one decimal integer per line, LF-terminated
	PublicIDs  = "public.txt"
	PrivateIDs = "private.txt"

	// live results log: one JSON record per line
	Results = "results.jsonl"

	// rotated segments: results_{k}.jsonl and results_{k}.jsonl.gz, k >= 0
	RotatedFmt = "results_%d.jsonl"
	GzSuffix   = ".gz"
)
