// Package ios is a small collection of interfaces to the local storage subsystem.
/*
 * Copyright (c) 2025, AO3Scraper Authors. All rights reserved.
 */
package ios

import (
	"golang.org/x/sys/unix"
)

func GetFSStats(path string) (blocks, bavail uint64, bsize int64, err error) {
	var fsStats unix.Statfs_t
	if err = unix.Statfs(path, &fsStats); err != nil {
		return
	}
	return fsStats.Blocks, fsStats.Bavail, fsStats.Bsize, nil
}

// GetFSUsedPercentage returns, for the filesystem containing the path, the
// share of blocks not available to unprivileged users, rounded down. Blocks
// reserved for root count as used, so the value can differ from df's "Use%".
func GetFSUsedPercentage(path string) (usedPercentage int64, ok bool) {
	blocks, bavail, _, err := GetFSStats(path)
	if err != nil || blocks == 0 {
		return
	}
	used := blocks - bavail
	return int64(used * 100 / blocks), true
}
