// Package cos provides common low-level types and utilities for the ao3scraper projects
/*
 * Copyright (c) 2025, AO3Scraper Authors. All rights reserved.
 */
package cos

import (
	"os"
	"path/filepath"
)

const (
	// default file and directory permissions
	PermRWR   os.FileMode = 0o644
	PermRWXRX os.FileMode = 0o755
)

// CreateDir creates directory if it does not exist. If the directory already
// exists returns nil.
func CreateDir(dir string) error {
	return os.MkdirAll(dir, PermRWXRX)
}

// CreateFile creates a new file (and the parent directory when missing).
func CreateFile(fqn string) (*os.File, error) {
	if err := CreateDir(filepath.Dir(fqn)); err != nil {
		return nil, err
	}
	return os.OpenFile(fqn, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, PermRWR)
}

// OpenAppend opens (creating if necessary) a file for appending.
func OpenAppend(fqn string) (*os.File, error) {
	if err := CreateDir(filepath.Dir(fqn)); err != nil {
		return nil, err
	}
	return os.OpenFile(fqn, os.O_CREATE|os.O_WRONLY|os.O_APPEND, PermRWR)
}

func Stat(fqn string) error {
	_, err := os.Stat(fqn)
	return err
}

func FileSize(fqn string) int64 {
	finfo, err := os.Stat(fqn)
	if err != nil {
		return 0
	}
	return finfo.Size()
}

func FileExists(fqn string) bool { return Stat(fqn) == nil }

func RemoveFile(fqn string) error {
	err := os.Remove(fqn)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}
