// Package cos provides common low-level types and utilities for the ao3scraper projects
/*
 * Copyright (c) 2025, AO3Scraper Authors. All rights reserved.
 */
package cos

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/apaz-cli/ao3scraper/cmn/nlog"
)

type (
	ErrNotFound struct {
		what string
	}
	ErrUnsafeName struct {
		name   string
		reason string
	}
)

// ErrNotFound

func NewErrNotFound(format string, a ...any) *ErrNotFound {
	return &ErrNotFound{fmt.Sprintf(format, a...)}
}

func (e *ErrNotFound) Error() string { return e.what + " does not exist" }

func IsErrNotFound(err error) bool {
	var enf *ErrNotFound
	return errors.As(err, &enf)
}

// ErrUnsafeName

func NewErrUnsafeName(name, reason string) *ErrUnsafeName {
	return &ErrUnsafeName{name: name, reason: reason}
}

func (e *ErrUnsafeName) Error() string {
	return fmt.Sprintf("unsafe filename %q: %s", e.name, e.reason)
}

func IsErrUnsafeName(err error) bool {
	var eun *ErrUnsafeName
	return errors.As(err, &eun)
}

//
// IS-syscall helpers
//

// out of space on the output filesystem
func IsErrOOS(err error) bool {
	return errors.Is(err, syscall.ENOSPC)
}

func IsEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

//
// Abnormal Termination
//

const fatalPrefix = "FATAL ERROR: "

func Exitf(f string, a ...any) {
	msg := fmt.Sprintf(fatalPrefix+f, a...)
	_exit(msg)
}

// +log
func ExitLogf(f string, a ...any) {
	msg := fmt.Sprintf(fatalPrefix+f, a...)
	if flag.Parsed() {
		nlog.ErrorDepth(1, msg)
		nlog.Flush(nlog.ActExit)
	}
	_exit(msg)
}

func _exit(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}

// Close, ignoring the error when there is nothing the caller can do about it
func Close(closer io.Closer) {
	if err := closer.Close(); err != nil {
		nlog.Errorf("close error: %v", err)
	}
}
