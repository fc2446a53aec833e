// Package nlog - ao3scraper logger, provides buffering, timestamping, writing, and
// flushing/syncing
/*
 * Copyright (c) 2025, AO3Scraper Authors. All rights reserved.
 */
package nlog

import (
	"flag"
	"fmt"
)

const (
	ActNone = iota
	ActExit
)

func InitFlags(flset *flag.FlagSet) {
	flset.BoolVar(&toStderr, "logtostderr", false, "log to standard error instead of files")
	flset.BoolVar(&alsoToStderr, "alsologtostderr", false, "log to standard error as well as files")
}

func InfoDepth(depth int, args ...any)    { log(sevInfo, depth, "%s", fmt.Sprintln(args...)) }
func Infoln(args ...any)                  { log(sevInfo, 0, "%s", fmt.Sprintln(args...)) }
func Infof(format string, args ...any)    { log(sevInfo, 0, format, args...) }
func Warningln(args ...any)               { log(sevWarn, 0, "%s", fmt.Sprintln(args...)) }
func Warningf(format string, args ...any) { log(sevWarn, 0, format, args...) }
func ErrorDepth(depth int, args ...any)   { log(sevErr, depth, "%s", fmt.Sprintln(args...)) }
func Errorln(args ...any)                 { log(sevErr, 0, "%s", fmt.Sprintln(args...)) }
func Errorf(format string, args ...any)   { log(sevErr, 0, format, args...) }

func SetLogDirRole(dir, r string) { logDir, role = dir, r }
func SetTitle(s string)                 { title = s }

func LogName() string { return sname() + ".log" }

// Flush writes out buffered lines; ActExit additionally syncs and closes the
// underlying file.
func Flush(action int) {
	mw.Lock()
	defer mw.Unlock()
	if writer == nil {
		return
	}
	writer.Flush()
	if action == ActExit && file != nil {
		file.Sync()
		file.Close()
		file, writer = nil, nil
	}
}
