// Package nlog - ao3scraper logger, provides buffering, timestamping, writing, and
// flushing/syncing
/*
 * Copyright (c) 2025, AO3Scraper Authors. All rights reserved.
 */
package nlog

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

type severity int

const (
	sevInfo severity = iota
	sevWarn
	sevErr
)

const bufSize = 32 * 1024

var sevChar = [...]byte{'I', 'W', 'E'}

var (
	toStderr     bool
	alsoToStderr bool

	logDir string
	role   string
	title  string

	mw      sync.Mutex
	file    *os.File
	writer  *bufio.Writer
	openErr error
)

func log(sev severity, depth int, format string, args ...any) {
	var msg string
	if format == "" {
		msg = fmt.Sprintln(args...)
	} else {
		msg = fmt.Sprintf(format, args...)
		if msg == "" || msg[len(msg)-1] != '\n' {
			msg += "\n"
		}
	}
	line := header(sev, depth+3) + msg

	mw.Lock()
	defer mw.Unlock()
	if toStderr || alsoToStderr || sev == sevErr || logDir == "" {
		os.Stderr.WriteString(line)
	}
	if toStderr {
		return
	}
	if w := sink(); w != nil {
		w.WriteString(line)
	}
}

// "L hh:mm:ss.uuuuuu file:line] "
func header(sev severity, depth int) string {
	fn, ln := "???", 0
	if _, fqn, l, ok := runtime.Caller(depth); ok {
		fn, ln = filepath.Base(fqn), l
	}
	return fmt.Sprintf("%c %s %s:%d] ", sevChar[sev], time.Now().Format("15:04:05.000000"), fn, ln)
}

// caller holds mw
func sink() *bufio.Writer {
	if writer != nil {
		return writer
	}
	if openErr != nil || logDir == "" {
		return nil
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		openErr = err
		fmt.Fprintf(os.Stderr, "nlog: %v\n", err)
		return nil
	}
	fqn := filepath.Join(logDir, sname()+".log")
	f, err := os.OpenFile(fqn, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		openErr = err
		fmt.Fprintf(os.Stderr, "nlog: %v\n", err)
		return nil
	}
	file = f
	writer = bufio.NewWriterSize(f, bufSize)
	if title != "" {
		writer.WriteString(title + "\n")
	}
	return writer
}

func sname() string {
	if role == "" {
		return filepath.Base(os.Args[0])
	}
	return role
}
