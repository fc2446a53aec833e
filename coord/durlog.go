// Package coord implements the work-dispatch coordinator.
/*
 * Copyright (c) 2025, AO3Scraper Authors. All rights reserved.
 */
package coord

import (
	"os"
	"strconv"

	"github.com/apaz-cli/ao3scraper/cmn/cos"
	"github.com/pkg/errors"
)

// durableLog is an append-only file of newline-terminated records. A record is
// committed only once the bytes have been written and fsync-ed; on any error
// the caller must treat the record as never written and leave its in-memory
// caches untouched.
//
// Not safe for concurrent use: callers serialize through the manager mutex.
type durableLog struct {
	path string
	file *os.File
}

func openDurableLog(path string) (*durableLog, error) {
	l := &durableLog{path: path}
	if err := l.reopen(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *durableLog) reopen() error {
	file, err := cos.OpenAppend(l.path)
	if err != nil {
		return errors.Wrapf(err, "open %q", l.path)
	}
	l.file = file
	return nil
}

// Append writes rec plus a trailing LF and fsyncs. The handle is reopened
// lazily when rotation has detached it.
func (l *durableLog) Append(rec []byte) error {
	if l.file == nil {
		if err := l.reopen(); err != nil {
			return err
		}
	}
	buf := make([]byte, 0, len(rec)+1)
	buf = append(buf, rec...)
	buf = append(buf, '\n')
	if _, err := l.file.Write(buf); err != nil {
		return errors.Wrapf(err, "append %q", l.path)
	}
	// os.File writes are unbuffered in user space; Sync is the flush-to-disk
	// step that commits the record.
	if err := l.file.Sync(); err != nil {
		return errors.Wrapf(err, "fsync %q", l.path)
	}
	return nil
}

func (l *durableLog) AppendInt(v int64) error {
	return l.Append(strconv.AppendInt(nil, v, 10))
}

// detach closes the handle; the next Append recreates the file at l.path.
// Called by rotation after renaming the file away.
func (l *durableLog) detach() {
	if l.file != nil {
		cos.Close(l.file)
		l.file = nil
	}
}

func (l *durableLog) Size() int64 { return cos.FileSize(l.path) }

func (l *durableLog) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
