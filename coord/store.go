// Package coord implements the work-dispatch coordinator.
/*
 * Copyright (c) 2025, AO3Scraper Authors. All rights reserved.
 */
package coord

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/apaz-cli/ao3scraper/cmn/cos"
	"github.com/apaz-cli/ao3scraper/cmn/nlog"
	"github.com/apaz-cli/ao3scraper/cmn/rangeset"
	"github.com/pkg/errors"
)

type (
	// WorkRecord is one completed work as submitted by a worker and as
	// persisted, one per line, in results.jsonl.
	WorkRecord struct {
		ID       string            `json:"id"`
		Title    string            `json:"title"`
		Metadata map[string]string `json:"metadata"`
		Chapters []Chapter         `json:"chapters"`
	}
	Chapter struct {
		Title string `json:"title"`
		Text  string `json:"text"`
	}

	// store composes the three durable logs with their in-memory RangeSet
	// caches. The log files are the ground truth; the sets are rebuilt from
	// them on every start. `assigned` is never persisted - a restart returns
	// all in-flight work to the pool.
	//
	// Callers serialize every mutation (and every durable append) through the
	// manager mutex.
	store struct {
		config *Config

		publicLog  *durableLog
		privateLog *durableLog
		resultsLog *durableLog

		completed *rangeset.RangeSet
		private   *rangeset.RangeSet
		assigned  *rangeset.RangeSet
	}
)

func (r *WorkRecord) WorkID() (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.ID), 10, 64)
	if err != nil || id < 1 {
		return 0, errors.Errorf("invalid work id %q", r.ID)
	}
	return id, nil
}

func openStore(config *Config) (*store, error) {
	if err := cos.CreateDir(config.OutputDir); err != nil {
		return nil, errors.Wrapf(err, "create output dir %q", config.OutputDir)
	}
	s := &store{
		config:    config,
		completed: rangeset.New(),
		private:   rangeset.New(),
		assigned:  rangeset.New(),
	}
	var err error
	if s.publicLog, err = openDurableLog(config.PublicPath()); err != nil {
		return nil, err
	}
	if s.privateLog, err = openDurableLog(config.PrivatePath()); err != nil {
		return nil, err
	}
	if s.resultsLog, err = openDurableLog(config.ResultsPath()); err != nil {
		return nil, err
	}

	nlog.Infof("loading completed work IDs from %s", config.PublicPath())
	if err := loadIDLog(config.PublicPath(), s.completed); err != nil {
		return nil, err
	}
	nlog.Infof("loading private work IDs from %s", config.PrivatePath())
	if err := loadIDLog(config.PrivatePath(), s.private); err != nil {
		return nil, err
	}
	nlog.Infof("recovered: %d completed, %d private", s.completed.Cardinality(), s.private.Cardinality())
	return s, nil
}

// loadIDLog scans one integer-per-line log into rs. Unparsable lines are
// skipped: a torn final line after a crash must not poison recovery.
func loadIDLog(path string, rs *rangeset.RangeSet) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %q", path)
	}
	defer cos.Close(file)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		id, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			nlog.Warningf("%s: skipping unparsable line %q", path, line)
			continue
		}
		rs.Add(id)
	}
	return errors.Wrapf(scanner.Err(), "scan %q", path)
}

// commitCompleted persists one completed work. Ordering is the crash-safety
// contract: the JSON payload reaches disk before the public.txt membership
// marker, so a crash in between leaves at worst a dangling payload that a
// re-scrape duplicates - never a marker without payload.
//
// Returns firstTime=false for a duplicate submission: the payload is appended
// again (consumers dedupe by id) but the marker append is skipped.
func (s *store) commitCompleted(id int64, record []byte) (firstTime bool, err error) {
	if err = s.resultsLog.Append(record); err != nil {
		return false, err
	}
	if s.completed.Contains(id) {
		return false, nil
	}
	if err = s.publicLog.AppendInt(id); err != nil {
		return false, err
	}
	s.completed.Add(id)
	s.assigned.Discard(id)
	return true, nil
}

// commitPrivate records an upstream "definitively not available" verdict.
func (s *store) commitPrivate(id int64) (firstTime bool, err error) {
	if s.private.Contains(id) {
		return false, nil
	}
	if err = s.privateLog.AppendInt(id); err != nil {
		return false, err
	}
	s.private.Add(id)
	s.assigned.Discard(id)
	return true, nil
}

func (s *store) resultsSize() int64 { return s.resultsLog.Size() }

func (s *store) close() {
	cos.Close(s.publicLog)
	cos.Close(s.privateLog)
	cos.Close(s.resultsLog)
}
