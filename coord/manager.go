// Package coord implements the work-dispatch coordinator.
/*
 * Copyright (c) 2025, AO3Scraper Authors. All rights reserved.
 */
package coord

import (
	"context"
	"sync"
	"time"

	"github.com/apaz-cli/ao3scraper/cmn/cos"
	"github.com/apaz-cli/ao3scraper/cmn/mono"
	"github.com/apaz-cli/ao3scraper/cmn/nlog"
	"github.com/apaz-cli/ao3scraper/hk"
	"github.com/apaz-cli/ao3scraper/ios"
	"github.com/apaz-cli/ao3scraper/stats"
)

type (
	// Progress is the /progress snapshot the monitor consumes.
	Progress struct {
		Completed          int64   `json:"completed"`
		Private            int64   `json:"private"`
		TotalProcessed     int64   `json:"total_processed"`
		Remaining          int64   `json:"remaining"`
		ProgressPercent    float64 `json:"progress_percent"`
		DiskUsagePercent   int64   `json:"disk_usage_percent"`
		ConnectedWorkers   int     `json:"connected_workers"`
		ResultsFileSize    int64   `json:"results_file_size"`
		AvailableQueueSize int     `json:"available_queue_size"`
	}

	// Manager orchestrates the store and the dispatch queue behind one coarse
	// mutex. Durable log appends happen with the mutex held - commit ordering
	// must hold even under crash, and fsync latency, not lock contention,
	// bounds throughput here.
	Manager struct {
		config *Config
		store  *store
		queue  dispatchQueue
		tstats *stats.Tracker
		runID  string

		mu sync.Mutex

		// unique worker addresses for observability; housekept
		clients map[string]int64 // addr -> last seen (mono ns)
	}
)

const clientExpiry = 2 * time.Hour

func NewManager(config *Config, tstats *stats.Tracker, runID string) (*Manager, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	cos.InitShortID(uint64(mono.NanoTime()))
	s, err := openStore(config)
	if err != nil {
		return nil, err
	}
	m := &Manager{
		config:  config,
		store:   s,
		tstats:  tstats,
		runID:   runID,
		clients: make(map[string]int64, 64),
	}
	m.queue.lastQueuedID = config.StartID - 1
	return m, nil
}

// Run starts the background producer and registers housekeeping; it returns
// when ctx is canceled. All durable state is already on disk at that point -
// shutdown needs no further work.
func (m *Manager) Run(ctx context.Context) error {
	hk.Reg("clients"+hk.NameSuffix, m.housekeepClients, hk.PruneInterval)
	hk.Reg("diskusage"+hk.NameSuffix, m.refreshDiskUsage, hk.MinInterval)
	defer func() {
		hk.Unreg("clients" + hk.NameSuffix)
		hk.Unreg("diskusage" + hk.NameSuffix)
		m.store.close()
	}()
	m.runProducer(ctx)
	return nil
}

// GetBatch drains up to n pending IDs and marks each assigned.
//
// TODO: an ID assigned to a worker that vanishes stays in `assigned` until
// the next restart clears the set - the producer cursor never revisits it.
// Needs an assignment TTL with requeue.
func (m *Manager) GetBatch(n int, client string) []int64 {
	if n <= 0 {
		return nil
	}
	m.mu.Lock()
	if client != "" {
		m.clients[client] = mono.NanoTime()
	}
	ids := m.queue.drain(n)
	for _, id := range ids {
		m.store.assigned.Add(id)
	}
	m.tstats.Set(stats.QueueDepth, int64(m.queue.size()))
	m.tstats.Set(stats.AssignedGauge, m.store.assigned.Cardinality())
	m.mu.Unlock()

	m.tstats.Inc(stats.BatchCount)
	m.tstats.Add(stats.DispatchedIDs, int64(len(ids)))
	if len(ids) > 0 {
		nlog.Infof("batch %s: dispatched %d IDs [%d..%d] to %s",
			cos.GenUUID(), len(ids), ids[0], ids[len(ids)-1], client)
	}
	return ids
}

// SubmitCompleted validates and durably commits one completed work.
func (m *Manager) SubmitCompleted(rec *WorkRecord) error {
	id, err := rec.WorkID()
	if err != nil {
		return err
	}
	record := cos.MustMarshal(rec)

	m.mu.Lock()
	firstTime, err := m.store.commitCompleted(id, record)
	m.mu.Unlock()

	if err != nil {
		m.tstats.Inc(stats.CommitErrCount)
		nlog.Errorf("commit completed %d: %v", id, err)
		return err
	}
	if firstTime {
		m.tstats.Inc(stats.CompletedCount)
	} else {
		m.tstats.Inc(stats.DuplicateCount)
	}
	return nil
}

// SubmitPrivate durably commits an upstream not-available verdict.
func (m *Manager) SubmitPrivate(id int64) error {
	m.mu.Lock()
	firstTime, err := m.store.commitPrivate(id)
	m.mu.Unlock()

	if err != nil {
		m.tstats.Inc(stats.CommitErrCount)
		nlog.Errorf("commit private %d: %v", id, err)
		return err
	}
	if firstTime {
		m.tstats.Inc(stats.PrivateCount)
	}
	return nil
}

func (m *Manager) Progress() *Progress {
	m.mu.Lock()
	var (
		completed = m.store.completed.Cardinality()
		private   = m.store.private.Cardinality()
		queueSize = m.queue.size()
		nclients  = len(m.clients)
		size      = m.store.resultsSize()
	)
	m.mu.Unlock()

	var (
		processed  = completed + private
		totalRange = m.config.EndID - m.config.StartID + 1
		pct        float64
	)
	if totalRange > 0 {
		pct = float64(processed) / float64(totalRange) * 100
	}
	diskUsed, _ := ios.GetFSUsedPercentage(m.config.OutputDir)
	return &Progress{
		Completed:          completed,
		Private:            private,
		TotalProcessed:     processed,
		Remaining:          totalRange - processed,
		ProgressPercent:    pct,
		DiskUsagePercent:   diskUsed,
		ConnectedWorkers:   nclients,
		ResultsFileSize:    size,
		AvailableQueueSize: queueSize,
	}
}

// FileStatus reports the live results log for the external archiver.
func (m *Manager) FileStatus() (size int64, path string) {
	m.mu.Lock()
	size = m.store.resultsSize()
	m.mu.Unlock()
	return size, m.config.ResultsPath()
}

func (m *Manager) housekeepClients() time.Duration {
	now := mono.NanoTime()
	m.mu.Lock()
	for addr, seen := range m.clients {
		if time.Duration(now-seen) > clientExpiry {
			delete(m.clients, addr)
		}
	}
	m.mu.Unlock()
	return hk.PruneInterval
}

func (m *Manager) refreshDiskUsage() time.Duration {
	if used, ok := ios.GetFSUsedPercentage(m.config.OutputDir); ok {
		m.tstats.Set(stats.DiskUsedGauge, used)
	}
	return hk.MinInterval
}
