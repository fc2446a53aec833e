// Package coord implements the work-dispatch coordinator.
/*
 * Copyright (c) 2025, AO3Scraper Authors. All rights reserved.
 */
package coord

import (
	"context"
	"time"

	"github.com/apaz-cli/ao3scraper/cmn/nlog"
	"github.com/apaz-cli/ao3scraper/stats"
)

const (
	queueLowWater    = 5000
	queueRefillBatch = 30000

	producerIdleSleep = time.Second
)

// dispatchQueue is a bounded FIFO of pending IDs. The producer refills it from
// the tail whenever it drops below the low-water mark; dequeue drains from the
// head. All access happens under the manager mutex.
type dispatchQueue struct {
	pending      []int64
	lastQueuedID int64
}

func (q *dispatchQueue) size() int { return len(q.pending) }

// drain removes and returns up to n IDs from the head.
func (q *dispatchQueue) drain(n int) []int64 {
	if n > len(q.pending) {
		n = len(q.pending)
	}
	if n == 0 {
		return nil
	}
	out := make([]int64, n)
	copy(out, q.pending[:n])
	q.pending = q.pending[n:]
	if len(q.pending) == 0 {
		q.pending = nil // release the drained backing array
	}
	return out
}

func (q *dispatchQueue) push(ids []int64) {
	q.pending = append(q.pending, ids...)
}

// runProducer keeps the queue populated until the ID space is exhausted.
// Each refill is the snapshot-then-filter cycle: snapshot the exclusion sets
// and the cursor under the mutex, enumerate the fresh IDs outside it, then
// push under the mutex again.
func (m *Manager) runProducer(ctx context.Context) {
	nlog.Infof("producer: starting at cursor %d, end %d", m.queue.lastQueuedID, m.config.EndID)
	for {
		added, done := m.refillOnce()
		if done {
			nlog.Infoln("producer: ID space exhausted, going idle")
			<-ctx.Done()
			return
		}
		if added == 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(producerIdleSleep):
			}
		}
	}
}

// refillOnce performs at most one refill cycle. Once the cursor has reached
// endID nothing more is queued - from then on the queue only drains; done is
// reported when, in addition, the queue is empty.
func (m *Manager) refillOnce() (added int, done bool) {
	m.mu.Lock()
	if m.queue.lastQueuedID >= m.config.EndID {
		done = m.queue.size() == 0
		m.mu.Unlock()
		return 0, done
	}
	if m.queue.size() >= queueLowWater {
		m.mu.Unlock()
		return 0, false
	}
	start := m.queue.lastQueuedID + 1
	end := start + queueRefillBatch - 1
	if end > m.config.EndID {
		end = m.config.EndID
	}
	excluded := m.store.completed.Union(m.store.private).Union(m.store.assigned)
	m.mu.Unlock()

	// the expensive enumeration runs outside the lock
	fresh := excluded.FilterRange(start, end)

	m.mu.Lock()
	// IDs may have transitioned since the snapshot; re-check so that the
	// queue only ever receives IDs pending at enqueue time
	valid := fresh[:0]
	for _, id := range fresh {
		if m.store.completed.Contains(id) || m.store.private.Contains(id) || m.store.assigned.Contains(id) {
			continue
		}
		valid = append(valid, id)
	}
	m.queue.push(valid)
	m.queue.lastQueuedID = end
	m.tstats.Set(stats.QueueDepth, int64(m.queue.size()))
	m.mu.Unlock()

	if len(valid) > 0 {
		nlog.Infof("producer: queued %d/%d IDs from [%d, %d]", len(valid), len(fresh), start, end)
	}
	return len(valid), false
}
