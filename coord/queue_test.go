// Package coord implements the work-dispatch coordinator.
/*
 * Copyright (c) 2025, AO3Scraper Authors. All rights reserved.
 */
package coord

import (
	"os"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("DispatchQueue", func() {
	var (
		dir string
		mgr *Manager
	)

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "queuetest")
		Expect(err).NotTo(HaveOccurred())
	})
	AfterEach(func() {
		if mgr != nil {
			mgr.store.close()
			mgr = nil
		}
		os.RemoveAll(dir)
	})

	It("should serve batches in ascending ID order", func() {
		mgr = testManager(dir, 1, 10)
		mgr.refillOnce()
		Expect(mgr.GetBatch(4, "worker-a")).To(Equal([]int64{1, 2, 3, 4}))
		Expect(mgr.GetBatch(4, "worker-b")).To(Equal([]int64{5, 6, 7, 8}))

		Expect(mgr.SubmitCompleted(record("2", "two"))).To(Succeed())
		Expect(mgr.SubmitPrivate(3)).To(Succeed())

		progress := mgr.Progress()
		Expect(progress.Completed).To(Equal(int64(1)))
		Expect(progress.Private).To(Equal(int64(1)))
		Expect(progress.Remaining).To(Equal(int64(8)))
		Expect(progress.ConnectedWorkers).To(Equal(2))
	})

	It("should mark dispatched IDs assigned and exclude them from refills", func() {
		mgr = testManager(dir, 1, 50)
		mgr.refillOnce()
		ids := mgr.GetBatch(5, "w")
		Expect(ids).To(HaveLen(5))
		for _, id := range ids {
			Expect(mgr.store.assigned.Contains(id)).To(BeTrue())
		}
		// drain the rest; the exhausted producer must not re-enqueue assigned IDs
		rest := mgr.GetBatch(100, "w")
		Expect(rest).To(HaveLen(45))
		added, _ := mgr.refillOnce()
		Expect(added).To(BeZero())
		Expect(mgr.GetBatch(10, "w")).To(BeEmpty())
	})

	It("should report done only once exhausted and drained", func() {
		mgr = testManager(dir, 1, 20)
		added, done := mgr.refillOnce()
		Expect(added).To(Equal(20))
		Expect(done).To(BeFalse())

		_, done = mgr.refillOnce()
		Expect(done).To(BeFalse()) // queue still holds IDs

		mgr.GetBatch(20, "w")
		_, done = mgr.refillOnce()
		Expect(done).To(BeTrue())
	})

	It("should not refill above the low-water mark", func() {
		mgr = testManager(dir, 1, 100_000)
		added, _ := mgr.refillOnce()
		Expect(added).To(Equal(queueRefillBatch))
		// queue is full; a second cycle is a no-op
		added, _ = mgr.refillOnce()
		Expect(added).To(BeZero())
		// dropping below low-water reopens the tap
		mgr.GetBatch(queueRefillBatch-queueLowWater+1, "w")
		added, _ = mgr.refillOnce()
		Expect(added).To(Equal(queueRefillBatch))
	})

	It("should exclude IDs committed before the refill", func() {
		mgr = testManager(dir, 1, 10)
		// committed outside any assignment, before the first refill
		Expect(mgr.SubmitCompleted(record("1", "one"))).To(Succeed())
		Expect(mgr.SubmitPrivate(2)).To(Succeed())
		mgr.refillOnce()
		Expect(mgr.GetBatch(10, "w")).To(Equal([]int64{3, 4, 5, 6, 7, 8, 9, 10}))
	})

	It("should return in-flight assignments to the pool on restart", func() {
		mgr = testManager(dir, 1, 10)
		mgr.refillOnce()
		Expect(mgr.GetBatch(10, "w")).To(HaveLen(10))
		Expect(mgr.SubmitCompleted(record("1", "one"))).To(Succeed())
		mgr.store.close()

		mgr = testManager(dir, 1, 10)
		Expect(mgr.store.assigned.Cardinality()).To(BeZero())
		mgr.refillOnce()
		Expect(mgr.GetBatch(10, "w")).To(Equal([]int64{2, 3, 4, 5, 6, 7, 8, 9, 10}))
	})

	It("should clamp oversized and reject non-positive batch sizes", func() {
		mgr = testManager(dir, 1, 5)
		mgr.refillOnce()
		Expect(mgr.GetBatch(0, "w")).To(BeEmpty())
		Expect(mgr.GetBatch(-1, "w")).To(BeEmpty())
		Expect(mgr.GetBatch(1000, "w")).To(Equal([]int64{1, 2, 3, 4, 5}))
	})
})
