// Package coord implements the work-dispatch coordinator.
/*
 * Copyright (c) 2025, AO3Scraper Authors. All rights reserved.
 */
package coord

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/apaz-cli/ao3scraper/stats"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func testManager(dir string, startID, endID int64) *Manager {
	config := &Config{
		OutputDir: dir,
		StartID:   startID,
		EndID:     endID,
		Host:      "127.0.0.1",
		Port:      DfltPort,
	}
	m, err := NewManager(config, stats.NewTracker("test"), "test")
	Expect(err).NotTo(HaveOccurred())
	return m
}

func record(id, title string) *WorkRecord {
	return &WorkRecord{
		ID:       id,
		Title:    title,
		Metadata: map[string]string{"author": "anon"},
		Chapters: []Chapter{{Title: "1", Text: "once upon a time"}},
	}
}

func fileLines(path string) []string {
	b, err := os.ReadFile(path)
	Expect(err).NotTo(HaveOccurred())
	trimmed := strings.TrimSuffix(string(b), "\n")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

var _ = Describe("Store", func() {
	var (
		dir string
		mgr *Manager
	)

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "coordtest")
		Expect(err).NotTo(HaveOccurred())
	})
	AfterEach(func() {
		if mgr != nil {
			mgr.store.close()
			mgr = nil
		}
		os.RemoveAll(dir)
	})

	It("should create the three logs on first start", func() {
		mgr = testManager(dir, 1, 10)
		for _, name := range []string{"public.txt", "private.txt", "results.jsonl"} {
			_, err := os.Stat(filepath.Join(dir, name))
			Expect(err).NotTo(HaveOccurred())
		}
	})

	It("should recover membership from existing logs", func() {
		Expect(os.WriteFile(filepath.Join(dir, "public.txt"), []byte("1\n3\n5\n"), 0o644)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "private.txt"), []byte("2\n"), 0o644)).To(Succeed())
		mgr = testManager(dir, 1, 10)

		Expect(mgr.store.completed.Cardinality()).To(Equal(int64(3)))
		Expect(mgr.store.private.Cardinality()).To(Equal(int64(1)))

		mgr.refillOnce()
		Expect(mgr.GetBatch(10, "w")).To(Equal([]int64{4, 6, 7, 8, 9, 10}))
	})

	It("should skip unparsable lines during recovery", func() {
		Expect(os.WriteFile(filepath.Join(dir, "public.txt"), []byte("1\nnot-a-number\n3\n\n"), 0o644)).To(Succeed())
		mgr = testManager(dir, 1, 10)
		Expect(mgr.store.completed.Cardinality()).To(Equal(int64(2)))
		Expect(mgr.store.completed.Contains(1)).To(BeTrue())
		Expect(mgr.store.completed.Contains(3)).To(BeTrue())
	})

	It("should persist a mixed sequence across restart", func() {
		mgr = testManager(dir, 1, 100)
		mgr.refillOnce()
		mgr.GetBatch(10, "w")
		Expect(mgr.SubmitCompleted(record("2", "two"))).To(Succeed())
		Expect(mgr.SubmitCompleted(record("5", "five"))).To(Succeed())
		Expect(mgr.SubmitPrivate(3)).To(Succeed())
		mgr.store.close()

		mgr = testManager(dir, 1, 100)
		progress := mgr.Progress()
		Expect(progress.Completed).To(Equal(int64(2)))
		Expect(progress.Private).To(Equal(int64(1)))
		Expect(progress.Remaining).To(Equal(int64(97)))

		// previously submitted IDs never come back; in-flight ones do
		Expect(mgr.store.assigned.Cardinality()).To(BeZero())
		mgr.refillOnce()
		batch := mgr.GetBatch(100, "w")
		Expect(batch).NotTo(ContainElement(int64(2)))
		Expect(batch).NotTo(ContainElement(int64(3)))
		Expect(batch).NotTo(ContainElement(int64(5)))
		Expect(batch).To(ContainElement(int64(1)))
		Expect(batch).To(ContainElement(int64(4)))
		Expect(batch).To(HaveLen(97))
	})

	It("should write exactly one public line under concurrent duplicate submissions", func() {
		mgr = testManager(dir, 1, 100)
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				defer GinkgoRecover()
				Expect(mgr.SubmitCompleted(record("7", "dup"))).To(Succeed())
			}(i)
		}
		wg.Wait()

		Expect(fileLines(filepath.Join(dir, "public.txt"))).To(Equal([]string{"7"}))
		Expect(fileLines(filepath.Join(dir, "results.jsonl"))).To(HaveLen(10))
	})

	It("should not mark completed in memory when the payload append fails", func() {
		mgr = testManager(dir, 1, 100)
		mgr.store.resultsLog.file.Close() // force the next write to fail

		err := mgr.SubmitCompleted(record("9", "nine"))
		Expect(err).To(HaveOccurred())
		Expect(mgr.store.completed.Contains(9)).To(BeFalse())
		Expect(fileLines(filepath.Join(dir, "public.txt"))).To(BeEmpty())
	})

	It("should persist the payload before the membership marker", func() {
		mgr = testManager(dir, 1, 100)
		mgr.store.publicLog.file.Close() // payload append succeeds, marker fails

		err := mgr.SubmitCompleted(record("4", "four"))
		Expect(err).To(HaveOccurred())
		// payload on disk without marker is the tolerated crash outcome;
		// marker without payload must never happen
		Expect(fileLines(filepath.Join(dir, "results.jsonl"))).To(HaveLen(1))
		Expect(fileLines(filepath.Join(dir, "public.txt"))).To(BeEmpty())
		Expect(mgr.store.completed.Contains(4)).To(BeFalse())

		// the worker retries after the fault clears
		Expect(mgr.store.publicLog.reopen()).To(Succeed())
		Expect(mgr.SubmitCompleted(record("4", "four"))).To(Succeed())
		Expect(fileLines(filepath.Join(dir, "public.txt"))).To(Equal([]string{"4"}))
		Expect(fileLines(filepath.Join(dir, "results.jsonl"))).To(HaveLen(2))
	})

	It("should not fail a private submission twice over", func() {
		mgr = testManager(dir, 1, 100)
		Expect(mgr.SubmitPrivate(6)).To(Succeed())
		Expect(mgr.SubmitPrivate(6)).To(Succeed())
		Expect(fileLines(filepath.Join(dir, "private.txt"))).To(Equal([]string{"6"}))
	})

	It("should reject malformed work IDs", func() {
		mgr = testManager(dir, 1, 100)
		for _, bad := range []string{"", "abc", "-3", "0", "1.5"} {
			Expect(mgr.SubmitCompleted(record(bad, "t"))).NotTo(Succeed())
		}
	})
})
