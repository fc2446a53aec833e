// Package rangeset provides a memory-efficient integer set
/*
 * Copyright (c) 2025, AO3Scraper Authors. All rights reserved.
 */
package rangeset_test

import (
	"math/rand"
	"sort"

	"github.com/apaz-cli/ao3scraper/cmn/rangeset"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

func naiveFilter(present map[int64]bool, lo, hi int64) []int64 {
	var out []int64
	for v := lo; v <= hi; v++ {
		if !present[v] {
			out = append(out, v)
		}
	}
	return out
}

var _ = Describe("RangeSet", func() {
	It("should round-trip an arbitrary value list", func() {
		rnd := rand.New(rand.NewSource(42))
		values := make([]int64, 0, 500)
		present := make(map[int64]bool, 500)
		for i := 0; i < 500; i++ {
			v := rnd.Int63n(1000) + 1
			values = append(values, v)
			present[v] = true
		}
		rs := rangeset.FromValues(values)
		Expect(rs.Cardinality()).To(Equal(int64(len(present))))
		for v := int64(1); v <= 1000; v++ {
			Expect(rs.Contains(v)).To(Equal(present[v]), "value %d", v)
		}
	})

	It("should compact consecutive runs into single ranges", func() {
		rs := rangeset.FromValues([]int64{1, 2, 3, 5, 7, 8, 9})
		Expect(rs.Ranges()).To(Equal([]rangeset.Range{{1, 3}, {5, 5}, {7, 9}}))
		Expect(rs.Contains(6)).To(BeFalse())
		Expect(rs.FilterRange(1, 10)).To(Equal([]int64{4, 6, 10}))
	})

	It("should merge neighbours on add and split on discard", func() {
		rs := rangeset.FromValues([]int64{1, 2, 3, 5, 7, 8, 9})
		rs.Add(4)
		Expect(rs.Ranges()).To(Equal([]rangeset.Range{{1, 5}, {7, 9}}))
		rs.Discard(2)
		Expect(rs.Ranges()).To(Equal([]rangeset.Range{{1, 1}, {3, 5}, {7, 9}}))
	})

	It("should treat add and discard as idempotent", func() {
		rs := rangeset.FromValues([]int64{1, 2, 3, 10})
		rs.Add(2)
		Expect(rs.Ranges()).To(Equal([]rangeset.Range{{1, 3}, {10, 10}}))
		rs.Discard(7)
		Expect(rs.Ranges()).To(Equal([]rangeset.Range{{1, 3}, {10, 10}}))
		rs.Discard(10)
		rs.Discard(10)
		Expect(rs.Ranges()).To(Equal([]rangeset.Range{{1, 3}}))
	})

	It("should satisfy the filter-range law on random sets", func() {
		rnd := rand.New(rand.NewSource(7))
		for iter := 0; iter < 20; iter++ {
			present := make(map[int64]bool)
			rs := rangeset.New()
			for i := 0; i < 200; i++ {
				v := rnd.Int63n(300) + 1
				rs.Add(v)
				present[v] = true
			}
			lo := rnd.Int63n(300) + 1
			hi := lo + rnd.Int63n(100)
			got := rs.FilterRange(lo, hi)
			want := naiveFilter(present, lo, hi)
			if want == nil {
				Expect(got).To(BeEmpty())
			} else {
				Expect(got).To(Equal(want))
			}
		}
	})

	It("should produce commutative unions", func() {
		a := rangeset.FromValues([]int64{1, 2, 3, 50, 51, 100})
		b := rangeset.FromValues([]int64{3, 4, 5, 51, 52, 200})
		ab, ba := a.Union(b), b.Union(a)
		Expect(ab.Ranges()).To(Equal(ba.Ranges()))
		for _, v := range []int64{1, 2, 3, 4, 5, 50, 51, 52, 100, 200} {
			Expect(ab.Contains(v)).To(BeTrue(), "value %d", v)
		}
		Expect(ab.Contains(6)).To(BeFalse())
		Expect(ab.Contains(99)).To(BeFalse())
		Expect(ab.Cardinality()).To(Equal(int64(10)))
	})

	It("should union with an empty set into a copy", func() {
		a := rangeset.FromValues([]int64{5, 6, 7})
		empty := rangeset.New()
		u := a.Union(empty)
		Expect(u.Ranges()).To(Equal(a.Ranges()))
		u.Add(100)
		Expect(a.Contains(100)).To(BeFalse())
	})

	It("should pop values from the front across range boundaries", func() {
		rs := rangeset.FromValues([]int64{1, 2, 3, 7, 8, 20})
		Expect(rs.PopFront(4)).To(Equal([]int64{1, 2, 3, 7}))
		Expect(rs.Ranges()).To(Equal([]rangeset.Range{{8, 8}, {20, 20}}))
		Expect(rs.PopFront(10)).To(Equal([]int64{8, 20}))
		Expect(rs.PopFront(1)).To(BeEmpty())
	})

	It("should clone without sharing state", func() {
		a := rangeset.FromValues([]int64{1, 2, 3})
		b := a.Clone()
		b.Add(10)
		Expect(a.Contains(10)).To(BeFalse())
		Expect(b.Contains(10)).To(BeTrue())
	})

	DescribeTable("filter-range edge cases",
		func(values []int64, lo, hi int64, expected []int64) {
			rs := rangeset.FromValues(values)
			got := rs.FilterRange(lo, hi)
			if expected == nil {
				Expect(got).To(BeEmpty())
			} else {
				Expect(got).To(Equal(expected))
			}
		},
		Entry("inverted bounds", []int64{1, 2, 3}, int64(5), int64(1), nil),
		Entry("empty set emits the whole interval", nil, int64(1), int64(4), []int64{1, 2, 3, 4}),
		Entry("fully covered interval", []int64{1, 2, 3, 4, 5}, int64(2), int64(4), nil),
		Entry("interval past all ranges", []int64{1, 2, 3}, int64(10), int64(12), []int64{10, 11, 12}),
		Entry("interval before all ranges", []int64{10, 11}, int64(1), int64(3), []int64{1, 2, 3}),
		Entry("single value gap", []int64{1, 3}, int64(1), int64(3), []int64{2}),
	)

	It("should keep ranges sorted and non-adjacent after random operations", func() {
		rnd := rand.New(rand.NewSource(1))
		rs := rangeset.New()
		for i := 0; i < 2000; i++ {
			v := rnd.Int63n(500) + 1
			if rnd.Intn(3) == 0 {
				rs.Discard(v)
			} else {
				rs.Add(v)
			}
			ranges := rs.Ranges()
			sorted := sort.SliceIsSorted(ranges, func(i, j int) bool { return ranges[i].Lo < ranges[j].Lo })
			Expect(sorted).To(BeTrue())
			for j := 1; j < len(ranges); j++ {
				Expect(ranges[j].Lo).To(BeNumerically(">", ranges[j-1].Hi+1))
			}
		}
	})
})
