// Copyright 2026 The embree Authors
// SPDX-License-Identifier: Apache-2.0

// Package radix sorts (uint64 key, payload) pairs with a least-significant-
// digit radix sort. The topology builder uses it to bring all half-edges
// that share an undirected-edge key into contiguous runs; keys are packed
// vertex-id pairs, so a fixed-width integer sort beats a comparison sort.
package radix

// Pair is one sortable element: a packed edge key and the index of the
// half-edge it belongs to.
type Pair struct {
	Key   uint64
	Value uint32
}

const (
	digitBits = 8
	buckets   = 1 << digitBits
	passes    = 64 / digitBits
)

// Sort orders src by Key ascending, stable in Value order. scratch must have
// the same length as src. The sorted result is guaranteed to end up in src;
// scratch contents are unspecified afterwards.
func Sort(src, scratch []Pair) {
	if len(src) != len(scratch) {
		panic("radix: src and scratch length mismatch")
	}
	if len(src) < 2 {
		return
	}

	a, b := src, scratch
	for pass := 0; pass < passes; pass++ {
		shift := uint(pass * digitBits)

		var count [buckets]int
		for i := range a {
			count[(a[i].Key>>shift)&(buckets-1)]++
		}

		// A pass whose digit is uniform would only copy; skip it.
		if count[(a[0].Key>>shift)&(buckets-1)] == len(a) {
			continue
		}

		ofs := 0
		for d := 0; d < buckets; d++ {
			c := count[d]
			count[d] = ofs
			ofs += c
		}

		for i := range a {
			d := (a[i].Key >> shift) & (buckets - 1)
			b[count[d]] = a[i]
			count[d]++
		}
		a, b = b, a
	}

	// An odd number of effective passes leaves the result in scratch.
	if &a[0] != &src[0] {
		copy(src, a)
	}
}
