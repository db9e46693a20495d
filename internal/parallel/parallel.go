// Copyright 2026 The embree Authors
// SPDX-License-Identifier: Apache-2.0

// Package parallel provides chunked data-parallel loops and a parallel
// exclusive prefix sum for the topology build passes.
//
// All entry points are synchronous: they block the calling goroutine until
// every chunk has completed. Pass bodies must not panic across chunk
// boundaries; per-element anomalies are encoded as data by the callers, so
// the loop functions here deliberately take no error return.
package parallel

import (
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// DefaultBlockSize is the number of elements each worker claims at a time.
// Matches the grain size of the original build passes: large enough that
// chunk-claim overhead is negligible, small enough to balance uneven faces.
const DefaultBlockSize = 4096

// For runs fn over [0, n) partitioned into half-open chunks of at most
// blockSize elements. Chunks are claimed dynamically by a fixed set of
// workers, one per available CPU. fn is called with disjoint [begin, end)
// ranges; it must only write to state owned by its own range.
//
// If blockSize <= 0, DefaultBlockSize is used. If n fits in a single chunk
// or only one CPU is available, fn runs on the calling goroutine.
func For(n, blockSize int, fn func(begin, end int)) {
	if n <= 0 {
		return
	}
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}

	numChunks := (n + blockSize - 1) / blockSize
	workers := runtime.GOMAXPROCS(0)
	if workers > numChunks {
		workers = numChunks
	}
	if workers <= 1 {
		// Same chunking as the parallel path so callers can rely on
		// ranges never exceeding blockSize.
		for begin := 0; begin < n; begin += blockSize {
			end := begin + blockSize
			if end > n {
				end = n
			}
			fn(begin, end)
		}
		return
	}

	var next atomic.Int64
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				c := int(next.Add(1)) - 1
				if c >= numChunks {
					return nil
				}
				begin := c * blockSize
				end := begin + blockSize
				if end > n {
					end = n
				}
				fn(begin, end)
			}
		})
	}
	g.Wait() // workers never return errors
}

// PrefixSum computes the exclusive prefix sum of src into dst and returns
// the total. dst[i] receives src[0]+...+src[i-1]; dst[0] is 0. src and dst
// must have equal length and may not alias.
//
// The sum runs in three phases: per-chunk partial sums in parallel, a serial
// scan over the chunk totals, then a parallel fill of dst. For inputs below
// one block the serial path is used directly.
func PrefixSum(src []uint32, dst []uint32, blockSize int) uint32 {
	n := len(src)
	if n == 0 {
		return 0
	}
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	if n <= blockSize {
		return serialPrefixSum(src, dst)
	}

	numChunks := (n + blockSize - 1) / blockSize
	chunkSums := make([]uint32, numChunks)

	For(n, blockSize, func(begin, end int) {
		var sum uint32
		for i := begin; i < end; i++ {
			sum += src[i]
		}
		chunkSums[begin/blockSize] = sum
	})

	var running uint32
	for c := range chunkSums {
		sum := chunkSums[c]
		chunkSums[c] = running
		running += sum
	}

	For(n, blockSize, func(begin, end int) {
		ofs := chunkSums[begin/blockSize]
		for i := begin; i < end; i++ {
			dst[i] = ofs
			ofs += src[i]
		}
	})

	return running
}

func serialPrefixSum(src []uint32, dst []uint32) uint32 {
	var sum uint32
	for i, v := range src {
		dst[i] = sum
		sum += v
	}
	return sum
}
