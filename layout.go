package embree

import (
	"github.com/louisfeng/embree/internal/parallel"
)

// prefixSumFaceEdges derives each face's half-edge start offset from the
// valence buffer via an exclusive prefix sum and returns the total
// half-edge count. start and valences have one entry per face.
func prefixSumFaceEdges(valences, start []uint32) uint32 {
	return parallel.PrefixSum(valences, start, parallel.DefaultBlockSize)
}
