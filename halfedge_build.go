// Copyright 2026 The embree Authors
// SPDX-License-Identifier: Apache-2.0

package embree

import (
	"math"

	"github.com/louisfeng/embree/internal/parallel"
	"github.com/louisfeng/embree/internal/radix"
)

var inf = float32(math.Inf(1))

// calculateHalfEdges is the cold path: a full (re)construction of the
// slot's adjacency structure in four phases.
//
//  1. Per-face emission (parallel over faces): lay out every half-edge of
//     every face with its loop offsets, crease weights and tessellation
//     level, and emit one (undirected-edge key, half-edge index) pair per
//     half-edge. Hole faces get a sentinel key that never matches.
//  2. Radix sort of the pairs, grouping half-edges that share an edge.
//  3. Link pass (parallel over the sorted pairs): runs of equal keys are
//     classified as border, manifold pair or non-manifold fan.
//  4. Pinning and patch classification (parallel over faces).
//
// Crease lookups are always keyed on slot 0's vertex ids, even while this
// slot lays out its own indices: creases are authored against the base
// control mesh.
func (t *Topology) calculateHalfEdges() {
	mesh := t.mesh
	numFaces := mesh.NumFaces()
	numHalfEdges := int(mesh.numHalfEdges)

	if len(t.sortKeys) != numHalfEdges {
		t.sortKeys = make([]radix.Pair, numHalfEdges)
		t.sortScratch = make([]radix.Pair, numHalfEdges)
	}

	indices := t.vertexIndices.data
	geomIndices := mesh.topology[0].vertexIndices.data

	// Phase 1: emit all half-edges. Chunks of faces write only to their
	// own faces' half-edge slots.
	parallel.For(numFaces, parallel.DefaultBlockSize, func(begin, end int) {
		for f := begin; f < end; f++ {
			n := int(mesh.faceVertices.data[f])
			e := int(mesh.faceStartEdge[f])
			hole := mesh.holeSet.contains(uint32(f))

			for de := 0; de < n; de++ {
				nextOfs := 1
				if de == n-1 {
					nextOfs = -(n - 1)
				}
				prevOfs := -1
				if de == 0 {
					prevOfs = n - 1
				}

				i := e + de
				startVertex := indices[i]
				endVertex := indices[i+nextOfs]
				key := edgeKey(startVertex, endVertex)

				startVertex0 := geomIndices[i]
				endVertex0 := geomIndices[i+nextOfs]
				key0 := edgeKey(startVertex0, endVertex0)

				edge := &t.halfEdges[i]
				edge.Vertex = startVertex
				edge.nextOfs = int32(nextOfs)
				edge.prevOfs = int32(prevOfs)
				edge.oppositeOfs = 0
				edge.EdgeCreaseWeight = mesh.edgeCreaseMap.lookup(key0, 0)
				edge.VertexCreaseWeight = mesh.vertexCreaseMap.lookup(startVertex0, 0)
				edge.EdgeLevel = mesh.edgeLevel(i)
				edge.Patch = ComplexPatch // corrected in phase 4
				edge.VertexKind = RegularVertex

				if hole {
					key = holeKey
				}
				t.sortKeys[i] = radix.Pair{Key: key, Value: uint32(i)}
			}
		}
	})

	// Phase 2: global barrier. All half-edges sharing an undirected edge
	// become contiguous runs.
	radix.Sort(t.sortKeys, t.sortScratch)

	// Phase 3: link runs of equal keys. A run may straddle a chunk
	// boundary; the chunk containing the run's start owns it and reads
	// past its nominal end, which is safe because the sorted array is
	// immutable during this phase.
	keys := t.sortKeys
	parallel.For(numHalfEdges, parallel.DefaultBlockSize, func(begin, end int) {
		e := begin
		if e != 0 && keys[e].Key == keys[e-1].Key {
			// This run started in the previous chunk; skip it.
			key := keys[e].Key
			for e < end && keys[e].Key == key {
				e++
			}
		}

		for e < end {
			key := keys[e].Key
			if key == holeKey {
				// Sorted to the top; holes never link.
				break
			}
			n := 1
			for e+n < numHalfEdges && keys[e+n].Key == key {
				n++
			}

			switch {
			case n == 1:
				// Border edges are identified by having no opposite.
				t.halfEdges[keys[e].Value].EdgeCreaseWeight = inf

			case n == 2:
				e0 := &t.halfEdges[keys[e].Value]
				e1 := &t.halfEdges[keys[e+1].Value]
				if e0.Next().Vertex != e1.Vertex {
					// Winding order mismatch between the two incident
					// faces: force a crease instead of linking.
					e0.EdgeCreaseWeight = inf
					e1.EdgeCreaseWeight = inf
				} else {
					e0.setOpposite(e1)
					e1.setOpposite(e0)
				}

			default:
				// Non-manifold: keep both endpoints of every incident
				// half-edge fixed during subdivision.
				for i := 0; i < n; i++ {
					edge := &t.halfEdges[keys[e+i].Value]
					edge.VertexCreaseWeight = inf
					edge.VertexKind = NonManifoldEdgeVertex
					edge.EdgeCreaseWeight = inf

					next := edge.Next()
					next.VertexCreaseWeight = inf
					next.VertexKind = NonManifoldEdgeVertex
					next.EdgeCreaseWeight = inf
				}
			}
			e += n
		}
	})

	// Phase 4a: face validity (slot 0 only) and subdivision-mode pinning.
	// Each chunk writes only to its own faces' half-edges.
	parallel.For(numFaces, parallel.DefaultBlockSize, func(begin, end int) {
		for f := begin; f < end; f++ {
			start := int(mesh.faceStartEdge[f])
			n := int(mesh.faceVertices.data[f])
			edges := t.halfEdges[start : start+n]

			if t.id == 0 {
				hole := mesh.holeSet.contains(uint32(f))
				for ts := range mesh.vertices {
					valid := edges[0].validFace(mesh.vertices[ts].data)
					mesh.invalidFace[f*len(mesh.vertices)+ts] = !valid || hole
				}
			}

			for i := range edges {
				t.pin(&edges[i])
			}
		}
	})

	// Phase 4b: patch classification, strictly after all pinning since
	// pinning changes the answer. Reads neighbors, writes own face only.
	parallel.For(numFaces, parallel.DefaultBlockSize, func(begin, end int) {
		for f := begin; f < end; f++ {
			start := int(mesh.faceStartEdge[f])
			n := int(mesh.faceVertices.data[f])
			edges := t.halfEdges[start : start+n]

			patch := edges[0].patchType()
			for i := range edges {
				edges[i].Patch = patch
			}
		}
	})
}

// pin applies the slot's boundary mode to one half-edge.
func (t *Topology) pin(edge *HalfEdge) {
	switch t.mode {
	case SubdivPinCorners:
		if edge.IsCorner() {
			edge.VertexCreaseWeight = inf
			if edge.VertexKind == RegularVertex {
				edge.VertexKind = CreaseCornerVertex
			}
		}
	case SubdivPinBoundary:
		if edge.VertexHasBorder() {
			edge.VertexCreaseWeight = inf
		}
	case SubdivPinAll:
		edge.EdgeCreaseWeight = inf
		edge.VertexCreaseWeight = inf
	}
}
