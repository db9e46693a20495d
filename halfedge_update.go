// Copyright 2026 The embree Authors
// SPDX-License-Identifier: Apache-2.0

package embree

import (
	"github.com/louisfeng/embree/internal/parallel"
)

// updateHalfEdges is the warm path: adjacency is known to be valid and
// only crease weights, tessellation levels and the derived classification
// need refreshing. Runs when slot 0's indices, the crease buffers or the
// level buffer changed but nothing structural did. Never touches next,
// prev or opposite and never re-sorts.
func (t *Topology) updateHalfEdges(dirty *dirtyState) {
	mesh := t.mesh

	// Crease lookups key on slot 0's half-edges, not this slot's.
	geom := mesh.topology[0].halfEdges

	// The structure is stable; assume no recalculation is coming and drop
	// the builder temporaries.
	t.sortKeys = nil
	t.sortScratch = nil

	updateEdgeCreases := dirty.indices[0] || dirty.edgeCreases
	updateVertexCreases := dirty.indices[0] || dirty.vertexCreases
	updateLevels := dirty.levels

	n := int(mesh.numHalfEdges)

	// Weights and levels first; every index re-derives only its own
	// fields from the read-only registries.
	parallel.For(n, parallel.DefaultBlockSize, func(begin, end int) {
		for i := begin; i < end; i++ {
			edge := &t.halfEdges[i]

			if updateLevels {
				edge.EdgeLevel = mesh.edgeLevel(i)
			}

			if updateEdgeCreases && edge.HasOpposite() {
				// Borders keep their infinite weight regardless of what
				// the registry says, and pin-all overrides the registry.
				if t.mode == SubdivPinAll {
					edge.EdgeCreaseWeight = inf
				} else {
					edge.EdgeCreaseWeight = mesh.edgeCreaseMap.lookup(geom[i].Key(), 0)
				}
			}

			// Authored vertex creases only apply to manifold vertices.
			if updateVertexCreases && edge.VertexKind != NonManifoldEdgeVertex {
				edge.VertexKind = RegularVertex // pin may re-tag below
				edge.VertexCreaseWeight = mesh.vertexCreaseMap.lookup(geom[i].Vertex, 0)
				t.pin(edge)
			}
		}
	})

	// Classification afterwards, once every weight is settled; it reads
	// ring neighbors.
	if updateEdgeCreases || updateVertexCreases {
		parallel.For(mesh.NumFaces(), parallel.DefaultBlockSize, func(begin, end int) {
			for f := begin; f < end; f++ {
				start := int(mesh.faceStartEdge[f])
				valence := int(mesh.faceVertices.data[f])
				edges := t.halfEdges[start : start+valence]

				patch := edges[0].patchType()
				for i := range edges {
					edges[i].Patch = patch
				}
			}
		})
	}
}
