// Package embree maintains the topology of Catmull-Clark subdivision
// control meshes for a ray-tracing geometry kernel.
//
// # Overview
//
// A SubdivMesh is described by caller-owned buffers: per-face valences,
// one or more vertex-index topologies ("slots"), optional edge and vertex
// creases, hole faces and per-edge tessellation levels. Commit compiles
// them into one half-edge arena per topology slot, which downstream
// surface evaluation walks to compute positions, derivatives and patch
// classification at arbitrary (face, u, v) locations.
//
// # Quick Start
//
//	mesh := embree.NewSubdivMesh()
//	mesh.SetFaceVertices([]uint32{4})                  // one quad
//	mesh.SetVertexIndices(0, []uint32{0, 1, 2, 3})
//	mesh.SetVertices(0, quadCorners)
//	mesh.Commit()
//
//	he := mesh.MustTopology(0).HalfEdge(0) // walk from here
//
// # Incremental commits
//
// Every buffer carries a modified flag. Commit inspects the flags and
// chooses, per topology slot, between a full adjacency rebuild (indices,
// valences or holes changed), a cheap in-place refresh of weights, levels
// and classification (creases or levels changed), or no work at all.
//
// # Anomalies
//
// Border edges, winding mismatches and non-manifold edges are not errors:
// they are pinned infinitely sharp so evaluation degrades to fixed
// behavior at the anomaly. Only whole-mesh shape errors (out-of-range
// indices, non-finite vertices) are reported, via Verify.
//
// # Concurrency
//
// Commit runs synchronous data-parallel passes internally and must be
// serialized with evaluation by the caller. Between commits the half-edge
// arrays are immutable and may be read from any number of goroutines.
package embree
