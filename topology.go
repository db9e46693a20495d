// Copyright 2026 The embree Authors
// SPDX-License-Identifier: Apache-2.0

package embree

import (
	"github.com/louisfeng/embree/internal/radix"
)

// SubdivisionMode selects how open (border) vertices and edges of a
// topology slot are pinned during subdivision.
type SubdivisionMode uint8

const (
	// SubdivSmoothBoundary subdivides boundaries with the border rules;
	// nothing extra is pinned. The default.
	SubdivSmoothBoundary SubdivisionMode = iota

	// SubdivPinCorners pins corner vertices (two border edges meeting at
	// the vertex within one face) infinitely sharp.
	SubdivPinCorners

	// SubdivPinBoundary pins every vertex touching a border edge.
	SubdivPinBoundary

	// SubdivPinAll pins every edge and vertex of the slot; all quads
	// degrade to bilinear patches.
	SubdivPinAll
)

func (m SubdivisionMode) String() string {
	switch m {
	case SubdivSmoothBoundary:
		return "smooth-boundary"
	case SubdivPinCorners:
		return "pin-corners"
	case SubdivPinBoundary:
		return "pin-boundary"
	case SubdivPinAll:
		return "pin-all"
	}
	return "unknown"
}

// dirtyState is the commit-scoped snapshot of which input buffers changed
// since the last commit. The rebuild/update/skip decision is a pure
// function of this snapshot, taken once at the top of Commit before any
// flag is cleared.
type dirtyState struct {
	faces         bool
	holes         bool
	levels        bool
	edgeCreases   bool
	vertexCreases bool
	indices       []bool // per topology slot
}

func (m *SubdivMesh) captureDirty() dirtyState {
	d := dirtyState{
		faces:         m.faceVertices.modified,
		holes:         m.holes.modified,
		levels:        m.levels.modified,
		edgeCreases:   m.edgeCreaseIndices.modified || m.edgeCreaseWeights.modified,
		vertexCreases: m.vertexCreaseIndices.modified || m.vertexCreaseWeights.modified,
		indices:       make([]bool, len(m.topology)),
	}
	for i, t := range m.topology {
		d.indices[i] = t.vertexIndices.modified
	}
	return d
}

// Topology is one independently indexed mapping from face corners to
// vertex ids, paired with its own half-edge arena. Slot 0 is canonical:
// crease lookups and face validity always resolve against its indices,
// because creases are authored on the base control mesh.
//
// Every slot's arena has the same length and per-face layout as slot 0;
// only the vertex ids differ.
type Topology struct {
	mesh *SubdivMesh
	id   int
	mode SubdivisionMode

	vertexIndices buffer[uint32]
	halfEdges     []HalfEdge

	// Sort temporaries of the builder, kept between commits for dynamic
	// scenes and dropped once the structure is known to be stable.
	sortKeys    []radix.Pair
	sortScratch []radix.Pair
}

func newTopology(mesh *SubdivMesh, id int) *Topology {
	return &Topology{mesh: mesh, id: id, mode: SubdivSmoothBoundary}
}

// ID returns the slot index of this topology.
func (t *Topology) ID() int { return t.id }

// Mode returns the slot's subdivision boundary mode.
func (t *Topology) Mode() SubdivisionMode { return t.mode }

func (t *Topology) setSubdivisionMode(mode SubdivisionMode) {
	if t.mode == mode {
		return
	}
	t.mode = mode
	// Pinning is re-applied on the vertex-crease update path.
	t.mesh.vertexCreaseWeights.markModified()
}

// HalfEdge returns the first half-edge of a face, the handle the evaluator
// walks from. Valid after a successful commit.
func (t *Topology) HalfEdge(face int) *HalfEdge {
	return &t.halfEdges[t.mesh.faceStartEdge[face]]
}

// Verify confirms that every vertex id referenced by the slot's index
// buffer is below numVertices and that the buffer covers all faces. It
// never panics; callers decide whether to reject the commit.
func (t *Topology) Verify(numVertices int) bool {
	ofs := 0
	for _, valence := range t.mesh.faceVertices.data {
		n := int(valence)
		if ofs+n > t.vertexIndices.len() {
			return false
		}
		for _, v := range t.vertexIndices.data[ofs : ofs+n] {
			if int(v) >= numVertices {
				return false
			}
		}
		ofs += n
	}
	return true
}

// initializeHalfEdges is the per-slot commit decision: full rebuild when
// adjacency may have changed, incremental update when only weights or
// levels changed, nothing otherwise.
func (t *Topology) initializeHalfEdges(dirty *dirtyState) {
	// A slot without indices is ignored entirely.
	if t.vertexIndices.data == nil {
		return
	}

	if len(t.halfEdges) != int(t.mesh.numHalfEdges) {
		t.halfEdges = make([]HalfEdge, t.mesh.numHalfEdges)
	}

	recalculate := dirty.indices[t.id] || dirty.faces || dirty.holes

	update := dirty.indices[0] || // slot 0 keys all crease lookups
		dirty.edgeCreases ||
		dirty.vertexCreases ||
		dirty.levels

	switch {
	case recalculate:
		t.calculateHalfEdges()
		t.mesh.builds++
	case update:
		t.updateHalfEdges(dirty)
		t.mesh.updates++
	}

	if t.mesh.staticScene {
		t.sortKeys = nil
		t.sortScratch = nil
	}

	t.vertexIndices.clearModified()
}
