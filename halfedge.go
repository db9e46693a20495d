// Copyright 2026 The embree Authors
// SPDX-License-Identifier: Apache-2.0

package embree

import (
	"math"
	"unsafe"

	"gonum.org/v1/gonum/spatial/r3"
)

// PatchType classifies the regularity of a face's local neighborhood. The
// evaluator selects its evaluation strategy from this tag: regular quads can
// be evaluated directly as B-spline patches, irregular quads via Gregory
// patches, and everything else must be subdivided.
type PatchType uint8

const (
	// RegularQuadPatch is a quad whose corners are all regular: manifold,
	// crease-free and either interior with valence 4 or on a border with
	// the border valence of a regular grid.
	RegularQuadPatch PatchType = iota

	// IrregularQuadPatch is a crease-free manifold quad surrounded by
	// quads, with at least one extraordinary corner.
	IrregularQuadPatch

	// BilinearPatch is a quad whose edges and corners are all pinned
	// infinitely sharp; subdivision leaves it flat.
	BilinearPatch

	// ComplexPatch is everything else: non-quads, semi-sharp creases,
	// non-manifold corners. Freshly emitted half-edges carry this tag
	// until classification runs.
	ComplexPatch
)

func (p PatchType) String() string {
	switch p {
	case RegularQuadPatch:
		return "regular-quad"
	case IrregularQuadPatch:
		return "irregular-quad"
	case BilinearPatch:
		return "bilinear"
	case ComplexPatch:
		return "complex"
	}
	return "unknown"
}

// VertexType tags the origin vertex of a half-edge.
type VertexType uint8

const (
	// RegularVertex is an ordinary manifold vertex.
	RegularVertex VertexType = iota

	// CreaseCornerVertex is a manifold corner vertex pinned infinitely
	// sharp by the pin-corners subdivision mode.
	CreaseCornerVertex

	// NonManifoldEdgeVertex is an endpoint of an edge with more than two
	// incident faces. Such vertices stay fixed during subdivision.
	NonManifoldEdgeVertex
)

func (v VertexType) String() string {
	switch v {
	case RegularVertex:
		return "regular"
	case CreaseCornerVertex:
		return "crease-corner"
	case NonManifoldEdgeVertex:
		return "non-manifold"
	}
	return "unknown"
}

// HalfEdge is one directed edge of one face loop. All half-edges of a face
// occupy a contiguous run inside the topology's arena, so next/prev/opposite
// are stored as signed element offsets relative to the half-edge itself
// rather than as pointers. An opposite offset of zero means no opposite:
// border edges, forced creases and non-manifold edges stay unlinked.
//
// A HalfEdge is only meaningful inside its arena; traversal does pointer
// arithmetic within the backing array and must never be applied to a copy.
type HalfEdge struct {
	// Vertex is the id of the origin vertex in this topology's index space.
	Vertex uint32

	nextOfs     int32
	prevOfs     int32
	oppositeOfs int32

	// EdgeCreaseWeight is the crease weight of the undirected edge.
	// Infinite for borders, forced creases and non-manifold edges.
	EdgeCreaseWeight float32

	// VertexCreaseWeight is the crease weight of the origin vertex.
	VertexCreaseWeight float32

	// EdgeLevel is the tessellation level of this edge.
	EdgeLevel float32

	// Patch is the classification of the owning face.
	Patch PatchType

	// VertexKind tags the origin vertex.
	VertexKind VertexType
}

const halfEdgeSize = unsafe.Sizeof(HalfEdge{})

func (e *HalfEdge) at(ofs int32) *HalfEdge {
	return (*HalfEdge)(unsafe.Add(unsafe.Pointer(e), int(ofs)*int(halfEdgeSize)))
}

// Next returns the next half-edge of the face loop.
func (e *HalfEdge) Next() *HalfEdge { return e.at(e.nextOfs) }

// Prev returns the previous half-edge of the face loop.
func (e *HalfEdge) Prev() *HalfEdge { return e.at(e.prevOfs) }

// HasOpposite reports whether the edge is linked to a neighboring face.
func (e *HalfEdge) HasOpposite() bool { return e.oppositeOfs != 0 }

// Opposite returns the opposing half-edge on the neighboring face, or nil
// for border, forced-crease and non-manifold edges.
func (e *HalfEdge) Opposite() *HalfEdge {
	if e.oppositeOfs == 0 {
		return nil
	}
	return e.at(e.oppositeOfs)
}

func (e *HalfEdge) setOpposite(o *HalfEdge) {
	d := int64(uintptr(unsafe.Pointer(o))) - int64(uintptr(unsafe.Pointer(e)))
	e.oppositeOfs = int32(d / int64(halfEdgeSize))
}

// EndVertex returns the id of the destination vertex.
func (e *HalfEdge) EndVertex() uint32 { return e.Next().Vertex }

// Key returns the order-independent packed key of the undirected edge.
func (e *HalfEdge) Key() uint64 { return edgeKey(e.Vertex, e.EndVertex()) }

// FaceValence returns the number of edges of the owning face.
func (e *HalfEdge) FaceValence() int {
	n := 1
	for p := e.Next(); p != e; p = p.Next() {
		n++
	}
	return n
}

// rotate steps to the next outgoing half-edge around the origin vertex.
// Requires an opposite.
func (e *HalfEdge) rotate() *HalfEdge { return e.Opposite().Next() }

// IsCorner reports whether the origin vertex is a corner: both edges
// touching the vertex from this face are borders.
func (e *HalfEdge) IsCorner() bool {
	return !e.HasOpposite() && !e.Prev().HasOpposite()
}

// VertexHasBorder reports whether any edge around the origin vertex is a
// border edge. The walk stops at the first unlinked edge, so it terminates
// for border vertices without ever reversing direction.
func (e *HalfEdge) VertexHasBorder() bool {
	p := e
	for {
		if !p.HasOpposite() {
			return true
		}
		p = p.rotate()
		if p == e {
			return false
		}
	}
}

// ringStart rewinds to the first outgoing half-edge around the origin
// vertex: either all the way around (closed ring) or back to the half-edge
// following the border.
func (e *HalfEdge) ringStart() *HalfEdge {
	p := e
	for p.Prev().HasOpposite() {
		p = p.Prev().Opposite()
		if p == e {
			return e
		}
	}
	return p
}

// vertexRing describes the one-ring neighborhood of a half-edge's origin
// vertex, gathered for patch classification.
type vertexRing struct {
	faces       int  // number of incident faces
	border      bool // vertex touches a border edge
	allQuads    bool // every incident face is a quad
	creased     bool // any finite non-zero crease weight around the vertex
	nonManifold bool
}

func (e *HalfEdge) gatherRing() vertexRing {
	ring := vertexRing{allQuads: true}
	if e.VertexKind == NonManifoldEdgeVertex {
		ring.nonManifold = true
		return ring
	}
	if e.VertexCreaseWeight != 0 && !math.IsInf(float64(e.VertexCreaseWeight), 1) {
		ring.creased = true
	}

	start := e.ringStart()
	p := start
	for {
		ring.faces++
		if p.FaceValence() != 4 {
			ring.allQuads = false
		}
		if w := p.EdgeCreaseWeight; w != 0 && !math.IsInf(float64(w), 1) {
			ring.creased = true
		}
		if !p.HasOpposite() {
			// Last outgoing edge before the border; the closing edge of
			// the fan is the incoming border edge, always infinite.
			ring.border = true
			break
		}
		p = p.rotate()
		if p == start {
			break
		}
	}

	// An infinite crease on an interior edge is an authored sharp edge,
	// which also disqualifies regular evaluation.
	p = start
	for {
		if p.HasOpposite() && math.IsInf(float64(p.EdgeCreaseWeight), 1) {
			ring.creased = true
		}
		if !p.HasOpposite() {
			break
		}
		p = p.rotate()
		if p == start {
			break
		}
	}
	return ring
}

// regular reports whether the ring matches a regular grid neighborhood:
// interior valence 4, border valence 2, corner valence 1, all quads,
// no creases.
func (r vertexRing) regular() bool {
	if r.nonManifold || r.creased || !r.allQuads {
		return false
	}
	if r.border {
		return r.faces == 1 || r.faces == 2
	}
	return r.faces == 4
}

// final reports whether the ring can still be evaluated without full
// subdivision: an interior manifold vertex, crease-free and surrounded by
// quads, with any valence. Border corners are either regular or need
// subdivision.
func (r vertexRing) final() bool {
	return !r.nonManifold && !r.creased && r.allQuads && !r.border
}

// patchType classifies the owning face. Must run only after linking and
// pinning are complete, since both change the answer.
func (e *HalfEdge) patchType() PatchType {
	if e.FaceValence() != 4 {
		return ComplexPatch
	}

	pinned := true
	p := e
	for i := 0; i < 4; i++ {
		if !math.IsInf(float64(p.EdgeCreaseWeight), 1) || !math.IsInf(float64(p.VertexCreaseWeight), 1) {
			pinned = false
			break
		}
		p = p.Next()
	}
	if pinned {
		return BilinearPatch
	}

	regular, final := true, true
	p = e
	for i := 0; i < 4; i++ {
		ring := p.gatherRing()
		if p.VertexCreaseWeight != 0 {
			// Pinned or semi-sharp corners force subdivision.
			regular, final = false, false
			break
		}
		if !ring.regular() {
			regular = false
		}
		if !ring.final() {
			final = false
		}
		p = p.Next()
	}
	switch {
	case regular:
		return RegularQuadPatch
	case final:
		return IrregularQuadPatch
	default:
		return ComplexPatch
	}
}

// validFace reports whether every vertex of the face is in range and has
// finite coordinates in the given vertex buffer.
func (e *HalfEdge) validFace(vertices []r3.Vec) bool {
	p := e
	for {
		if int(p.Vertex) >= len(vertices) {
			return false
		}
		if !finite(vertices[p.Vertex]) {
			return false
		}
		p = p.Next()
		if p == e {
			return true
		}
	}
}

func finite(v r3.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}

// edgeKey packs an unordered vertex-id pair into one comparable value. The
// larger id goes into the high bits so both directions of an edge collapse
// onto the same key.
func edgeKey(x, y uint32) uint64 {
	if x < y {
		x, y = y, x
	}
	return uint64(x)<<32 | uint64(y)
}

// holeKey is the sentinel key assigned to half-edges of hole faces. It can
// only collide with a degenerate self-edge on the maximum vertex id, so
// hole half-edges never pair with real geometry.
const holeKey = math.MaxUint64
