// Copyright 2026 The embree Authors
// SPDX-License-Identifier: Apache-2.0

package embree

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// Errors reported for API misuse. Build and update passes themselves never
// fail; per-element anomalies are encoded into the half-edge data instead.
var (
	ErrInvalidTopologyID      = errors.New("embree: invalid topology ID")
	ErrInvalidSubdivisionMode = errors.New("embree: invalid subdivision mode")
	ErrInvalidBuffer          = errors.New("embree: invalid buffer")
	ErrUnknownBuffer          = errors.New("embree: unknown buffer type")
)

// SubdivMesh is the control mesh of a Catmull-Clark subdivision surface:
// per-face valences, one or more vertex-index topologies, optional creases,
// holes and tessellation levels. Commit turns the raw buffers into per-slot
// half-edge structures that the surface evaluator walks.
//
// All Set* methods only record the caller-owned slice and mark the buffer
// modified; nothing is derived until Commit. A commit must not run
// concurrently with other commits or with evaluation reads of this mesh.
type SubdivMesh struct {
	faceVertices buffer[uint32] // valence per face

	topology []*Topology

	vertices    []buffer[r3.Vec] // one buffer per time step
	userBuffers []userVertexBuffer

	edgeCreaseIndices   buffer[[2]uint32]
	edgeCreaseWeights   buffer[float32]
	vertexCreaseIndices buffer[uint32]
	vertexCreaseWeights buffer[float32]
	holes               buffer[uint32]
	levels              buffer[float32]

	tessellationRate float32
	staticScene      bool

	edgeCreaseMap   edgeCreaseMap
	vertexCreaseMap vertexCreaseMap
	holeSet         holeSet

	// faceStartEdge[f] is the offset of face f's first half-edge; filled by
	// an exclusive prefix sum over the valences when the face buffer
	// changes.
	faceStartEdge []uint32
	numHalfEdges  uint32

	// invalidFace holds one flag per (face, time step), row-major by face.
	invalidFace []bool

	// commitCounter increments on every structural buffer change; the
	// external evaluation cache keys its entries on it.
	commitCounter uint64

	// pass counters, for tests and debug logging
	builds  int
	updates int
}

// NewSubdivMesh creates an empty mesh with a single topology slot.
func NewSubdivMesh(opts ...MeshOption) *SubdivMesh {
	o := defaultMeshOptions()
	for _, opt := range opts {
		opt(&o)
	}
	m := &SubdivMesh{
		tessellationRate: o.tessellationRate,
		staticScene:      o.staticScene,
		vertices:         make([]buffer[r3.Vec], o.timeSteps),
	}
	m.topology = []*Topology{newTopology(m, 0)}
	return m
}

// NumFaces returns the number of faces.
func (m *SubdivMesh) NumFaces() int { return m.faceVertices.len() }

// NumHalfEdges returns the total half-edge count of the last commit.
func (m *SubdivMesh) NumHalfEdges() int { return int(m.numHalfEdges) }

// NumVertices returns the vertex count of the first time step.
func (m *SubdivMesh) NumVertices() int {
	if len(m.vertices) == 0 {
		return 0
	}
	return m.vertices[0].len()
}

// NumTimeSteps returns the number of motion-blur time steps.
func (m *SubdivMesh) NumTimeSteps() int { return len(m.vertices) }

// NumTopologies returns the number of topology slots.
func (m *SubdivMesh) NumTopologies() int { return len(m.topology) }

// CommitCounter returns the structural-change counter. It increments on
// every buffer change except tessellation levels.
func (m *SubdivMesh) CommitCounter() uint64 { return m.commitCounter }

// Topology returns topology slot id. Slot 0 always exists and is the
// canonical topology: creases and face validity are resolved against its
// vertex indices.
func (m *SubdivMesh) Topology(id int) (*Topology, error) {
	if id < 0 || id >= len(m.topology) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTopologyID, id)
	}
	return m.topology[id], nil
}

// MustTopology is like Topology but panics on an invalid id. Intended for
// evaluator call sites where the id is known to exist.
func (m *SubdivMesh) MustTopology(id int) *Topology {
	t, err := m.Topology(id)
	if err != nil {
		panic(err)
	}
	return t
}

// SetFaceVertices sets the per-face valence buffer. Each entry is the
// number of vertices (>= 3) of one face.
func (m *SubdivMesh) SetFaceVertices(valences []uint32) {
	m.faceVertices.set(valences)
	m.commitCounter++
}

// SetVertexIndices sets the vertex-index buffer of a topology slot, one
// vertex id per face corner, faces back to back. Slots beyond the current
// count are created on demand.
func (m *SubdivMesh) SetVertexIndices(slot int, indices []uint32) error {
	if slot < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTopologyID, slot)
	}
	for len(m.topology) <= slot {
		m.topology = append(m.topology, newTopology(m, len(m.topology)))
	}
	m.topology[slot].vertexIndices.set(indices)
	m.commitCounter++
	return nil
}

// SetVertices sets the vertex position buffer of one time step. Time steps
// beyond the current count are created on demand.
func (m *SubdivMesh) SetVertices(timeStep int, positions []r3.Vec) error {
	if timeStep < 0 {
		return fmt.Errorf("%w: vertex time step %d", ErrInvalidBuffer, timeStep)
	}
	for len(m.vertices) <= timeStep {
		m.vertices = append(m.vertices, buffer[r3.Vec]{})
	}
	m.vertices[timeStep].set(positions)
	m.commitCounter++
	return nil
}

// SetUserVertexBuffer sets an attribute buffer with the given number of
// floats per element. User buffers interpolate over topology slot 0 until
// bound to another slot with SetIndexBuffer.
func (m *SubdivMesh) SetUserVertexBuffer(id int, data []float32, stride int) error {
	if id < 0 || stride <= 0 || len(data)%stride != 0 {
		return fmt.Errorf("%w: user vertex buffer %d", ErrInvalidBuffer, id)
	}
	for len(m.userBuffers) <= id {
		m.userBuffers = append(m.userBuffers, userVertexBuffer{stride: 1})
	}
	m.userBuffers[id].set(data)
	m.userBuffers[id].stride = stride
	m.commitCounter++
	return nil
}

// SetIndexBuffer binds a user vertex buffer to a topology slot, so that
// the evaluator interpolates the attribute over that slot's indices.
// Rebinding bumps the commit counter to invalidate cached interpolation
// data.
func (m *SubdivMesh) SetIndexBuffer(userBufferID, topologyID int) error {
	if userBufferID < 0 || userBufferID >= len(m.userBuffers) {
		return fmt.Errorf("%w: user vertex buffer %d", ErrInvalidBuffer, userBufferID)
	}
	if topologyID < 0 || topologyID >= len(m.topology) {
		return fmt.Errorf("%w: %d", ErrInvalidTopologyID, topologyID)
	}
	if m.userBuffers[userBufferID].topology != topologyID {
		m.userBuffers[userBufferID].topology = topologyID
		m.commitCounter++
	}
	return nil
}

// SetEdgeCreaseIndices sets the edge-crease vertex pairs.
func (m *SubdivMesh) SetEdgeCreaseIndices(pairs [][2]uint32) {
	m.edgeCreaseIndices.set(pairs)
	m.commitCounter++
}

// SetEdgeCreaseWeights sets the edge-crease weights, parallel to the
// index pairs.
func (m *SubdivMesh) SetEdgeCreaseWeights(weights []float32) {
	m.edgeCreaseWeights.set(weights)
	m.commitCounter++
}

// SetVertexCreaseIndices sets the vertex-crease vertex ids.
func (m *SubdivMesh) SetVertexCreaseIndices(vertices []uint32) {
	m.vertexCreaseIndices.set(vertices)
	m.commitCounter++
}

// SetVertexCreaseWeights sets the vertex-crease weights, parallel to the
// indices.
func (m *SubdivMesh) SetVertexCreaseWeights(weights []float32) {
	m.vertexCreaseWeights.set(weights)
	m.commitCounter++
}

// SetHoles sets the face ids excluded from adjacency and rendering.
func (m *SubdivMesh) SetHoles(faces []uint32) {
	m.holes.set(faces)
	m.commitCounter++
}

// SetLevels sets the per-half-edge tessellation level buffer. Level
// changes are non-structural and do not bump the commit counter.
func (m *SubdivMesh) SetLevels(levels []float32) {
	m.levels.set(levels)
}

// SetTessellationRate sets the mesh-wide fallback tessellation level used
// when no level buffer is present.
func (m *SubdivMesh) SetTessellationRate(rate float32) {
	m.tessellationRate = rate
	m.levels.markModified()
}

// SetSubdivisionMode sets the boundary-handling mode of one topology slot.
func (m *SubdivMesh) SetSubdivisionMode(topologyID int, mode SubdivisionMode) error {
	if topologyID < 0 || topologyID >= len(m.topology) {
		return fmt.Errorf("%w: %d", ErrInvalidTopologyID, topologyID)
	}
	if mode > SubdivPinAll {
		return fmt.Errorf("%w: %d", ErrInvalidSubdivisionMode, mode)
	}
	m.topology[topologyID].setSubdivisionMode(mode)
	return nil
}

// Update marks every buffer modified, forcing the next commit to rebuild
// all derived state.
func (m *SubdivMesh) Update() {
	m.faceVertices.markModified()
	m.holes.markModified()
	for i := range m.vertices {
		m.vertices[i].markModified()
	}
	m.levels.markModified()
	m.edgeCreaseIndices.markModified()
	m.edgeCreaseWeights.markModified()
	m.vertexCreaseIndices.markModified()
	m.vertexCreaseWeights.markModified()
	for _, t := range m.topology {
		t.vertexIndices.markModified()
	}
}

// UpdateBuffer marks one buffer modified after the caller changed its
// contents in place. id selects the slot for IndexBuffer, VertexBuffer and
// UserVertexBuffer and is ignored otherwise.
func (m *SubdivMesh) UpdateBuffer(kind BufferKind, id int) error {
	switch kind {
	case FaceBuffer:
		m.faceVertices.markModified()
	case IndexBuffer:
		if id < 0 || id >= len(m.topology) {
			return fmt.Errorf("%w: %d", ErrInvalidTopologyID, id)
		}
		m.topology[id].vertexIndices.markModified()
	case VertexBuffer:
		if id < 0 || id >= len(m.vertices) {
			return fmt.Errorf("%w: vertex time step %d", ErrInvalidBuffer, id)
		}
		m.vertices[id].markModified()
	case UserVertexBuffer:
		if id < 0 || id >= len(m.userBuffers) {
			return fmt.Errorf("%w: user vertex buffer %d", ErrInvalidBuffer, id)
		}
		m.userBuffers[id].markModified()
	case EdgeCreaseIndexBuffer:
		m.edgeCreaseIndices.markModified()
	case EdgeCreaseWeightBuffer:
		m.edgeCreaseWeights.markModified()
	case VertexCreaseIndexBuffer:
		m.vertexCreaseIndices.markModified()
	case VertexCreaseWeightBuffer:
		m.vertexCreaseWeights.markModified()
	case HoleBuffer:
		m.holes.markModified()
	case LevelBuffer:
		m.levels.markModified()
	default:
		return fmt.Errorf("%w: %v", ErrUnknownBuffer, kind)
	}
	if kind != LevelBuffer {
		m.commitCounter++
	}
	return nil
}

// InvalidFace reports whether a face is degenerate (non-finite vertex data
// or a hole) at the given time step. The evaluator and acceleration builder
// skip invalid faces. Valid after the first commit.
func (m *SubdivMesh) InvalidFace(face, timeStep int) bool {
	return m.invalidFace[face*len(m.vertices)+timeStep]
}

// edgeLevel returns the tessellation level of half-edge i: the level buffer
// entry when present, the mesh-wide rate otherwise.
func (m *SubdivMesh) edgeLevel(i int) float32 {
	if i < m.levels.len() {
		return m.levels.data[i]
	}
	return m.tessellationRate
}

// Commit rebuilds all derived state from the buffers that changed since the
// last commit: the face-index layout, the crease and hole registries, and
// each topology slot's half-edge structure (full rebuild, incremental
// update, or nothing, depending on what changed). On return every modified
// flag is cleared and the half-edge arrays are immutable until the next
// commit.
func (m *SubdivMesh) Commit() {
	start := time.Now()

	dirty := m.captureDirty()
	numFaces := m.NumFaces()

	if n := numFaces * len(m.vertices); len(m.invalidFace) != n {
		m.invalidFace = make([]bool, n)
	}

	// Layout first: builder and updater both depend on it.
	if dirty.faces {
		if len(m.faceStartEdge) != numFaces {
			m.faceStartEdge = make([]uint32, numFaces)
		}
		m.numHalfEdges = prefixSumFaceEdges(m.faceVertices.data, m.faceStartEdge)
	}

	if m.vertexCreaseIndices.modified || m.vertexCreaseWeights.modified {
		m.vertexCreaseMap.init(m.vertexCreaseIndices.data, m.vertexCreaseWeights.data)
	}
	if m.edgeCreaseIndices.modified || m.edgeCreaseWeights.modified {
		m.edgeCreaseMap.init(m.edgeCreaseIndices.data, m.edgeCreaseWeights.data)
	}
	if dirty.holes {
		m.holeSet.init(m.holes.data)
	}

	for _, t := range m.topology {
		t.initializeHalfEdges(&dirty)
	}

	// Static scenes never update incrementally, so the registries are not
	// needed again until the next structural change rebuilds them.
	if m.staticScene {
		m.vertexCreaseMap.clear()
		m.edgeCreaseMap.clear()
	}

	m.faceVertices.clearModified()
	m.holes.clearModified()
	for i := range m.vertices {
		m.vertices[i].clearModified()
	}
	m.levels.clearModified()
	m.edgeCreaseIndices.clearModified()
	m.edgeCreaseWeights.clearModified()
	m.vertexCreaseIndices.clearModified()
	m.vertexCreaseWeights.clearModified()

	if log := Logger(); log.Enabled(context.Background(), slog.LevelDebug) {
		elapsed := time.Since(start)
		log.Debug("half edge generation",
			"elapsed", elapsed,
			"halfEdges", m.numHalfEdges,
			"faces", numFaces)
		log.Debug("patch statistics", "stats", m.Statistics().String())
	}
}
