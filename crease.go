package embree

import (
	"github.com/emirpasic/gods/sets/hashset"
)

// edgeCreaseMap maps packed unordered vertex-id pairs to crease weights.
// init replaces the whole mapping; there is no incremental update, the map
// is cheap next to the half-edge passes.
type edgeCreaseMap struct {
	weights map[uint64]float32
}

func (c *edgeCreaseMap) init(pairs [][2]uint32, weights []float32) {
	n := len(pairs)
	if len(weights) < n {
		n = len(weights)
	}
	c.weights = make(map[uint64]float32, n)
	for i := 0; i < n; i++ {
		c.weights[edgeKey(pairs[i][0], pairs[i][1])] = weights[i]
	}
}

func (c *edgeCreaseMap) lookup(key uint64, def float32) float32 {
	if w, ok := c.weights[key]; ok {
		return w
	}
	return def
}

func (c *edgeCreaseMap) clear() { c.weights = nil }

// vertexCreaseMap maps vertex ids to crease weights.
type vertexCreaseMap struct {
	weights map[uint32]float32
}

func (c *vertexCreaseMap) init(vertices []uint32, weights []float32) {
	n := len(vertices)
	if len(weights) < n {
		n = len(weights)
	}
	c.weights = make(map[uint32]float32, n)
	for i := 0; i < n; i++ {
		c.weights[vertices[i]] = weights[i]
	}
}

func (c *vertexCreaseMap) lookup(vertex uint32, def float32) float32 {
	if w, ok := c.weights[vertex]; ok {
		return w
	}
	return def
}

func (c *vertexCreaseMap) clear() { c.weights = nil }

// holeSet is a membership set over face ids; faces not in the set are not
// holes. Read-only while build passes run.
type holeSet struct {
	faces *hashset.Set
}

func (h *holeSet) init(faces []uint32) {
	h.faces = hashset.New()
	for _, f := range faces {
		h.faces.Add(f)
	}
}

func (h *holeSet) contains(face uint32) bool {
	return h.faces != nil && h.faces.Contains(face)
}
