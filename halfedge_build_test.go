package embree

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

// gridMesh builds a w x h quad grid over (w+1) x (h+1) vertices with
// consistent counter-clockwise winding, so interior edges are fully shared.
func gridMesh(w, h int) *SubdivMesh {
	m := NewSubdivMesh()

	faces := make([]uint32, w*h)
	for i := range faces {
		faces[i] = 4
	}

	indices := make([]uint32, 0, 4*w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint32(y*(w+1) + x)
			indices = append(indices, v, v+1, v+uint32(w)+2, v+uint32(w)+1)
		}
	}

	verts := make([]r3.Vec, (w+1)*(h+1))
	for y := 0; y <= h; y++ {
		for x := 0; x <= w; x++ {
			verts[y*(w+1)+x] = r3.Vec{X: float64(x), Y: float64(y)}
		}
	}

	m.SetFaceVertices(faces)
	m.SetVertexIndices(0, indices)
	m.SetVertices(0, verts)
	return m
}

// findHalfEdge locates the directed half-edge v0 -> v1 in a slot's arena.
func findHalfEdge(topo *Topology, v0, v1 uint32) *HalfEdge {
	for i := range topo.halfEdges {
		he := &topo.halfEdges[i]
		if he.Vertex == v0 && he.EndVertex() == v1 {
			return he
		}
	}
	return nil
}

func isInf32(w float32) bool { return math.IsInf(float64(w), 1) }

// checkStructure verifies face-loop closure and opposite symmetry for every
// face of a committed topology.
func checkStructure(t *testing.T, m *SubdivMesh, topo *Topology) {
	t.Helper()

	for f := 0; f < m.NumFaces(); f++ {
		start := topo.HalfEdge(f)
		valence := int(m.faceVertices.data[f])

		p := start
		for i := 0; i < valence; i++ {
			p = p.Next()
		}
		if p != start {
			t.Errorf("face %d: next^%d did not return to start", f, valence)
		}
		p = start
		for i := 0; i < valence; i++ {
			p = p.Prev()
		}
		if p != start {
			t.Errorf("face %d: prev^%d did not return to start", f, valence)
		}
	}

	for i := range topo.halfEdges {
		he := &topo.halfEdges[i]
		if o := he.Opposite(); o != nil {
			if o.Opposite() != he {
				t.Errorf("half-edge %d: opposite symmetry violated", i)
			}
			if isInf32(he.EdgeCreaseWeight) {
				// Infinite weight with an opposite only happens under
				// pin-all; plain meshes must keep linked edges finite.
				if topo.mode != SubdivPinAll {
					t.Errorf("half-edge %d: linked edge has infinite crease weight", i)
				}
			}
		}
	}
}

func TestCalculateHalfEdges_QuadGrid(t *testing.T) {
	m := gridMesh(2, 2)
	m.Commit()

	topo := m.MustTopology(0)
	if got := m.NumHalfEdges(); got != 16 {
		t.Fatalf("NumHalfEdges() = %d, want 16", got)
	}
	checkStructure(t, m, topo)

	var border, linked int
	for i := range topo.halfEdges {
		he := &topo.halfEdges[i]
		if he.HasOpposite() {
			linked++
			if he.EdgeCreaseWeight != 0 {
				t.Errorf("interior half-edge %d: weight = %v, want 0", i, he.EdgeCreaseWeight)
			}
		} else {
			border++
			if !isInf32(he.EdgeCreaseWeight) {
				t.Errorf("border half-edge %d: weight = %v, want +Inf", i, he.EdgeCreaseWeight)
			}
		}
		if he.VertexKind != RegularVertex {
			t.Errorf("half-edge %d: vertex kind = %v, want regular", i, he.VertexKind)
		}
		if he.EdgeLevel != 2 {
			t.Errorf("half-edge %d: level = %v, want default 2", i, he.EdgeLevel)
		}
	}
	if border != 8 {
		t.Errorf("border half-edges = %d, want 8", border)
	}
	if linked != 8 {
		t.Errorf("linked half-edges = %d, want 8", linked)
	}

	for f := 0; f < 4; f++ {
		if got := topo.HalfEdge(f).Patch; got != RegularQuadPatch {
			t.Errorf("face %d: patch = %v, want regular-quad", f, got)
		}
	}

	for f := 0; f < 4; f++ {
		if m.InvalidFace(f, 0) {
			t.Errorf("face %d unexpectedly invalid", f)
		}
	}
}

func TestCalculateHalfEdges_AuthoredCrease(t *testing.T) {
	m := gridMesh(2, 2)
	m.SetEdgeCreaseIndices([][2]uint32{{1, 4}})
	m.SetEdgeCreaseWeights([]float32{2.5})
	m.Commit()

	topo := m.MustTopology(0)
	checkStructure(t, m, topo)

	e0 := findHalfEdge(topo, 1, 4)
	e1 := findHalfEdge(topo, 4, 1)
	if e0 == nil || e1 == nil {
		t.Fatal("creased half-edges not found")
	}
	if e0.EdgeCreaseWeight != 2.5 || e1.EdgeCreaseWeight != 2.5 {
		t.Errorf("crease weights = %v, %v, want 2.5, 2.5", e0.EdgeCreaseWeight, e1.EdgeCreaseWeight)
	}
	// An authored crease does not sever adjacency.
	if e0.Opposite() != e1 || e1.Opposite() != e0 {
		t.Error("creased half-edges are not linked as opposites")
	}

	// Every face of the 2x2 grid touches vertex 4, whose ring now holds a
	// semi-sharp crease, so regular evaluation is off everywhere.
	for f := 0; f < 4; f++ {
		if got := topo.HalfEdge(f).Patch; got != ComplexPatch {
			t.Errorf("face %d: patch = %v, want complex", f, got)
		}
	}
}

func TestCalculateHalfEdges_TriangleQuad(t *testing.T) {
	m := NewSubdivMesh()
	m.SetFaceVertices([]uint32{3, 4})
	// Triangle 0-1-2 and quad 2-1-3-4 share the edge (1,2) with
	// consistent winding.
	m.SetVertexIndices(0, []uint32{0, 1, 2 /**/, 2, 1, 3, 4})
	m.SetVertices(0, []r3.Vec{{}, {X: 1}, {Y: 1}, {X: 2}, {X: 2, Y: 1}})
	m.Commit()

	topo := m.MustTopology(0)
	checkStructure(t, m, topo)

	shared := findHalfEdge(topo, 1, 2)
	if shared == nil || !shared.HasOpposite() {
		t.Fatal("shared triangle/quad edge did not link")
	}
	if shared.Opposite() != findHalfEdge(topo, 2, 1) {
		t.Error("shared edge linked to the wrong half-edge")
	}

	if got := topo.HalfEdge(0).Patch; got != ComplexPatch {
		t.Errorf("triangle patch = %v, want complex", got)
	}
	// The quad's corners at vertices 1 and 2 see a triangle in their
	// ring, so it cannot be evaluated as a regular or Gregory patch.
	if got := topo.HalfEdge(1).Patch; got != ComplexPatch {
		t.Errorf("quad patch = %v, want complex", got)
	}
}

func TestCalculateHalfEdges_WindingMismatch(t *testing.T) {
	m := NewSubdivMesh()
	m.SetFaceVertices([]uint32{4, 4})
	// Both faces traverse the shared edge as 1 -> 2.
	m.SetVertexIndices(0, []uint32{0, 1, 2, 3 /**/, 1, 2, 5, 4})
	m.SetVertices(0, []r3.Vec{
		{}, {X: 1}, {X: 1, Y: 1}, {Y: 1}, {X: 2}, {X: 2, Y: 1},
	})
	m.Commit()

	topo := m.MustTopology(0)
	checkStructure(t, m, topo)

	first := topo.HalfEdge(0).Next() // 1 -> 2 of face 0
	var second *HalfEdge
	for i := range topo.halfEdges {
		he := &topo.halfEdges[i]
		if he != first && he.Vertex == 1 && he.EndVertex() == 2 {
			second = he
		}
	}
	if second == nil {
		t.Fatal("second 1 -> 2 half-edge not found")
	}

	for _, he := range []*HalfEdge{first, second} {
		if he.HasOpposite() {
			t.Error("winding-mismatched edge was linked instead of creased")
		}
		if !isInf32(he.EdgeCreaseWeight) {
			t.Errorf("forced crease weight = %v, want +Inf", he.EdgeCreaseWeight)
		}
	}
}

func TestCalculateHalfEdges_NonManifold(t *testing.T) {
	m := NewSubdivMesh()
	m.SetFaceVertices([]uint32{4, 4, 4})
	// Three quads share the edge (1,2).
	m.SetVertexIndices(0, []uint32{
		0, 1, 2, 3,
		2, 1, 4, 5,
		2, 1, 6, 7,
	})
	m.SetVertices(0, []r3.Vec{
		{}, {X: 1}, {X: 1, Y: 1}, {Y: 1},
		{X: 2}, {X: 2, Y: 1}, {X: 3}, {X: 3, Y: 1},
	})
	m.Commit()

	topo := m.MustTopology(0)
	checkStructure(t, m, topo)

	incident := 0
	for i := range topo.halfEdges {
		he := &topo.halfEdges[i]
		if he.Key() != edgeKey(1, 2) {
			continue
		}
		incident++
		if he.HasOpposite() {
			t.Errorf("non-manifold half-edge %d received an opposite", i)
		}
		for _, p := range []*HalfEdge{he, he.Next()} {
			if p.VertexKind != NonManifoldEdgeVertex {
				t.Errorf("half-edge %d: vertex kind = %v, want non-manifold", i, p.VertexKind)
			}
			if !isInf32(p.EdgeCreaseWeight) || !isInf32(p.VertexCreaseWeight) {
				t.Errorf("half-edge %d: weights = %v, %v, want +Inf, +Inf",
					i, p.EdgeCreaseWeight, p.VertexCreaseWeight)
			}
		}
	}
	if incident != 3 {
		t.Fatalf("half-edges on shared edge = %d, want 3", incident)
	}

	for f := 0; f < 3; f++ {
		if got := topo.HalfEdge(f).Patch; got != ComplexPatch {
			t.Errorf("face %d: patch = %v, want complex", f, got)
		}
	}
}

func TestCalculateHalfEdges_Holes(t *testing.T) {
	m := gridMesh(2, 2)
	m.SetHoles([]uint32{0})
	m.Commit()

	topo := m.MustTopology(0)
	checkStructure(t, m, topo)

	// The hole face's half-edges never take part in grouping.
	start := topo.HalfEdge(0)
	p := start
	for i := 0; i < 4; i++ {
		if p.HasOpposite() {
			t.Error("hole face half-edge was linked")
		}
		p = p.Next()
	}

	// The neighbor's formerly shared edge is now a border.
	neighbor := findHalfEdge(topo, 4, 1)
	if neighbor == nil {
		t.Fatal("half-edge 4 -> 1 not found")
	}
	if neighbor.HasOpposite() || !isInf32(neighbor.EdgeCreaseWeight) {
		t.Error("edge shared with a hole face should be an infinite-weight border")
	}

	if !m.InvalidFace(0, 0) {
		t.Error("hole face not flagged invalid")
	}
	for f := 1; f < 4; f++ {
		if m.InvalidFace(f, 0) {
			t.Errorf("face %d unexpectedly invalid", f)
		}
	}
}

func TestCalculateHalfEdges_Idempotent(t *testing.T) {
	m := gridMesh(4, 3)
	m.SetEdgeCreaseIndices([][2]uint32{{1, 6}})
	m.SetEdgeCreaseWeights([]float32{1.25})
	m.Commit()

	topo := m.MustTopology(0)
	snapshot := make([]HalfEdge, len(topo.halfEdges))
	copy(snapshot, topo.halfEdges)

	m.Update() // everything modified, full rebuild
	m.Commit()

	if len(topo.halfEdges) != len(snapshot) {
		t.Fatalf("arena length changed: %d != %d", len(topo.halfEdges), len(snapshot))
	}
	for i := range snapshot {
		if topo.halfEdges[i] != snapshot[i] {
			t.Fatalf("half-edge %d differs after rebuild from unchanged inputs:\n got %+v\nwant %+v",
				i, topo.halfEdges[i], snapshot[i])
		}
	}
}

func TestCalculateHalfEdges_LargeGrid(t *testing.T) {
	// Large enough that the link phase runs as several chunks and runs of
	// equal keys straddle chunk boundaries.
	const n = 64
	m := gridMesh(n, n)
	m.Commit()

	topo := m.MustTopology(0)
	checkStructure(t, m, topo)

	var border, linked int
	for i := range topo.halfEdges {
		if topo.halfEdges[i].HasOpposite() {
			linked++
		} else {
			border++
		}
	}
	if wantBorder := 4 * n; border != wantBorder {
		t.Errorf("border half-edges = %d, want %d", border, wantBorder)
	}
	if wantLinked := 4*n*n - 4*n; linked != wantLinked {
		t.Errorf("linked half-edges = %d, want %d", linked, wantLinked)
	}

	stats := m.Statistics()
	if stats.NumRegularQuadFaces != n*n {
		t.Errorf("regular quad faces = %d, want %d", stats.NumRegularQuadFaces, n*n)
	}
}

func BenchmarkCalculateHalfEdges(b *testing.B) {
	m := gridMesh(128, 128)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Update()
		m.Commit()
	}
}
