package embree

import "fmt"

// Statistics counts the faces of topology slot 0 by patch type. It is a
// diagnostic summary, not part of the kernel's correctness contract.
type Statistics struct {
	NumFaces              int
	NumBilinearFaces      int
	NumRegularQuadFaces   int
	NumIrregularQuadFaces int
	NumComplexFaces       int
}

// Statistics tallies the patch classification of every face. Valid after a
// commit.
func (m *SubdivMesh) Statistics() Statistics {
	var s Statistics
	s.NumFaces = m.NumFaces()

	topo := m.topology[0]
	for f := 0; f < s.NumFaces; f++ {
		switch topo.halfEdges[m.faceStartEdge[f]].Patch {
		case BilinearPatch:
			s.NumBilinearFaces++
		case RegularQuadPatch:
			s.NumRegularQuadFaces++
		case IrregularQuadPatch:
			s.NumIrregularQuadFaces++
		case ComplexPatch:
			s.NumComplexFaces++
		}
	}
	return s
}

func (s Statistics) String() string {
	pct := func(n int) float64 {
		if s.NumFaces == 0 {
			return 0
		}
		return 100 * float64(n) / float64(s.NumFaces)
	}
	return fmt.Sprintf(
		"numFaces = %d, numBilinearFaces = %d (%.1f%%), numRegularQuadFaces = %d (%.1f%%), numIrregularQuadFaces = %d (%.1f%%), numComplexFaces = %d (%.1f%%)",
		s.NumFaces,
		s.NumBilinearFaces, pct(s.NumBilinearFaces),
		s.NumRegularQuadFaces, pct(s.NumRegularQuadFaces),
		s.NumIrregularQuadFaces, pct(s.NumIrregularQuadFaces),
		s.NumComplexFaces, pct(s.NumComplexFaces))
}
