package embree

// Verify checks the whole mesh before it is trusted by evaluation: every
// time step's vertex buffer has the same length, all vertex indices are in
// range (slot 0 against the vertex count, bound slots against their user
// buffer's element count), and every vertex coordinate is finite.
//
// Verify reports a boolean and never panics; on false the caller must
// refuse to commit or use the topology. The kernel does not attempt
// repair.
func (m *SubdivMesh) Verify() bool {
	if len(m.vertices) == 0 {
		return false
	}
	numVertices := m.vertices[0].len()
	for i := range m.vertices {
		if m.vertices[i].len() != numVertices {
			return false
		}
	}

	if !m.topology[0].Verify(numVertices) {
		return false
	}

	for i := range m.userBuffers {
		b := &m.userBuffers[i]
		if b.data == nil {
			continue
		}
		if !m.topology[b.topology].Verify(b.elements()) {
			return false
		}
	}

	for i := range m.vertices {
		for _, v := range m.vertices[i].data {
			if !finite(v) {
				return false
			}
		}
	}
	return true
}
