package embree

// MeshOption configures a SubdivMesh during creation.
//
// Example:
//
//	// Dynamic mesh, default tessellation rate
//	mesh := embree.NewSubdivMesh()
//
//	// Static scene: build temporaries are released after each commit
//	mesh := embree.NewSubdivMesh(embree.WithStaticScene())
type MeshOption func(*meshOptions)

type meshOptions struct {
	staticScene      bool
	tessellationRate float32
	timeSteps        int
}

func defaultMeshOptions() meshOptions {
	return meshOptions{
		staticScene:      false,
		tessellationRate: 2,
		timeSteps:        1,
	}
}

// WithStaticScene declares that the topology will not change again after
// commits. The builder's sort temporaries and the crease registries are
// released at the end of each commit instead of being kept for the next
// incremental update.
func WithStaticScene() MeshOption {
	return func(o *meshOptions) { o.staticScene = true }
}

// WithTessellationRate sets the mesh-wide tessellation level applied to
// every edge when no per-edge level buffer is present. The default is 2.
func WithTessellationRate(rate float32) MeshOption {
	return func(o *meshOptions) { o.tessellationRate = rate }
}

// WithTimeSteps sets the number of motion-blur time steps, one vertex
// buffer per step. The default is 1. SetVertices grows the count on demand
// as well.
func WithTimeSteps(n int) MeshOption {
	return func(o *meshOptions) {
		if n > 0 {
			o.timeSteps = n
		}
	}
}
