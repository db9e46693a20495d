package embree

// buffer is a caller-owned data slice plus a modified-since-last-commit
// flag. The kernel only ever reads the data; Commit snapshots and then
// clears the flags.
type buffer[T any] struct {
	data     []T
	modified bool
}

func (b *buffer[T]) set(data []T) {
	b.data = data
	b.modified = true
}

func (b *buffer[T]) markModified()  { b.modified = true }
func (b *buffer[T]) clearModified() { b.modified = false }

func (b *buffer[T]) len() int { return len(b.data) }

// BufferKind names a mesh input buffer for UpdateBuffer.
type BufferKind int

const (
	FaceBuffer BufferKind = iota
	IndexBuffer
	VertexBuffer
	UserVertexBuffer
	EdgeCreaseIndexBuffer
	EdgeCreaseWeightBuffer
	VertexCreaseIndexBuffer
	VertexCreaseWeightBuffer
	HoleBuffer
	LevelBuffer
)

func (k BufferKind) String() string {
	switch k {
	case FaceBuffer:
		return "face"
	case IndexBuffer:
		return "index"
	case VertexBuffer:
		return "vertex"
	case UserVertexBuffer:
		return "user-vertex"
	case EdgeCreaseIndexBuffer:
		return "edge-crease-index"
	case EdgeCreaseWeightBuffer:
		return "edge-crease-weight"
	case VertexCreaseIndexBuffer:
		return "vertex-crease-index"
	case VertexCreaseWeightBuffer:
		return "vertex-crease-weight"
	case HoleBuffer:
		return "hole"
	case LevelBuffer:
		return "level"
	}
	return "unknown"
}

// userVertexBuffer is an attribute buffer interpolated over a bindable
// topology slot. Only its element count matters to the topology kernel;
// the evaluator consumes the data.
type userVertexBuffer struct {
	buffer[float32]
	stride   int // floats per element
	topology int // bound topology slot, 0 by default
}

func (b *userVertexBuffer) elements() int {
	if b.stride <= 0 {
		return 0
	}
	return len(b.data) / b.stride
}
