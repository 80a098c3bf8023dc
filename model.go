package svodag

import "sync"

// Model owns the single shared Interner for a world and the sparse map of
// loaded chunks, guarded by a reader-writer lock per spec §5 ("single
// writer, many readers"). Grounded on voxelis/src/model.rs's Model, adapted
// from its fixed Vec<Chunk> grid to the spec's sparse
// HashMap<IVec3, Chunk>: chunks are created on demand and the tracked
// bounds grow to cover them.
type Model[T any] struct {
	mu sync.RWMutex

	interner  *Interner[T]
	chunkSize float64
	maxDepth  int

	chunks map[IVec3]*Chunk[T]

	hasBounds bool
	minBound  IVec3
	maxBound  IVec3
}

// NewModel constructs an empty Model backed by an Interner sized to
// memoryBudget bytes.
func NewModel[T any](codec Codec[T], memoryBudget int, chunkSize float64, maxDepth int) (*Model[T], error) {
	in, err := NewInterner(codec, memoryBudget)
	if err != nil {
		return nil, err
	}
	return &Model[T]{
		interner:  in,
		chunkSize: chunkSize,
		maxDepth:  maxDepth,
		chunks:    make(map[IVec3]*Chunk[T]),
	}, nil
}

func (m *Model[T]) Interner() *Interner[T] { return m.interner }
func (m *Model[T]) ChunkSize() float64     { return m.chunkSize }
func (m *Model[T]) MaxDepth() int          { return m.maxDepth }

// Bounds reports the smallest axis-aligned box (in chunk-grid coordinates)
// covering every chunk ever created, and whether any chunk exists yet.
func (m *Model[T]) Bounds() (min, max IVec3, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.minBound, m.maxBound, m.hasBounds
}

func (m *Model[T]) growBoundsLocked(pos IVec3) {
	if !m.hasBounds {
		m.minBound, m.maxBound = pos, pos
		m.hasBounds = true
		return
	}
	if pos.X < m.minBound.X {
		m.minBound.X = pos.X
	}
	if pos.Y < m.minBound.Y {
		m.minBound.Y = pos.Y
	}
	if pos.Z < m.minBound.Z {
		m.minBound.Z = pos.Z
	}
	if pos.X > m.maxBound.X {
		m.maxBound.X = pos.X
	}
	if pos.Y > m.maxBound.Y {
		m.maxBound.Y = pos.Y
	}
	if pos.Z > m.maxBound.Z {
		m.maxBound.Z = pos.Z
	}
}

// GetChunk returns the chunk at the given chunk-grid position, if loaded.
func (m *Model[T]) GetChunk(pos IVec3) (*Chunk[T], bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.chunks[pos]
	return c, ok
}

// GetOrCreateChunk returns the chunk at pos, creating an empty one (and
// growing the tracked bounds) if it doesn't exist yet.
func (m *Model[T]) GetOrCreateChunk(pos IVec3) *Chunk[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.chunks[pos]; ok {
		return c
	}
	c := NewChunk[T](pos, m.chunkSize, m.maxDepth)
	m.chunks[pos] = c
	m.growBoundsLocked(pos)
	return c
}

// Chunks returns a snapshot slice of every currently loaded chunk.
func (m *Model[T]) Chunks() []*Chunk[T] {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Chunk[T], 0, len(m.chunks))
	for _, c := range m.chunks {
		out = append(out, c)
	}
	return out
}

func (m *Model[T]) ChunkCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks)
}

// Get performs a point read at world-voxel resolution: worldPos is
// decomposed into a chunk position and a local voxel coordinate within it.
func (m *Model[T]) Get(worldPos IVec3) (T, bool) {
	pos, local := m.decompose(worldPos)
	c, ok := m.GetChunk(pos)
	if !ok {
		var zero T
		return zero, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return c.Get(m.interner, local)
}

// Set performs a point write at world-voxel resolution, creating the
// target chunk on demand.
func (m *Model[T]) Set(worldPos IVec3, value T) bool {
	pos, local := m.decompose(worldPos)
	c := m.GetOrCreateChunk(pos)
	m.mu.Lock()
	defer m.mu.Unlock()
	return c.Set(m.interner, local, value)
}

// ApplyBatch applies a staged Batch against the chunk at pos, creating it
// on demand, under the model's single writer lock.
func (m *Model[T]) ApplyBatch(pos IVec3, batch *Batch[T]) bool {
	c := m.GetOrCreateChunk(pos)
	m.mu.Lock()
	defer m.mu.Unlock()
	return c.ApplyBatch(m.interner, batch)
}

func (m *Model[T]) decompose(worldPos IVec3) (chunkPos, local IVec3) {
	voxelsPerAxis := int32(1) << uint(m.maxDepth)
	chunkPos = IVec3{
		X: floorDiv(worldPos.X, voxelsPerAxis),
		Y: floorDiv(worldPos.Y, voxelsPerAxis),
		Z: floorDiv(worldPos.Z, voxelsPerAxis),
	}
	local = IVec3{
		X: worldPos.X - chunkPos.X*voxelsPerAxis,
		Y: worldPos.Y - chunkPos.Y*voxelsPerAxis,
		Z: worldPos.Z - chunkPos.Z*voxelsPerAxis,
	}
	return chunkPos, local
}

func floorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
