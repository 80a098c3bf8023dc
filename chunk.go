package svodag

// Chunk is a single VoxTree anchored at an integer grid position, with the
// world-space metadata needed to place and scale it. Grounded on
// voxelis/src/world/voxchunk.rs's VoxChunk (data/position/chunk_size/
// max_depth fields) and spec §3's "Chunk = VoxTree + integer grid position +
// chunk world size + max_depth".
type Chunk[T any] struct {
	tree      *VoxTree[T]
	position  IVec3
	chunkSize float64
	maxDepth  int
}

// NewChunk constructs an empty Chunk at position with the given world-space
// edge length and tree depth.
func NewChunk[T any](position IVec3, chunkSize float64, maxDepth int) *Chunk[T] {
	return &Chunk[T]{
		tree:      NewVoxTree[T](maxDepth),
		position:  position,
		chunkSize: chunkSize,
		maxDepth:  maxDepth,
	}
}

func (c *Chunk[T]) Position() IVec3 { return c.position }
func (c *Chunk[T]) ChunkSize() float64 { return c.chunkSize }
func (c *Chunk[T]) MaxDepth() int { return c.maxDepth }
func (c *Chunk[T]) Tree() *VoxTree[T] { return c.tree }

// VoxelSize is the world-space edge length of one terminal voxel:
// chunk_size / 2^max_depth, per spec §3.
func (c *Chunk[T]) VoxelSize() float64 {
	return c.chunkSize / float64(uint64(1)<<uint(c.maxDepth))
}

// VoxelsPerAxis is 2^max_depth, the number of terminal voxels along one
// edge of the chunk.
func (c *Chunk[T]) VoxelsPerAxis() int {
	return 1 << uint(c.maxDepth)
}

func (c *Chunk[T]) IsEmpty() bool { return c.tree.IsEmpty() }

func (c *Chunk[T]) Get(in *Interner[T], local IVec3) (T, bool) {
	return c.tree.Get(in, local)
}

func (c *Chunk[T]) Set(in *Interner[T], local IVec3, value T) bool {
	return c.tree.Set(in, local, value)
}

func (c *Chunk[T]) Fill(in *Interner[T], value T) { c.tree.Fill(in, value) }

func (c *Chunk[T]) Clear(in *Interner[T]) { c.tree.Clear(in) }

func (c *Chunk[T]) ApplyBatch(in *Interner[T], batch *Batch[T]) bool {
	return c.tree.ApplyBatch(in, batch)
}

// WorldOrigin returns the world-space coordinate of this chunk's minimum
// corner, given the chunk grid position and chunk_size.
func (c *Chunk[T]) WorldOrigin() [3]float64 {
	return [3]float64{
		float64(c.position.X) * c.chunkSize,
		float64(c.position.Y) * c.chunkSize,
		float64(c.position.Z) * c.chunkSize,
	}
}
