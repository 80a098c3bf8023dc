package svodag

import "fmt"

// IVec3 is an integer 3D coordinate, in voxel units. Grounded on the
// original source's use of glam::IVec3 throughout voxtree.rs/chunk.rs;
// reimplemented as a plain struct since glam is not a Go package.
type IVec3 struct {
	X, Y, Z int32
}

func NewIVec3(x, y, z int32) IVec3 { return IVec3{X: x, Y: y, Z: z} }

func (v IVec3) Add(o IVec3) IVec3 { return IVec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v IVec3) Sub(o IVec3) IVec3 { return IVec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v IVec3) String() string {
	return fmt.Sprintf("(%d, %d, %d)", v.X, v.Y, v.Z)
}

// InBounds reports whether v lies in [0, 2^maxDepth)^3, the addressable
// voxel range of a tree of the given max depth.
func (v IVec3) InBounds(maxDepth int) bool {
	side := int32(1) << uint(maxDepth)
	return v.X >= 0 && v.X < side &&
		v.Y >= 0 && v.Y < side &&
		v.Z >= 0 && v.Z < side
}

// childIndexAt returns the Morton child index (bit(x)=0, bit(y)=1, bit(z)=2)
// selecting which of the 8 children pos falls under at tree level `depth`
// (0 = root), for a tree of the given maxDepth. Grounded on voxtree.rs's
// child_index_macro, whose body is not among the kept original-source files;
// reconstructed from its call sites and from spec §4.4's Morton descent
// description.
func childIndexAt(pos IVec3, depth, maxDepth int) uint8 {
	shift := uint(maxDepth - 1 - depth)
	bx := uint8((pos.X >> shift) & 1)
	by := uint8((pos.Y >> shift) & 1)
	bz := uint8((pos.Z >> shift) & 1)
	return bx | by<<1 | bz<<2
}

// parentPathIndex computes the batch parent-path index and terminal
// child-bit for pos in a tree of the given maxDepth, per spec §4.3's
// "Batch mask layout": the high maxDepth-1 bits of each coordinate,
// Morton-interleaved, address the parent; the low bit, interleaved the
// same way, selects the child within that parent.
func parentPathIndex(pos IVec3, maxDepth int) (path uint32, childBit uint8) {
	for d := 0; d < maxDepth-1; d++ {
		idx := childIndexAt(pos, d, maxDepth)
		path |= uint32(idx) << uint(3*d)
	}
	childBit = childIndexAt(pos, maxDepth-1, maxDepth)
	return path, childBit
}

// pathChildIndexAt extracts the 3-bit Morton child index for level `level`
// (0 = shallowest parent level) out of a packed parent-path index, the
// inverse piece of parentPathIndex used during upward folding.
func pathChildIndexAt(path uint32, level int) uint8 {
	return uint8((path >> uint(3*level)) & 0b111)
}
