// Package mesh extracts renderable surface meshes from a svodag tree via
// bitplane occupancy construction and greedy quad merging, per spec §4.6.
// Grounded on original_source/voxelis/src/utils/mesh.rs.
package mesh

import svodag "github.com/voxelgrid/svodag"

// MaxVoxelsPerAxis is the largest region side the bitplane occupancy
// representation supports: one row packs into a single uint64. Grounded
// on mesh.rs's MAX_VOXELS_PER_AXIS; matches spec §9's "Supported max_depth
// ∈ [0,6] gives up to 64³ voxels per tree".
const MaxVoxelsPerAxis = 64

// PlaneSize is the number of (u,v) rows in one axis-ordered bitplane.
const PlaneSize = MaxVoxelsPerAxis * MaxVoxelsPerAxis

// PlaneSizeAllAxes is the length of the flattened three-plane occupancy
// array (YZ, XZ, XY planes concatenated).
const PlaneSizeAllAxes = PlaneSize * 3

// Plane names one of the three axis-ordered projections the occupancy
// bitplanes are built for.
type Plane int

const (
	PlaneYZ Plane = iota
	PlaneXZ
	PlaneXY
)

// offset is the base index of a plane's rows within the flattened
// Global/PerMaterial arrays.
func (p Plane) offset() int { return int(p) * PlaneSize }

// ExternalSide enumerates the six faces of a meshed region, in the order
// mesh.rs's ExternalPlane enum declares them.
type ExternalSide int

const (
	SideYZPos ExternalSide = iota
	SideYZNeg
	SideXZPos
	SideXZNeg
	SideXYPos
	SideXYNeg
)

// Dir is the face direction within a plane: Pos faces point toward
// increasing coordinate, Neg toward decreasing.
type Dir int

const (
	DirPos Dir = iota
	DirNeg
)

func (s ExternalSide) planeDir() (Plane, Dir) {
	switch s {
	case SideYZPos:
		return PlaneYZ, DirPos
	case SideYZNeg:
		return PlaneYZ, DirNeg
	case SideXZPos:
		return PlaneXZ, DirPos
	case SideXZNeg:
		return PlaneXZ, DirNeg
	case SideXYPos:
		return PlaneXY, DirPos
	default:
		return PlaneXY, DirNeg
	}
}

// OccupancyData is the built, read-only occupancy representation for one
// meshed region. Grounded on mesh.rs's OccupancyData/OccupancyDataBuilder,
// with the builder's HashMap-keyed per-material storage replaced by a
// Go map plus a sorted key list (kept sorted as each new material is
// inserted by fillMasksForRegion) so greedy extraction can iterate
// materials in a fixed order.
type OccupancyData struct {
	Global         []uint64 // len PlaneSizeAllAxes
	External       [6][MaxVoxelsPerAxis]uint64
	ExternalExists [6]bool
	PerMaterial    map[uint32][]uint64 // each len PlaneSizeAllAxes
	Materials      []uint32            // sorted ascending
}

// NewOccupancyBuilder allocates a zeroed OccupancyData ready for Fill.
func NewOccupancyBuilder() *OccupancyData {
	return &OccupancyData{
		Global:      make([]uint64, PlaneSizeAllAxes),
		PerMaterial: make(map[uint32][]uint64),
	}
}

// FillExternalSide marks an entire external face as fully occupied (the
// "declared closed" case of spec §4.6's occupancy construction).
func (o *OccupancyData) FillExternalSide(side ExternalSide) {
	for i := range o.External[side] {
		o.External[side][i] = ^uint64(0)
	}
	o.ExternalExists[side] = true
}

// SetExternalMask installs a precomputed neighbor boundary mask (sampled
// from an adjacent chunk via GenerateExternalOccupancyMask) as the
// occupancy on one external face.
func (o *OccupancyData) SetExternalMask(side ExternalSide, mask [MaxVoxelsPerAxis]uint64) {
	o.External[side] = mask
	o.ExternalExists[side] = true
}

// fillMasksForRegion ORs a cube of the given side length, starting at
// regionOffset, into the global and per-material occupancy bitplanes —
// all three axis projections in one pass. Grounded on mesh.rs's
// fill_masks_for_region.
func (o *OccupancyData) fillMasksForRegion(regionOffset [3]uint32, side uint32, materialID uint32) {
	row, ok := o.PerMaterial[materialID]
	if !ok {
		row = make([]uint64, PlaneSizeAllAxes)
		o.PerMaterial[materialID] = row
		o.Materials = insertSortedUnique(o.Materials, materialID)
	}

	if side == MaxVoxelsPerAxis {
		for i := range o.Global {
			o.Global[i] = ^uint64(0)
		}
		for i := range row {
			row[i] = ^uint64(0)
		}
		return
	}

	runMask := (uint64(1) << side) - 1
	startX, startY, startZ := regionOffset[0], regionOffset[1], regionOffset[2]
	xMask := runMask << startX
	yMask := runMask << startY
	zMask := runMask << startZ

	for i := uint32(0); i < side; i++ {
		z := startZ + i
		y := startY + i

		baseY := PlaneXZ.offset() + int(z)*MaxVoxelsPerAxis + int(startX)
		baseZ := PlaneXY.offset() + int(y)*MaxVoxelsPerAxis + int(startX)
		baseX := PlaneYZ.offset() + int(z)*MaxVoxelsPerAxis + int(startY)

		for j := uint32(0); j < side; j++ {
			idxY := baseY + int(j)
			o.Global[idxY] |= yMask
			row[idxY] |= yMask

			idxZ := baseZ + int(j)
			o.Global[idxZ] |= zMask
			row[idxZ] |= zMask

			idxX := baseX + int(j)
			o.Global[idxX] |= xMask
			row[idxX] |= xMask
		}
	}
}

func insertSortedUnique(s []uint32, v uint32) []uint32 {
	i := 0
	for ; i < len(s); i++ {
		if s[i] == v {
			return s
		}
		if s[i] > v {
			break
		}
	}
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

// dfsFrame is one entry on the explicit occupancy-build work stack: the
// node being visited, its minimum corner within the region, and its tree
// depth. Iterative per spec §9 ("Iteration rather than recursion").
type dfsFrame struct {
	node  svodag.BlockId
	pos   [3]int32
	depth int
}

// BuildOccupancy walks root (an interned VoxTree/Chunk root) and fills a
// fresh OccupancyData's global and per-material bitplanes, per spec
// §4.6's "Occupancy construction": uniform subtrees are block-filled in
// O(side²) per plane rather than voxel by voxel. Grounded on mesh.rs's
// generate_occupancy_masks.
func BuildOccupancy[T any](in *svodag.Interner[T], root svodag.BlockId, maxDepth int, regionOffset [3]uint32) *OccupancyData {
	builder := NewOccupancyBuilder()
	if root.IsEmpty() {
		return builder
	}

	codec := in.Codec()
	defaultValue := codec.Default()

	if root.IsLeaf() {
		value := in.GetValue(root)
		if !codec.Equal(value, defaultValue) {
			side := uint32(1) << uint(maxDepth)
			builder.fillMasksForRegion(regionOffset, side, codec.MaterialID(value))
		}
		return builder
	}

	stack := make([]dfsFrame, 0, 64)
	stack = append(stack, dfsFrame{node: root, pos: [3]int32{0, 0, 0}, depth: 0})

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.node.IsBranch() && f.depth < maxDepth {
			childHalf := int32(1) << uint(maxDepth-f.depth-1)
			children := in.GetChildren(f.node)
			for i := 7; i >= 0; i-- {
				child := children[i]
				if child.IsEmpty() {
					continue
				}
				x := int32(i&1) * childHalf
				y := int32((i&2)>>1) * childHalf
				z := int32((i&4)>>2) * childHalf
				stack = append(stack, dfsFrame{
					node:  child,
					pos:   [3]int32{f.pos[0] + x, f.pos[1] + y, f.pos[2] + z},
					depth: f.depth + 1,
				})
			}
			continue
		}

		value := in.GetValue(f.node)
		if codec.Equal(value, defaultValue) {
			continue
		}
		cubeSide := uint32(1) << uint(maxDepth-f.depth)
		globalPos := [3]uint32{
			regionOffset[0] + uint32(f.pos[0]),
			regionOffset[1] + uint32(f.pos[1]),
			regionOffset[2] + uint32(f.pos[2]),
		}
		builder.fillMasksForRegion(globalPos, cubeSide, codec.MaterialID(value))
	}

	return builder
}

// GenerateExternalOccupancyMask samples a neighbor region's boundary
// plane for use as one of the caller's six External masks, per spec
// §4.6's "built by sampling the adjacent chunk's boundary plane". offset
// places the (voxelsPerAxis)² sampled footprint within the destination
// mask's (start, start) corner, for stride-mode callers aggregating
// several neighbor chunks into one 64-row mask; single-chunk callers pass
// offset {0,0}. Grounded on mesh.rs's generate_external_occupancy_mask.
func GenerateExternalOccupancyMask[T any](in *svodag.Interner[T], root svodag.BlockId, maxDepth int, side ExternalSide, offset [2]uint32) [MaxVoxelsPerAxis]uint64 {
	var out [MaxVoxelsPerAxis]uint64
	if root.IsEmpty() {
		return out
	}

	voxelsPerAxis := uint32(1) << uint(maxDepth)
	startX, startY := offset[0], offset[1]
	plane, dir := side.planeDir()

	posVox := int32(0)
	if dir == DirNeg {
		posVox = int32(voxelsPerAxis) - 1
	}

	if !root.IsBranch() {
		bitMask := ((uint64(1) << voxelsPerAxis) - 1) << startX
		for row := uint32(0); row < voxelsPerAxis; row++ {
			out[startY+row] |= bitMask
		}
		return out
	}

	codec := in.Codec()
	defaultValue := codec.Default()

	sample := func(pos svodag.IVec3) bool {
		v, ok := getAtDepth(in, root, pos, maxDepth)
		return ok && !codec.Equal(v, defaultValue)
	}

	switch plane {
	case PlaneYZ:
		for y := uint32(0); y < voxelsPerAxis; y++ {
			maskY := startY + y
			for z := uint32(0); z < voxelsPerAxis; z++ {
				if sample(svodag.IVec3{X: posVox, Y: int32(z), Z: int32(y)}) {
					out[maskY] |= uint64(1) << (startX + z)
				}
			}
		}
	case PlaneXZ:
		for z := uint32(0); z < voxelsPerAxis; z++ {
			maskZ := startY + z
			for x := uint32(0); x < voxelsPerAxis; x++ {
				if sample(svodag.IVec3{X: int32(x), Y: posVox, Z: int32(z)}) {
					out[maskZ] |= uint64(1) << (startX + x)
				}
			}
		}
	case PlaneXY:
		for y := uint32(0); y < voxelsPerAxis; y++ {
			maskY := startY + y
			for x := uint32(0); x < voxelsPerAxis; x++ {
				if sample(svodag.IVec3{X: int32(x), Y: int32(y), Z: posVox}) {
					out[maskY] |= uint64(1) << (startX + x)
				}
			}
		}
	}

	return out
}

// getAtDepth descends root to pos and reports whether a non-empty
// terminal (leaf or uniform shadow) is present there, without requiring a
// full VoxTree — occupancy sampling only needs read access to an
// interned root. Grounded on utils/common.rs's get_at_depth (not itself
// among the kept original-source files; reconstructed from its call
// sites, and equivalent to VoxTree.Get's descent but over a bare root).
func getAtDepth[T any](in *svodag.Interner[T], root svodag.BlockId, pos svodag.IVec3, maxDepth int) (T, bool) {
	current := root
	for depth := 0; depth < maxDepth; depth++ {
		if current.IsEmpty() {
			var zero T
			return zero, false
		}
		if current.IsLeaf() {
			return in.GetValue(current), true
		}
		shift := uint(maxDepth - 1 - depth)
		bx := uint8((pos.X >> shift) & 1)
		by := uint8((pos.Y >> shift) & 1)
		bz := uint8((pos.Z >> shift) & 1)
		idx := bx | by<<1 | bz<<2
		current = in.GetChild(current, int(idx))
	}
	if current.IsEmpty() {
		var zero T
		return zero, false
	}
	return in.GetValue(current), true
}
