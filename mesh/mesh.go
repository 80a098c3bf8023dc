package mesh

import svodag "github.com/voxelgrid/svodag"

// oppositeSide names the face of a neighbor chunk that touches the given
// side of the chunk being meshed.
func oppositeSide(side ExternalSide) ExternalSide {
	switch side {
	case SideYZPos:
		return SideYZNeg
	case SideYZNeg:
		return SideYZPos
	case SideXZPos:
		return SideXZNeg
	case SideXZNeg:
		return SideXZPos
	case SideXYPos:
		return SideXYNeg
	default:
		return SideXYPos
	}
}

func neighborPosition(pos svodag.IVec3, side ExternalSide) svodag.IVec3 {
	switch side {
	case SideYZPos:
		return svodag.IVec3{X: pos.X + 1, Y: pos.Y, Z: pos.Z}
	case SideYZNeg:
		return svodag.IVec3{X: pos.X - 1, Y: pos.Y, Z: pos.Z}
	case SideXZPos:
		return svodag.IVec3{X: pos.X, Y: pos.Y + 1, Z: pos.Z}
	case SideXZNeg:
		return svodag.IVec3{X: pos.X, Y: pos.Y - 1, Z: pos.Z}
	case SideXYPos:
		return svodag.IVec3{X: pos.X, Y: pos.Y, Z: pos.Z + 1}
	default:
		return svodag.IVec3{X: pos.X, Y: pos.Y, Z: pos.Z - 1}
	}
}

// MeshChunk extracts a greedy mesh for one chunk in isolation: external
// sides named in closed are treated as solid (no boundary faces emitted
// there); all other sides are treated as open (boundary faces always
// emitted, as if facing empty space). Use MeshChunkInModel to instead
// sample real neighbor chunks along open sides.
func MeshChunk[T any](in *svodag.Interner[T], chunk *svodag.Chunk[T], closed [6]bool) *MeshData {
	occ := BuildOccupancy(in, chunk.Tree().Root(), chunk.MaxDepth(), [3]uint32{0, 0, 0})
	for side := ExternalSide(0); side < 6; side++ {
		if closed[side] {
			occ.FillExternalSide(side)
		}
	}

	meshData := &MeshData{}
	origin := chunk.WorldOrigin()
	GenerateGreedyMesh(occ, meshData, chunk.MaxDepth(), Vec3{X: origin[0], Y: origin[1], Z: origin[2]}, chunk.VoxelSize())
	return meshData
}

// MeshChunkInModel is MeshChunk plus neighbor-aware external masks: for
// every side not listed in closed, the adjacent chunk (if loaded) is
// sampled for its touching boundary plane via
// GenerateExternalOccupancyMask, per spec §4.6's "sampling the adjacent
// chunk's boundary plane". A missing, unloaded neighbor is treated as
// empty (its side contributes no external occupancy, so boundary faces
// are emitted there), matching an unexplored region of the world.
func MeshChunkInModel[T any](model *svodag.Model[T], pos svodag.IVec3, closed [6]bool) *MeshData {
	chunk, ok := model.GetChunk(pos)
	if !ok {
		return &MeshData{}
	}
	in := model.Interner()

	occ := BuildOccupancy(in, chunk.Tree().Root(), chunk.MaxDepth(), [3]uint32{0, 0, 0})

	for side := ExternalSide(0); side < 6; side++ {
		if closed[side] {
			occ.FillExternalSide(side)
			continue
		}
		neighborPos := neighborPosition(pos, side)
		neighbor, ok := model.GetChunk(neighborPos)
		if !ok {
			continue
		}
		mask := GenerateExternalOccupancyMask(in, neighbor.Tree().Root(), neighbor.MaxDepth(), side, [2]uint32{0, 0})
		occ.SetExternalMask(side, mask)
	}

	meshData := &MeshData{}
	origin := chunk.WorldOrigin()
	GenerateGreedyMesh(occ, meshData, chunk.MaxDepth(), Vec3{X: origin[0], Y: origin[1], Z: origin[2]}, chunk.VoxelSize())
	return meshData
}
