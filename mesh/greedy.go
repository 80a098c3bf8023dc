package mesh

import "math/bits"

// Vec3 is a float64 3D point/vector for emitted mesh geometry.
type Vec3 struct {
	X, Y, Z float64
}

func (a Vec3) Add(b Vec3) Vec3     { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }
func (a Vec3) MulElem(b Vec3) Vec3 { return Vec3{a.X * b.X, a.Y * b.Y, a.Z * b.Z} }

// MeshData is the three parallel output arrays spec §4.6 names: vertex
// positions, per-vertex normals, and triangle indices. Grounded on
// mesh.rs's MeshData.
type MeshData struct {
	Vertices []Vec3
	Normals  []Vec3
	Indices  []uint32
}

func (m *MeshData) addQuad(quad [4]Vec3, normal Vec3) {
	index := uint32(len(m.Vertices))
	m.Vertices = append(m.Vertices, quad[0], quad[1], quad[2], quad[3])
	m.Normals = append(m.Normals, normal, normal, normal, normal)
	m.Indices = append(m.Indices,
		index+2, index+1, index,
		index+3, index, index+1,
	)
}

// cubeVerts are the 8 corners of a unit cube, in the vertex-index
// convention mesh.rs's CUBE_VERTS/VERTS_* tables address.
var cubeVerts = [8]Vec3{
	{0, 1, 0}, {1, 1, 0}, {1, 1, 1}, {0, 1, 1},
	{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1},
}

var cubeNormals = [6]Vec3{
	{0, 1, 0}, {1, 0, 0}, {0, -1, 0}, {-1, 0, 0}, {0, 0, -1}, {0, 0, 1},
}

const (
	normalYZPos = 1
	normalYZNeg = 3
	normalXZPos = 0
	normalXZNeg = 2
	normalXYPos = 5
	normalXYNeg = 4
)

var (
	vertsYZPos = [4]int{2, 5, 6, 1}
	vertsYZNeg = [4]int{0, 7, 4, 3}
	vertsXZPos = [4]int{0, 2, 3, 1}
	vertsXZNeg = [4]int{7, 5, 4, 6}
	vertsXYPos = [4]int{3, 6, 7, 2}
	vertsXYNeg = [4]int{1, 4, 5, 0}

	ijkYZ = [3]int{2, 0, 1}
	ijkXZ = [3]int{0, 2, 1}
	ijkXY = [3]int{0, 1, 2}
)

func planeFaceTables(plane Plane, dir Dir) (verts [4]int, ijk [3]int, normal int) {
	switch {
	case plane == PlaneYZ && dir == DirPos:
		return vertsYZPos, ijkYZ, normalYZPos
	case plane == PlaneYZ && dir == DirNeg:
		return vertsYZNeg, ijkYZ, normalYZNeg
	case plane == PlaneXZ && dir == DirPos:
		return vertsXZPos, ijkXZ, normalXZPos
	case plane == PlaneXZ && dir == DirNeg:
		return vertsXZNeg, ijkXZ, normalXZNeg
	case plane == PlaneXY && dir == DirPos:
		return vertsXYPos, ijkXY, normalXYPos
	default:
		return vertsXYNeg, ijkXY, normalXYNeg
	}
}

// findContiguousBits returns the mask of set bits in `mask` forming an
// unbroken run starting at bit `start`, per spec §4.6 step 1's
// "width_mask". Grounded on mesh.rs's find_contiguous_bits.
func findContiguousBits(mask uint64, start uint) uint64 {
	if mask == ^uint64(0) {
		return ^uint64(0) << start
	}
	shifted := mask >> start
	firstZero := uint64(bits.TrailingZeros64(^shifted))
	return ((uint64(1) << firstZero) - 1) << start
}

// generateGreedyFacesForSlice is spec §4.6's "Greedy merging per slice":
// scan rows for unused set bits, grow a rectangle by width then height,
// emit one quad, and mark it used. Grounded on mesh.rs's
// generate_greedy_faces_for_slice.
func generateGreedyFacesForSlice(meshData *MeshData, plane Plane, dir Dir, globalOffset Vec3, voxelSize float64, facesTotal int, slice float64, used *[MaxVoxelsPerAxis]uint64, faces *[MaxVoxelsPerAxis]uint64, maxVoxelsPerAxis int) {
	facesLeft := facesTotal

	for startRow := 0; startRow < maxVoxelsPerAxis; startRow++ {
		available := faces[startRow] &^ used[startRow]

		for available != 0 {
			startCol := uint(bits.TrailingZeros64(available))
			widthMask := findContiguousBits(available, startCol)
			width := bits.OnesCount64(widthMask)

			height := 1
			for row := startRow + 1; row < maxVoxelsPerAxis; row++ {
				rowMask := faces[row] &^ used[row]
				if rowMask&widthMask == widthMask {
					height++
					used[row] |= widthMask
				} else {
					break
				}
			}

			ijkScale := [3]float64{voxelSize * float64(width), voxelSize * float64(height), voxelSize}
			ijkOffset := [3]float64{voxelSize * float64(startCol), voxelSize * float64(startRow), voxelSize * slice}

			vIDs, ijkIDs, normalID := planeFaceTables(plane, dir)

			scale := Vec3{ijkScale[ijkIDs[0]], ijkScale[ijkIDs[1]], ijkScale[ijkIDs[2]]}
			offset := Vec3{ijkOffset[ijkIDs[0]], ijkOffset[ijkIDs[1]], ijkOffset[ijkIDs[2]]}

			var quad [4]Vec3
			for i, vid := range vIDs {
				quad[i] = cubeVerts[vid].MulElem(scale).Add(offset).Add(globalOffset)
			}

			meshData.addQuad(quad, cubeNormals[normalID])

			used[startRow] |= widthMask
			available &^= widthMask
			facesLeft -= width * height

			if facesLeft == 0 {
				return
			}
		}
	}
}

// GenerateGreedyMesh runs spec §4.6's full face-extraction-and-merging
// pass over a built OccupancyData, appending quads into meshData.
// Grounded on mesh.rs's generate_greedy_mesh_arrays.
func GenerateGreedyMesh(occupancy *OccupancyData, meshData *MeshData, maxDepth int, offset Vec3, voxelSize float64) {
	enclosed := true
	for side := range occupancy.External {
		for _, m := range occupancy.External[side] {
			if m != ^uint64(0) {
				enclosed = false
				break
			}
		}
		if !enclosed {
			break
		}
	}
	if enclosed {
		return
	}

	materialsLen := len(occupancy.Materials)
	maxVoxelsPerAxis := 1 << uint(maxDepth)

	var globalFacePos, globalFaceNeg [PlaneSize]uint64
	var activeRowPos, activeRowNeg uint64
	var activeColPos, activeColNeg uint64
	var activeDepthPos, activeDepthNeg uint64

	materialFacesPos := make([]uint64, PlaneSize*materialsLen)
	materialFacesNeg := make([]uint64, PlaneSize*materialsLen)
	materialCountPos := make([]int, materialsLen)
	materialCountNeg := make([]int, materialsLen)

	var faces, used [MaxVoxelsPerAxis]uint64

	planes := []struct {
		plane Plane
		pos   ExternalSide
		neg   ExternalSide
	}{
		{PlaneYZ, SideYZPos, SideYZNeg},
		{PlaneXZ, SideXZPos, SideXZNeg},
		{PlaneXY, SideXYPos, SideXYNeg},
	}

	for _, pd := range planes {
		for i := range materialCountPos {
			materialCountPos[i] = 0
			materialCountNeg[i] = 0
		}
		activeRowPos, activeRowNeg = 0, 0
		activeColPos, activeColNeg = 0, 0
		activeDepthPos, activeDepthNeg = 0, 0

		externalPos := occupancy.External[pd.pos]
		externalNeg := occupancy.External[pd.neg]

		for row := 0; row < maxVoxelsPerAxis; row++ {
			baseIdx := row * MaxVoxelsPerAxis
			for col := 0; col < maxVoxelsPerAxis; col++ {
				idx := baseIdx + col

				mask := occupancy.Global[pd.plane.offset()+idx]

				globalMaskPos := ^(mask >> 1) & mask
				globalMaskNeg := ^(mask << 1) & mask

				globalMaskPos &^= ((externalPos[row] >> uint(col)) & 1) << uint(maxVoxelsPerAxis-1)
				globalMaskNeg &^= (externalNeg[row] >> uint(col)) & 1

				if globalMaskPos != 0 {
					activeRowPos |= 1 << uint(row)
					activeColPos |= 1 << uint(col)
					activeDepthPos |= globalMaskPos
				}
				if globalMaskNeg != 0 {
					activeRowNeg |= 1 << uint(row)
					activeColNeg |= 1 << uint(col)
					activeDepthNeg |= globalMaskNeg
				}

				globalFacePos[idx] = globalMaskPos
				globalFaceNeg[idx] = globalMaskNeg

				for mi, matID := range occupancy.Materials {
					matMask := occupancy.PerMaterial[matID][pd.plane.offset()+idx]
					matMaskPos := matMask & globalMaskPos
					matMaskNeg := matMask & globalMaskNeg

					materialCountPos[mi] += bits.OnesCount64(matMaskPos)
					materialCountNeg[mi] += bits.OnesCount64(matMaskNeg)

					off := idx + mi*PlaneSize
					materialFacesPos[off] = matMaskPos
					materialFacesNeg[off] = matMaskNeg
				}
			}
		}

		minColPos, maxColPos := activeRange(activeColPos)
		minColNeg, maxColNeg := activeRange(activeColNeg)
		minRowPos, maxRowPos := activeRange(activeRowPos)
		minRowNeg, maxRowNeg := activeRange(activeRowNeg)
		minDepthPos, maxDepthPos := activeRange(activeDepthPos)
		minDepthNeg, maxDepthNeg := activeRange(activeDepthNeg)

		type dirPass struct {
			dir                              Dir
			masks                            []uint64
			total                            int
			activeRow, activeCol, activeDpth uint64
			rowMin, rowMax                   int
			colMin, colMax                   int
			depthMin, depthMax               int
		}

		for mi := range occupancy.Materials {
			start := mi * PlaneSize
			end := start + PlaneSize

			passes := [2]dirPass{
				{DirPos, materialFacesPos[start:end], materialCountPos[mi],
					activeRowPos, activeColPos, activeDepthPos,
					minRowPos, maxRowPos, minColPos, maxColPos, minDepthPos, maxDepthPos},
				{DirNeg, materialFacesNeg[start:end], materialCountNeg[mi],
					activeRowNeg, activeColNeg, activeDepthNeg,
					minRowNeg, maxRowNeg, minColNeg, maxColNeg, minDepthNeg, maxDepthNeg},
			}

			for _, p := range passes {
				facesLeft := p.total
				if facesLeft == 0 {
					continue
				}

				for slice := p.depthMin; slice < p.depthMax; slice++ {
					if (p.activeDpth>>uint(slice))&1 == 0 {
						continue
					}
					if facesLeft == 0 {
						break
					}

					for i := range faces {
						faces[i] = 0
						used[i] = 0
					}
					haveFaces := false
					facesInSlice := 0

					for row := p.rowMin; row < p.rowMax; row++ {
						if (p.activeRow>>uint(row))&1 == 0 {
							continue
						}
						baseIdx := row * MaxVoxelsPerAxis
						for col := p.colMin; col < p.colMax; col++ {
							if (p.activeCol>>uint(col))&1 == 0 {
								continue
							}
							idx := baseIdx + col
							if (p.masks[idx]>>uint(slice))&1 != 0 {
								faces[row] |= 1 << uint(col)
								facesLeft--
								facesInSlice++
								haveFaces = true
							}
						}
					}

					if !haveFaces {
						continue
					}

					generateGreedyFacesForSlice(meshData, pd.plane, p.dir, offset, voxelSize, facesInSlice, float64(slice), &used, &faces, maxVoxelsPerAxis)
				}
			}
		}
	}
}

// activeRange returns [min, max) bit positions bracketing the set bits of
// mask, matching mesh.rs's trailing_zeros/64-leading_zeros pair; an empty
// mask yields an empty range.
func activeRange(mask uint64) (min, max int) {
	if mask == 0 {
		return 0, 0
	}
	return bits.TrailingZeros64(mask), 64 - bits.LeadingZeros64(mask)
}
