package voxelize

import svodag "github.com/voxelgrid/svodag"

// Face is one triangle of a mesh, as zero-based indices into Mesh.Vertices.
// Named FaceRef in spec §4.5/§Glossary.
type Face struct {
	A, B, C int
}

// Mesh is the voxelizer's input geometry: a flat vertex buffer and a list
// of triangles referencing it. Grounded on original_source/voxelis/src/
// io/obj.rs's Obj{vertices, faces, aabb} (not itself kept among the
// distilled files; reconstructed from voxelizer.rs's field accesses).
type Mesh struct {
	Vertices []Vec3
	Faces    []Face
}

// AABB returns the mesh's axis-aligned bounding box.
func (m Mesh) AABB() (min, max Vec3) {
	if len(m.Vertices) == 0 {
		return Vec3{}, Vec3{}
	}
	min, max = m.Vertices[0], m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		min = min.Min(v)
		max = max.Max(v)
	}
	return min, max
}

// BuildFaceToChunkMap is Stage 1 of spec §4.5: for each triangle, compute
// its bounding box in voxel units, derive the chunk range it touches, and
// append the triangle to every touched chunk's list. Grounded on
// voxelizer.rs's build_face_to_chunk_map, adapted from its dense
// Vec<Chunk>-indexed output to the sparse IVec3-keyed map matching this
// module's HashMap-based Model.
func BuildFaceToChunkMap(mesh Mesh, voxelsPerAxis int, voxelSize float64) map[svodag.IVec3][]Face {
	chunkFaceMap := make(map[svodag.IVec3][]Face)
	if voxelSize <= 0 || voxelsPerAxis <= 0 {
		return chunkFaceMap
	}

	meshMin, _ := mesh.AABB()
	invVoxelSize := 1 / voxelSize

	for _, face := range mesh.Faces {
		v1 := mesh.Vertices[face.A].Sub(meshMin)
		v2 := mesh.Vertices[face.B].Sub(meshMin)
		v3 := mesh.Vertices[face.C].Sub(meshMin)

		min := v1.Min(v2).Min(v3)
		max := v1.Max(v2).Max(v3)

		worldMinVoxel := floorVec(min.Scale(invVoxelSize))
		worldMaxVoxel := ceilVec(max.Scale(invVoxelSize))

		minChunk := floorDivVec(worldMinVoxel, voxelsPerAxis)
		maxChunk := floorDivVec(worldMaxVoxel, voxelsPerAxis)

		for cy := minChunk.Y; cy <= maxChunk.Y; cy++ {
			for cz := minChunk.Z; cz <= maxChunk.Z; cz++ {
				for cx := minChunk.X; cx <= maxChunk.X; cx++ {
					pos := svodag.IVec3{X: cx, Y: cy, Z: cz}
					chunkFaceMap[pos] = append(chunkFaceMap[pos], face)
				}
			}
		}
	}

	return chunkFaceMap
}

func floorVec(v Vec3) svodag.IVec3 {
	return svodag.IVec3{X: floorInt32(v.X), Y: floorInt32(v.Y), Z: floorInt32(v.Z)}
}

func ceilVec(v Vec3) svodag.IVec3 {
	return svodag.IVec3{X: ceilInt32(v.X), Y: ceilInt32(v.Y), Z: ceilInt32(v.Z)}
}

func floorInt32(v float64) int32 {
	i := int32(v)
	if v < float64(i) {
		i--
	}
	return i
}

func ceilInt32(v float64) int32 {
	i := int32(v)
	if v > float64(i) {
		i++
	}
	return i
}

func floorDivVec(v svodag.IVec3, divisor int) svodag.IVec3 {
	return svodag.IVec3{
		X: floorDiv32(v.X, int32(divisor)),
		Y: floorDiv32(v.Y, int32(divisor)),
		Z: floorDiv32(v.Z, int32(divisor)),
	}
}

func floorDiv32(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
