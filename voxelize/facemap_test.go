package voxelize

import (
	"testing"

	svodag "github.com/voxelgrid/svodag"
)

func TestMeshAABB(t *testing.T) {
	mesh := Mesh{Vertices: []Vec3{{-1, 0, 2}, {3, -5, 1}, {0, 4, -2}}}
	min, max := mesh.AABB()
	if min != (Vec3{-1, -5, -2}) {
		t.Fatalf("AABB min = %v, want (-1,-5,-2)", min)
	}
	if max != (Vec3{3, 4, 2}) {
		t.Fatalf("AABB max = %v, want (3,4,2)", max)
	}
}

func TestMeshAABBEmptyMesh(t *testing.T) {
	min, max := Mesh{}.AABB()
	if min != (Vec3{}) || max != (Vec3{}) {
		t.Fatalf("AABB of an empty mesh = (%v,%v), want zero vectors", min, max)
	}
}

func TestBuildFaceToChunkMapSingleFaceWithinOneChunk(t *testing.T) {
	mesh := Mesh{
		Vertices: []Vec3{{0.5, 0.5, 0.5}, {1, 0.5, 0.5}, {0.5, 1, 0.5}},
		Faces:    []Face{{0, 1, 2}},
	}
	faceMap := BuildFaceToChunkMap(mesh, 8, 1.0) // chunk side = 8 voxel units

	if len(faceMap) != 1 {
		t.Fatalf("faceMap has %d chunks, want 1", len(faceMap))
	}
	if faces, ok := faceMap[svodag.IVec3{0, 0, 0}]; !ok || len(faces) != 1 {
		t.Fatalf("expected chunk (0,0,0) to hold the one face, got %v", faceMap)
	}
}

func TestBuildFaceToChunkMapFaceSpanningTwoChunks(t *testing.T) {
	// voxelsPerAxis=4, voxelSize=1: chunk 0 covers [0,4), chunk 1 [4,8).
	// This face's X extent straddles that boundary.
	mesh := Mesh{
		Vertices: []Vec3{{1, 1, 1}, {5, 1, 1}, {1, 2, 1}},
		Faces:    []Face{{0, 1, 2}},
	}
	faceMap := BuildFaceToChunkMap(mesh, 4, 1.0)

	if len(faceMap) != 2 {
		t.Fatalf("expected the face to touch 2 chunks, got %d: %v", len(faceMap), faceMap)
	}
	for _, pos := range []svodag.IVec3{{0, 0, 0}, {1, 0, 0}} {
		if faces, ok := faceMap[pos]; !ok || len(faces) != 1 {
			t.Fatalf("expected chunk %v to hold the face, got %v", pos, faceMap)
		}
	}
}

func TestBuildFaceToChunkMapEmptyMesh(t *testing.T) {
	faceMap := BuildFaceToChunkMap(Mesh{}, 8, 1.0)
	if len(faceMap) != 0 {
		t.Fatalf("empty mesh should produce an empty face map, got %d entries", len(faceMap))
	}
}

func TestFloorCeilInt32(t *testing.T) {
	cases := []struct {
		v         float64
		wantFloor int32
		wantCeil  int32
	}{
		{2.0, 2, 2},
		{2.5, 2, 3},
		{-2.5, -3, -2},
		{0.0, 0, 0},
	}
	for _, c := range cases {
		if got := floorInt32(c.v); got != c.wantFloor {
			t.Fatalf("floorInt32(%v) = %d, want %d", c.v, got, c.wantFloor)
		}
		if got := ceilInt32(c.v); got != c.wantCeil {
			t.Fatalf("ceilInt32(%v) = %d, want %d", c.v, got, c.wantCeil)
		}
	}
}

func TestFloorDiv32MatchesMathematicalFloorDivision(t *testing.T) {
	cases := []struct{ a, b, want int32 }{
		{7, 4, 1},
		{-1, 4, -1},
		{-4, 4, -1},
		{-5, 4, -2},
	}
	for _, c := range cases {
		if got := floorDiv32(c.a, c.b); got != c.want {
			t.Fatalf("floorDiv32(%d,%d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}
