package voxelize

import "testing"

func TestVec3BasicOps(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, 5, 6}
	if got := a.Add(b); got != (Vec3{5, 7, 9}) {
		t.Fatalf("Add() = %v", got)
	}
	if got := b.Sub(a); got != (Vec3{3, 3, 3}) {
		t.Fatalf("Sub() = %v", got)
	}
	if got := a.Scale(2); got != (Vec3{2, 4, 6}) {
		t.Fatalf("Scale() = %v", got)
	}
}

func TestVec3DotCross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	if got := x.Dot(y); got != 0 {
		t.Fatalf("Dot(x,y) = %v, want 0", got)
	}
	if got := x.Cross(y); got != (Vec3{0, 0, 1}) {
		t.Fatalf("Cross(x,y) = %v, want (0,0,1)", got)
	}
}

func TestVec3NormalizeUnitLength(t *testing.T) {
	v := Vec3{3, 4, 0}.Normalize()
	if l := v.Length(); l < 0.999999 || l > 1.000001 {
		t.Fatalf("Normalize() length = %v, want 1", l)
	}
}

func TestVec3NormalizeZeroVectorIsUnchanged(t *testing.T) {
	if got := (Vec3{}).Normalize(); got != (Vec3{}) {
		t.Fatalf("Normalize() of the zero vector = %v, want zero vector", got)
	}
}

func TestTriangleCubeIntersectionTriangleFullyInsideCube(t *testing.T) {
	tri := Triangle{{1, 1, 1}, {2, 1, 1}, {1, 2, 1}}
	if !TriangleCubeIntersection(tri, Vec3{0, 0, 0}, Vec3{4, 4, 4}) {
		t.Fatalf("a triangle entirely inside the cube should intersect it")
	}
}

func TestTriangleCubeIntersectionTriangleFarFromCube(t *testing.T) {
	tri := Triangle{{100, 100, 100}, {101, 100, 100}, {100, 101, 100}}
	if TriangleCubeIntersection(tri, Vec3{0, 0, 0}, Vec3{1, 1, 1}) {
		t.Fatalf("a triangle far from the cube should not intersect it")
	}
}

func TestTriangleCubeIntersectionTrianglePiercingCube(t *testing.T) {
	// A triangle whose plane cuts through the cube (corners on both
	// sides), too large to fit inside it, must still report intersection.
	tri := Triangle{{-1, 0.5, 0.5}, {2, 0.5, 0.5}, {-1, 0.5, 2}}
	if !TriangleCubeIntersection(tri, Vec3{0, 0, 0}, Vec3{1, 1, 1}) {
		t.Fatalf("a triangle piercing through the cube should intersect it")
	}
}

func TestTriangleCubeIntersectionCoplanarWithCubeFace(t *testing.T) {
	// A triangle lying exactly on the cube's z=0 face, overlapping its
	// footprint: the near-face corners lie in the triangle's own plane
	// (sign 0) while the far-face corners lie strictly on one side,
	// which the plane-sign test treats as a straddle.
	tri := Triangle{{0.2, 0.2, 0}, {0.8, 0.2, 0}, {0.2, 0.8, 0}}
	if !TriangleCubeIntersection(tri, Vec3{0, 0, 0}, Vec3{1, 1, 1}) {
		t.Fatalf("a triangle coplanar with and overlapping a cube face should intersect it")
	}
}
