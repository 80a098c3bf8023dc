package voxelize

import "math"

// Vec3 is a float64 3D point/vector used throughout mesh voxelization.
// Grounded on the original source's use of glam::DVec3 in voxelizer.rs and
// core/math.rs; reimplemented as a plain struct since glam is not a Go
// package (the rest of the module reuses svodag.IVec3 for integer voxel
// coordinates, but the geometry below needs double precision).
type Vec3 struct {
	X, Y, Z float64
}

func (a Vec3) Add(b Vec3) Vec3 { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }
func (a Vec3) Sub(b Vec3) Vec3 { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }

func (a Vec3) Scale(s float64) Vec3 { return Vec3{a.X * s, a.Y * s, a.Z * s} }

func (a Vec3) Min(b Vec3) Vec3 {
	return Vec3{math.Min(a.X, b.X), math.Min(a.Y, b.Y), math.Min(a.Z, b.Z)}
}

func (a Vec3) Max(b Vec3) Vec3 {
	return Vec3{math.Max(a.X, b.X), math.Max(a.Y, b.Y), math.Max(a.Z, b.Z)}
}

func (a Vec3) Dot(b Vec3) float64 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }

func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		a.Y*b.Z - a.Z*b.Y,
		a.Z*b.X - a.X*b.Z,
		a.X*b.Y - a.Y*b.X,
	}
}

func (a Vec3) Length() float64 { return math.Sqrt(a.Dot(a)) }

func (a Vec3) Normalize() Vec3 {
	l := a.Length()
	if l == 0 {
		return a
	}
	return a.Scale(1 / l)
}

// Triangle is three world-space vertices.
type Triangle [3]Vec3

// Quad is the four corners of one cube face, in winding order.
type Quad [4]Vec3

// Edge is a line segment.
type Edge [2]Vec3

// TriangleCubeIntersection is the conservative SAT hybrid test named in
// spec §Glossary ("Triangle–cube intersection"): (1) AABB overlap,
// (2) triangle-plane vs. cube sign test, (3) point-in-triangle /
// point-in-cube inclusion, (4) edge-vs-face segment intersection. Grounded
// on original_source/voxelis/src/core/math.rs's triangle_cube_intersection.
func TriangleCubeIntersection(tri Triangle, cubeMin, cubeMax Vec3) bool {
	triMin := tri[0].Min(tri[1]).Min(tri[2])
	triMax := tri[0].Max(tri[1]).Max(tri[2])

	const epsilon = 1e-5
	if triMax.X < cubeMin.X-epsilon || triMin.X > cubeMax.X+epsilon ||
		triMax.Y < cubeMin.Y-epsilon || triMin.Y > cubeMax.Y+epsilon ||
		triMax.Z < cubeMin.Z-epsilon || triMin.Z > cubeMax.Z+epsilon {
		return false
	}

	normal := tri[1].Sub(tri[0]).Cross(tri[2].Sub(tri[0]))
	d := -normal.Dot(tri[0])

	cubePoints := [8]Vec3{
		{cubeMin.X, cubeMin.Y, cubeMin.Z},
		{cubeMax.X, cubeMin.Y, cubeMin.Z},
		{cubeMax.X, cubeMax.Y, cubeMin.Z},
		{cubeMin.X, cubeMax.Y, cubeMin.Z},
		{cubeMin.X, cubeMin.Y, cubeMax.Z},
		{cubeMax.X, cubeMin.Y, cubeMax.Z},
		{cubeMax.X, cubeMax.Y, cubeMax.Z},
		{cubeMin.X, cubeMax.Y, cubeMax.Z},
	}

	sign := signum(normal.Dot(cubePoints[0]) + d)
	for _, p := range cubePoints[1:] {
		v := normal.Dot(p) + d
		if math.Abs(v) < epsilon {
			continue
		}
		if signum(v) != sign {
			return true
		}
	}

	if pointInOrOnCube(tri[0], cubeMin, cubeMax) ||
		pointInOrOnCube(tri[1], cubeMin, cubeMax) ||
		pointInOrOnCube(tri[2], cubeMin, cubeMax) {
		return true
	}

	for _, p := range cubePoints {
		if pointInOrOnTriangle(p, tri) {
			return true
		}
	}

	edges := [3]Edge{
		{tri[0], tri[1]},
		{tri[1], tri[2]},
		{tri[2], tri[0]},
	}
	faces := [6]Quad{
		{cubePoints[0], cubePoints[1], cubePoints[2], cubePoints[3]}, // front
		{cubePoints[4], cubePoints[5], cubePoints[6], cubePoints[7]}, // back
		{cubePoints[0], cubePoints[1], cubePoints[5], cubePoints[4]}, // bottom
		{cubePoints[2], cubePoints[3], cubePoints[7], cubePoints[6]}, // top
		{cubePoints[0], cubePoints[3], cubePoints[7], cubePoints[4]}, // left
		{cubePoints[1], cubePoints[2], cubePoints[6], cubePoints[5]}, // right
	}

	for _, e := range edges {
		for _, f := range faces {
			if edgeQuadIntersection(e, f) {
				return true
			}
		}
	}

	return false
}

func signum(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func pointInOrOnCube(point, cubeMin, cubeMax Vec3) bool {
	size := cubeMax.Sub(cubeMin).Length()
	epsilon := size * 1e-8

	if size < 1e-8 {
		return point.Sub(cubeMin).Length() < epsilon
	}

	return point.X >= cubeMin.X-epsilon && point.X <= cubeMax.X+epsilon &&
		point.Y >= cubeMin.Y-epsilon && point.Y <= cubeMax.Y+epsilon &&
		point.Z >= cubeMin.Z-epsilon && point.Z <= cubeMax.Z+epsilon
}

func pointInOrOnTriangle(point Vec3, tri Triangle) bool {
	a, b, c := tri[0], tri[1], tri[2]
	v0 := b.Sub(a)
	v1 := c.Sub(a)
	v2 := point.Sub(a)

	dot00 := v0.Dot(v0)
	dot01 := v0.Dot(v1)
	dot02 := v0.Dot(v2)
	dot11 := v1.Dot(v1)
	dot12 := v1.Dot(v2)

	denom := dot00*dot11 - dot01*dot01
	if math.Abs(denom) < 1e-8 {
		return false
	}
	invDenom := 1 / denom

	u := (dot11*dot02 - dot01*dot12) * invDenom
	v := (dot00*dot12 - dot01*dot02) * invDenom

	return u >= 0 && v >= 0 && (u+v) <= 1
}

func edgeQuadIntersection(edge Edge, quad Quad) bool {
	e1, e2 := edge[0], edge[1]

	normal := quad[1].Sub(quad[0]).Cross(quad[2].Sub(quad[0])).Normalize()
	denom := normal.Dot(e2.Sub(e1))
	if math.Abs(denom) < 1e-8 {
		return false
	}

	t := normal.Dot(quad[0].Sub(e1)) / denom
	if t < 0 || t > 1 {
		return false
	}

	intersection := e1.Add(e2.Sub(e1).Scale(t))
	return pointInQuad(intersection, quad)
}

func pointInQuad(point Vec3, quad Quad) bool {
	return pointInOrOnTriangle(point, Triangle{quad[0], quad[1], quad[2]}) ||
		pointInOrOnTriangle(point, Triangle{quad[0], quad[2], quad[3]})
}
