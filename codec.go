package svodag

import "encoding/binary"

// Codec bundles the operations SPEC_FULL.md requires of a voxel value type T,
// as a value rather than as constraints on T itself. This sidesteps
// self-referential F-bounded generics (T implementing an interface
// parameterized by T) in favor of passing a capability object into every
// generic type that needs one (Interner, Batch; VoxTree reads it from the
// Interner).
type Codec[T any] interface {
	// Default is the "empty" sentinel: writing it erases a voxel, and no
	// leaf ever holds it.
	Default() T

	// Equal reports whether two values are the same for hash-consing
	// purposes: two leaves with Equal values intern to the same slot.
	Equal(a, b T) bool

	// Average combines the child values whose bit is set in present into
	// one value: the averaged LOD value stored for every interned branch.
	Average(children [MaxChildren]T, present uint8) T

	// MaterialID extracts the dense/sparse material identifier the
	// mesher groups faces by.
	MaterialID(v T) uint32

	// SizeBytes is the fixed encoded width of T, used by NewInterner to
	// compute the per-node size (and so the node capacity) of a budget.
	SizeBytes() int

	// Encode writes the big-endian wire/hash representation of v into
	// dst, which is guaranteed to have length SizeBytes().
	Encode(dst []byte, v T)

	// Decode is the inverse of Encode.
	Decode(src []byte) T
}

// Voxel32 is the default voxel value: a 32-bit word split into a 24-bit
// payload (low bits) and an 8-bit material id (high bits), matching the
// dense small-integer material space spec §9 note (c) anticipates.
type Voxel32 int32

const (
	voxel32PayloadMask = int32(0x00FFFFFF)
	voxel32MaterialBit = 24
)

// NewVoxel32 packs a payload and material id into a single Voxel32.
func NewVoxel32(payload int32, material uint8) Voxel32 {
	return Voxel32((payload & voxel32PayloadMask) | int32(material)<<voxel32MaterialBit)
}

func (v Voxel32) Payload() int32 {
	return int32(v) & voxel32PayloadMask
}

func (v Voxel32) Material() uint8 {
	return uint8(int32(v) >> voxel32MaterialBit & 0xFF)
}

// Voxel32Codec is the Codec[Voxel32] implementation used when no
// application-specific voxel type is supplied.
type Voxel32Codec struct{}

func (Voxel32Codec) Default() Voxel32 { return 0 }

func (Voxel32Codec) Equal(a, b Voxel32) bool { return a == b }

func (Voxel32Codec) Average(children [MaxChildren]Voxel32, present uint8) Voxel32 {
	count := 0
	var payloadSum int64
	matCounts := make(map[uint8]int, MaxChildren)
	for i := 0; i < MaxChildren; i++ {
		if present&(1<<i) == 0 {
			continue
		}
		count++
		payloadSum += int64(children[i].Payload())
		matCounts[children[i].Material()]++
	}
	if count == 0 {
		return 0
	}
	var bestMat uint8
	bestCount := -1
	for m, c := range matCounts {
		if c > bestCount || (c == bestCount && m < bestMat) {
			bestMat, bestCount = m, c
		}
	}
	return NewVoxel32(int32(payloadSum/int64(count)), bestMat)
}

func (Voxel32Codec) MaterialID(v Voxel32) uint32 {
	return uint32(v.Material())
}

func (Voxel32Codec) SizeBytes() int { return 4 }

func (Voxel32Codec) Encode(dst []byte, v Voxel32) {
	binary.BigEndian.PutUint32(dst, uint32(v))
}

func (Voxel32Codec) Decode(src []byte) Voxel32 {
	return Voxel32(binary.BigEndian.Uint32(src))
}
