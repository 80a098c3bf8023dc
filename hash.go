package svodag

import "github.com/dchest/siphash"

// Fixed SipHash key. Content hashes are only used as in-process
// hash-consing keys (the patterns map), never persisted or compared
// across processes, so a single fixed key is sufficient — it only
// needs to be stable for the lifetime of one Interner.
const (
	sipK0 = 0x9E3779B97F4A7C15
	sipK1 = 0xC2B2AE3D27D4EB4F
)

const emptyBranchTag byte = 0
const branchTag byte = 1
const leafTag byte = 2

// hashLeaf computes the content hash of a leaf holding value v, using the
// same Codec.Encode byte representation used for external serialization
// (spec §4.2 "same encoding for hashing and the wire format").
func hashLeaf[T any](codec Codec[T], v T) uint64 {
	buf := make([]byte, 1+codec.SizeBytes())
	buf[0] = leafTag
	codec.Encode(buf[1:], v)
	return siphash.Hash(sipK0, sipK1, buf)
}

// hashBranch computes the content hash of a branch from its children,
// types, and mask. Two branches with identical (children, types, mask)
// always hash identically: this is the hash-consing key.
func hashBranch(children Children, types, mask uint8) uint64 {
	buf := make([]byte, 1+2+MaxChildren*8)
	buf[0] = branchTag
	buf[1] = types
	buf[2] = mask
	for i, c := range children {
		off := 3 + i*8
		v := uint64(c)
		buf[off+0] = byte(v)
		buf[off+1] = byte(v >> 8)
		buf[off+2] = byte(v >> 16)
		buf[off+3] = byte(v >> 24)
		buf[off+4] = byte(v >> 32)
		buf[off+5] = byte(v >> 40)
		buf[off+6] = byte(v >> 48)
		buf[off+7] = byte(v >> 56)
	}
	return siphash.Hash(sipK0, sipK1, buf)
}

func hashEmptyBranch() uint64 {
	return siphash.Hash(sipK0, sipK1, []byte{emptyBranchTag})
}
