// This is free and unencumbered software released into the public domain.
//
// Anyone is free to copy, modify, publish, use, compile, sell, or
// distribute this software, either in source code form or as a compiled
// binary, for any purpose, commercial or non-commercial, and by any
// means.
//
// In jurisdictions that recognize copyright laws, the author or authors
// of this software dedicate any and all copyright interest in the
// software to the public domain. We make this dedication for the benefit
// of the public at large and to the detriment of our heirs and
// successors. We intend this dedication to be an overt act of
// relinquishment in perpetuity of all present and future rights to this
// software under copyright law.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
// MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
// IN NO EVENT SHALL THE AUTHORS BE LIABLE FOR ANY CLAIM, DAMAGES OR
// OTHER LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE,
// ARISING FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.
//
// For more information, please refer to <https://unlicense.org>

package svodag

import "fmt"

// BlockId is a 64-bit packed handle into the Interner's columnar arrays.
//
// The spec's literal bit budget (32 + 16 + 1 + 8 + 8 = 65 bits) does not
// fit in a uint64; the generation field is narrowed to 15 bits here (ceiling
// 32768) to make the remaining fields exact, which is still consistent with
// the spec's "wraps at an implementation-chosen ceiling" wording. See
// DESIGN.md, "Open Question decisions", (b).
//
//	bits [0, 32)  slot index
//	bits [32, 47) generation (15 bits, ceiling 1<<15)
//	bit  47       kind: 0 = branch, 1 = leaf
//	bits [48, 56) types: per-child bit, 1 if that child is a leaf
//	bits [56, 64) mask:  per-child bit, 1 if that child slot is occupied
type BlockId uint64

const (
	slotBits       = 32
	slotMask       = (uint64(1) << slotBits) - 1
	generationBits = 15
	generationMask = (uint64(1) << generationBits) - 1
	generationCeil = uint32(1) << generationBits
	kindShift      = slotBits + generationBits // 47
	typesShift     = kindShift + 1             // 48
	maskShift      = typesShift + 8            // 56
)

const (
	// EMPTY is the singleton empty branch: slot 0, generation 0, no
	// children. It is pre-allocated at interner construction and is
	// never recycled.
	EMPTY = BlockId(0)

	// INVALID is the reserved "no change" sentinel returned by tree
	// walks that determined a write would not alter the tree.
	INVALID = BlockId(^uint64(0))
)

// newBranchID packs a branch handle.
func newBranchID(slot uint32, generation uint32, types, mask uint8) BlockId {
	v := uint64(slot) & slotMask
	v |= (uint64(generation) & generationMask) << slotBits
	v |= uint64(types) << typesShift
	v |= uint64(mask) << maskShift
	return BlockId(v)
}

// newLeafID packs a leaf handle. Leaves carry no types/mask payload.
func newLeafID(slot uint32, generation uint32) BlockId {
	v := uint64(slot) & slotMask
	v |= (uint64(generation) & generationMask) << slotBits
	v |= uint64(1) << kindShift
	return BlockId(v)
}

func (b BlockId) Index() uint32 {
	return uint32(uint64(b) & slotMask)
}

func (b BlockId) Generation() uint32 {
	return uint32((uint64(b) >> slotBits) & generationMask)
}

func (b BlockId) IsLeaf() bool {
	return (uint64(b)>>kindShift)&1 == 1
}

func (b BlockId) IsBranch() bool {
	return !b.IsLeaf()
}

func (b BlockId) IsEmpty() bool {
	return b == EMPTY
}

func (b BlockId) IsInvalid() bool {
	return b == INVALID
}

// Types returns the per-child "is-leaf" bitset. Only meaningful for branches.
func (b BlockId) Types() uint8 {
	return uint8((uint64(b) >> typesShift) & 0xFF)
}

// Mask returns the per-child occupancy bitset. Only meaningful for branches.
func (b BlockId) Mask() uint8 {
	return uint8((uint64(b) >> maskShift) & 0xFF)
}

// HasChild reports whether child slot `index` (0..8) is occupied.
func (b BlockId) HasChild(index uint8) bool {
	return b.Mask()&(1<<index) != 0
}

func (b BlockId) String() string {
	if b == EMPTY {
		return "BlockId(EMPTY)"
	}
	if b == INVALID {
		return "BlockId(INVALID)"
	}
	kind := "branch"
	if b.IsLeaf() {
		kind = "leaf"
	}
	return fmt.Sprintf("BlockId(slot=%d gen=%d kind=%s types=%08b mask=%08b)",
		b.Index(), b.Generation(), kind, b.Types(), b.Mask())
}

// MaxChildren is the branching factor of every branch node (octree: 8).
const MaxChildren = 8

// EmptyChildren is the zero-value children array: every slot EMPTY.
var EmptyChildren = [MaxChildren]BlockId{}

// Children is the branch children array, indexed in Morton order
// (x = bit 0, y = bit 1, z = bit 2).
type Children = [MaxChildren]BlockId
