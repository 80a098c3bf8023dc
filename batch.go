package svodag

import bitfield "github.com/prysmaticlabs/go-bitfield"

// Batch stages a set of point writes against a VoxTree of a fixed maxDepth,
// partitioned by the path to each max-depth parent (the node whose 8
// children are terminal voxels). No interner I/O happens while staging;
// VoxTree.ApplyBatch consumes the staged patches under its writer lock.
// Grounded on spec §4.3; the concrete Batch struct itself is not among the
// kept original-source files (only call sites in voxelizer.rs and
// voxtree.rs survive distillation), so the layout below is reconstructed
// directly from spec §3/§4.3's field-by-field description.
type Batch[T any] struct {
	codec    Codec[T]
	maxDepth int

	// setMaskBytes/clearMaskBytes back one Bitvector8 view per parent path
	// (a single contiguous allocation, sliced on demand), sized
	// 2^(3*(maxDepth-1)) per spec §4.3's construction rule (1 slot in the
	// degenerate maxDepth<1 case).
	setMaskBytes   []byte
	clearMaskBytes []byte
	values         [][MaxChildren]T

	// touched records, in first-write order, every parent path with a
	// staged patch, so apply_batch need not scan the full dense array.
	touched    []uint32
	touchedSet map[uint32]struct{}

	hasFill   bool
	fillValue T
}

// NewBatch constructs a Batch for a VoxTree of the given maxDepth.
func NewBatch[T any](codec Codec[T], maxDepth int) *Batch[T] {
	parentCount := 1
	if maxDepth >= 1 {
		parentCount = 1 << uint(3*(maxDepth-1))
	}
	return &Batch[T]{
		codec:          codec,
		maxDepth:       maxDepth,
		setMaskBytes:   make([]byte, parentCount),
		clearMaskBytes: make([]byte, parentCount),
		values:         make([][MaxChildren]T, parentCount),
		touchedSet:     make(map[uint32]struct{}),
	}
}

func (b *Batch[T]) MaxDepth() int { return b.maxDepth }

func (b *Batch[T]) markTouched(path uint32) {
	if _, ok := b.touchedSet[path]; !ok {
		b.touchedSet[path] = struct{}{}
		b.touched = append(b.touched, path)
	}
}

func (b *Batch[T]) setView(path uint32) bitfield.Bitvector8 {
	return bitfield.Bitvector8(b.setMaskBytes[path : path+1 : path+1])
}

func (b *Batch[T]) clearView(path uint32) bitfield.Bitvector8 {
	return bitfield.Bitvector8(b.clearMaskBytes[path : path+1 : path+1])
}

// Set stages value at pos. The interner argument is accepted only so that
// callers canonicalizing values through an interner-aware path may do so
// before staging; the canonical implementation below performs no interner
// I/O (spec §4.3).
func (b *Batch[T]) Set(_ *Interner[T], pos IVec3, value T) {
	b.JustSet(pos, value)
}

// JustSet is Set without an interner argument, for voxelizer workers that
// never see the shared interner (spec §4.3, §4.5 Stage 2).
func (b *Batch[T]) JustSet(pos IVec3, value T) {
	path, bit := parentPathIndex(pos, b.maxDepth)
	b.markTouched(path)

	set := b.setView(path)
	clear := b.clearView(path)

	if b.codec.Equal(value, b.codec.Default()) {
		clear.SetBitAt(uint64(bit), true)
		set.SetBitAt(uint64(bit), false)
		return
	}
	set.SetBitAt(uint64(bit), true)
	clear.SetBitAt(uint64(bit), false)
	b.values[path][bit] = value
}

// Fill stages a whole-tree fill, discarding any previously staged patches:
// a fill always wins over finer-grained patches from the same batch.
func (b *Batch[T]) Fill(value T) {
	b.hasFill = true
	b.fillValue = value
	for _, path := range b.touched {
		b.setMaskBytes[path] = 0
		b.clearMaskBytes[path] = 0
	}
	b.touched = b.touched[:0]
	b.touchedSet = make(map[uint32]struct{})
}

func (b *Batch[T]) HasPatches() bool { return len(b.touched) > 0 }

func (b *Batch[T]) ToFill() (T, bool) { return b.fillValue, b.hasFill }

// TouchedPaths returns every parent path with a staged patch, in
// first-write order.
func (b *Batch[T]) TouchedPaths() []uint32 { return b.touched }

func (b *Batch[T]) SetMaskAt(path uint32) bitfield.Bitvector8 { return b.setView(path) }

func (b *Batch[T]) ClearMaskAt(path uint32) bitfield.Bitvector8 { return b.clearView(path) }

func (b *Batch[T]) ValuesAt(path uint32) [MaxChildren]T { return b.values[path] }

// Reset clears all staged state, allowing a Batch to be reused across
// voxelizer chunk iterations without reallocating its dense arrays.
func (b *Batch[T]) Reset() {
	for _, path := range b.touched {
		b.setMaskBytes[path] = 0
		b.clearMaskBytes[path] = 0
	}
	b.touched = b.touched[:0]
	b.touchedSet = make(map[uint32]struct{})
	b.hasFill = false
	var zero T
	b.fillValue = zero
}
