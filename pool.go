package svodag

import "github.com/bits-and-blooms/bitset"

// pool is a fixed-capacity columnar slab: a plain contiguous slice of T
// indexed by slot. It owns no allocation state of its own — slot lifetime
// (alloc/free/liveness) is managed once, centrally, by slotAllocator, and
// shared across every column of a node (ref counts, generations, children,
// values, hashes) so all five columns for a given slot stay in lockstep.
// This mirrors voxelis/src/storage/node.rs's PoolAllocatorLite, which is
// likewise a bare fixed array addressed by an index the owning NodeStore
// hands out.
type pool[T any] struct {
	data []T
}

func newPool[T any](capacity uint32) *pool[T] {
	return &pool[T]{data: make([]T, capacity)}
}

func (p *pool[T]) get(index uint32) *T {
	return &p.data[index]
}

// slotAllocator hands out node slot indices shared across every column
// pool of an Interner. A slot is recycled by index, never by column.
type slotAllocator struct {
	live     *bitset.BitSet
	free     []uint32
	next     uint32
	capacity uint32
}

func newSlotAllocator(capacity uint32) *slotAllocator {
	return &slotAllocator{
		live:     bitset.New(uint(capacity)),
		free:     make([]uint32, 0, capacity),
		capacity: capacity,
	}
}

// alloc returns a free slot index, preferring recycled slots over the
// high-water mark, matching the original Rust source's free_indices.pop()
// ordering. ok is false if the allocator is exhausted.
func (a *slotAllocator) alloc() (index uint32, ok bool) {
	if n := len(a.free); n > 0 {
		index = a.free[n-1]
		a.free = a.free[:n-1]
		a.live.Set(uint(index))
		return index, true
	}
	if a.next >= a.capacity {
		return 0, false
	}
	index = a.next
	a.next++
	a.live.Set(uint(index))
	return index, true
}

func (a *slotAllocator) release(index uint32) {
	a.live.Clear(uint(index))
	a.free = append(a.free, index)
}

func (a *slotAllocator) isLive(index uint32) bool {
	return a.live.Test(uint(index))
}

func (a *slotAllocator) aliveCount() uint32 {
	return a.next - uint32(len(a.free))
}
