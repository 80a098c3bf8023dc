package svodag

// InternerStats mirrors voxelis's StoreStats: counters a caller can poll to
// understand sharing efficiency and memory pressure, logged rather than
// acted on (the spec treats these as observability, not control flow).
type InternerStats struct {
	RequestedBudget     int
	ActualBudget        int
	NodeSize            int
	NodesCapacity       uint32
	TotalAllocations    uint64
	TotalDeallocations  uint64
	AliveNodes          uint32
	Patterns            int
	TotalCacheHits      uint64
	TotalCacheMisses    uint64
	BranchCacheHits     uint64
	BranchCacheMisses   uint64
	LeafCacheHits       uint64
	LeafCacheMisses     uint64
	CollapsedBranches   uint64
	LeafNodes           uint32
	BranchNodes         uint32
	MaxGeneration       uint32
	GenerationOverflows uint64
}

// Interner is the content-addressed node store: every distinct leaf value
// and every distinct (children, types, mask) branch shape is allocated
// exactly once and referenced by BlockId. Grounded on
// voxelis/src/storage/node.rs's NodeStore[T].
type Interner[T any] struct {
	codec Codec[T]

	slots       *slotAllocator
	refCounts   *pool[uint32]
	generations *pool[uint32]
	children    *pool[Children]
	values      *pool[T]
	hashes      *pool[uint64]

	leafPatterns   map[uint64]BlockId
	branchPatterns map[uint64]BlockId

	emptyBranchID   BlockId
	emptyBranchHash uint64

	decRefStack []BlockId

	stats InternerStats
}

const nodeByteOverhead = 4 /*ref*/ + 4 /*gen*/ + 8*MaxChildren /*children*/ + 8 /*hash*/

// NewInterner constructs an Interner sized to fit as many nodes as possible
// within requestedBudget bytes, per voxelis's with_memory_budget.
func NewInterner[T any](codec Codec[T], requestedBudget int) (*Interner[T], error) {
	nodeSize := nodeByteOverhead + codec.SizeBytes()
	nodesCapacity := requestedBudget / nodeSize
	if nodesCapacity <= 0 {
		return nil, ErrCapacityExhausted
	}
	if nodesCapacity > (1 << slotBits) {
		nodesCapacity = (1 << slotBits) - 1
	}

	in := &Interner[T]{
		codec:          codec,
		slots:          newSlotAllocator(uint32(nodesCapacity)),
		refCounts:      newPool[uint32](uint32(nodesCapacity)),
		generations:    newPool[uint32](uint32(nodesCapacity)),
		children:       newPool[Children](uint32(nodesCapacity)),
		values:         newPool[T](uint32(nodesCapacity)),
		hashes:         newPool[uint64](uint32(nodesCapacity)),
		leafPatterns:   make(map[uint64]BlockId, 16384),
		branchPatterns: make(map[uint64]BlockId, 16384),
		decRefStack:    make([]BlockId, 0, 1024),
	}

	emptyIndex, _ := in.slots.alloc()

	in.emptyBranchID = newBranchID(emptyIndex, 0, 0, 0)
	assertValid(in.emptyBranchID == EMPTY, "empty branch id mismatch: %v", in.emptyBranchID)
	in.emptyBranchHash = hashEmptyBranch()

	*in.children.get(emptyIndex) = EmptyChildren
	*in.values.get(emptyIndex) = codec.Default()
	*in.hashes.get(emptyIndex) = in.emptyBranchHash
	in.branchPatterns[in.emptyBranchHash] = in.emptyBranchID

	in.stats = InternerStats{
		RequestedBudget: requestedBudget,
		ActualBudget:    nodesCapacity * nodeSize,
		NodeSize:        nodeSize,
		NodesCapacity:   uint32(nodesCapacity),
		AliveNodes:      1,
		Patterns:        1,
		BranchNodes:     1,
	}

	return in, nil
}

func (in *Interner[T]) Codec() Codec[T] { return in.codec }

func (in *Interner[T]) EmptyBranch() BlockId { return in.emptyBranchID }

// Stats returns a snapshot of the interner's usage counters. In debug
// builds it first cross-checks the tracked AliveNodes counter against the
// slot allocator's own live-slot accounting, catching any drift between
// the two independently maintained tallies.
func (in *Interner[T]) Stats() InternerStats {
	assertValid(in.stats.AliveNodes == in.slots.aliveCount(),
		"AliveNodes stat %d disagrees with slot allocator's live count %d", in.stats.AliveNodes, in.slots.aliveCount())
	return in.stats
}

// IsValid reports whether id currently refers to a live, generation-matched
// slot. This is the debug-assertion predicate the original Rust source
// calls is_valid_block_id; exposed publicly here because VoxTree needs it too.
func (in *Interner[T]) IsValid(id BlockId) bool {
	if id.IsInvalid() {
		return false
	}
	idx := id.Index()
	if idx >= in.slots.capacity {
		return false
	}
	if !in.slots.isLive(idx) {
		return false
	}
	return *in.generations.get(idx) == id.Generation()
}

func (in *Interner[T]) GetValue(id BlockId) T {
	assertValid(in.IsValid(id), "invalid block id: %v", id)
	return *in.values.get(id.Index())
}

func (in *Interner[T]) GetChildren(id BlockId) Children {
	assertValid(id.IsBranch(), "cannot get children of a leaf: %v", id)
	assertValid(in.IsValid(id), "invalid block id: %v", id)
	return *in.children.get(id.Index())
}

func (in *Interner[T]) GetChild(id BlockId, index int) BlockId {
	return in.GetChildren(id)[index]
}

func (in *Interner[T]) GetRef(id BlockId) uint32 {
	assertValid(in.IsValid(id), "invalid block id: %v", id)
	return *in.refCounts.get(id.Index())
}

func (in *Interner[T]) IncRef(id BlockId) {
	assertValid(in.IsValid(id), "invalid block id: %v", id)
	*in.refCounts.get(id.Index())++
}

func (in *Interner[T]) IncRefBy(id BlockId, count uint32) {
	assertValid(in.IsValid(id), "invalid block id: %v", id)
	*in.refCounts.get(id.Index()) += count
}

// DecRef drops id's ref count by one, recycling the node (without touching
// its children's ref counts) if it reaches zero. Returns true if recycled.
// Matches node.rs's dec_ref: a shallow decrement, used when the caller is
// about to separately handle children (e.g. get_or_create_branch's
// dec_child_refs path).
func (in *Interner[T]) DecRef(id BlockId) bool {
	assertValid(in.IsValid(id), "invalid block id: %v", id)
	idx := id.Index()
	rc := in.refCounts.get(idx)
	assertValid(*rc > 0, "ref count underflow: %v", id)
	*rc--
	if *rc == 0 {
		in.removePattern(id)
		in.recycle(id)
		return true
	}
	return false
}

// DecRefBy drops id's ref count by count in one step (used when a single
// caller holds several logical references to the same node at once, e.g. a
// shadow leaf replicated into multiple sibling slots), recycling it if the
// count reaches zero. Matches node.rs's dec_ref_by.
func (in *Interner[T]) DecRefBy(id BlockId, count uint32) {
	assertValid(in.IsValid(id), "invalid block id: %v", id)
	idx := id.Index()
	rc := in.refCounts.get(idx)
	assertValid(*rc >= count, "ref count underflow: %v", id)
	*rc -= count
	if *rc == 0 {
		in.removePattern(id)
		in.recycle(id)
	}
}

func (in *Interner[T]) DecChildRefs(children Children) {
	for _, c := range children {
		if !c.IsEmpty() {
			in.DecRef(c)
		}
	}
}

func (in *Interner[T]) incChildRefsExcept(children Children, skip int) {
	for i, c := range children {
		if i == skip || c.IsEmpty() {
			continue
		}
		in.IncRef(c)
	}
}

func (in *Interner[T]) incAllChildRefs(children Children) {
	for _, c := range children {
		if !c.IsEmpty() {
			in.IncRef(c)
		}
	}
}

// DecRefRecursive drops id's ref count, and if it reaches zero, walks the
// subtree iteratively (explicit stack, no recursion) decrementing and
// recycling every node that becomes unreferenced. A child whose ref count
// is >1 before the decrement is decremented in place without being pushed
// onto the stack — short-circuiting the walk at shared subtrees. Grounded
// on node.rs's dec_ref_recursive.
func (in *Interner[T]) DecRefRecursive(id BlockId) {
	assertValid(in.IsValid(id), "invalid block id: %v", id)

	stack := in.decRefStack[:0]
	stack = append(stack, id)

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		idx := current.Index()
		rc := in.refCounts.get(idx)
		assertValid(*rc > 0, "ref count underflow: %v", current)
		*rc--

		if *rc == 0 {
			if current.IsBranch() {
				for _, child := range *in.children.get(idx) {
					if child.IsEmpty() {
						continue
					}
					childRC := in.refCounts.get(child.Index())
					if *childRC > 1 {
						*childRC--
					} else {
						stack = append(stack, child)
					}
				}
			}
			in.removePattern(current)
			in.recycle(current)
		}
	}

	in.decRefStack = stack[:0]
}

func (in *Interner[T]) removePattern(id BlockId) {
	h := *in.hashes.get(id.Index())
	if id.IsLeaf() {
		delete(in.leafPatterns, h)
	} else {
		delete(in.branchPatterns, h)
	}
	in.stats.Patterns--
}

func (in *Interner[T]) recycle(id BlockId) {
	assertValid(id != in.emptyBranchID, "cannot recycle the empty branch")

	idx := id.Index()
	var zeroT T
	*in.values.get(idx) = zeroT
	*in.children.get(idx) = EmptyChildren
	*in.hashes.get(idx) = 0
	*in.refCounts.get(idx) = 0

	gen := in.generations.get(idx)
	*gen++
	if *gen >= generationCeil {
		*gen = 0
		in.stats.GenerationOverflows++
	}
	if *gen > in.stats.MaxGeneration {
		in.stats.MaxGeneration = *gen
	}

	in.slots.release(idx)

	in.stats.AliveNodes--
	in.stats.TotalDeallocations++
	if id.IsLeaf() {
		in.stats.LeafNodes--
	} else {
		in.stats.BranchNodes--
	}
}

// GetOrCreateLeaf interns value, returning the existing BlockId if an equal
// leaf already exists (after incrementing its ref count) or allocating a
// new one. The new/found handle always carries ref count >= 1.
func (in *Interner[T]) GetOrCreateLeaf(value T) BlockId {
	h := hashLeaf(in.codec, value)

	if existing, ok := in.leafPatterns[h]; ok {
		assertValid(in.IsValid(existing), "expired node in leaf patterns: %v", existing)
		in.IncRef(existing)
		in.stats.TotalCacheHits++
		in.stats.LeafCacheHits++
		return existing
	}

	index, ok := in.slots.alloc()
	if !ok {
		panic(ErrCapacityExhausted)
	}

	generation := *in.generations.get(index)
	id := newLeafID(index, generation)
	in.leafPatterns[h] = id

	*in.values.get(index) = value
	*in.hashes.get(index) = h

	assertValid(in.GetRef(id) == 0, "new leaf should start at zero refs")
	in.IncRef(id)

	in.stats.LeafNodes++
	in.stats.Patterns++
	in.stats.TotalCacheMisses++
	in.stats.LeafCacheMisses++
	in.stats.TotalAllocations++
	in.stats.AliveNodes++

	return id
}

// GetOrCreateBranch interns a branch with the given children/types/mask.
//
// Precondition (matching node.rs exactly): every non-empty entry in
// children must already have an incremented ref count attributable to this
// call — on a cache hit those extra refs are given back via DecChildRefs
// (since the existing branch's own single IncRef covers the sharing), and
// on a miss they are kept as the new branch's ownership of its children.
func (in *Interner[T]) GetOrCreateBranch(children Children, types, mask uint8) BlockId {
	h := hashBranch(children, types, mask)
	assertValid(h != in.emptyBranchHash, "empty branch hash collision")

	if existing, ok := in.branchPatterns[h]; ok {
		assertValid(existing != EMPTY, "empty branch id found in branch patterns")
		assertValid(in.IsValid(existing), "expired node in branch patterns: %v", existing)
		assertValid(existing.Types() == types, "types mismatch for existing branch")
		assertValid(existing.Mask() == mask, "mask mismatch for existing branch")

		in.DecChildRefs(children)
		in.IncRef(existing)
		in.stats.TotalCacheHits++
		in.stats.BranchCacheHits++
		return existing
	}

	index, ok := in.slots.alloc()
	if !ok {
		panic(ErrCapacityExhausted)
	}

	generation := *in.generations.get(index)
	id := newBranchID(index, generation, types, mask)
	in.branchPatterns[h] = id

	var childVals [MaxChildren]T
	for i, c := range children {
		if !c.IsEmpty() {
			childVals[i] = *in.values.get(c.Index())
		} else {
			childVals[i] = in.codec.Default()
		}
	}
	average := in.codec.Average(childVals, mask)

	*in.children.get(index) = children
	*in.values.get(index) = average
	*in.hashes.get(index) = h

	assertValid(in.GetRef(id) == 0, "new branch should start at zero refs")
	in.IncRef(id)

	in.stats.BranchNodes++
	in.stats.Patterns++
	in.stats.TotalCacheMisses++
	in.stats.BranchCacheMisses++
	in.stats.TotalAllocations++
	in.stats.AliveNodes++

	return id
}

func (in *Interner[T]) BumpCollapsedBranches() {
	in.stats.CollapsedBranches++
}

// LeafPatternIDs returns every live leaf BlockId, for serialization.
func (in *Interner[T]) LeafPatternIDs() []BlockId {
	ids := make([]BlockId, 0, len(in.leafPatterns))
	for _, id := range in.leafPatterns {
		ids = append(ids, id)
	}
	return ids
}

// BranchPatternIDs returns every live branch BlockId, including EMPTY, for
// serialization.
func (in *Interner[T]) BranchPatternIDs() []BlockId {
	ids := make([]BlockId, 0, len(in.branchPatterns))
	for _, id := range in.branchPatterns {
		ids = append(ids, id)
	}
	return ids
}

// DeserializeLeaf recreates a leaf node read from the node table, starting
// its ref count at zero: the caller (a branch being finalized, or a chunk
// root assignment) is responsible for the reference it holds. Grounded on
// node.rs's deserialize_leaf.
func (in *Interner[T]) DeserializeLeaf(value T) BlockId {
	h := hashLeaf(in.codec, value)
	index, ok := in.slots.alloc()
	if !ok {
		panic(ErrCapacityExhausted)
	}
	generation := *in.generations.get(index)
	id := newLeafID(index, generation)

	*in.values.get(index) = value
	*in.hashes.get(index) = h
	in.leafPatterns[h] = id

	in.stats.LeafNodes++
	in.stats.Patterns++
	in.stats.TotalAllocations++
	in.stats.AliveNodes++
	return id
}

// PreallocateBranchID reserves a slot for a branch whose children are not
// yet resolved (they may be forward references to branches later in the
// node table), shaped with its final types/mask but with no children,
// hash, or pattern-table entry yet. Grounded on node.rs's
// preallocate_branch_id.
func (in *Interner[T]) PreallocateBranchID(types, mask uint8) BlockId {
	index, ok := in.slots.alloc()
	if !ok {
		panic(ErrCapacityExhausted)
	}
	generation := *in.generations.get(index)
	return newBranchID(index, generation, types, mask)
}

// FinalizeDeserializedBranch fills in a preallocated branch's children,
// computes its averaged LOD value and content hash, registers it in the
// branch pattern table, and bumps the ref count of each non-empty child by
// one (this branch's ownership reference). Grounded on node.rs's
// deserialize_branch.
func (in *Interner[T]) FinalizeDeserializedBranch(id BlockId, children Children) {
	index := id.Index()
	types, mask := id.Types(), id.Mask()
	h := hashBranch(children, types, mask)

	var childVals [MaxChildren]T
	for i, c := range children {
		if !c.IsEmpty() {
			childVals[i] = *in.values.get(c.Index())
		} else {
			childVals[i] = in.codec.Default()
		}
	}

	*in.children.get(index) = children
	*in.values.get(index) = in.codec.Average(childVals, mask)
	*in.hashes.get(index) = h
	in.branchPatterns[h] = id

	in.incAllChildRefs(children)

	in.stats.BranchNodes++
	in.stats.Patterns++
	in.stats.TotalAllocations++
	in.stats.AliveNodes++
}
