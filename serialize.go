package svodag

import (
	"bufio"
	"encoding/binary"
	"io"
	"math/bits"
	"sort"
)

// vtcMagic tags each serialized chunk record. Grounded on spec §6's
// "[4]u8 magic = \"VTC\\0\"" (the original source's matching constant,
// io::consts::VTC_MAGIC, did not survive distillation into the kept
// original-source files).
var vtcMagic = [4]byte{'V', 'T', 'C', 0}

// Serialize writes the model's node table and chunk roots in the bit-exact
// format of spec §6. Grounded on voxelis/src/model.rs's Model::serialize:
// live leaf/branch patterns are sorted by slot index and remapped to dense
// 1-based ids so the file is independent of interner slot reuse history.
func (m *Model[T]) Serialize(w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	in := m.interner
	codec := in.Codec()

	leafIDs := in.LeafPatternIDs()
	sort.Slice(leafIDs, func(i, j int) bool { return leafIDs[i].Index() < leafIDs[j].Index() })

	branchIDs := in.BranchPatternIDs()
	sort.Slice(branchIDs, func(i, j int) bool { return branchIDs[i].Index() < branchIDs[j].Index() })

	idMap := make(map[uint32]uint32, len(leafIDs)+len(branchIDs))
	idMap[in.EmptyBranch().Index()] = 0
	var nextID uint32 = 1
	for _, id := range leafIDs {
		idMap[id.Index()] = nextID
		nextID++
	}
	for _, id := range branchIDs {
		if id.Index() == in.EmptyBranch().Index() {
			continue
		}
		idMap[id.Index()] = nextID
		nextID++
	}

	bw := bufio.NewWriter(w)

	if err := writeU32(bw, uint32(len(leafIDs))); err != nil {
		return err
	}
	valueBuf := make([]byte, codec.SizeBytes())
	varintBuf := make([]byte, 0, 5)
	for _, id := range leafIDs {
		varintBuf = EncodeVarint(varintBuf[:0], idMap[id.Index()])
		if _, err := bw.Write(varintBuf); err != nil {
			return err
		}
		codec.Encode(valueBuf, in.GetValue(id))
		if _, err := bw.Write(valueBuf); err != nil {
			return err
		}
	}

	if err := writeU32(bw, uint32(len(branchIDs)-1)); err != nil {
		return err
	}
	for _, id := range branchIDs {
		if id.Index() == in.EmptyBranch().Index() {
			continue
		}
		varintBuf = EncodeVarint(varintBuf[:0], idMap[id.Index()])
		if _, err := bw.Write(varintBuf); err != nil {
			return err
		}
		if err := bw.WriteByte(id.Mask()); err != nil {
			return err
		}
		children := in.GetChildren(id)
		for _, c := range children {
			if c.IsEmpty() {
				continue
			}
			varintBuf = EncodeVarint(varintBuf[:0], idMap[c.Index()])
			if _, err := bw.Write(varintBuf); err != nil {
				return err
			}
		}
		codec.Encode(valueBuf, in.GetValue(id))
		if _, err := bw.Write(valueBuf); err != nil {
			return err
		}
	}

	chunks := make([]*Chunk[T], 0, len(m.chunks))
	for _, c := range m.chunks {
		chunks = append(chunks, c)
	}
	sort.Slice(chunks, func(i, j int) bool {
		a, b := chunks[i].position, chunks[j].position
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})

	if err := writeU32(bw, uint32(len(chunks))); err != nil {
		return err
	}
	for _, c := range chunks {
		if _, err := bw.Write(vtcMagic[:]); err != nil {
			return err
		}
		if err := writeI32(bw, c.position.X); err != nil {
			return err
		}
		if err := writeI32(bw, c.position.Y); err != nil {
			return err
		}
		if err := writeI32(bw, c.position.Z); err != nil {
			return err
		}
		root := c.tree.Root()
		rootNewID := uint32(0)
		if !root.IsEmpty() {
			rootNewID = idMap[root.Index()]
		}
		varintBuf = EncodeVarint(varintBuf[:0], rootNewID)
		if _, err := bw.Write(varintBuf); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// Deserialize reads the node table and chunk roots from r, in spec §6's
// format, into the model's existing interner, and replaces the model's
// chunk set with the chunks read. The roots of the chunks it replaces are
// not released, and nodes read from r are not deduplicated against nodes
// already in the interner. Grounded on
// voxelis/src/model.rs's Model::deserialize: branches are preallocated in
// file order (so forward references to later branches resolve), then
// finalized in a second pass once every file id maps to a real BlockId.
func (m *Model[T]) Deserialize(r io.Reader) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	in := m.interner
	codec := in.Codec()
	br := bufio.NewReader(r)

	leafCount, err := readU32(br)
	if err != nil {
		return err
	}
	fileToBlock := make(map[uint32]BlockId, leafCount+1)
	fileToBlock[0] = EMPTY

	valueBuf := make([]byte, codec.SizeBytes())
	for i := uint32(0); i < leafCount; i++ {
		fileID, err := DecodeVarint(br)
		if err != nil {
			return err
		}
		if _, err := io.ReadFull(br, valueBuf); err != nil {
			return err
		}
		value := codec.Decode(valueBuf)
		fileToBlock[fileID] = in.DeserializeLeaf(value)
	}

	branchCountMinusOne, err := readU32(br)
	if err != nil {
		return err
	}

	type rawBranch struct {
		fileID       uint32
		mask         uint8
		childFileIDs []uint32
	}
	raws := make([]rawBranch, 0, branchCountMinusOne)

	for i := uint32(0); i < branchCountMinusOne; i++ {
		fileID, err := DecodeVarint(br)
		if err != nil {
			return err
		}
		mask, err := br.ReadByte()
		if err != nil {
			return err
		}
		childFileIDs := make([]uint32, bits.OnesCount8(mask))
		for j := range childFileIDs {
			childFileIDs[j], err = DecodeVarint(br)
			if err != nil {
				return err
			}
		}
		if _, err := io.ReadFull(br, valueBuf); err != nil {
			return err
		}
		// The stored averaged value is redundant with what
		// FinalizeDeserializedBranch recomputes from children, and is
		// read here only to advance the stream past it.

		raws = append(raws, rawBranch{fileID: fileID, mask: mask, childFileIDs: childFileIDs})
	}

	// types bit for each child is recoverable once we know whether its
	// file id names a leaf or a branch; leaves are already in fileToBlock,
	// branches need their slot preallocated first (spec §6: "types is not
	// stored — it is recovered on load from whether each referenced child
	// appears in the leaf or branch table").
	leafFileIDs := make(map[uint32]bool, leafCount)
	for id := range fileToBlock {
		leafFileIDs[id] = true
	}

	preallocated := make([]BlockId, len(raws))
	for i, raw := range raws {
		var types uint8
		bit := 0
		for j := 0; j < MaxChildren; j++ {
			if raw.mask&(1<<uint(j)) == 0 {
				continue
			}
			if leafFileIDs[raw.childFileIDs[bit]] {
				types |= 1 << uint(j)
			}
			bit++
		}
		id := in.PreallocateBranchID(types, raw.mask)
		fileToBlock[raw.fileID] = id
		preallocated[i] = id
	}

	for i, raw := range raws {
		id := preallocated[i]
		var children Children
		bit := 0
		for j := 0; j < MaxChildren; j++ {
			if raw.mask&(1<<uint(j)) == 0 {
				continue
			}
			children[j] = fileToBlock[raw.childFileIDs[bit]]
			bit++
		}
		in.FinalizeDeserializedBranch(id, children)
	}

	chunkCount, err := readU32(br)
	if err != nil {
		return err
	}

	m.chunks = make(map[IVec3]*Chunk[T], chunkCount)
	m.hasBounds = false

	var magic [4]byte
	for i := uint32(0); i < chunkCount; i++ {
		if _, err := io.ReadFull(br, magic[:]); err != nil {
			return err
		}
		if magic != vtcMagic {
			return ErrInvalidEncoding
		}
		x, err := readI32(br)
		if err != nil {
			return err
		}
		y, err := readI32(br)
		if err != nil {
			return err
		}
		z, err := readI32(br)
		if err != nil {
			return err
		}
		rootFileID, err := DecodeVarint(br)
		if err != nil {
			return err
		}

		pos := IVec3{X: x, Y: y, Z: z}
		c := NewChunk[T](pos, m.chunkSize, m.maxDepth)
		root := fileToBlock[rootFileID]
		c.tree.root = root
		if !root.IsEmpty() {
			in.IncRef(root)
		}
		m.chunks[pos] = c
		m.growBoundsLocked(pos)
	}

	return nil
}

func writeU32(w *bufio.Writer, v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func writeI32(w *bufio.Writer, v int32) error {
	return writeU32(w, uint32(v))
}

func readU32(r *bufio.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func readI32(r *bufio.Reader) (int32, error) {
	v, err := readU32(r)
	return int32(v), err
}
