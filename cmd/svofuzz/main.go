// Command svofuzz is a differential fuzz driver for property 4 of spec §8,
// "batch equivalence": for any multiset of (position, value) writes, applying
// them one-by-one via Set and applying them as a single Batch must produce
// identical root ids. Grounded on
// ethereum-go-verkle/cmd/fuzzinsertstemordered/main.go's shape (infinite
// attempt loop, two independent insertion paths built from the same random
// data, compare the resulting roots, panic on mismatch).
package main

import (
	"flag"
	"fmt"
	"math/rand"

	"github.com/davecgh/go-spew/spew"

	svodag "github.com/voxelgrid/svodag"
)

type write struct {
	Pos   svodag.IVec3
	Value svodag.Voxel32
}

func randomWrites(n int, side int32) []write {
	writes := make([]write, n)
	for i := range writes {
		pos := svodag.IVec3{
			X: rand.Int31n(side),
			Y: rand.Int31n(side),
			Z: rand.Int31n(side),
		}
		value := svodag.NewVoxel32(rand.Int31n(1<<20), uint8(rand.Intn(8)))
		if rand.Intn(5) == 0 {
			value = 0
		}
		writes[i] = write{Pos: pos, Value: value}
	}
	return writes
}

func main() {
	maxDepth := flag.Int("max-depth", 3, "tree max depth (side = 2^max-depth)")
	numWrites := flag.Int("writes", 300, "writes per attempt")
	attempts := flag.Int("attempts", 0, "stop after N attempts (0 = run forever)")
	budget := flag.Int("budget", 64<<20, "interner byte budget per attempt")
	flag.Parse()

	side := int32(1) << uint(*maxDepth)
	codec := svodag.Voxel32Codec{}

	for attempt := 0; *attempts == 0 || attempt < *attempts; attempt++ {
		in, err := svodag.NewInterner[svodag.Voxel32](codec, *budget)
		if err != nil {
			panic(err)
		}

		treeSet := svodag.NewVoxTree[svodag.Voxel32](*maxDepth)
		treeBatch := svodag.NewVoxTree[svodag.Voxel32](*maxDepth)
		batch := svodag.NewBatch[svodag.Voxel32](codec, *maxDepth)

		writes := randomWrites(*numWrites, side)

		for _, w := range writes {
			treeSet.Set(in, w.Pos, w.Value)
			batch.JustSet(w.Pos, w.Value)
		}
		treeBatch.ApplyBatch(in, batch)

		if treeSet.Root() != treeBatch.Root() {
			fmt.Printf("attempt #%d: root mismatch (set=%v batch=%v)\n", attempt, treeSet.Root(), treeBatch.Root())
			fmt.Println("writes:")
			spew.Dump(writes)
			fmt.Println("set-path tree:")
			spew.Dump(treeSet)
			fmt.Println("batch-path tree:")
			spew.Dump(treeBatch)
			panic("batch equivalence violated")
		}

		stats := in.Stats()
		fmt.Printf("attempt #%d ok (%d writes, %d live patterns, %d alive nodes)\n", attempt, *numWrites, stats.Patterns, stats.AliveNodes)
	}
}
