package svodag

import "testing"

// TestSetOutOfBoundsPanicsInDebugBuilds only asserts the panic when built
// with -tags svodebug; in a release build assertValid is a no-op per spec
// §7, so there is nothing to observe here.
func TestSetOutOfBoundsPanicsInDebugBuilds(t *testing.T) {
	if !debugAssertionsEnabled {
		t.Skip("debug assertions disabled in this build")
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("Set with an out-of-bounds position should panic in a debug build")
		}
	}()
	tree, in := newTestTree(t, 2)
	tree.Set(in, IVec3{100, 0, 0}, NewVoxel32(1, 0))
}
