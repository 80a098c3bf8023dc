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

import "errors"

var (
	// ErrCapacityExhausted is returned by NewInterner (and NewModel) when
	// a memory budget cannot hold even a single node, and is the value the
	// interner panics with when a node allocation finds every slot in use.
	ErrCapacityExhausted = errors.New("svodag: node pool capacity exhausted")

	// ErrInvalidHandle marks a BlockId whose generation does not match
	// the generation currently stored at its slot.
	ErrInvalidHandle = errors.New("svodag: invalid block handle")

	// ErrInvalidEncoding is returned by Model.Deserialize and the node
	// table reader when the byte stream does not match the format in
	// spec §6.
	ErrInvalidEncoding = errors.New("svodag: invalid node table encoding")

	// ErrChunkOutOfBounds names a position outside [0, 2^max_depth) on
	// any axis. No function in this package returns it: VoxTree.Set
	// checks bounds only with a debug-build assertion.
	ErrChunkOutOfBounds = errors.New("svodag: position out of bounds")
)
