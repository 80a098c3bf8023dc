//go:build svodebug

package svodag

import "fmt"

// assertValid is the debug-build half of the InvalidHandle contract in
// spec §7: in a `-tags svodebug` build, an invalid BlockId is a hard
// failure; in a normal build (assert_release.go) the check vanishes, since
// the spec treats a programming error here as undefined behavior avoided
// by construction, not a recoverable condition.
func assertValid(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}

const debugAssertionsEnabled = true
