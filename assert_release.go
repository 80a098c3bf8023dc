//go:build !svodebug

package svodag

func assertValid(cond bool, format string, args ...any) {}

const debugAssertionsEnabled = false
