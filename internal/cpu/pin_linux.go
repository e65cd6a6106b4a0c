//go:build linux

package cpu

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// Pin locks the calling goroutine to its OS thread and restricts that thread
// to the core chosen by CoreFor(slot).
//
// The goroutine must return without unlocking: the runtime then terminates
// the thread instead of handing a restricted thread to other goroutines.
func Pin(slot int) error {
	runtime.LockOSThread()

	var mask unix.CPUSet
	mask.Zero()
	mask.Set(CoreFor(slot))

	return unix.SchedSetaffinity(0, &mask) // 0 = calling thread
}
