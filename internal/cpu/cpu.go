// Package cpu maps execution slots onto CPU cores.
package cpu

import "runtime"

// CoreFor returns the core index used for slot, wrapping around the number
// of logical CPUs.
func CoreFor(slot int) int {
	n := runtime.NumCPU()
	slot %= n
	if slot < 0 {
		slot += n
	}
	return slot
}
