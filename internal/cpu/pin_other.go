//go:build !linux

package cpu

// Pin is a no-op where per-thread CPU affinity is not exposed.
func Pin(slot int) error { return nil }
