//go:build !tinygo

package kernel

import "runtime"

// captureStack returns the current goroutine's stack, truncated.
func captureStack() []byte {
	buf := make([]byte, maxStackBytes)
	return buf[:runtime.Stack(buf, false)]
}
