package kernel

import (
	"fmt"
	"sync"
)

// maxStackBytes bounds the stack kept with a PanicInfo.
const maxStackBytes = 4 << 10

// PanicInfo describes a task panic recovered by the kernel.
type PanicInfo struct {
	TaskID TaskID
	Task   string
	Value  any
	Stack  []byte
}

func (p PanicInfo) String() string {
	return fmt.Sprintf("task=%s (%d): %v", p.Task, p.TaskID, p.Value)
}

var panics struct {
	mu      sync.Mutex
	handler func(PanicInfo)
	first   *PanicInfo
}

// SetPanicHandler installs the process-wide panic handler.
//
// The handler runs once, for the first panic, on the goroutine that stepped
// the task. It must not panic.
func SetPanicHandler(fn func(PanicInfo)) {
	panics.mu.Lock()
	defer panics.mu.Unlock()
	panics.handler = fn
}

// InPanicMode reports whether any task has panicked.
func InPanicMode() bool {
	_, ok := FirstPanic()
	return ok
}

// FirstPanic returns the first recovered panic.
func FirstPanic() (PanicInfo, bool) {
	panics.mu.Lock()
	defer panics.mu.Unlock()
	if panics.first == nil {
		return PanicInfo{}, false
	}
	return *panics.first, true
}

func triggerPanic(info PanicInfo) {
	panics.mu.Lock()
	if panics.first != nil {
		panics.mu.Unlock()
		return
	}
	info.Stack = captureStack()
	panics.first = &info
	fn := panics.handler
	panics.mu.Unlock()

	if fn != nil {
		fn(info)
	}
}
