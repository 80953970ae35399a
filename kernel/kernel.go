package kernel

import (
	"errors"
	"fmt"
	"sync/atomic"
)

const maxTasks = 8

type TaskID uint8

var (
	ErrTooManyTasks = errors.New("kernel: too many tasks")
	ErrTaskPanicked = errors.New("kernel: task panicked")
)

// Task is a cooperative unit of execution. Step must return promptly.
type Task interface {
	Step(*Context)
}

// TaskFunc adapts a function to Task.
type TaskFunc func(*Context)

func (f TaskFunc) Step(ctx *Context) { f(ctx) }

type taskState struct {
	name     string
	task     Task
	runnable bool
	steps    uint64
}

// Kernel is a minimal cooperative scheduler for the main loop.
//
// All tasks run on the goroutine that calls Step or RunOnce. Interrupt-side
// code talks to tasks only through Slots.
type Kernel struct {
	tasks     [maxTasks]taskState
	taskCount TaskID

	rr TaskID

	ticks atomic.Uint64
	log   Mailbox
	err   error
}

// New creates a kernel instance.
func New() *Kernel {
	return &Kernel{}
}

// AddTask registers a task and returns its ID. Tasks run in the order they
// were added.
func (k *Kernel) AddTask(name string, t Task) (TaskID, error) {
	if k.taskCount >= maxTasks {
		return 0, fmt.Errorf("%w: %s", ErrTooManyTasks, name)
	}
	id := k.taskCount
	k.taskCount++
	k.tasks[id] = taskState{name: name, task: t, runnable: true}
	return id, nil
}

// Step runs at most one runnable task step. It reports whether a task ran.
func (k *Kernel) Step() (bool, error) {
	if k.taskCount == 0 {
		return false, k.err
	}

	for i := TaskID(0); i < k.taskCount; i++ {
		id := (k.rr + i) % k.taskCount
		st := &k.tasks[id]
		if st.task == nil || !st.runnable {
			continue
		}

		k.rr = (id + 1) % k.taskCount
		k.run(id, st)
		return true, k.err
	}
	return false, k.err
}

// RunOnce gives every runnable task one step, in order. It stops at the first
// task that fails and returns that error.
func (k *Kernel) RunOnce() error {
	for id := TaskID(0); id < k.taskCount; id++ {
		st := &k.tasks[id]
		if st.task == nil || !st.runnable {
			continue
		}
		k.run(id, st)
		if k.err != nil {
			return k.err
		}
	}
	return nil
}

func (k *Kernel) run(id TaskID, st *taskState) {
	ctx := &Context{k: k, taskID: id}
	defer func() {
		if r := recover(); r != nil {
			st.runnable = false
			triggerPanic(PanicInfo{TaskID: id, Task: st.name, Value: r})
			if k.err == nil {
				k.err = fmt.Errorf("%w: %s: %v", ErrTaskPanicked, st.name, r)
			}
		}
	}()
	st.steps++
	st.task.Step(ctx)
	if ctx.err != nil {
		st.runnable = false
		if k.err == nil {
			k.err = fmt.Errorf("kernel: task %s: %w", st.name, ctx.err)
		}
	}
}

// Err returns the first task failure, if any.
func (k *Kernel) Err() error { return k.err }

// Tick advances the kernel tick by one.
func (k *Kernel) Tick() uint64 { return k.ticks.Add(1) }

func (k *Kernel) NowTick() uint64 { return k.ticks.Load() }

// Log is the mailbox Context.Logf writes to.
func (k *Kernel) Log() *Mailbox { return &k.log }

// TaskName returns the name a task was added with.
func (k *Kernel) TaskName(id TaskID) string {
	if id >= k.taskCount {
		return ""
	}
	return k.tasks[id].name
}

// Steps returns how many times a task has been stepped.
func (k *Kernel) Steps(id TaskID) uint64 {
	if id >= k.taskCount {
		return 0
	}
	return k.tasks[id].steps
}
