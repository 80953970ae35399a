package kernel

import "fmt"

// Context provides task-local access to kernel operations.
type Context struct {
	k      *Kernel
	taskID TaskID
	err    error
}

// TaskID returns the current task ID.
func (c *Context) TaskID() TaskID { return c.taskID }

// Name returns the current task name.
func (c *Context) Name() string {
	if c.k == nil {
		return ""
	}
	return c.k.TaskName(c.taskID)
}

// NowTick returns the kernel tick.
func (c *Context) NowTick() uint64 {
	if c.k == nil {
		return 0
	}
	return c.k.NowTick()
}

// Logf queues a log line. Lines are dropped, not blocked on, when the log
// mailbox is full.
func (c *Context) Logf(format string, args ...any) bool {
	return c.post(MsgLog, format, args)
}

// Errorf queues an error line.
func (c *Context) Errorf(format string, args ...any) bool {
	return c.post(MsgError, format, args)
}

func (c *Context) post(kind uint8, format string, args []any) bool {
	if c.k == nil {
		return false
	}
	var msg Message
	msg.From = c.taskID
	msg.Kind = kind
	s := fmt.Sprintf(format, args...)
	if len(s) > MaxMessageBytes {
		s = s[:MaxMessageBytes]
	}
	msg.Len = uint16(copy(msg.Data[:], s))
	return c.k.log.TrySend(msg)
}

// Fail stops the task. The kernel returns err from the current step.
func (c *Context) Fail(err error) {
	if err != nil && c.err == nil {
		c.err = err
	}
}
