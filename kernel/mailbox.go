package kernel

import "sync/atomic"

// MaxMessageBytes is the maximum payload size for mailbox messages.
const MaxMessageBytes = 120

// Message is a fixed-size message envelope.
type Message struct {
	From TaskID
	Kind uint8
	Len  uint16
	Data [MaxMessageBytes]byte
}

const (
	MsgLog uint8 = iota + 1
	MsgError
)

// Payload returns the valid part of Data.
func (m *Message) Payload() []byte {
	n := int(m.Len)
	if n > MaxMessageBytes {
		n = MaxMessageBytes
	}
	return m.Data[:n]
}

const mailboxSlots = 16

// Mailbox is a fixed-size single-producer, single-consumer queue.
// It never allocates and never blocks: a full mailbox drops the message and
// counts it.
type Mailbox struct {
	_     [0]func() // prevent accidental copying.
	head  atomic.Uint32
	tail  atomic.Uint32
	drops atomic.Uint32
	slots [mailboxSlots]Message
}

// TrySend enqueues a message, returning false if the mailbox is full.
func (mb *Mailbox) TrySend(msg Message) bool {
	head := mb.head.Load()
	tail := mb.tail.Load()
	if head-tail >= mailboxSlots {
		mb.drops.Add(1)
		return false
	}
	mb.slots[head%mailboxSlots] = msg
	mb.head.Store(head + 1)
	return true
}

// TryRecv dequeues one message, returning false if empty.
func (mb *Mailbox) TryRecv() (Message, bool) {
	tail := mb.tail.Load()
	head := mb.head.Load()
	if tail == head {
		return Message{}, false
	}

	msg := mb.slots[tail%mailboxSlots]
	mb.tail.Store(tail + 1)
	return msg, true
}

// Len is the number of queued messages.
func (mb *Mailbox) Len() int {
	return int(mb.head.Load() - mb.tail.Load())
}

// Drops returns the number of messages lost to a full mailbox.
func (mb *Mailbox) Drops() uint32 {
	return mb.drops.Load()
}
