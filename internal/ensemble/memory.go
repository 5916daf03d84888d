package ensemble

import (
	"github.com/modeval/modeval/internal/schema"
)

// Memory is a role's private append-only log of received and sent messages.
type Memory struct {
	msgs []*schema.Message
}

// NewMemory creates an empty memory.
func NewMemory() *Memory {
	return &Memory{}
}

// Add appends a message to the log.
func (m *Memory) Add(msg *schema.Message) {
	m.msgs = append(m.msgs, msg)
}

// All returns every logged message in arrival order.
func (m *Memory) All() []*schema.Message {
	msgs := make([]*schema.Message, len(m.msgs))
	copy(msgs, m.msgs)
	return msgs
}

// Len returns the number of logged messages.
func (m *Memory) Len() int {
	return len(m.msgs)
}
