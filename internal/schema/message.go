package schema

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AgentID uniquely identifies an agent within an environment roster.
type AgentID string

// ActionKind identifies the action that produced a message. Subscription
// filters match on ActionKind by value equality.
type ActionKind string

// KindUserRequirement tags messages injected by the caller rather than
// produced by an agent's action, such as the idea that seeds a run.
const KindUserRequirement ActionKind = "user_requirement"

// UserID is the sender recorded on caller-injected messages.
const UserID AgentID = "user"

// Addressee is the delivery target of a message: a single agent, an explicit
// set of agents, or a broadcast to every registered agent.
type Addressee struct {
	broadcast bool
	targets   []AgentID
}

// To addresses a single agent.
func To(id AgentID) Addressee {
	return Addressee{targets: []AgentID{id}}
}

// ToEach addresses an explicit set of agents.
func ToEach(ids ...AgentID) Addressee {
	targets := make([]AgentID, len(ids))
	copy(targets, ids)
	return Addressee{targets: targets}
}

// Broadcast addresses every agent registered in the environment.
func Broadcast() Addressee {
	return Addressee{broadcast: true}
}

// IsBroadcast returns true if the addressee is a broadcast.
func (a Addressee) IsBroadcast() bool {
	return a.broadcast
}

// Targets returns the explicit target set. Empty for broadcasts.
func (a Addressee) Targets() []AgentID {
	targets := make([]AgentID, len(a.targets))
	copy(targets, a.targets)
	return targets
}

// Includes reports whether the given agent is addressed, either explicitly
// or via broadcast.
func (a Addressee) Includes(id AgentID) bool {
	if a.broadcast {
		return true
	}
	for _, t := range a.targets {
		if t == id {
			return true
		}
	}
	return false
}

// String renders the addressee for logs.
func (a Addressee) String() string {
	if a.broadcast {
		return "<all>"
	}
	if len(a.targets) == 1 {
		return string(a.targets[0])
	}
	return fmt.Sprintf("%v", a.targets)
}

// Message is the immutable unit of communication between agents. Once
// published to an environment it must never be mutated; the shared history
// hands out the same message by reference to every observer.
type Message struct {
	ID       string     `json:"id"`
	Content  string     `json:"content"`
	Role     string     `json:"role"`
	CauseBy  ActionKind `json:"cause_by"`
	SentFrom AgentID    `json:"sent_from"`
	SendTo   Addressee  `json:"-"`
	SentAt   time.Time  `json:"sent_at"`
}

// NewMessage creates a message with a fresh id and timestamp.
func NewMessage(content, role string, causeBy ActionKind, sentFrom AgentID, sendTo Addressee) *Message {
	return &Message{
		ID:       uuid.NewString(),
		Content:  content,
		Role:     role,
		CauseBy:  causeBy,
		SentFrom: sentFrom,
		SendTo:   sendTo,
		SentAt:   time.Now(),
	}
}

// NewUserRequirement creates the caller-injected message that seeds a run.
func NewUserRequirement(content string, sendTo Addressee) *Message {
	return NewMessage(content, "user", KindUserRequirement, UserID, sendTo)
}

// String renders a short form of the message for logs.
func (m *Message) String() string {
	return fmt.Sprintf("%s -> %s [%s]", m.SentFrom, m.SendTo, m.CauseBy)
}
