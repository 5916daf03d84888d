package ensemble

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/modeval/modeval/internal/schema"
)

// Environment is the shared message bus: the roster of registered roles plus
// the ordered history of every published message. The history is append-only
// for the lifetime of a run; delivery hands the same immutable messages by
// reference to every observer.
type Environment struct {
	desc    string
	roster  map[schema.AgentID]*Role
	order   []schema.AgentID
	history []*schema.Message

	log *logrus.Logger
	mu  sync.RWMutex
}

// NewEnvironment creates an empty environment with the given description.
func NewEnvironment(desc string) *Environment {
	initMetrics()
	return &Environment{
		desc:   desc,
		roster: make(map[schema.AgentID]*Role),
		log:    logrus.New(),
	}
}

// SetLogger replaces the environment logger.
func (e *Environment) SetLogger(log *logrus.Logger) {
	e.log = log
}

// Desc returns the environment description.
func (e *Environment) Desc() string {
	return e.desc
}

// Register adds a role to the roster. Registering a second role under an
// existing name fails and leaves the roster unchanged.
func (e *Environment) Register(role *Role) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.roster[role.Name()]; exists {
		return NewDuplicateAgentError(role.Name())
	}
	e.roster[role.Name()] = role
	e.order = append(e.order, role.Name())
	role.attach(e)

	e.log.WithFields(logrus.Fields{
		"agent":   role.Name(),
		"profile": role.Profile(),
	}).Debug("Agent registered")
	return nil
}

// Publish appends a message to the shared history. Explicit addressees are
// resolved against the live roster first; an unknown addressee fails the
// publish without appending. The caller-injected user sender is exempt from
// roster membership.
func (e *Environment) Publish(msg *schema.Message) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !msg.SendTo.IsBroadcast() {
		for _, target := range msg.SendTo.Targets() {
			if _, ok := e.roster[target]; !ok {
				return NewSubscriptionMismatchError(msg.SentFrom, target)
			}
		}
	}

	e.history = append(e.history, msg)
	messagesPublished.Inc()

	e.log.WithFields(logrus.Fields{
		"from":     msg.SentFrom,
		"to":       msg.SendTo.String(),
		"cause_by": msg.CauseBy,
	}).Debug("Message published")
	return nil
}

// History returns a copy of the full ordered message history.
func (e *Environment) History() []*schema.Message {
	e.mu.RLock()
	defer e.mu.RUnlock()

	history := make([]*schema.Message, len(e.history))
	copy(history, e.history)
	return history
}

// Roster returns the registered agent names in hire order.
func (e *Environment) Roster() []schema.AgentID {
	e.mu.RLock()
	defer e.mu.RUnlock()

	order := make([]schema.AgentID, len(e.order))
	copy(order, e.order)
	return order
}

// Role returns the registered role for a name.
func (e *Environment) Role(id schema.AgentID) (*Role, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	role, ok := e.roster[id]
	return role, ok
}

// historyLen returns the current history length.
func (e *Environment) historyLen() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.history)
}

// historySince returns the messages published at or after position from.
// The returned slice shares the underlying history; callers must not mutate.
func (e *Environment) historySince(from int) []*schema.Message {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if from >= len(e.history) {
		return nil
	}
	return e.history[from:]
}
