package ensemble

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/modeval/modeval/internal/action"
	"github.com/modeval/modeval/internal/schema"
)

// ReactMode determines how a role consumes its registered actions.
type ReactMode string

const (
	// ModeReact keeps executing the role's current action on every turn
	// with news.
	ModeReact ReactMode = "react"
	// ModeByOrder consumes the registered actions strictly in sequence,
	// once each; after the last action the role is permanently idle.
	ModeByOrder ReactMode = "by_order"
)

// ContextSource selects the contextual payload handed to the role's action.
type ContextSource string

const (
	// ContextHistory renders the full shared bus history.
	ContextHistory ContextSource = "history"
	// ContextMemory renders only the role's private message log.
	ContextMemory ContextSource = "memory"
)

// Role is a named, addressable actor with registered actions, a subscription
// filter, a reaction mode, and private memory. Roles are created once per
// team assembly and never reused across independent runs.
type Role struct {
	name    schema.AgentID
	profile string
	goal    string

	actions   []*action.Action
	actionIdx int
	mode      ReactMode

	subscriptions map[schema.ActionKind]struct{}
	targeted      bool
	ignoreMemory  bool

	opponent      string
	standards     []string
	sendTo        schema.Addressee
	msgRole       string
	contextSource ContextSource

	memory *Memory
	cursor int
	news   []*schema.Message

	env *Environment
	log *logrus.Logger
}

// RoleOption configures a Role at construction.
type RoleOption func(*Role)

// WithActions registers the role's actions in execution order.
func WithActions(actions ...*action.Action) RoleOption {
	return func(r *Role) { r.actions = actions }
}

// WithWatch subscribes the role to the given action kinds.
func WithWatch(kinds ...schema.ActionKind) RoleOption {
	return func(r *Role) {
		for _, kind := range kinds {
			r.subscriptions[kind] = struct{}{}
		}
	}
}

// WithReactMode sets the reaction mode. The default is ModeReact.
func WithReactMode(mode ReactMode) RoleOption {
	return func(r *Role) { r.mode = mode }
}

// WithIgnoreMemory makes the role treat every bus message as new on each
// round, regardless of prior observation. Used by single-shot pipeline roles
// that must not skip stages due to stale state.
func WithIgnoreMemory() RoleOption {
	return func(r *Role) { r.ignoreMemory = true }
}

// WithTargetedDelivery narrows observation to messages whose addressees
// include this role's own name.
func WithTargetedDelivery() RoleOption {
	return func(r *Role) { r.targeted = true }
}

// WithSendTo sets the addressee of messages this role produces. The default
// is broadcast.
func WithSendTo(addr schema.Addressee) RoleOption {
	return func(r *Role) { r.sendTo = addr }
}

// WithOpponent names the debate opponent passed into the role's actions.
func WithOpponent(name string) RoleOption {
	return func(r *Role) { r.opponent = name }
}

// WithStandards sets the evaluation criteria passed into the role's actions.
func WithStandards(standards ...string) RoleOption {
	return func(r *Role) { r.standards = standards }
}

// WithMessageRole overrides the persona label recorded on produced messages.
// The default is the role's profile.
func WithMessageRole(label string) RoleOption {
	return func(r *Role) { r.msgRole = label }
}

// WithContextSource selects the payload handed to actions. The default is
// the full bus history.
func WithContextSource(src ContextSource) RoleOption {
	return func(r *Role) { r.contextSource = src }
}

// NewRole creates a role. The profile is prompt context only; orchestration
// behavior is controlled entirely by the options.
func NewRole(name schema.AgentID, profile, goal string, opts ...RoleOption) *Role {
	r := &Role{
		name:          name,
		profile:       profile,
		goal:          goal,
		mode:          ModeReact,
		subscriptions: make(map[schema.ActionKind]struct{}),
		sendTo:        schema.Broadcast(),
		contextSource: ContextHistory,
		memory:        NewMemory(),
		log:           logrus.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.msgRole == "" {
		r.msgRole = profile
	}
	return r
}

// Name returns the role's unique name.
func (r *Role) Name() schema.AgentID {
	return r.name
}

// Profile returns the role's persona description.
func (r *Role) Profile() string {
	return r.profile
}

// Goal returns the role's goal description.
func (r *Role) Goal() string {
	return r.goal
}

// Memory returns the role's private message log.
func (r *Role) Memory() *Memory {
	return r.memory
}

// SetLogger replaces the role logger.
func (r *Role) SetLogger(log *logrus.Logger) {
	r.log = log
}

// attach wires the role to its environment at registration time.
func (r *Role) attach(env *Environment) {
	r.env = env
	r.log = env.log
}

// exhausted reports whether a BY_ORDER role has consumed all its actions.
func (r *Role) exhausted() bool {
	return r.mode == ModeByOrder && r.actionIdx >= len(r.actions)
}

// Observe scans the bus history for new relevant messages and records them
// as the role's current news. It returns the news count; 0 means the role
// does nothing this round.
func (r *Role) Observe() int {
	if r.env == nil || len(r.actions) == 0 || r.exhausted() {
		return 0
	}

	start := r.cursor
	if r.ignoreMemory {
		start = 0
	}
	candidates := r.env.historySince(start)
	r.cursor = r.env.historyLen()

	news := make([]*schema.Message, 0, len(candidates))
	for _, msg := range candidates {
		if _, subscribed := r.subscriptions[msg.CauseBy]; !subscribed {
			continue
		}
		if r.targeted && !msg.SendTo.Includes(r.name) {
			continue
		}
		news = append(news, msg)
	}

	if !r.ignoreMemory {
		for _, msg := range news {
			r.memory.Add(msg)
		}
	}
	r.news = news
	return len(news)
}

// Act executes the role's current action against its configured context and
// returns the resulting message. The message is recorded in the role's own
// memory; publication is the scheduler's responsibility. BY_ORDER roles
// advance to their next action exactly once per successful turn.
func (r *Role) Act(ctx context.Context) (*schema.Message, error) {
	if r.exhausted() || len(r.actions) == 0 {
		return nil, &Error{Code: ErrCodeNoAction, Message: fmt.Sprintf("agent %q has no runnable action", r.name)}
	}

	todo := r.actions[r.actionIdx]
	r.log.WithFields(logrus.Fields{
		"agent":  r.name,
		"action": todo.Kind(),
	}).Info("Agent acting")

	in := action.Context{
		Name:         string(r.name),
		OpponentName: r.opponent,
		Standards:    r.standards,
		Context:      r.renderContext(),
	}

	rsp, err := todo.Execute(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("agent %q action %s failed: %w", r.name, todo.Kind(), err)
	}

	msg := schema.NewMessage(rsp, r.msgRole, todo.Kind(), r.name, r.sendTo)
	r.memory.Add(msg)

	if r.mode == ModeByOrder {
		r.actionIdx++
	}
	return msg, nil
}

// renderContext builds the textual payload for the current action.
func (r *Role) renderContext() string {
	var msgs []*schema.Message
	switch r.contextSource {
	case ContextMemory:
		msgs = r.memory.All()
	default:
		msgs = r.env.History()
	}
	return renderTranscript(msgs)
}

// renderTranscript formats messages as "sender: content" lines.
func renderTranscript(msgs []*schema.Message) string {
	lines := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		lines = append(lines, fmt.Sprintf("%s: %s", msg.SentFrom, msg.Content))
	}
	return strings.Join(lines, "\n")
}
