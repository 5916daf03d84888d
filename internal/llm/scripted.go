package llm

import (
	"context"
	"fmt"
	"sync"
)

// ScriptedProvider replays a fixed queue of responses. It is used for
// deterministic orchestration tests and dry runs without a live model.
type ScriptedProvider struct {
	name      string
	responses []string
	next      int
	prompts   []string
	mu        sync.Mutex
}

// NewScriptedProvider creates a provider that returns the given responses in
// order. When the queue is exhausted the last response repeats.
func NewScriptedProvider(name string, responses ...string) *ScriptedProvider {
	return &ScriptedProvider{name: name, responses: responses}
}

// Name identifies the provider.
func (p *ScriptedProvider) Name() string {
	return p.name
}

// Ask records the prompt and returns the next scripted response.
func (p *ScriptedProvider) Ask(ctx context.Context, prompt string, systemMsgs ...string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", NewInvocationError(p.name, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.prompts = append(p.prompts, prompt)
	if len(p.responses) == 0 {
		return "", NewInvocationError(p.name, fmt.Errorf("no scripted responses configured"))
	}
	rsp := p.responses[p.next]
	if p.next < len(p.responses)-1 {
		p.next++
	}
	return rsp, nil
}

// Prompts returns a copy of every prompt seen so far.
func (p *ScriptedProvider) Prompts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	prompts := make([]string, len(p.prompts))
	copy(prompts, p.prompts)
	return prompts
}

// CallCount returns the number of Ask invocations.
func (p *ScriptedProvider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.prompts)
}
