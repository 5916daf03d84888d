// Package action defines the units of work agents execute. An Action is a
// closed tagged variant: its kind selects the behavior, and everything that
// varies per instance (prompt template, collaborators, parameters) is carried
// as data. Prompt-backed kinds render their template and delegate to the LLM
// provider; preparation kinds operate on the document store and the retrieval
// index; inspection delegates to a chunk runner.
package action

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/modeval/modeval/internal/llm"
	"github.com/modeval/modeval/internal/schema"
)

// Action kinds. Subscription filters match these by value.
const (
	KindSpeak                  schema.ActionKind = "speak"
	KindReview                 schema.ActionKind = "review"
	KindSummarize              schema.ActionKind = "summarize"
	KindScore                  schema.ActionKind = "score"
	KindPrepareDocuments       schema.ActionKind = "prepare_documents"
	KindPrepareEvaluationIndex schema.ActionKind = "prepare_evaluation_index"
	KindInspectChunk           schema.ActionKind = "inspect_chunk"
	KindInterpretCode          schema.ActionKind = "interpret_code"
	KindWriteDesign            schema.ActionKind = "write_design"
	KindWriteTasks             schema.ActionKind = "write_tasks"
)

// Context is the contextual payload an action is invoked with. Which fields
// are populated depends on the protocol wiring the action's role.
type Context struct {
	// Name is the acting agent's name, used by debate prompts.
	Name string
	// OpponentName is the debate opponent, when the protocol defines one.
	OpponentName string
	// Standards are the evaluation criteria for debate prompts.
	Standards []string
	// Context is the rendered conversation or code context.
	Context string
}

// NumberedStandards renders the criteria as a numbered list for templates.
func (c Context) NumberedStandards() string {
	lines := make([]string, 0, len(c.Standards))
	for i, standard := range c.Standards {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, standard))
	}
	return strings.Join(lines, "\n")
}

// ChunkRunner evaluates every indexed artifact and reports the aggregate.
// It is implemented by the debate package; declaring it here keeps the
// inspection action free of a dependency on the protocol wiring.
type ChunkRunner interface {
	EvaluateAll(ctx context.Context) (string, error)
}

// Action is a unit of work producing one textual result from contextual
// input. Instances are immutable after construction.
type Action struct {
	kind     schema.ActionKind
	tmpl     *template.Template
	provider llm.Provider
	retry    llm.RetryConfig

	prepare func(ctx context.Context) (string, error)
	after   func(ctx context.Context, response string) error
	runner  ChunkRunner
}

// Kind returns the action's identity, used as CauseBy on produced messages.
func (a *Action) Kind() schema.ActionKind {
	return a.kind
}

// Execute runs the action and returns its textual result.
func (a *Action) Execute(ctx context.Context, in Context) (string, error) {
	switch {
	case a.runner != nil:
		return a.runner.EvaluateAll(ctx)
	case a.prepare != nil:
		return a.prepare(ctx)
	case a.tmpl != nil:
		return a.executePrompt(ctx, in)
	default:
		return "", fmt.Errorf("action %s has no executable behavior", a.kind)
	}
}

func (a *Action) executePrompt(ctx context.Context, in Context) (string, error) {
	var buf strings.Builder
	if err := a.tmpl.Execute(&buf, in); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", a.kind, err)
	}

	rsp, err := llm.AskWithRetry(ctx, a.provider, a.retry, buf.String())
	if err != nil {
		return "", err
	}

	if a.after != nil {
		if err := a.after(ctx, rsp); err != nil {
			return "", err
		}
	}
	return rsp, nil
}

func mustTemplate(kind schema.ActionKind, text string) *template.Template {
	return template.Must(template.New(string(kind)).Parse(text))
}

func newPromptAction(kind schema.ActionKind, provider llm.Provider, retry llm.RetryConfig, tmpl string) *Action {
	return &Action{
		kind:     kind,
		tmpl:     mustTemplate(kind, tmpl),
		provider: provider,
		retry:    retry,
	}
}
