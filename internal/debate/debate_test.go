package debate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modeval/modeval/internal/action"
	"github.com/modeval/modeval/internal/ensemble"
	"github.com/modeval/modeval/internal/llm"
	"github.com/modeval/modeval/internal/rag"
	"github.com/modeval/modeval/internal/schema"
	"github.com/modeval/modeval/internal/store"
)

func TestExtractScore(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"format answer", "The total score of the modularization work is: 7", 7},
		{"last number wins", "Item 1 scored 3 points out of possible 10, final: 8", 8},
		{"multi digit", "The total score of the modularization work is: 10", 10},
		{"embedded prose", "Standards 1-9 pass.\nTotal: 9 points", 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractScore(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ExtractScore("no numbers here")
	require.Error(t, err)
}

func TestDebateTeamFlow(t *testing.T) {
	provider := llm.NewScriptedProvider("scripted",
		"Bob's arguments", "Alice's arguments", "Charlie's synthesis")
	retry := llm.RetryConfig{MaxRetries: 0}

	team := ensemble.NewTeam("Code modularization evaluation")
	require.NoError(t, team.Hire(
		NewEvaluator("Bob", ProfileBob, "Alice", "Alice", provider, retry),
		NewEvaluator("Alice", ProfileAlice, "Bob", "Charlie", provider, retry),
		NewReviewer("Charlie", ProfileCharlie, "Bob", provider, retry),
	))

	result, err := team.Run(context.Background(), 3, "## original code ...", schema.To("Bob"))
	require.NoError(t, err)
	require.Empty(t, result.Failures)

	// Seed to Bob, Bob to Alice, Alice to Charlie, Charlie's review back
	// to Bob, who does not re-debate reviews.
	require.Len(t, result.History, 4)
	assert.Equal(t, schema.AgentID("Bob"), result.History[1].SentFrom)
	assert.Equal(t, "Bob's arguments", result.History[1].Role)
	assert.Equal(t, schema.AgentID("Alice"), result.History[2].SentFrom)
	assert.Equal(t, schema.AgentID("Charlie"), result.History[3].SentFrom)
	assert.Equal(t, "Charlie's synthesis", result.Final)
	assert.True(t, result.Idle)

	// The debaters' prompts carry the standards and the opponent's name.
	prompts := provider.Prompts()
	require.Len(t, prompts, 3)
	assert.Contains(t, prompts[0], "Suppose you are Bob")
	assert.Contains(t, prompts[0], "Alice")
	assert.Contains(t, prompts[0], EvaluationStandards[0])
	assert.Contains(t, prompts[1], "Bob's arguments")
}

func TestWrapupTeamFlow(t *testing.T) {
	provider := llm.NewScriptedProvider("scripted",
		"standard 1: 1 ... standard 10: 0",
		"The total score of the modularization work is: 7")
	retry := llm.RetryConfig{MaxRetries: 0}
	docs, err := store.NewDocumentStore(t.TempDir())
	require.NoError(t, err)

	team := ensemble.NewTeam("Code modularization evaluation wrap-up")
	require.NoError(t, team.Hire(
		NewSummarizer("Sarah", ProfileSarah, "Steven", provider, retry, docs),
		NewScorer("Steven", ProfileSteven, provider, retry),
	))

	result, err := team.Run(context.Background(), 2, "debate transcript", schema.To("Sarah"))
	require.NoError(t, err)
	require.Empty(t, result.Failures)

	score, err := ExtractScore(result.Final)
	require.NoError(t, err)
	assert.Equal(t, 7, score)

	// The summary was persisted alongside the evaluation documents.
	files, err := docs.List()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "eval_summarizations", filepath.Dir(files[0]))
}

func newChunkEngines(t *testing.T) (*rag.SimpleEngine, *rag.SimpleEngine) {
	t.Helper()
	original := rag.NewSimpleEngine(rag.DefaultSearchOptions())
	original.Add("def load_data(path): return read(path)\n"+
		action.ExplanationMarker+" loads data from disk", nil)

	modularized := rag.NewSimpleEngine(rag.DefaultSearchOptions())
	modularized.Add("def load_data(path):\n    return read(path)",
		map[string]string{"file": "io/loader.py"})
	return original, modularized
}

func TestChunkEvaluatorSingleChunk(t *testing.T) {
	original, modularized := newChunkEngines(t)
	provider := llm.NewScriptedProvider("scripted",
		"Bob's arguments",
		"Alice's arguments",
		"Charlie's synthesis",
		"standard-by-standard verdict",
		"The total score of the modularization work is: 7")

	eval := NewChunkEvaluator(original, modularized, provider,
		llm.RetryConfig{MaxRetries: 0}, nil, 3)

	report, err := eval.Evaluate(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Chunks, 1)
	assert.Equal(t, 7, report.Total)
	assert.Equal(t, 10, report.Possible)
	assert.InDelta(t, 70.0, report.Percentage, 0.01)

	// The interpretation suffix is stripped from the debate context.
	assert.NotContains(t, provider.Prompts()[0], "loads data from disk")
	assert.Contains(t, provider.Prompts()[0], "def load_data")
}

func TestChunkEvaluatorRendersReport(t *testing.T) {
	original, modularized := newChunkEngines(t)
	provider := llm.NewScriptedProvider("scripted",
		"a", "b", "c", "d",
		"The total score of the modularization work is: 10")

	eval := NewChunkEvaluator(original, modularized, provider,
		llm.RetryConfig{MaxRetries: 0}, nil, 3)

	out, err := eval.EvaluateAll(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out, "chunk 1: 10 points")
	assert.Contains(t, out, "Evaluation score: 100.00%")
}

func TestChunkEvaluatorEmptyIndex(t *testing.T) {
	eval := NewChunkEvaluator(
		rag.NewSimpleEngine(rag.DefaultSearchOptions()),
		rag.NewSimpleEngine(rag.DefaultSearchOptions()),
		llm.NewScriptedProvider("scripted", "x"),
		llm.RetryConfig{MaxRetries: 0}, nil, 3)

	_, err := eval.Evaluate(context.Background())
	require.Error(t, err)
}

func TestModularizationPipelineProducesDesignAndTasks(t *testing.T) {
	// Full modularization company: initializer seeds the requirement,
	// the interpreter indexes the chunks, the architect writes the
	// design, and the project manager consolidates the task list.
	projectDir := t.TempDir()
	require.NoError(t,
		os.WriteFile(filepath.Join(projectDir, "loader.py"), []byte("def load_data(path):\n    return read(path)\n"), 0o644))
	docs, err := store.NewDocumentStore(t.TempDir())
	require.NoError(t, err)

	chunks := rag.NewSimpleEngine(rag.DefaultSearchOptions())
	provider := llm.NewScriptedProvider("scripted",
		"loads data from disk",
		"## File list\n- io/loader.py",
		"## Task list\n1. io/loader.py")
	retry := llm.RetryConfig{MaxRetries: 0}

	team := ensemble.NewTeam("Software modularization company")
	require.NoError(t, team.Hire(
		NewInitializer(docs, "Modularize the data pipeline"),
		NewCodeInterpreter(provider, retry, chunks, projectDir, filepath.Join(t.TempDir(), "index.json")),
		NewArchitect(provider, retry, chunks, docs),
		NewProjectManager(provider, retry, docs),
	))

	result, err := team.Run(context.Background(), 5, "Modularize the data pipeline", schema.Broadcast())
	require.NoError(t, err)
	require.Empty(t, result.Failures)

	// All four stages ran in round one; round two was idle.
	assert.Equal(t, 2, result.Rounds)
	assert.True(t, result.Idle)
	require.Len(t, result.History, 5)
	assert.Equal(t, action.KindPrepareDocuments, result.History[1].CauseBy)
	assert.Equal(t, action.KindInterpretCode, result.History[2].CauseBy)
	assert.Equal(t, action.KindWriteDesign, result.History[3].CauseBy)
	assert.Equal(t, action.KindWriteTasks, result.History[4].CauseBy)
	assert.Contains(t, result.Final, "Task list")

	// The design and task documents landed in the workspace.
	design, err := docs.Get(filepath.Join("docs", "system_design.md"))
	require.NoError(t, err)
	assert.Contains(t, design.Content, "io/loader.py")
	tasks, err := docs.Get(filepath.Join("docs", "project_tasks.md"))
	require.NoError(t, err)
	assert.Contains(t, tasks.Content, "io/loader.py")
}

// fixedEngine returns a canned document set and retrieval result.
type fixedEngine struct {
	docs []rag.Document
}

func (e *fixedEngine) Retrieve(ctx context.Context, query string) ([]rag.Result, error) {
	results := make([]rag.Result, 0, len(e.docs))
	for _, d := range e.docs {
		results = append(results, rag.Result{Text: d.Content, Score: 1})
	}
	return results, nil
}

func (e *fixedEngine) Documents() []rag.Document { return e.docs }

func (e *fixedEngine) Persist(path string) error { return nil }

func TestChunkEvaluatorAcceptsAnyEngine(t *testing.T) {
	original := &fixedEngine{docs: []rag.Document{{ID: "1", Content: "def load(): pass"}}}
	modularized := &fixedEngine{docs: []rag.Document{{ID: "2", Content: "def load():\n    pass"}}}
	provider := llm.NewScriptedProvider("scripted",
		"a", "b", "c", "d",
		"The total score of the modularization work is: 9")

	eval := NewChunkEvaluator(original, modularized, provider,
		llm.RetryConfig{MaxRetries: 0}, nil, 3)

	report, err := eval.Evaluate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9, report.Total)
}

func TestEvaluationPipelineEndToEnd(t *testing.T) {
	// Full evaluation company: the initializer indexes the project, the
	// inspector runs the chunked debate.
	projectDir := t.TempDir()
	require.NoError(t,
		os.WriteFile(filepath.Join(projectDir, "loader.py"), []byte("def load_data(path):\n    return read(path)\n"), 0o644))

	original := rag.NewSimpleEngine(rag.DefaultSearchOptions())
	original.Add("def load_data(path): return read(path)", nil)
	modularized := rag.NewSimpleEngine(rag.DefaultSearchOptions())

	provider := llm.NewScriptedProvider("scripted",
		"a", "b", "c", "d",
		"The total score of the modularization work is: 8")
	eval := NewChunkEvaluator(original, modularized, provider,
		llm.RetryConfig{MaxRetries: 0}, nil, 3)

	team := ensemble.NewTeam("Code modularization evaluation company")
	require.NoError(t, team.Hire(
		NewEvaluationInitializer(modularized, projectDir, filepath.Join(t.TempDir(), "index.json")),
		NewInspector(eval),
	))

	result, err := team.Run(context.Background(), 5, "Evaluate the modularization", schema.Broadcast())
	require.NoError(t, err)
	require.Empty(t, result.Failures)

	// Both stages ran in round one; round two was idle.
	assert.Equal(t, 2, result.Rounds)
	assert.True(t, result.Idle)
	assert.Equal(t, 1, modularized.Len())
	assert.Contains(t, result.Final, "Evaluation score: 80.00%")
}
