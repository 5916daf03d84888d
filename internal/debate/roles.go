// Package debate wires the evaluation protocol: two adversarial evaluators
// argue a modularized chunk against the evaluation standards, a reviewer
// synthesizes the exchange, and a separate wrap-up pair of summarizer and
// scorer turns the debate into a numeric result. ChunkEvaluator drives the
// whole pipeline chunk by chunk.
package debate

import (
	"github.com/modeval/modeval/internal/action"
	"github.com/modeval/modeval/internal/ensemble"
	"github.com/modeval/modeval/internal/llm"
	"github.com/modeval/modeval/internal/rag"
	"github.com/modeval/modeval/internal/schema"
	"github.com/modeval/modeval/internal/store"
)

// NewEvaluator creates an adversarial evaluator. It reacts to the seeding
// requirement and to the opponent's arguments addressed to it, and forwards
// its own arguments to sendTo. The static addressing chain makes a debate a
// single pass ending at the reviewer, so a debate's round cap is an upper
// bound the topology never reaches.
func NewEvaluator(name schema.AgentID, profile, opponent string, sendTo schema.AgentID, provider llm.Provider, retry llm.RetryConfig) *ensemble.Role {
	return ensemble.NewRole(name, profile,
		"to explicitly evaluate a modularized work produced by AI model",
		ensemble.WithActions(action.NewSpeak(provider, retry)),
		ensemble.WithWatch(schema.KindUserRequirement, action.KindSpeak),
		ensemble.WithTargetedDelivery(),
		ensemble.WithSendTo(schema.To(sendTo)),
		ensemble.WithOpponent(opponent),
		ensemble.WithStandards(EvaluationStandards...),
		ensemble.WithMessageRole(string(name)+"'s arguments"),
	)
}

// NewReviewer creates the neutral reviewer that synthesizes the evaluators'
// exchange and reports back to sendTo.
func NewReviewer(name schema.AgentID, profile string, sendTo schema.AgentID, provider llm.Provider, retry llm.RetryConfig) *ensemble.Role {
	return ensemble.NewRole(name, profile,
		"review the discussion and drive a fair conclusion",
		ensemble.WithActions(action.NewReview(provider, retry)),
		ensemble.WithWatch(action.KindSpeak),
		ensemble.WithTargetedDelivery(),
		ensemble.WithSendTo(schema.To(sendTo)),
	)
}

// NewSummarizer creates the wrap-up role that condenses the debate into a
// per-standard verdict. When docs is non-nil each summary is also persisted
// under eval_summarizations.
func NewSummarizer(name schema.AgentID, profile string, sendTo schema.AgentID, provider llm.Provider, retry llm.RetryConfig, docs *store.DocumentStore) *ensemble.Role {
	return ensemble.NewRole(name, profile,
		"summarize the final evaluation results",
		ensemble.WithActions(action.NewSummarize(provider, retry, docs)),
		ensemble.WithWatch(schema.KindUserRequirement),
		ensemble.WithTargetedDelivery(),
		ensemble.WithSendTo(schema.To(sendTo)),
	)
}

// NewScorer creates the terminal role that turns the summarized verdict into
// a total score. It scores from its own received messages rather than the
// full bus history.
func NewScorer(name schema.AgentID, profile string, provider llm.Provider, retry llm.RetryConfig) *ensemble.Role {
	return ensemble.NewRole(name, profile,
		"score the evaluation results and feedback",
		ensemble.WithActions(action.NewScore(provider, retry)),
		ensemble.WithWatch(action.KindSummarize),
		ensemble.WithTargetedDelivery(),
		ensemble.WithContextSource(ensemble.ContextMemory),
	)
}

// NewInitializer creates the pipeline role that seeds the project workspace
// with the predefined requirement document.
func NewInitializer(docs *store.DocumentStore, requirement string) *ensemble.Role {
	return ensemble.NewRole("Jojo", "Initializer",
		"initialize the project repository with the predefined requirement documents",
		ensemble.WithActions(action.NewPrepareDocuments(docs, requirement)),
		ensemble.WithWatch(schema.KindUserRequirement),
		ensemble.WithReactMode(ensemble.ModeByOrder),
		ensemble.WithIgnoreMemory(),
	)
}

// NewCodeInterpreter creates the pipeline role that interprets the original
// project's source chunks and indexes them for later evaluation. It runs
// once the project documents are in place.
func NewCodeInterpreter(provider llm.Provider, retry llm.RetryConfig, engine *rag.SimpleEngine, projectPath, indexPath string) *ensemble.Role {
	return ensemble.NewRole("David", "CodeInterpreter",
		"interpret and summarize the functionality of the code",
		ensemble.WithActions(action.NewBuildChunkIndex(provider, retry, engine, projectPath, indexPath)),
		ensemble.WithWatch(action.KindPrepareDocuments),
		ensemble.WithReactMode(ensemble.ModeByOrder),
		ensemble.WithIgnoreMemory(),
	)
}

// NewArchitect creates the pipeline role that designs the modular
// decomposition once the original chunks are interpreted and indexed. The
// design is saved as a workspace document.
func NewArchitect(provider llm.Provider, retry llm.RetryConfig, engine rag.Engine, docs *store.DocumentStore) *ensemble.Role {
	return ensemble.NewRole("Bob", "Architect",
		"design a modular, scalable, and maintainable architecture that decomposes the original code into independent components",
		ensemble.WithActions(action.NewWriteDesign(provider, retry, engine, docs)),
		ensemble.WithWatch(action.KindInterpretCode),
		ensemble.WithReactMode(ensemble.ModeByOrder),
		ensemble.WithIgnoreMemory(),
	)
}

// NewProjectManager creates the pipeline role that consolidates the
// architect's file list into a prioritized task list.
func NewProjectManager(provider llm.Provider, retry llm.RetryConfig, docs *store.DocumentStore) *ensemble.Role {
	return ensemble.NewRole("Eve", "Project Manager",
		"consolidate the modularized file list into a coherent, prioritized set of tasks",
		ensemble.WithActions(action.NewWriteTasks(provider, retry, docs)),
		ensemble.WithWatch(action.KindWriteDesign),
		ensemble.WithReactMode(ensemble.ModeByOrder),
		ensemble.WithIgnoreMemory(),
	)
}

// NewEvaluationInitializer creates the pipeline role that builds the
// retrieval index over the modularized project files.
func NewEvaluationInitializer(engine *rag.SimpleEngine, projectPath, indexPath string) *ensemble.Role {
	return ensemble.NewRole("Kelvin", "Evaluation_Initializer",
		"build the retrieval index over the modularized files",
		ensemble.WithActions(action.NewPrepareEvaluationIndex(engine, projectPath, indexPath)),
		ensemble.WithWatch(schema.KindUserRequirement),
		ensemble.WithReactMode(ensemble.ModeByOrder),
		ensemble.WithIgnoreMemory(),
	)
}

// NewInspector creates the pipeline role that drives the per-chunk
// evaluation once the index is ready.
func NewInspector(runner action.ChunkRunner) *ensemble.Role {
	return ensemble.NewRole("Galvin", "Inspector",
		"pair original chunks with their modularized counterparts and run the evaluation",
		ensemble.WithActions(action.NewInspectChunk(runner)),
		ensemble.WithWatch(action.KindPrepareEvaluationIndex),
		ensemble.WithReactMode(ensemble.ModeByOrder),
		ensemble.WithIgnoreMemory(),
	)
}
