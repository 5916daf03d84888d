package debate

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/modeval/modeval/internal/action"
	"github.com/modeval/modeval/internal/ensemble"
	"github.com/modeval/modeval/internal/llm"
	"github.com/modeval/modeval/internal/rag"
	"github.com/modeval/modeval/internal/schema"
	"github.com/modeval/modeval/internal/store"
)

// ChunkResult is the outcome of evaluating a single original chunk.
type ChunkResult struct {
	Chunk string
	Score int
	Err   error
}

// Report aggregates the per-chunk scores into a final percentage.
type Report struct {
	Chunks     []ChunkResult
	Total      int
	Possible   int
	Percentage float64
}

// String renders the report for logs and final output.
func (r *Report) String() string {
	var b strings.Builder
	for i, c := range r.Chunks {
		if c.Err != nil {
			fmt.Fprintf(&b, "chunk %d: failed: %v\n", i+1, c.Err)
			continue
		}
		fmt.Fprintf(&b, "chunk %d: %d points\n", i+1, c.Score)
	}
	fmt.Fprintf(&b, "Evaluation completed | Evaluation score: %.2f%%", r.Percentage)
	return b.String()
}

// ChunkEvaluator runs the full evaluation pipeline: for every chunk of the
// original code it retrieves the matching modularized code, stages a debate
// between two evaluators and a reviewer, then hands the discussion to a
// summarizer and scorer pair for the numeric verdict.
type ChunkEvaluator struct {
	original    rag.Engine
	modularized rag.Engine
	provider    llm.Provider
	retry       llm.RetryConfig
	docs        *store.DocumentStore
	rounds      int
	investment  float64
	log         *logrus.Logger
}

// NewChunkEvaluator wires the evaluation pipeline. rounds caps each debate;
// docs may be nil to skip summary persistence.
func NewChunkEvaluator(original, modularized rag.Engine, provider llm.Provider, retry llm.RetryConfig, docs *store.DocumentStore, rounds int) *ChunkEvaluator {
	return &ChunkEvaluator{
		original:    original,
		modularized: modularized,
		provider:    provider,
		retry:       retry,
		docs:        docs,
		rounds:      rounds,
		investment:  10.0,
		log:         logrus.New(),
	}
}

// SetLogger replaces the evaluator logger.
func (c *ChunkEvaluator) SetLogger(log *logrus.Logger) {
	c.log = log
}

// EvaluateAll evaluates every original chunk and returns the rendered
// aggregate report. A failed chunk scores zero and the pipeline moves on;
// EvaluateAll fails only when the context dies or no chunk can be scored.
func (c *ChunkEvaluator) EvaluateAll(ctx context.Context) (string, error) {
	report, err := c.Evaluate(ctx)
	if err != nil {
		return "", err
	}
	return report.String(), nil
}

// Evaluate runs the pipeline and returns the structured report.
func (c *ChunkEvaluator) Evaluate(ctx context.Context) (*Report, error) {
	chunks := c.original.Documents()
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no chunks to evaluate")
	}

	report := &Report{Possible: len(chunks) * len(EvaluationStandards)}
	scored := 0
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		score, err := c.evaluateChunk(ctx, chunk.Content)
		result := ChunkResult{Chunk: chunk.Content, Score: score, Err: err}
		if err != nil {
			c.log.WithField("chunk", i+1).WithError(err).Error("Chunk evaluation failed")
		} else {
			scored++
			report.Total += score
		}
		report.Chunks = append(report.Chunks, result)
	}
	if scored == 0 {
		return nil, fmt.Errorf("all %d chunk evaluations failed", len(chunks))
	}

	report.Percentage = float64(report.Total) / float64(report.Possible) * 100
	c.log.WithFields(logrus.Fields{
		"chunks": len(chunks),
		"score":  fmt.Sprintf("%.2f%%", report.Percentage),
	}).Info("Evaluation completed")
	return report, nil
}

// evaluateChunk debates one chunk and extracts its score.
func (c *ChunkEvaluator) evaluateChunk(ctx context.Context, content string) (int, error) {
	results, err := c.modularized.Retrieve(ctx,
		"Please find relative file correspond to the following code ##code content:("+content+")")
	if err != nil {
		return 0, fmt.Errorf("failed to retrieve modularized code: %w", err)
	}

	debateContext := c.renderDebateContext(content, results)

	discussion, err := c.runDebate(ctx, debateContext)
	if err != nil {
		return 0, err
	}

	verdict, err := c.runWrapup(ctx, discussion)
	if err != nil {
		return 0, err
	}
	return ExtractScore(verdict)
}

// renderDebateContext pairs the original chunk with its retrieved
// modularized counterparts. The interpretation appended at indexing time is
// stripped so the debate sees only the code.
func (c *ChunkEvaluator) renderDebateContext(content string, results []rag.Result) string {
	original := content
	if idx := strings.Index(original, action.ExplanationMarker); idx >= 0 {
		original = original[:idx]
	}

	modularized := make([]string, 0, len(results))
	for _, r := range results {
		modularized = append(modularized, r.Text)
	}

	return fmt.Sprintf(`## original code before modularization:
%s

## modularized code:
#%s`, original, strings.Join(modularized, "    #"))
}

// runDebate stages the adversarial evaluation and returns the last message
// of the discussion.
func (c *ChunkEvaluator) runDebate(ctx context.Context, debateContext string) (string, error) {
	team := ensemble.NewTeam("Code modularization evaluation")
	team.SetLogger(c.log)
	team.Invest(c.investment)

	err := team.Hire(
		NewEvaluator("Bob", ProfileBob, "Alice", "Alice", c.provider, c.retry),
		NewEvaluator("Alice", ProfileAlice, "Bob", "Charlie", c.provider, c.retry),
		NewReviewer("Charlie", ProfileCharlie, "Bob", c.provider, c.retry),
	)
	if err != nil {
		return "", err
	}

	result, err := team.Run(ctx, c.rounds, debateContext, schema.To("Bob"))
	if err != nil {
		return "", err
	}
	if len(result.Failures) > 0 {
		merr := &ensemble.MultiError{}
		for _, f := range result.Failures {
			merr.Add(f.Err)
		}
		return "", fmt.Errorf("debate incomplete: %w", merr)
	}
	return result.Final, nil
}

// runWrapup hands the discussion to the summarizer and scorer pair.
func (c *ChunkEvaluator) runWrapup(ctx context.Context, discussion string) (string, error) {
	team := ensemble.NewTeam("Code modularization evaluation wrap-up")
	team.SetLogger(c.log)
	team.Invest(c.investment)

	err := team.Hire(
		NewSummarizer("Sarah", ProfileSarah, "Steven", c.provider, c.retry, c.docs),
		NewScorer("Steven", ProfileSteven, c.provider, c.retry),
	)
	if err != nil {
		return "", err
	}

	result, err := team.Run(ctx, 2, discussion, schema.To("Sarah"))
	if err != nil {
		return "", err
	}
	if len(result.Failures) > 0 {
		merr := &ensemble.MultiError{}
		for _, f := range result.Failures {
			merr.Add(f.Err)
		}
		return "", fmt.Errorf("wrap-up incomplete: %w", merr)
	}
	return result.Final, nil
}
