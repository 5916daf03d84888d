package action

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/modeval/modeval/internal/llm"
	"github.com/modeval/modeval/internal/rag"
	"github.com/modeval/modeval/internal/store"
)

const speakTemplate = `## BACKGROUND
Suppose you are {{.Name}}, you are reviewing the modularization work produced by AI together with {{.OpponentName}}, and together you should evaluate the work against a set of standards.

## CONTEXT
{{.Context}}

## YOUR TURN
Now it is your turn. First review your opponent's arguments (if any), then state your position, defend your arguments, and attack your opponent's arguments (if any).

Look closely at the code and give the work a fair, explicit evaluation for each of the following standards:

{{.NumberedStandards}}

Include as much detail as possible, and take different perspectives from your opponent's arguments to make your evaluation more comprehensive. Do not copy your opponent's arguments; make your evaluation unique and persuasive.`

const reviewTemplate = `## BACKGROUND
Suppose you are {{.Name}}, you are reviewing the discussion between two people about the modularization work done by AI.

## DEBATE HISTORY
Previous rounds:
{{.Context}}

## ACTION
Give your opinion on the discussion according to the conversation history, and provide feedback to the debaters. Keep the discussion result for every evaluation standard as part of your review.`

const summarizeTemplate = `## BACKGROUND
Suppose you are {{.Name}}, you are reviewing the modularization scoring discussion of your team mates.

## CONTEXT
{{.Context}}

## YOUR TURN
Now it is your turn. Summarize the discussion and give each scoring standard your final answer. According to the level of satisfaction of each scoring standard, give a score of 0 or 1.`

const scoreTemplate = `## CONTEXT
{{.Context}}

## ACTION
According to the final evaluation, sum up the score of every evaluation standard and calculate the total score of the modularization work, responding with the final value of the score at the end of your answer.

## FORMAT
Give your final answer in this format: 'The total score of the modularization work is: xx'`

const interpretTemplate = `## CODE
{{.Context}}

## ACTION
Explain what this part of the code does: its purpose, its inputs and outputs, and any side effects. Keep the explanation tied to the code so it can later be paired with a modularized version of the same functionality.`

const designTemplate = `## BACKGROUND
Suppose you are a software architect decomposing a monolithic project into independent modules.

## CODE CHUNKS
{{.Chunks}}

## ACTION
Understand and analyze the difficult points of decomposing this project into smaller modules, and select appropriate open source libraries to facilitate the modularization. Then provide your design clearly and in detail:

- Decompose Implementation approach: the decomposition strategy and the libraries it relies on.
- File list: only relative paths, one module per coherent responsibility.
- Data structures and interfaces: mermaid classDiagram code syntax, including classes, methods, and functions with type annotations.
- Program call flow: mermaid sequenceDiagram code syntax, complete and very detailed, using the classes and interfaces defined above.

Keep the architecture simple and make sure no functionality from the original code is lost or omitted.`

const tasksTemplate = `## SYSTEM DESIGN
{{.Design}}

## ACTION
Integrate the decomposed files from the design's file list. Review each file's information carefully to identify and combine files with overlapping or similar functionalities, ensuring no functionality is lost or omitted. Then provide:

- Required packages: third-party dependencies in requirements.txt format.
- Logic analysis: a list of files with the classes, methods, and functions to be implemented in each.
- Task list: the filenames prioritized by dependency order.
- Shared knowledge: common utility functions or configuration variables used across modules.
- Anything unclear: open points in the design that need clarification.`

// NewSpeak creates the adversarial evaluation action used by evaluators.
func NewSpeak(provider llm.Provider, retry llm.RetryConfig) *Action {
	return newPromptAction(KindSpeak, provider, retry, speakTemplate)
}

// NewReview creates the synthesis action used by the reviewer.
func NewReview(provider llm.Provider, retry llm.RetryConfig) *Action {
	return newPromptAction(KindReview, provider, retry, reviewTemplate)
}

// NewSummarize creates the per-criterion judgment action used by the
// summarizer. When docs is non-nil the summary is also saved under
// eval_summarizations with a timestamped filename.
func NewSummarize(provider llm.Provider, retry llm.RetryConfig, docs *store.DocumentStore) *Action {
	a := newPromptAction(KindSummarize, provider, retry, summarizeTemplate)
	if docs != nil {
		a.after = func(ctx context.Context, response string) error {
			filename := filepath.Join("eval_summarizations",
				fmt.Sprintf("summary_%s.md", time.Now().Format("2006-01-02T15-04-05")))
			if _, err := docs.Save(filename, response); err != nil {
				return fmt.Errorf("failed to save summary: %w", err)
			}
			return nil
		}
	}
	return a
}

// NewScore creates the terminal scoring action used by the scorer.
func NewScore(provider llm.Provider, retry llm.RetryConfig) *Action {
	return newPromptAction(KindScore, provider, retry, scoreTemplate)
}

// NewInterpretCode creates the code interpretation action.
func NewInterpretCode(provider llm.Provider, retry llm.RetryConfig) *Action {
	return newPromptAction(KindInterpretCode, provider, retry, interpretTemplate)
}

// NewPrepareDocuments creates the action that seeds the document store with
// the predefined requirement document.
func NewPrepareDocuments(docs *store.DocumentStore, requirement string) *Action {
	return &Action{
		kind: KindPrepareDocuments,
		prepare: func(ctx context.Context) (string, error) {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			if _, err := docs.Save(prdFilename, requirement); err != nil {
				return "", fmt.Errorf("failed to prepare documents: %w", err)
			}
			return "Project documents prepared: docs/prd.md", nil
		},
	}
}

// sourceExtensions are the file types indexed by NewPrepareEvaluationIndex.
var sourceExtensions = map[string]bool{
	".py": true, ".go": true, ".js": true, ".ts": true,
	".java": true, ".rb": true, ".rs": true, ".c": true, ".cpp": true,
}

// NewPrepareEvaluationIndex creates the action that builds the retrieval
// index over the modularized project files and persists it.
func NewPrepareEvaluationIndex(engine *rag.SimpleEngine, projectPath, indexPath string) *Action {
	return &Action{
		kind: KindPrepareEvaluationIndex,
		prepare: func(ctx context.Context) (string, error) {
			indexed := 0
			err := filepath.Walk(projectPath, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				if info.IsDir() || !sourceExtensions[strings.ToLower(filepath.Ext(path))] {
					return nil
				}
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				rel, err := filepath.Rel(projectPath, path)
				if err != nil {
					rel = path
				}
				engine.Add(string(data), map[string]string{"file": rel})
				indexed++
				return nil
			})
			if err != nil {
				return "", fmt.Errorf("failed to index project %s: %w", projectPath, err)
			}
			if err := engine.Persist(indexPath); err != nil {
				return "", err
			}
			return fmt.Sprintf("Evaluation index built: %d files from %s", indexed, projectPath), nil
		},
	}
}

// Design stage artifacts under the document store.
var (
	prdFilename    = filepath.Join("docs", "prd.md")
	designFilename = filepath.Join("docs", "system_design.md")
	tasksFilename  = filepath.Join("docs", "project_tasks.md")
)

// NewWriteDesign creates the action that turns the interpreted chunk index
// into a modular system design and saves it as a workspace document
// depending on the requirement document.
func NewWriteDesign(provider llm.Provider, retry llm.RetryConfig, engine rag.Engine, docs *store.DocumentStore) *Action {
	tmpl := mustTemplate(KindWriteDesign, designTemplate)
	return &Action{
		kind: KindWriteDesign,
		prepare: func(ctx context.Context) (string, error) {
			chunks := engine.Documents()
			if len(chunks) == 0 {
				return "", fmt.Errorf("no interpreted chunks to design from")
			}

			var sb strings.Builder
			for i, chunk := range chunks {
				fmt.Fprintf(&sb, "### chunk %d\n%s\n\n", i+1, chunk.Content)
			}
			var buf strings.Builder
			if err := tmpl.Execute(&buf, struct{ Chunks string }{sb.String()}); err != nil {
				return "", fmt.Errorf("failed to render design prompt: %w", err)
			}

			rsp, err := llm.AskWithRetry(ctx, provider, retry, buf.String())
			if err != nil {
				return "", err
			}
			if _, err := docs.Save(designFilename, rsp, prdFilename); err != nil {
				return "", fmt.Errorf("failed to save system design: %w", err)
			}
			return rsp, nil
		},
	}
}

// NewWriteTasks creates the action that consolidates the system design's
// file list into a prioritized implementation task list.
func NewWriteTasks(provider llm.Provider, retry llm.RetryConfig, docs *store.DocumentStore) *Action {
	tmpl := mustTemplate(KindWriteTasks, tasksTemplate)
	return &Action{
		kind: KindWriteTasks,
		prepare: func(ctx context.Context) (string, error) {
			design, err := docs.Get(designFilename)
			if err != nil {
				return "", fmt.Errorf("system design missing: %w", err)
			}

			var buf strings.Builder
			if err := tmpl.Execute(&buf, struct{ Design string }{design.Content}); err != nil {
				return "", fmt.Errorf("failed to render tasks prompt: %w", err)
			}

			rsp, err := llm.AskWithRetry(ctx, provider, retry, buf.String())
			if err != nil {
				return "", err
			}
			if _, err := docs.Save(tasksFilename, rsp, designFilename); err != nil {
				return "", fmt.Errorf("failed to save task list: %w", err)
			}
			return rsp, nil
		},
	}
}

// ExplanationMarker separates a chunk's code from the interpretation
// appended at indexing time. Retrieval queries see both; the debate context
// strips everything after the marker.
const ExplanationMarker = "##The following is the explaination of this part of code:"

// NewBuildChunkIndex creates the action that interprets every source file of
// the original project and indexes code plus interpretation for later
// pairing with the modularized version.
func NewBuildChunkIndex(provider llm.Provider, retry llm.RetryConfig, engine *rag.SimpleEngine, projectPath, indexPath string) *Action {
	tmpl := mustTemplate(KindInterpretCode, interpretTemplate)
	return &Action{
		kind: KindInterpretCode,
		prepare: func(ctx context.Context) (string, error) {
			indexed := 0
			err := filepath.Walk(projectPath, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if info.IsDir() || !sourceExtensions[strings.ToLower(filepath.Ext(path))] {
					return nil
				}
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				code := string(data)

				var buf strings.Builder
				if err := tmpl.Execute(&buf, Context{Context: code}); err != nil {
					return fmt.Errorf("failed to render interpretation prompt: %w", err)
				}
				rsp, err := llm.AskWithRetry(ctx, provider, retry, buf.String())
				if err != nil {
					return err
				}

				rel, err := filepath.Rel(projectPath, path)
				if err != nil {
					rel = path
				}
				engine.Add(code+"\n"+ExplanationMarker+rsp, map[string]string{"file": rel})
				indexed++
				return nil
			})
			if err != nil {
				return "", fmt.Errorf("failed to interpret project %s: %w", projectPath, err)
			}
			if err := engine.Persist(indexPath); err != nil {
				return "", err
			}
			return fmt.Sprintf("Chunk index built: %d files from %s", indexed, projectPath), nil
		},
	}
}

// NewInspectChunk creates the action that drives the full per-chunk
// evaluation through the supplied runner.
func NewInspectChunk(runner ChunkRunner) *Action {
	return &Action{
		kind:   KindInspectChunk,
		runner: runner,
	}
}
