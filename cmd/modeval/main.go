// Command modeval runs the multi-agent modularization evaluation pipeline.
//
// The modularization mode prepares the project documents and builds the
// interpreted chunk index over the original code. The evaluation mode
// indexes the modularized project and stages an adversarial debate per
// chunk, printing the aggregate score.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/modeval/modeval/internal/config"
	"github.com/modeval/modeval/internal/debate"
	"github.com/modeval/modeval/internal/ensemble"
	"github.com/modeval/modeval/internal/llm"
	"github.com/modeval/modeval/internal/rag"
	"github.com/modeval/modeval/internal/schema"
	"github.com/modeval/modeval/internal/store"
)

const appVersion = "0.1.0"

// Index filenames under the workspace path.
const (
	chunkIndexFile = "rag_engine.json"
	evalIndexFile  = "eval_rag_engine.json"
)

var (
	configFile       = flag.String("config", "", "Path to configuration file (YAML)")
	projectPath      = flag.String("project-path", "", "Override the project directory under evaluation")
	idea             = flag.String("idea", "", "Requirement or instruction that seeds the run")
	mode             = flag.String("mode", "evaluation", "Pipeline to run: modularization or evaluation")
	investment       = flag.Float64("investment", 0, "Override the advisory budget")
	totalRounds      = flag.Int("total-rounds", 0, "Override the outer pipeline round cap")
	evaluationRounds = flag.Int("evaluation-rounds", 0, "Override the per-debate round cap")
	initConfig       = flag.String("init-config", "", "Write a default configuration file to the given path and exit")
	showVersion      = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if *showVersion {
		fmt.Printf("modeval %s\n", appVersion)
		return
	}

	if *initConfig != "" {
		if err := config.InitConfigFile(*initConfig); err != nil {
			logger.WithError(err).Fatal("Failed to write configuration file")
		}
		logger.WithField("path", *initConfig).Info("Configuration file written")
		return
	}

	if err := run(logger); err != nil {
		logger.WithError(err).Fatal("Run failed")
	}
}

func run(logger *logrus.Logger) error {
	cfg, err := config.LoadRunConfig(*configFile)
	if err != nil {
		return err
	}
	applyFlagOverrides(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider := llm.NewOpenAIProvider(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model)
	docs, err := store.NewDocumentStore(cfg.WorkspacePath)
	if err != nil {
		return err
	}

	switch *mode {
	case "modularization":
		return runModularization(ctx, logger, cfg, provider, docs)
	case "evaluation":
		return runEvaluation(ctx, logger, cfg, provider, docs)
	default:
		return fmt.Errorf("unknown mode %q (want modularization or evaluation)", *mode)
	}
}

// applyFlagOverrides lets command-line flags win over file and environment.
func applyFlagOverrides(cfg *config.RunConfig) {
	if *projectPath != "" {
		cfg.ProjectPath = *projectPath
	}
	if *investment > 0 {
		cfg.Investment = *investment
	}
	if *totalRounds > 0 {
		cfg.TotalRounds = *totalRounds
	}
	if *evaluationRounds > 0 {
		cfg.EvaluationRounds = *evaluationRounds
	}
}

// runModularization prepares the project documents, indexes the original
// code with per-chunk interpretations, and produces the modular design and
// its implementation task list.
func runModularization(ctx context.Context, logger *logrus.Logger, cfg *config.RunConfig, provider llm.Provider, docs *store.DocumentStore) error {
	requirement := *idea
	if requirement == "" {
		requirement = "Modularize the project at " + cfg.ProjectPath
	}

	chunks := rag.NewSimpleEngine(cfg.Search)
	team := ensemble.NewTeam("Software modularization company")
	team.SetLogger(logger)
	team.Invest(cfg.Investment)
	metered := meterSpend(provider, team, cfg)

	err := team.Hire(
		debate.NewInitializer(docs, requirement),
		debate.NewCodeInterpreter(metered, cfg.LLM.Retry, chunks, cfg.ProjectPath,
			filepath.Join(cfg.WorkspacePath, chunkIndexFile)),
		debate.NewArchitect(metered, cfg.LLM.Retry, chunks, docs),
		debate.NewProjectManager(metered, cfg.LLM.Retry, docs),
	)
	if err != nil {
		return err
	}

	result, err := team.Run(ctx, cfg.TotalRounds, requirement, schema.Broadcast())
	if err != nil {
		return err
	}
	reportFailures(logger, result)
	fmt.Println(result.Final)
	return nil
}

// runEvaluation pairs the interpreted chunk index with a fresh index over
// the modularized project and runs the debate pipeline.
func runEvaluation(ctx context.Context, logger *logrus.Logger, cfg *config.RunConfig, provider llm.Provider, docs *store.DocumentStore) error {
	chunks, err := rag.FromIndex(filepath.Join(cfg.WorkspacePath, chunkIndexFile), cfg.Search)
	if err != nil {
		return fmt.Errorf("chunk index missing, run -mode modularization first: %w", err)
	}
	modularized := rag.NewSimpleEngine(cfg.Search)

	requirement := *idea
	if requirement == "" {
		requirement = "Evaluate the modularization of " + cfg.ProjectPath
	}

	team := ensemble.NewTeam("Code modularization evaluation company")
	team.SetLogger(logger)
	team.Invest(cfg.Investment)

	runner := debate.NewChunkEvaluator(chunks, modularized, meterSpend(provider, team, cfg),
		cfg.LLM.Retry, docs, cfg.EvaluationRounds)
	runner.SetLogger(logger)

	err = team.Hire(
		debate.NewEvaluationInitializer(modularized, cfg.ProjectPath,
			filepath.Join(cfg.WorkspacePath, evalIndexFile)),
		debate.NewInspector(runner),
	)
	if err != nil {
		return err
	}

	result, err := team.Run(ctx, cfg.TotalRounds, requirement, schema.Broadcast())
	if err != nil {
		return err
	}
	reportFailures(logger, result)
	fmt.Println(result.Final)
	return nil
}

// meterSpend wraps the provider so every model call charges its estimated
// token cost against the team's advisory budget.
func meterSpend(provider llm.Provider, team *ensemble.Team, cfg *config.RunConfig) llm.Provider {
	return llm.NewMeteredProvider(provider, func(tokens int) {
		team.RecordCost(float64(tokens) / 1000 * cfg.LLM.CostPer1KTokens)
	})
}

func reportFailures(logger *logrus.Logger, result *ensemble.RunResult) {
	for _, f := range result.Failures {
		logger.WithFields(logrus.Fields{
			"round": f.Round,
			"agent": f.Agent,
		}).WithError(f.Err).Warn("Agent turn failed during run")
	}
}
