package ensemble

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/modeval/modeval/internal/schema"
)

// TurnFailure records a single agent turn that ended in an action error.
type TurnFailure struct {
	Round int
	Agent schema.AgentID
	Err   error
}

// RunResult is the outcome of a scheduled run.
type RunResult struct {
	// Final is the content of the last published message, or the empty
	// string when nothing was published.
	Final string
	// History is the full ordered bus history, seed included.
	History []*schema.Message
	// Rounds is the number of rounds actually executed.
	Rounds int
	// Idle reports whether the run terminated early because a full round
	// passed with no agent observing news.
	Idle bool
	// Failures lists the turns that errored; the run continues past them.
	Failures []TurnFailure
}

// Team owns an environment and drives its roles through synchronous rounds.
type Team struct {
	env        *Environment
	investment float64
	cost       float64
	log        *logrus.Logger
}

// NewTeam creates a team around a fresh environment.
func NewTeam(desc string) *Team {
	env := NewEnvironment(desc)
	return &Team{env: env, log: env.log}
}

// SetLogger replaces the team and environment logger.
func (t *Team) SetLogger(log *logrus.Logger) {
	t.log = log
	t.env.SetLogger(log)
}

// Env returns the team's environment.
func (t *Team) Env() *Environment {
	return t.env
}

// Hire registers roles in dispatch order.
func (t *Team) Hire(roles ...*Role) error {
	for _, role := range roles {
		if err := t.env.Register(role); err != nil {
			return err
		}
	}
	return nil
}

// Invest sets the advisory budget for the run. Exceeding it is logged, never
// enforced.
func (t *Team) Invest(amount float64) {
	t.investment = amount
	t.log.WithField("investment", amount).Info("Budget set")
}

// RecordCost accumulates spend against the advisory budget.
func (t *Team) RecordCost(amount float64) {
	t.cost += amount
	if t.investment > 0 && t.cost > t.investment {
		t.log.WithFields(logrus.Fields{
			"cost":       t.cost,
			"investment": t.investment,
		}).Warn("Budget exceeded")
	}
}

// Run seeds the bus with the idea as a user requirement addressed to sendTo
// and executes up to nRound rounds. Each round dispatches every role in hire
// order: observe, then act and publish when there is news. Publication is
// immediate, so later roles in the same round see earlier roles' output.
// A round in which no role observes news terminates the run early; that idle
// round counts toward the total.
//
// Action errors are collected per turn and the run continues; publish errors
// are fatal and return the partial result alongside the error.
func (t *Team) Run(ctx context.Context, nRound int, idea string, sendTo schema.Addressee) (*RunResult, error) {
	if idea == "" {
		return nil, fmt.Errorf("empty idea")
	}

	result := &RunResult{}
	seed := schema.NewUserRequirement(idea, sendTo)
	if err := t.env.Publish(seed); err != nil {
		result.History = t.env.History()
		return result, err
	}
	t.log.WithFields(logrus.Fields{
		"idea":   idea,
		"rounds": nRound,
	}).Info("Run started")

	roster := t.env.Roster()
	for round := 1; round <= nRound; round++ {
		if err := ctx.Err(); err != nil {
			result.History = t.env.History()
			return result, err
		}
		result.Rounds = round
		roundsTotal.Inc()
		worked := false

		for _, id := range roster {
			role, ok := t.env.Role(id)
			if !ok {
				continue
			}
			if role.Observe() == 0 {
				continue
			}
			worked = true

			msg, err := role.Act(ctx)
			if err != nil {
				turnFailures.Inc()
				result.Failures = append(result.Failures, TurnFailure{
					Round: round,
					Agent: id,
					Err:   err,
				})
				t.log.WithFields(logrus.Fields{
					"round": round,
					"agent": id,
				}).WithError(err).Error("Agent turn failed")
				continue
			}
			if err := t.env.Publish(msg); err != nil {
				result.History = t.env.History()
				return result, err
			}
		}

		if !worked {
			result.Idle = true
			idleTerminations.Inc()
			t.log.WithField("round", round).Info("No news observed, run idle")
			break
		}
	}

	result.History = t.env.History()
	if n := len(result.History); n > 0 {
		result.Final = result.History[n-1].Content
	}
	t.log.WithFields(logrus.Fields{
		"rounds":   result.Rounds,
		"messages": len(result.History),
		"failures": len(result.Failures),
	}).Info("Run finished")
	return result, nil
}
