package ensemble

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modeval/modeval/internal/action"
	"github.com/modeval/modeval/internal/llm"
	"github.com/modeval/modeval/internal/schema"
)

func noRetry() llm.RetryConfig {
	return llm.RetryConfig{MaxRetries: 0}
}

func speaker(name schema.AgentID, rsp string, opts ...RoleOption) *Role {
	provider := llm.NewScriptedProvider("scripted", rsp)
	base := []RoleOption{
		WithActions(action.NewSpeak(provider, noRetry())),
		WithWatch(schema.KindUserRequirement, action.KindSpeak),
	}
	return NewRole(name, "Debater", "argue the position", append(base, opts...)...)
}

func TestHireDuplicateLeavesRosterUnchanged(t *testing.T) {
	team := NewTeam("debate")
	require.NoError(t, team.Hire(speaker("Bob", "hi")))

	err := team.Hire(speaker("Bob", "again"))
	require.Error(t, err)
	assert.True(t, IsDuplicateAgent(err))
	assert.Equal(t, []schema.AgentID{"Bob"}, team.Env().Roster())
}

func TestPublishUnknownAddresseeFails(t *testing.T) {
	env := NewEnvironment("debate")
	require.NoError(t, env.Register(speaker("Bob", "hi")))

	msg := schema.NewMessage("hello", "user", schema.KindUserRequirement, schema.UserID, schema.To("Nobody"))
	err := env.Publish(msg)
	require.Error(t, err)
	assert.True(t, IsSubscriptionMismatch(err))
	assert.Empty(t, env.History())
}

func TestRunIdleWhenNobodySubscribes(t *testing.T) {
	team := NewTeam("debate")
	bob := NewRole("Bob", "Reviewer", "review arguments",
		WithActions(action.NewReview(llm.NewScriptedProvider("scripted", "unused"), noRetry())),
		WithWatch(action.KindSpeak),
	)
	require.NoError(t, team.Hire(bob))

	result, err := team.Run(context.Background(), 5, "Topic: AI licensing", schema.Broadcast())
	require.NoError(t, err)
	assert.True(t, result.Idle)
	assert.Equal(t, 1, result.Rounds)
	assert.Len(t, result.History, 1)
}

func TestRunEmptyIdeaRejected(t *testing.T) {
	team := NewTeam("debate")
	_, err := team.Run(context.Background(), 3, "", schema.Broadcast())
	require.Error(t, err)
}

func TestRunTargetedChainSingleRound(t *testing.T) {
	// Bob answers the seed toward Alice, Alice answers toward Charlie,
	// Charlie reviews toward Bob. The review kind is outside Bob's
	// subscriptions, so round two has no news.
	team := NewTeam("debate")
	charlie := NewRole("Charlie", "Reviewer", "review the exchange",
		WithActions(action.NewReview(llm.NewScriptedProvider("scripted", "Charlie's verdict"), noRetry())),
		WithWatch(action.KindSpeak),
		WithTargetedDelivery(),
		WithSendTo(schema.To("Bob")),
	)
	require.NoError(t, team.Hire(
		speaker("Bob", "Bob's opening", WithTargetedDelivery(), WithSendTo(schema.To("Alice"))),
		speaker("Alice", "Alice's rebuttal", WithTargetedDelivery(), WithSendTo(schema.To("Charlie"))),
		charlie,
	))

	result, err := team.Run(context.Background(), 4, "Topic: climate policy", schema.To("Bob"))
	require.NoError(t, err)
	require.Empty(t, result.Failures)

	// Publication is immediate: Alice sees Bob's message within the same
	// round, so all three act in round one and round two is idle.
	assert.True(t, result.Idle)
	assert.Equal(t, 2, result.Rounds)
	require.Len(t, result.History, 4)
	assert.Equal(t, schema.UserID, result.History[0].SentFrom)
	assert.Equal(t, schema.AgentID("Bob"), result.History[1].SentFrom)
	assert.Equal(t, schema.AgentID("Alice"), result.History[2].SentFrom)
	assert.Equal(t, schema.AgentID("Charlie"), result.History[3].SentFrom)
	assert.Equal(t, "Charlie's verdict", result.Final)
}

func TestObserveIsMonotonic(t *testing.T) {
	env := NewEnvironment("debate")
	bob := speaker("Bob", "hi")
	require.NoError(t, env.Register(bob))
	require.NoError(t, env.Publish(schema.NewUserRequirement("topic", schema.Broadcast())))

	assert.Equal(t, 1, bob.Observe())
	assert.Equal(t, 0, bob.Observe())

	require.NoError(t, env.Publish(schema.NewMessage("more", "Debater", action.KindSpeak, "Alice", schema.Broadcast())))
	assert.Equal(t, 1, bob.Observe())
}

func TestObserveIgnoreMemoryRescansHistory(t *testing.T) {
	env := NewEnvironment("pipeline")
	bob := speaker("Bob", "hi", WithIgnoreMemory())
	require.NoError(t, env.Register(bob))
	require.NoError(t, env.Publish(schema.NewUserRequirement("topic", schema.Broadcast())))

	assert.Equal(t, 1, bob.Observe())
	assert.Equal(t, 1, bob.Observe())
	assert.Zero(t, bob.Memory().Len(), "ignore-memory roles do not accumulate observations")
}

func TestObserveFiltersBySubscriptionAndAddressee(t *testing.T) {
	env := NewEnvironment("debate")
	bob := speaker("Bob", "hi", WithTargetedDelivery())
	require.NoError(t, env.Register(bob))
	require.NoError(t, env.Register(speaker("Alice", "hi")))

	// Wrong kind, right target.
	require.NoError(t, env.Publish(schema.NewMessage("r", "Reviewer", action.KindReview, "Alice", schema.To("Bob"))))
	// Right kind, wrong target.
	require.NoError(t, env.Publish(schema.NewMessage("s", "Debater", action.KindSpeak, "Alice", schema.To("Alice"))))
	assert.Equal(t, 0, bob.Observe())

	// Right kind, broadcast reaches everyone.
	require.NoError(t, env.Publish(schema.NewMessage("s", "Debater", action.KindSpeak, "Alice", schema.Broadcast())))
	assert.Equal(t, 1, bob.Observe())
}

func TestByOrderRoleExhaustsActions(t *testing.T) {
	provider := llm.NewScriptedProvider("scripted", "first", "second")
	role := NewRole("Eve", "Pipeline", "run stages",
		WithActions(
			action.NewSpeak(provider, noRetry()),
			action.NewScore(provider, noRetry()),
		),
		WithWatch(schema.KindUserRequirement),
		WithReactMode(ModeByOrder),
		WithIgnoreMemory(),
	)
	env := NewEnvironment("pipeline")
	require.NoError(t, env.Register(role))
	require.NoError(t, env.Publish(schema.NewUserRequirement("go", schema.Broadcast())))

	ctx := context.Background()
	require.Equal(t, 1, role.Observe())
	msg, err := role.Act(ctx)
	require.NoError(t, err)
	assert.Equal(t, action.KindSpeak, msg.CauseBy)

	require.Equal(t, 1, role.Observe())
	msg, err = role.Act(ctx)
	require.NoError(t, err)
	assert.Equal(t, action.KindScore, msg.CauseBy)

	assert.Equal(t, 0, role.Observe(), "exhausted roles observe nothing")
}

type erringProvider struct{}

func (erringProvider) Name() string { return "erring" }

func (erringProvider) Ask(ctx context.Context, prompt string, systemMsgs ...string) (string, error) {
	return "", context.DeadlineExceeded
}

func TestRunCollectsTurnFailuresAndContinues(t *testing.T) {
	team := NewTeam("debate")
	broken := NewRole("Bob", "Debater", "argue",
		WithActions(action.NewSpeak(erringProvider{}, noRetry())),
		WithWatch(schema.KindUserRequirement),
	)
	alice := NewRole("Alice", "Debater", "argue",
		WithActions(action.NewSpeak(llm.NewScriptedProvider("scripted", "Alice speaks"), noRetry())),
		WithWatch(schema.KindUserRequirement),
	)
	require.NoError(t, team.Hire(broken, alice))

	result, err := team.Run(context.Background(), 3, "topic", schema.Broadcast())
	require.NoError(t, err)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, schema.AgentID("Bob"), result.Failures[0].Agent)
	assert.Equal(t, 1, result.Failures[0].Round)

	// Alice's turn went through despite Bob's failure.
	assert.Equal(t, "Alice speaks", result.Final)
}

func TestRecordCostWarnsPastBudget(t *testing.T) {
	team := NewTeam("debate")
	logger, hook := logrustest.NewNullLogger()
	team.SetLogger(logger)

	team.Invest(2.0)
	team.RecordCost(1.5)
	assert.Nil(t, hook.LastEntry().Data["cost"])

	team.RecordCost(1.0)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, 2.5, entry.Data["cost"])
}

func TestRunHonorsContextCancellation(t *testing.T) {
	team := NewTeam("debate")
	require.NoError(t, team.Hire(speaker("Bob", "hi")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := team.Run(ctx, 3, "topic", schema.Broadcast())
	require.Error(t, err)
}
