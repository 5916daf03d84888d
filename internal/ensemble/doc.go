// Package ensemble implements the multi-agent message-passing orchestrator.
//
// An Environment holds the agent roster and the shared append-only message
// history. Roles observe the history through a per-agent cursor, filter it
// by their subscribed action kinds (and, for targeted roles, by addressee),
// and execute their current action when new relevant messages exist. A Team
// drives synchronized rounds over the roster until the requested round count
// is reached or a round passes with no agent reporting work.
//
// # Scheduling model
//
// Dispatch within a round is sequential in hire order. A message is
// published immediately after its producing agent's action completes, so an
// agent acting later in the same round sees the outputs of earlier agents.
// History order is publish order and is deterministic.
//
// # Reaction modes
//
//   - ModeReact: the role keeps executing its single current action whenever
//     observation reports news.
//   - ModeByOrder: the role consumes its registered actions strictly in
//     sequence, one per successful turn, never revisiting a prior action;
//     after the last action it is permanently idle.
//
// # Error model
//
// Duplicate registration and unknown addressees are scheduler-level failures
// and abort the run. A failing action fails only that agent's turn; the
// round continues and the failure is aggregated into the run report, so
// partial progress already published by other agents is retained.
package ensemble
