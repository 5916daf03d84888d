package ensemble

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsOnce sync.Once

	messagesPublished prometheus.Counter
	roundsTotal       prometheus.Counter
	turnFailures      prometheus.Counter
	idleTerminations  prometheus.Counter
)

func initMetrics() {
	metricsOnce.Do(func() {
		messagesPublished = promauto.NewCounter(prometheus.CounterOpts{
			Name: "modeval_messages_published_total",
			Help: "Total messages appended to the shared bus history.",
		})
		roundsTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "modeval_rounds_total",
			Help: "Total scheduler rounds executed across all runs.",
		})
		turnFailures = promauto.NewCounter(prometheus.CounterOpts{
			Name: "modeval_turn_failures_total",
			Help: "Total agent turns that ended in an action error.",
		})
		idleTerminations = promauto.NewCounter(prometheus.CounterOpts{
			Name: "modeval_idle_terminations_total",
			Help: "Total runs terminated early because no agent observed news.",
		})
	})
}
