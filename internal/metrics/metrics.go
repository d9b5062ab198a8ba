// Package metrics registers the bot's Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Command outcomes
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var (
	commandsHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scrimbot_commands_total",
		Help: "Slash commands handled, by command and outcome",
	}, []string{"command", "outcome"})

	balanceRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scrimbot_balance_runs_total",
		Help: "Balance searches run, by mode",
	}, []string{"mode"})

	balanceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scrimbot_balance_duration_seconds",
		Help:    "Duration of balance searches",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	}, []string{"mode"})

	scrimsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scrimbot_scrims_recorded_total",
		Help: "Scrim results written to the store",
	})

	voiceMinutes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scrimbot_voice_minutes_total",
		Help: "Eligible voice minutes accrued across all members",
	})

	jobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scrimbot_job_runs_total",
		Help: "Scheduled job runs, by job and outcome",
	}, []string{"job", "outcome"})
)

// CommandHandled counts a slash command invocation
func CommandHandled(command string, err error) {
	commandsHandled.WithLabelValues(command, outcome(err)).Inc()
}

// BalanceRun records a balance search in mode that took elapsed
func BalanceRun(mode string, elapsed time.Duration) {
	balanceRuns.WithLabelValues(mode).Inc()
	balanceDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// ScrimRecorded counts a stored scrim result
func ScrimRecorded() {
	scrimsRecorded.Inc()
}

// VoiceMinutes adds accrued member minutes
func VoiceMinutes(minutes float64) {
	if minutes > 0 {
		voiceMinutes.Add(minutes)
	}
}

// JobRun counts a scheduled job run
func JobRun(job string, err error) {
	jobRuns.WithLabelValues(job, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
