package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCommandHandled(t *testing.T) {
	ok := commandsHandled.WithLabelValues("balance", OutcomeOK)
	failed := commandsHandled.WithLabelValues("balance", OutcomeError)
	beforeOK, beforeFailed := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	CommandHandled("balance", nil)
	CommandHandled("balance", errors.New("boom"))
	CommandHandled("balance", nil)

	if got := testutil.ToFloat64(ok) - beforeOK; got != 2 {
		t.Errorf("Expected 2 ok commands, got %v", got)
	}
	if got := testutil.ToFloat64(failed) - beforeFailed; got != 1 {
		t.Errorf("Expected 1 failed command, got %v", got)
	}
}

func TestBalanceRun(t *testing.T) {
	runs := balanceRuns.WithLabelValues("quick")
	before := testutil.ToFloat64(runs)

	BalanceRun("quick", 3*time.Millisecond)

	if got := testutil.ToFloat64(runs) - before; got != 1 {
		t.Errorf("Expected 1 quick run, got %v", got)
	}
	if n := testutil.CollectAndCount(balanceDuration); n == 0 {
		t.Error("Expected duration histogram to have samples")
	}
}

func TestVoiceMinutes_IgnoresNonPositive(t *testing.T) {
	before := testutil.ToFloat64(voiceMinutes)

	VoiceMinutes(2.5)
	VoiceMinutes(0)
	VoiceMinutes(-1)

	if got := testutil.ToFloat64(voiceMinutes) - before; got != 2.5 {
		t.Errorf("Expected 2.5 minutes, got %v", got)
	}
}

func TestScrimRecordedAndJobRun(t *testing.T) {
	beforeScrims := testutil.ToFloat64(scrimsRecorded)
	ScrimRecorded()
	if got := testutil.ToFloat64(scrimsRecorded) - beforeScrims; got != 1 {
		t.Errorf("Expected 1 scrim, got %v", got)
	}

	job := jobRuns.WithLabelValues("voice-accrual", OutcomeOK)
	beforeJob := testutil.ToFloat64(job)
	JobRun("voice-accrual", nil)
	if got := testutil.ToFloat64(job) - beforeJob; got != 1 {
		t.Errorf("Expected 1 job run, got %v", got)
	}
}
