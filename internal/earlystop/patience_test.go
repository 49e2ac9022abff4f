package earlystop

import (
	"testing"

	"github.com/cwbudde/earlystop/internal/metric"
)

func TestPatienceStopsAfterStall(t *testing.T) {
	p := NewPatience(PatienceConfig{Enabled: true, Rounds: 3, MinDelta: 0.01}, metric.Minimize)

	if p.Update(1.0) {
		t.Error("First value must not stall")
	}
	for i := 0; i < 2; i++ {
		if p.Update(0.999) {
			t.Errorf("Expected no stall after %d stale rounds", i+1)
		}
	}
	if !p.Update(0.999) {
		t.Error("Expected stall after 3 stale rounds")
	}
	if p.StaleCount() != 3 {
		t.Errorf("Expected stale count 3, got %d", p.StaleCount())
	}
}

func TestPatienceResetsOnImprovement(t *testing.T) {
	p := NewPatience(PatienceConfig{Enabled: true, Rounds: 3, MinDelta: 0.01}, metric.Minimize)

	p.Update(1.0)
	if p.Update(0.999) {
		t.Error("Expected no stall after 1 stale round")
	}
	if p.StaleCount() != 1 {
		t.Errorf("Expected stale count 1, got %d", p.StaleCount())
	}

	// A 50% drop is a significant improvement and clears the stall
	if p.Update(0.5) {
		t.Error("Improvement must not stall")
	}
	if p.StaleCount() != 0 {
		t.Errorf("Expected stale count reset to 0, got %d", p.StaleCount())
	}

	p.Update(0.5)
	p.Update(0.5)
	if !p.Update(0.5) {
		t.Error("Expected stall 3 rounds after the improvement")
	}
}

func TestPatienceDisabled(t *testing.T) {
	p := NewPatience(DisabledPatienceConfig(), metric.Minimize)

	for i := 0; i < 10; i++ {
		if p.Update(1.0) {
			t.Fatalf("Disabled tracker stalled at round %d", i+1)
		}
	}
	if p.StaleCount() != 0 {
		t.Errorf("Expected stale count 0 when disabled, got %d", p.StaleCount())
	}
}

func TestPatienceMaximize(t *testing.T) {
	p := NewPatience(PatienceConfig{Enabled: true, Rounds: 2, MinDelta: 0.01}, metric.Maximize)

	p.Update(1.0)
	if p.Update(2.0) {
		t.Error("Doubling the metric must count as progress under maximize")
	}
	if p.Update(2.0) {
		t.Error("Expected no stall after 1 stale round")
	}
	if !p.Update(2.0) {
		t.Error("Expected stall after 2 stale rounds")
	}
}

func TestPatienceZeroReference(t *testing.T) {
	p := NewPatience(PatienceConfig{Enabled: true, Rounds: 1, MinDelta: 0.01}, metric.Minimize)

	p.Update(0.0)
	// With a zero reference the delta is absolute, so this counts
	if p.Update(-0.5) {
		t.Error("Improvement from zero must count as progress")
	}
	if p.StaleCount() != 0 {
		t.Errorf("Expected stale count 0, got %d", p.StaleCount())
	}
}

func TestPatienceHistory(t *testing.T) {
	p := NewPatience(DefaultPatienceConfig(), metric.Minimize)

	p.Update(1.0)
	p.Update(0.9)
	p.Update(0.8)

	hist := p.History()
	want := []float64{1.0, 0.9, 0.8}
	if len(hist) != len(want) {
		t.Fatalf("Expected %d history entries, got %d", len(want), len(hist))
	}
	for i := range want {
		if hist[i] != want[i] {
			t.Errorf("History[%d]: expected %f, got %f", i, want[i], hist[i])
		}
	}

	// Mutating the copy must not touch the tracker
	hist[0] = 999
	if p.History()[0] != 1.0 {
		t.Error("History returned a live reference instead of a copy")
	}
}

func TestPatienceReset(t *testing.T) {
	p := NewPatience(PatienceConfig{Enabled: true, Rounds: 1, MinDelta: 0.01}, metric.Minimize)

	p.Update(1.0)
	if !p.Update(1.0) {
		t.Fatal("Expected stall before reset")
	}

	p.Reset()
	if p.StaleCount() != 0 {
		t.Errorf("Expected stale count 0 after reset, got %d", p.StaleCount())
	}
	if len(p.History()) != 0 {
		t.Errorf("Expected empty history after reset, got %d entries", len(p.History()))
	}
	if p.Update(1.0) {
		t.Error("First value after reset must not stall")
	}
}
