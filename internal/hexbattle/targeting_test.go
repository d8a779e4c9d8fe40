package hexbattle

import (
	"strings"
	"testing"
	"time"
)

func TestTargets_BoundedByMap(t *testing.T) {
	e := New()
	if err := e.Load(frame(strings.Replace(fixture, `"range": 3`, `"range": 20000`, 1))); err != nil {
		t.Fatalf("Load: %v", err)
	}
	archer := e.state.unitAt(cell(1, 0))

	start := time.Now()
	got := Targets(archer, 0, e.state)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Targets took %s", elapsed)
	}

	// 12 клеток минус дыра (1,1)
	if len(got) != 11 {
		t.Errorf("len(Targets) = %d, want 11", len(got))
	}
	if got[cell(1, 1)] {
		t.Error("hole must not be a target")
	}
	if !got[cell(3, 2)] {
		t.Error("far corner must be a target")
	}
}

func TestTargets_NegativeRange(t *testing.T) {
	e := New()
	if err := e.Load(frame(strings.Replace(fixture, `"range": 3`, `"range": -4`, 1))); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := Targets(e.state.unitAt(cell(1, 0)), 0, e.state); len(got) != 0 {
		t.Errorf("negative range gave %d targets", len(got))
	}
}
