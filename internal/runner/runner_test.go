package runner

import (
	"context"
	"testing"
	"time"
)

func TestRunUnavailableTool(t *testing.T) {
	r := New(0, false)
	_, err := r.Run(context.Background(), "nonexistent-tool-xyz")
	if err == nil {
		t.Error("expected error for unresolvable tool")
	}
}

func TestAvailableFalseForUnknownTool(t *testing.T) {
	r := New(0, false)
	if r.Available("nonexistent-tool-xyz") {
		t.Error("expected Available() false for unknown tool")
	}
}

func TestRunSafeReturnsNilOnFailure(t *testing.T) {
	r := New(0, false)
	res := r.RunSafe(context.Background(), "nonexistent-tool-xyz")
	if res != nil {
		t.Error("expected nil Result from RunSafe on failure")
	}
}

func TestRunParallelPreservesOrderAndIsolatesFailures(t *testing.T) {
	r := New(0, false)
	tasks := []Task{
		{Key: "a", Tool: "nonexistent-tool-a"},
		{Key: "b", Tool: "nonexistent-tool-b"},
		{Key: "c", Tool: "nonexistent-tool-c"},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	settled := r.RunParallel(ctx, tasks)
	if len(settled) != len(tasks) {
		t.Fatalf("expected %d results, got %d", len(tasks), len(settled))
	}
	for i, s := range settled {
		if s.Key != tasks[i].Key {
			t.Errorf("result %d: expected key %q, got %q", i, tasks[i].Key, s.Key)
		}
		if s.Err == nil {
			t.Errorf("result %d: expected error for unresolvable tool", i)
		}
	}
}

func TestRunParallelEmpty(t *testing.T) {
	r := New(0, false)
	settled := r.RunParallel(context.Background(), nil)
	if len(settled) != 0 {
		t.Errorf("expected 0 results, got %d", len(settled))
	}
}
