package flow_test

import (
	"strings"
	"testing"

	"github.com/gaslens/gaslens/pkg/flow"
)

func noTasks(id string) *stubStage {
	return &stubStage{
		id:    id,
		tasks: func(*state) []flow.Task[state] { return nil },
	}
}

func TestGraphRejectsEmptyStageID(t *testing.T) {
	g := flow.NewGraph[state]()

	if err := g.Add(noTasks("")); err == nil {
		t.Error("expected error for empty stage id")
	}
}

func TestGraphRejectsDuplicateStageID(t *testing.T) {
	g := flow.NewGraph[state]()

	if err := g.Add(noTasks("dup")); err != nil {
		t.Fatalf("first add: %v", err)
	}
	err := g.Add(noTasks("dup"))
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("err = %v, want duplicate stage id", err)
	}
}

func TestGraphCompileRequiresStages(t *testing.T) {
	g := flow.NewGraph[state]()
	g.Complete(func(*state) bool { return true })

	if err := g.Compile(); err == nil {
		t.Error("expected error compiling empty graph")
	}
}

func TestGraphCompileRequiresCompletion(t *testing.T) {
	g := flow.NewGraph[state]()
	if err := g.Add(noTasks("a")); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := g.Compile(); err == nil {
		t.Error("expected error compiling without completion criterion")
	}
}

func TestGraphImmutableAfterCompile(t *testing.T) {
	g := flow.NewGraph[state]()
	if err := g.Add(noTasks("a")); err != nil {
		t.Fatalf("add: %v", err)
	}
	g.Complete(func(*state) bool { return true })
	if err := g.Compile(); err != nil {
		t.Fatalf("compile: %v", err)
	}

	if err := g.Add(noTasks("b")); err == nil {
		t.Error("expected error adding to compiled graph")
	}
	if got := g.Stages(); len(got) != 1 {
		t.Errorf("stages = %v, want [a]", got)
	}
}

func TestGraphStagesRegistrationOrder(t *testing.T) {
	g := flow.NewGraph[state]()
	for _, id := range []string{"c", "a", "b"} {
		if err := g.Add(noTasks(id)); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}

	got := g.Stages()
	want := []string{"c", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("stages = %v, want %v", got, want)
		}
	}
}

func TestGraphStageLookup(t *testing.T) {
	g := flow.NewGraph[state]()
	if err := g.Add(noTasks("a")); err != nil {
		t.Fatalf("add: %v", err)
	}

	if _, ok := g.Stage("a"); !ok {
		t.Error("registered stage not found")
	}
	if _, ok := g.Stage("missing"); ok {
		t.Error("unregistered stage found")
	}
}
