package driver_test

import (
	"context"
	"strings"
	"testing"

	"sprocket/internal/driver"
	"sprocket/internal/ir"
	"sprocket/internal/project"
	"sprocket/internal/testkit"
)

func testProgram() *ir.Program {
	constant := func(v any) *ir.Node {
		return &ir.Node{Kind: ir.KindConstant, Data: ir.ConstantData{Value: v}}
	}
	script := func(top string, stack ...*ir.Node) *ir.Script {
		return &ir.Script{TopBlockID: top, Stack: stack}
	}
	return &ir.Program{Targets: []*ir.TargetInfo{
		{
			Name: "Sprite1",
			Scripts: []*ir.Script{
				script("a", &ir.Node{
					Kind: ir.KindMotionSetXY,
					Data: ir.SetXYData{X: constant(float64(0)), Y: constant(float64(0))},
				}),
				script("b", &ir.Node{Kind: ir.KindLooksShow}),
			},
		},
		{
			Name:    "Stage",
			IsStage: true,
			Scripts: []*ir.Script{
				script("c", &ir.Node{Kind: ir.KindControlStopAll}),
			},
		},
	}}
}

func TestCompileProgram(t *testing.T) {
	prog := testProgram()
	if err := testkit.CheckProgramInvariants(prog); err != nil {
		t.Fatalf("test program is malformed: %v", err)
	}
	result, err := driver.CompileProgram(context.Background(), prog, driver.Options{
		Config: project.DefaultConfig(),
	})
	if err != nil {
		t.Fatalf("CompileProgram: %v", err)
	}
	if len(result.Scripts) != 3 {
		t.Fatalf("scripts = %d, want 3", len(result.Scripts))
	}
	if result.Failed() != 0 {
		t.Fatalf("failed = %d: %+v", result.Failed(), result.Scripts)
	}
	for _, sr := range result.Scripts {
		if !strings.HasPrefix(sr.FactorySource, "(function factory") {
			t.Errorf("script %s/%s: unexpected factory prefix: %q", sr.Target, sr.TopBlockID, sr.FactorySource[:30])
		}
	}
}

func TestCompileProgramRecordsFailures(t *testing.T) {
	prog := testProgram()
	prog.Targets[0].Scripts = append(prog.Targets[0].Scripts, &ir.Script{
		TopBlockID: "broken",
		Stack:      []*ir.Node{{Kind: "does.not.exist"}},
	})
	result, err := driver.CompileProgram(context.Background(), prog, driver.Options{
		Config: project.DefaultConfig(),
	})
	if err != nil {
		t.Fatalf("CompileProgram: %v", err)
	}
	if result.Failed() != 1 {
		t.Fatalf("failed = %d, want 1", result.Failed())
	}
	for _, sr := range result.Scripts {
		if sr.TopBlockID == "broken" && sr.Err == nil {
			t.Error("broken script must carry its error")
		}
	}
}

func TestCompileProgramEmitsEvents(t *testing.T) {
	events := make(chan driver.Event, 64)
	_, err := driver.CompileProgram(context.Background(), testProgram(), driver.Options{
		Config: project.DefaultConfig(),
		Events: events,
	})
	if err != nil {
		t.Fatalf("CompileProgram: %v", err)
	}
	close(events)
	counts := make(map[driver.Stage]int)
	for ev := range events {
		counts[ev.Stage]++
	}
	if counts[driver.StageQueued] != 3 || counts[driver.StageCompiling] != 3 || counts[driver.StageDone] != 3 {
		t.Errorf("event counts = %v", counts)
	}
}

// Serial compiles with fresh pools are byte-for-byte reproducible.
func TestCompileProgramDeterministic(t *testing.T) {
	opts := driver.Options{Config: project.DefaultConfig()}
	opts.Config.Compile.Jobs = 1
	first, err := driver.CompileProgram(context.Background(), testProgram(), opts)
	if err != nil {
		t.Fatalf("CompileProgram: %v", err)
	}
	second, err := driver.CompileProgram(context.Background(), testProgram(), opts)
	if err != nil {
		t.Fatalf("CompileProgram: %v", err)
	}
	for i := range first.Scripts {
		if first.Scripts[i].FactorySource != second.Scripts[i].FactorySource {
			t.Errorf("script %d diverged between runs", i)
		}
	}
}
