package jsgen_test

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"sprocket/internal/ir"
	"sprocket/internal/jsgen"
)

func constNode(v any) *ir.Node {
	return &ir.Node{Kind: ir.KindConstant, Data: ir.ConstantData{Value: v}}
}

func binNode(kind string, left, right *ir.Node) *ir.Node {
	return &ir.Node{Kind: kind, Data: ir.BinaryData{Left: left, Right: right}}
}

func ifNode(condition *ir.Node) *ir.Node {
	return &ir.Node{Kind: ir.KindControlIf, Data: ir.IfData{Condition: condition}}
}

func varRef(id string) ir.VariableRef {
	return ir.VariableRef{ID: id, Name: id}
}

func setNode(id string, value *ir.Node) *ir.Node {
	return &ir.Node{Kind: ir.KindVarSet, Data: ir.VarSetData{Variable: varRef(id), Value: value}}
}

func compile(t *testing.T, script *ir.Script, opts jsgen.Options) string {
	t.Helper()
	if opts.Pools == nil {
		opts.Pools = jsgen.NewPools()
	}
	res, err := jsgen.Compile(script, opts)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	return res.FactorySource
}

func mustContain(t *testing.T, source, want string) {
	t.Helper()
	if !strings.Contains(source, want) {
		t.Errorf("emitted source missing %q:\n%s", want, source)
	}
}

func mustNotContain(t *testing.T, source, avoid string) {
	t.Helper()
	if strings.Contains(source, avoid) {
		t.Errorf("emitted source unexpectedly contains %q:\n%s", avoid, source)
	}
}

func TestFactoryShapePlainScript(t *testing.T) {
	source := compile(t, &ir.Script{}, jsgen.Options{})
	want := "(function factory0(thread) {\n" +
		"const __target = thread.target;\n" +
		"let target = __target;\n" +
		"const runtime = __target.runtime;\n" +
		"const stage = runtime.getTargetForStage();\n" +
		"return function fun0() {\n" +
		"target = __target;\n" +
		"if (thread.spoofing) {\n" +
		"target = thread.spoofTarget;\n" +
		"}\n" +
		"retire();\n" +
		"};\n})"
	if source != want {
		t.Errorf("factory shape mismatch:\ngot:\n%s\nwant:\n%s", source, want)
	}
}

func TestFactoryGeneratorForYieldingScript(t *testing.T) {
	source := compile(t, &ir.Script{Yields: true}, jsgen.Options{})
	mustContain(t, source, "return function* gen0() {")
}

func TestFactoryProcedureArguments(t *testing.T) {
	source := compile(t, &ir.Script{
		IsProcedure: true,
		Arguments:   []string{"a", "b"},
	}, jsgen.Options{})
	mustContain(t, source, "return function fun0(p0, p1) {")
	mustNotContain(t, source, "retire();")
}

// A constant that does not round-trip through its number form must not be
// compared with numeric ===.
func TestEqualsNonRoundTrippingConstant(t *testing.T) {
	script := &ir.Script{Stack: []*ir.Node{
		ifNode(binNode(ir.KindOpEquals, constNode("10"), constNode("010"))),
	}}
	source := compile(t, script, jsgen.Options{})
	mustContain(t, source, `compareEqual(10, "010")`)
	mustNotContain(t, source, "===")
}

// A safe constant against an always-numeric expression uses ===.
func TestEqualsSafeConstantAgainstArithmetic(t *testing.T) {
	script := &ir.Script{Stack: []*ir.Node{
		ifNode(binNode(ir.KindOpEquals,
			constNode(float64(5)),
			binNode(ir.KindOpAdd, constNode(float64(2)), constNode(float64(3))))),
	}}
	source := compile(t, script, jsgen.Options{})
	mustContain(t, source, "(5 === ((2 + 3) || 0))")
}

func TestEqualsNeverNumberUsesLowercasedStrings(t *testing.T) {
	script := &ir.Script{Stack: []*ir.Node{
		ifNode(binNode(ir.KindOpEquals, constNode("banana"), constNode("BANANA"))),
	}}
	source := compile(t, script, jsgen.Options{})
	mustContain(t, source, `("banana".toLowerCase() === "BANANA".toLowerCase())`)
}

func TestOrderingNaNCorrectness(t *testing.T) {
	// number < number-or-nan negates the complementary comparison.
	script := &ir.Script{Stack: []*ir.Node{
		ifNode(binNode(ir.KindOpLess,
			constNode(float64(1)),
			binNode(ir.KindOpAdd, constNode(float64(2)), constNode(float64(3))))),
	}}
	source := compile(t, script, jsgen.Options{})
	mustContain(t, source, "!(1 >= (2 + 3))")
}

func TestRepeatLoop(t *testing.T) {
	script := &ir.Script{
		Yields: true,
		Stack: []*ir.Node{{
			Kind: ir.KindControlRepeat,
			Data: ir.RepeatData{
				Times: constNode(float64(3)),
				Do: []*ir.Node{{
					Kind: ir.KindLooksChangeSize,
					Data: ir.SizeData{Size: constNode(float64(1))},
				}},
			},
		}},
	}
	source := compile(t, script, jsgen.Options{})
	mustContain(t, source, "var a0 = 3;")
	mustContain(t, source, "for (; a0 >= 0.5; a0--) {")
	mustContain(t, source, "target.setSize(target.size + 1);")
	mustContain(t, source, "yield;")
}

// Even a zero-length wait yields once in a non-warp script.
func TestWaitZeroStillYields(t *testing.T) {
	script := &ir.Script{
		Yields: true,
		Stack: []*ir.Node{{
			Kind: ir.KindControlWait,
			Data: ir.WaitData{Seconds: constNode(float64(0))},
		}},
	}
	source := compile(t, script, jsgen.Options{})
	mustContain(t, source, "thread.timer = timer();")
	mustContain(t, source, "var a0 = Math.max(0, 1000 * 0);")
	mustContain(t, source, "runtime.requestRedraw();\nyield;\nwhile (thread.timer.timeElapsed() < a0) {")
	mustContain(t, source, "thread.timer = null;")
}

func TestListGetLastWithNullishCoalescing(t *testing.T) {
	list := ir.ListRef{ID: "L", Name: "L"}
	script := &ir.Script{Stack: []*ir.Node{
		setNode("v", &ir.Node{Kind: ir.KindListGet, Data: ir.ListIndexData{List: list, Index: constNode("last")}}),
	}}
	source := compile(t, script, jsgen.Options{
		Env: jsgen.Env{SupportsNullishCoalescing: true},
	})
	mustContain(t, source, `(target.variables["L"].value[target.variables["L"].value.length - 1] ?? "")`)
}

func TestListGetNumericIndexWithNullishCoalescing(t *testing.T) {
	list := ir.ListRef{ID: "L", Name: "L"}
	script := &ir.Script{Stack: []*ir.Node{
		setNode("v", &ir.Node{Kind: ir.KindListGet, Data: ir.ListIndexData{List: list, Index: constNode(float64(2))}}),
	}}
	source := compile(t, script, jsgen.Options{
		Env: jsgen.Env{SupportsNullishCoalescing: true},
	})
	mustContain(t, source, `(target.variables["L"].value[(2 | 0) - 1] ?? "")`)
}

func TestListGetFallsBackWithoutNullishCoalescing(t *testing.T) {
	list := ir.ListRef{ID: "L", Name: "L"}
	script := &ir.Script{Stack: []*ir.Node{
		setNode("v", &ir.Node{Kind: ir.KindListGet, Data: ir.ListIndexData{List: list, Index: constNode("last")}}),
	}}
	source := compile(t, script, jsgen.Options{})
	mustContain(t, source, `listGet(target.variables["L"].value, "last")`)
}

func TestCosineRounding(t *testing.T) {
	script := &ir.Script{Stack: []*ir.Node{
		setNode("v", &ir.Node{Kind: ir.KindOpCos, Data: ir.UnaryData{Value: constNode(float64(90))}}),
	}}
	source := compile(t, script, jsgen.Options{})
	mustContain(t, source, "(Math.round(Math.cos((Math.PI * 90) / 180) * 1e10) / 1e10)")

	// The emitted expression evaluates to exactly zero.
	if got := math.Round(math.Cos((math.Pi*90)/180)*1e10) / 1e10; got != 0 {
		t.Errorf("rounded cos(90°) = %v, want exactly 0", got)
	}
}

// Position changes whose inputs went through the modulo helper must drop
// the interpolation snapshot.
func TestModuloResetsInterpolation(t *testing.T) {
	script := &ir.Script{Stack: []*ir.Node{{
		Kind: ir.KindMotionSetXY,
		Data: ir.SetXYData{
			X: binNode(ir.KindOpMod, constNode(float64(5)), constNode(float64(3))),
			Y: constNode(float64(0)),
		},
	}}}
	source := compile(t, script, jsgen.Options{})
	mustContain(t, source, "target.setXY((mod(5, 3) || 0), 0);")
	mustContain(t, source, "if (target.interpolationData) target.interpolationData = null;")

	plain := &ir.Script{Stack: []*ir.Node{{
		Kind: ir.KindMotionSetXY,
		Data: ir.SetXYData{X: constNode(float64(5)), Y: constNode(float64(0))},
	}}}
	source = compile(t, plain, jsgen.Options{})
	mustNotContain(t, source, "interpolationData")
}

func TestYieldMismatchIsFatal(t *testing.T) {
	script := &ir.Script{Stack: []*ir.Node{{
		Kind: ir.KindControlWait,
		Data: ir.WaitData{Seconds: constNode(float64(0))},
	}}}
	_, err := jsgen.Compile(script, jsgen.Options{Pools: jsgen.NewPools()})
	if !errors.Is(err, jsgen.ErrYieldMismatch) {
		t.Fatalf("Compile error = %v, want ErrYieldMismatch", err)
	}
}

func TestUnknownKindIsFatal(t *testing.T) {
	script := &ir.Script{Stack: []*ir.Node{{Kind: "bogus.block"}}}
	_, err := jsgen.Compile(script, jsgen.Options{Pools: jsgen.NewPools()})
	if !errors.Is(err, jsgen.ErrUnknownKind) {
		t.Fatalf("Compile error = %v, want ErrUnknownKind", err)
	}
}

func compatNode(opcode string) *ir.Node {
	return &ir.Node{Kind: ir.KindCompat, Data: ir.CompatData{Opcode: opcode}}
}

// Identical setup expressions share one hoisted binding.
func TestSetupBindingsDeduplicated(t *testing.T) {
	script := &ir.Script{
		Yields: true,
		Stack:  []*ir.Node{compatNode("sound_play"), compatNode("sound_play"), compatNode("sound_stop")},
	}
	source := compile(t, script, jsgen.Options{})
	if got := strings.Count(source, `runtime.getOpcodeFunction("sound_play")`); got != 1 {
		t.Errorf("sound_play hoisted %d times, want 1:\n%s", got, source)
	}
	mustContain(t, source, `const b0 = runtime.getOpcodeFunction("sound_play");`)
	mustContain(t, source, `const b1 = runtime.getOpcodeFunction("sound_stop");`)
}

// A compat call that is the terminal block of a loop passes the
// re-entry flag.
func TestCompatLastInLoopFlag(t *testing.T) {
	loop := func(body ...*ir.Node) *ir.Script {
		return &ir.Script{
			Yields: true,
			Stack: []*ir.Node{{
				Kind: ir.KindControlRepeat,
				Data: ir.RepeatData{Times: constNode(float64(2)), Do: body},
			}},
		}
	}
	source := compile(t, loop(compatNode("motion_glide")), jsgen.Options{})
	mustContain(t, source, ", false, true, null);")

	source = compile(t, loop(
		compatNode("motion_glide"),
		&ir.Node{Kind: ir.KindLooksChangeSize, Data: ir.SizeData{Size: constNode(float64(1))}},
	), jsgen.Options{})
	mustContain(t, source, ", false, false, null);")
}

func TestVariableTrackerClearedByBroadcast(t *testing.T) {
	straight := &ir.Script{Stack: []*ir.Node{
		setNode("v", constNode("banana")),
		ifNode(binNode(ir.KindOpEquals,
			&ir.Node{Kind: ir.KindVarGet, Data: ir.VarData{Variable: varRef("v")}},
			constNode(float64(5)))),
	}}
	source := compile(t, straight, jsgen.Options{})
	// The tracker knows v is never a number, so the compare lowercases.
	mustContain(t, source, ".toLowerCase()")

	interrupted := &ir.Script{Stack: []*ir.Node{
		setNode("v", constNode("banana")),
		{Kind: ir.KindEventBroadcast, Data: ir.BroadcastData{Broadcast: constNode("go")}},
		ifNode(binNode(ir.KindOpEquals,
			&ir.Node{Kind: ir.KindVarGet, Data: ir.VarData{Variable: varRef("v")}},
			constNode(float64(5)))),
	}}
	source = compile(t, interrupted, jsgen.Options{})
	mustNotContain(t, source, ".toLowerCase()")
	mustContain(t, source, `((+target.variables["v"].value || 0) === 5)`)
}

// Costume and sound names poison matching literals at as-safe boundaries.
func TestAmbiguousConstantStaysString(t *testing.T) {
	script := func() *ir.Script {
		return &ir.Script{Stack: []*ir.Node{setNode("v", constNode("123"))}}
	}
	source := compile(t, script(), jsgen.Options{})
	mustContain(t, source, `target.variables["v"].value = 123;`)

	source = compile(t, script(), jsgen.Options{
		Target: &ir.TargetInfo{Name: "Sprite1", Costumes: []string{"123"}},
	})
	mustContain(t, source, `target.variables["v"].value = "123";`)
}

func TestDirectRecursionYieldsOutsideWarp(t *testing.T) {
	procs := map[string]*ir.ProcedureInfo{
		"spin": {Stack: []*ir.Node{}, Yields: false},
	}
	script := &ir.Script{
		IsProcedure:   true,
		Yields:        true,
		ProcedureCode: "spin",
		Stack: []*ir.Node{{
			Kind: ir.KindProceduresCall,
			Data: ir.ProcedureCallData{Code: "spin", Variant: "spin"},
		}},
	}
	source := compile(t, script, jsgen.Options{Procedures: procs})
	mustContain(t, source, "yield;\nthread.procedures[\"spin\"]();")

	warped := &ir.Script{
		IsProcedure:   true,
		IsWarp:        true,
		Yields:        true,
		ProcedureCode: "spin",
		Stack: []*ir.Node{{
			Kind: ir.KindProceduresCall,
			Data: ir.ProcedureCallData{Code: "spin", Variant: "spin"},
		}},
	}
	source = compile(t, warped, jsgen.Options{Procedures: procs})
	mustNotContain(t, source, "yield;")
}

func TestMissingProcedureIsNoOp(t *testing.T) {
	script := &ir.Script{Stack: []*ir.Node{{
		Kind: ir.KindProceduresCall,
		Data: ir.ProcedureCallData{Code: "ghost", Variant: "ghost"},
	}}}
	source := compile(t, script, jsgen.Options{})
	mustNotContain(t, source, "thread.procedures")
}

func TestYieldingProcedureCallDelegates(t *testing.T) {
	procs := map[string]*ir.ProcedureInfo{
		"blink": {Stack: []*ir.Node{}, Yields: true},
	}
	script := &ir.Script{
		Yields: true,
		Stack: []*ir.Node{{
			Kind: ir.KindProceduresCall,
			Data: ir.ProcedureCallData{Code: "blink", Variant: "blink", Arguments: []*ir.Node{constNode("hi")}},
		}},
	}
	source := compile(t, script, jsgen.Options{Procedures: procs})
	mustContain(t, source, `yield* thread.procedures["blink"]("hi");`)
}

func TestInlineStackExpression(t *testing.T) {
	script := &ir.Script{
		Yields: true,
		Stack: []*ir.Node{
			setNode("v", &ir.Node{Kind: ir.KindControlInlineStack, Data: ir.InlineStackData{
				Do: []*ir.Node{{
					Kind: ir.KindProceduresReturn,
					Data: ir.ReturnData{Value: constNode(float64(1))},
				}},
			}}),
		},
	}
	source := compile(t, script, jsgen.Options{})
	mustContain(t, source, "(yield* (function*() {\nreturn 1;\n})())")
}

func TestStopScriptInsideProcedureReturns(t *testing.T) {
	script := &ir.Script{
		IsProcedure: true,
		Stack:       []*ir.Node{{Kind: ir.KindControlStopScript}},
	}
	source := compile(t, script, jsgen.Options{})
	mustContain(t, source, `return "";`)
	mustNotContain(t, source, "retire();")

	top := &ir.Script{Stack: []*ir.Node{{Kind: ir.KindControlStopScript}}}
	source = compile(t, top, jsgen.Options{})
	mustContain(t, source, "retire();\nreturn;")
}

func TestAllAtOnceForcesWarp(t *testing.T) {
	script := &ir.Script{
		Yields: true,
		Stack: []*ir.Node{{
			Kind: ir.KindControlAllAtOnce,
			Data: ir.StackData{Do: []*ir.Node{{
				Kind: ir.KindControlRepeat,
				Data: ir.RepeatData{Times: constNode(float64(2)), Do: nil},
			}}},
		}},
	}
	source := compile(t, script, jsgen.Options{})
	// Inside the forced warp the loop tail must not yield unconditionally.
	mustNotContain(t, source, "yield;")
}

func TestSensingOfConstantTargetHoistsLookup(t *testing.T) {
	script := &ir.Script{Stack: []*ir.Node{
		setNode("v", &ir.Node{Kind: ir.KindSensingOf, Data: ir.OfData{
			Property: "x position",
			Object:   constNode("Sprite2"),
		}}),
	}}
	source := compile(t, script, jsgen.Options{})
	mustContain(t, source, `const b0 = runtime.getSpriteTargetByName("Sprite2");`)
	mustContain(t, source, "(b0 ? b0.x : 0)")
}

func TestExtensionTransformer(t *testing.T) {
	registry := jsgen.NewRegistry()
	registry.Register("myext", map[string]jsgen.TransformFunc{
		"ping": func(node *ir.Node, c *jsgen.Compiler, imp jsgen.Imports) (jsgen.Value, error) {
			c.EmitStatement("ping();")
			return nil, nil
		},
		"answer": func(node *ir.Node, c *jsgen.Compiler, imp jsgen.Imports) (jsgen.Value, error) {
			return imp.NewTyped("42", imp.TypeNumber), nil
		},
	})
	script := &ir.Script{Stack: []*ir.Node{
		{Kind: "myext.ping", Data: ir.ExtensionData{}},
		setNode("v", &ir.Node{Kind: "myext.answer", Data: ir.ExtensionData{}}),
	}}
	source := compile(t, script, jsgen.Options{Provider: registry})
	mustContain(t, source, "ping();")
	mustContain(t, source, `target.variables["v"].value = 42;`)
}

func TestExtensionTransformerFailureIsNonFatal(t *testing.T) {
	registry := jsgen.NewRegistry()
	registry.Register("myext", map[string]jsgen.TransformFunc{
		"boom": func(node *ir.Node, c *jsgen.Compiler, imp jsgen.Imports) (jsgen.Value, error) {
			return nil, fmt.Errorf("broken")
		},
		"panic": func(node *ir.Node, c *jsgen.Compiler, imp jsgen.Imports) (jsgen.Value, error) {
			panic("very broken")
		},
	})
	script := &ir.Script{Stack: []*ir.Node{
		setNode("v", &ir.Node{Kind: "myext.boom", Data: ir.ExtensionData{}}),
		setNode("w", &ir.Node{Kind: "myext.panic", Data: ir.ExtensionData{}}),
	}}
	source := compile(t, script, jsgen.Options{Provider: registry})
	// The failed expression slots degrade to empty-string constants.
	mustContain(t, source, `target.variables["v"].value = "";`)
	mustContain(t, source, `target.variables["w"].value = "";`)
}

// Recompiling the same IR with fresh pools yields identical output.
func TestRecompileDeterminism(t *testing.T) {
	script := func() *ir.Script {
		return &ir.Script{
			Yields: true,
			Stack: []*ir.Node{
				setNode("v", binNode(ir.KindOpAdd, constNode(float64(1)), constNode(float64(2)))),
				compatNode("sound_play"),
			},
		}
	}
	first := compile(t, script(), jsgen.Options{})
	second := compile(t, script(), jsgen.Options{})
	if first != second {
		t.Errorf("recompilation diverged:\n%s\nvs:\n%s", first, second)
	}
}

func TestCloudVariableUpdate(t *testing.T) {
	script := &ir.Script{Stack: []*ir.Node{{
		Kind: ir.KindVarSet,
		Data: ir.VarSetData{
			Variable: ir.VariableRef{ID: "c", Name: "☁ score", IsCloud: true, Scope: ir.ScopeStage},
			Value:    constNode(float64(10)),
		},
	}}}
	source := compile(t, script, jsgen.Options{})
	mustContain(t, source, `stage.variables["c"].value = 10;`)
	mustContain(t, source, `runtime.ioDevices.cloud.requestUpdateVariable("☁ score", stage.variables["c"].value);`)
}

func TestSwitchFallThrough(t *testing.T) {
	script := &ir.Script{Stack: []*ir.Node{{
		Kind: ir.KindControlSwitch,
		Data: ir.SwitchData{
			Test: constNode("a"),
			Cases: []*ir.Node{
				{Kind: ir.KindControlCase, Data: ir.CaseData{Condition: constNode("a"), RunsNext: true}},
				{Kind: ir.KindControlCase, Data: ir.CaseData{Condition: constNode("b"), Do: []*ir.Node{
					{Kind: ir.KindLooksHide},
				}}},
			},
		},
	}}}
	source := compile(t, script, jsgen.Options{})
	mustContain(t, source, `switch ("a") {`)
	// The runsNext arm emits its label and nothing else.
	mustContain(t, source, "case \"a\":\ncase \"b\":\n")
	mustContain(t, source, "break;")
}
