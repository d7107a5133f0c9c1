// Package jsgen lowers script IR into JavaScript source. The output of a
// compile is a factory expression: a named function literal that takes a
// thread handle and returns the runnable script body (a generator when
// the script can suspend). The enclosing runtime evaluates the string in
// a scope that supplies the runtime primitive vocabulary (toBoolean, mod,
// compareEqual, listGet, retire and friends).
package jsgen

import (
	"fmt"

	"golang.org/x/text/unicode/norm"

	"sprocket/internal/ir"
	"sprocket/internal/trace"
)

// Env carries the capabilities of the evaluating environment.
type Env struct {
	// SupportsNullishCoalescing enables direct list indexing with `??`.
	SupportsNullishCoalescing bool
	// Debug turns on verbose emission logging through the tracer.
	Debug bool
}

// Options configures one compilation.
type Options struct {
	// Target supplies costume/sound names for ambiguity analysis. May be nil.
	Target *ir.TargetInfo
	// Procedures is the variant table consulted by procedures.call.
	Procedures map[string]*ir.ProcedureInfo
	// Pools are the shared script-level name pools. Required.
	Pools *Pools
	// Provider resolves extension transformers. May be nil.
	Provider TransformerProvider
	// Env describes the evaluating environment.
	Env Env
	// Tracer receives warnings and debug emission events. Nil means none.
	Tracer trace.Tracer
}

// Result is the outcome of compiling one script.
type Result struct {
	// FactorySource is the parenthesized factory function expression.
	FactorySource string
}

// Compiler holds the per-compile state while walking one script.
type Compiler struct {
	script *ir.Script
	procs  map[string]*ir.ProcedureInfo
	env    Env
	pools  *Pools
	prov   TransformerProvider
	tracer trace.Tracer

	source string
	frames []*Frame

	locals    *NamePool
	setupPool *NamePool

	// setupNames maps a setup expression to its hoisted name;
	// setupOrder preserves first-seen order for emission.
	setupNames map[string]string
	setupOrder []string

	// variables maps variable ids to their trackers.
	variables map[string]*Variable

	// ambiguous holds NFC-normalized costume and sound names; constants
	// matching one are unsafe in as-safe positions.
	ambiguous map[string]bool

	isWarp    bool
	warpTimer bool
	sawModulo bool
}

// Compile lowers one script to its factory source.
func Compile(script *ir.Script, opts Options) (*Result, error) {
	if script == nil {
		return nil, fmt.Errorf("jsgen: nil script")
	}
	if opts.Pools == nil {
		return nil, fmt.Errorf("jsgen: options missing name pools")
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}
	c := &Compiler{
		script:     script,
		procs:      opts.Procedures,
		env:        opts.Env,
		pools:      opts.Pools,
		prov:       opts.Provider,
		tracer:     tracer,
		locals:     NewNamePool("a"),
		setupPool:  NewNamePool("b"),
		setupNames: make(map[string]string),
		variables:  make(map[string]*Variable),
		ambiguous:  ambiguitySet(opts.Target),
		isWarp:     script.IsWarp,
		warpTimer:  script.WarpTimer,
	}
	if err := c.descendStack(script.Stack, &Frame{}); err != nil {
		return nil, err
	}
	factory := c.createScriptFactory()
	if c.env.Debug {
		c.tracer.Emit(trace.Point(trace.ScopeScript, "compiled script", map[string]string{
			"top":    script.TopBlockID,
			"source": factory,
		}))
	}
	return &Result{FactorySource: factory}, nil
}

func ambiguitySet(target *ir.TargetInfo) map[string]bool {
	if target == nil {
		return nil
	}
	set := make(map[string]bool, len(target.Costumes)+len(target.Sounds))
	for _, name := range target.Costumes {
		set[norm.NFC.String(name)] = true
	}
	for _, name := range target.Sounds {
		set[norm.NFC.String(name)] = true
	}
	return set
}

// emit appends a formatted fragment to the body buffer.
func (c *Compiler) emit(format string, args ...any) {
	if len(args) == 0 {
		c.source += format
		return
	}
	c.source += fmt.Sprintf(format, args...)
}

// emitLine appends a fragment followed by a newline.
func (c *Compiler) emitLine(format string, args ...any) {
	c.emit(format, args...)
	c.source += "\n"
}

// quote renders s as a surface string literal.
func quote(s string) string { return EscapeString(s) }

func jsBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// yielded verifies the script header allows suspension points.
func (c *Compiler) yielded() error {
	if !c.script.Yields {
		return fmt.Errorf("jsgen: %w", ErrYieldMismatch)
	}
	return nil
}

// yieldNotWarp suspends unless the script runs in warp mode.
func (c *Compiler) yieldNotWarp() error {
	if c.isWarp {
		return nil
	}
	c.emitLine("yield;")
	c.resetVariableInputs()
	return c.yielded()
}

// yieldStuckOrNotWarp suspends unconditionally outside warp mode and only
// when the sequencer reports the frame overrun inside it.
func (c *Compiler) yieldStuckOrNotWarp() error {
	if c.isWarp {
		c.emitLine("if (isStuck()) yield;")
	} else {
		c.emitLine("yield;")
	}
	c.resetVariableInputs()
	return c.yielded()
}

// yieldLoop is the loop tail-end suspension point.
func (c *Compiler) yieldLoop() error {
	if c.warpTimer {
		return c.yieldStuckOrNotWarp()
	}
	return c.yieldNotWarp()
}

func (c *Compiler) requestRedraw() {
	c.emitLine("runtime.requestRedraw();")
}

// resetVariableInputs drops every tracked assignment. Called whenever
// another thread could have observed or changed shared state.
func (c *Compiler) resetVariableInputs() {
	for _, v := range c.variables {
		v.forget()
	}
}

// referenceVariable returns the slot reference for a variable.
func (c *Compiler) referenceVariable(ref ir.VariableRef) string {
	if ref.Scope == ir.ScopeStage {
		return fmt.Sprintf("stage.variables[%s]", quote(ref.ID))
	}
	return fmt.Sprintf("target.variables[%s]", quote(ref.ID))
}

// referenceList returns the slot reference for a list.
func (c *Compiler) referenceList(ref ir.ListRef) string {
	if ref.Scope == ir.ScopeStage {
		return fmt.Sprintf("stage.variables[%s]", quote(ref.ID))
	}
	return fmt.Sprintf("target.variables[%s]", quote(ref.ID))
}

// descendVariable returns the tracker for a variable, creating it on
// first use.
func (c *Compiler) descendVariable(ref ir.VariableRef) *Variable {
	if v, ok := c.variables[ref.ID]; ok {
		return v
	}
	v := NewVariable(c.referenceVariable(ref) + ".value")
	c.variables[ref.ID] = v
	return v
}

// evaluateOnce hoists an expression into the factory preamble so it is
// evaluated exactly once per script instantiation, and returns the bound
// name. Identical expressions share one binding.
func (c *Compiler) evaluateOnce(expr string) string {
	if name, ok := c.setupNames[expr]; ok {
		return name
	}
	name := c.setupPool.Next()
	c.setupNames[expr] = name
	c.setupOrder = append(c.setupOrder, expr)
	return name
}

// descendStack lowers a statement list under a fresh frame. The variable
// tracker is cleared on entry and exit: statements inside may run after
// an arbitrary suspension, and code after the stack cannot rely on
// assignments made inside a branch that may not have executed.
func (c *Compiler) descendStack(nodes []*ir.Node, frame *Frame) error {
	c.pushFrame(frame)
	c.resetVariableInputs()
	for i, node := range nodes {
		frame.IsLastBlock = i == len(nodes)-1
		if err := c.descendStmt(node); err != nil {
			return err
		}
	}
	c.resetVariableInputs()
	c.popFrame()
	return nil
}

// descendStackForSource lowers a statement list into its own buffer and
// returns the produced source, leaving the outer buffer untouched.
func (c *Compiler) descendStackForSource(nodes []*ir.Node, frame *Frame) (string, error) {
	saved := c.source
	c.source = ""
	err := c.descendStack(nodes, frame)
	inner := c.source
	c.source = saved
	if err != nil {
		return "", err
	}
	return inner, nil
}

// extensionTransformer resolves a transformer for the node's kind, if its
// first dot-segment names a registered extension.
func (c *Compiler) extensionTransformer(kind string) (TransformFunc, bool) {
	if c.prov == nil {
		return nil, false
	}
	ext, block := ir.SplitKind(kind)
	if block == "" {
		return nil, false
	}
	return c.prov.Transformer(ext, block)
}

func (c *Compiler) warnf(format string, args ...any) {
	c.tracer.Emit(trace.Warning(trace.ScopeScript, fmt.Sprintf(format, args...), nil))
}

func (c *Compiler) debugNode(kind string) {
	if c.env.Debug && c.tracer.Enabled() {
		c.tracer.Emit(trace.Point(trace.ScopeNode, "descend "+kind, nil))
	}
}
