package jsgen

import (
	"fmt"
	"strings"

	"sprocket/internal/ir"
)

// EmitStatement appends raw statement source. Extension transformers use
// this through the compiler handle; the fragment must be a complete
// statement including its terminator.
func (c *Compiler) EmitStatement(src string) {
	c.emitLine("%s", src)
}

// NextLocal reserves a fresh temporary name in the script body.
func (c *Compiler) NextLocal() string {
	return c.locals.Next()
}

// EvaluateOnce hoists an expression into the factory preamble and returns
// the bound name.
func (c *Compiler) EvaluateOnce(expr string) string {
	return c.evaluateOnce(expr)
}

// Yielded verifies the script header allows suspension points. Extension
// transformers emitting yields must call this.
func (c *Compiler) Yielded() error {
	return c.yielded()
}

func (c *Compiler) descendStmt(node *ir.Node) error {
	if node == nil {
		return fmt.Errorf("jsgen: nil statement node")
	}
	c.debugNode(node.Kind)

	if fn, ok := c.extensionTransformer(node.Kind); ok {
		if _, err := runExtensionTransformer(fn, node, c); err != nil {
			c.warnf("extension transformer failed for %q: %v", node.Kind, err)
		}
		return nil
	}

	switch node.Kind {
	case ir.KindNoop:
		c.warnf("unexpected noop statement")
		return nil

	case ir.KindControlIf:
		return c.lowerIf(node)
	case ir.KindControlRepeat:
		return c.lowerRepeat(node)
	case ir.KindControlWhile:
		return c.lowerWhile(node)
	case ir.KindControlFor:
		return c.lowerFor(node)
	case ir.KindControlWait:
		return c.lowerWait(node)
	case ir.KindControlWaitUntil:
		return c.lowerWaitUntil(node)
	case ir.KindControlWaitOrUntil:
		return c.lowerWaitOrUntil(node)
	case ir.KindControlAllAtOnce:
		return c.lowerAllAtOnce(node)
	case ir.KindControlSwitch:
		return c.lowerSwitch(node)
	case ir.KindControlCase:
		return c.lowerCase(node)
	case ir.KindControlExitCase:
		c.emitLine("break;")
		return nil
	case ir.KindControlRunAsSprite:
		return c.lowerRunAsSprite(node)
	case ir.KindControlNewScript:
		data, err := payload[ir.NewScriptData](node)
		if err != nil {
			return err
		}
		c.emitLine("runtime._pushThread(%s, target, { stackClick: false });", quote(data.BlockID))
		c.resetVariableInputs()
		return nil

	case ir.KindControlStopAll:
		c.emitLine("runtime.stopAll();")
		c.retire()
		return nil
	case ir.KindControlStopOthers:
		c.emitLine("runtime.stopForTarget(target, thread);")
		return nil
	case ir.KindControlStopScript:
		if c.script.IsProcedure {
			c.emitLine(`return "";`)
		} else {
			c.retire()
		}
		return nil

	case ir.KindControlCreateClone:
		data, err := payload[ir.CreateCloneData](node)
		if err != nil {
			return err
		}
		target, err := c.descendInput(data.Target)
		if err != nil {
			return err
		}
		c.emitLine("runtime.ext_scratch3_control._createClone(%s, target);", target.AsString())
		return nil
	case ir.KindControlDeleteClone:
		c.emitLine("if (!target.isOriginal) {")
		c.emitLine("runtime.disposeTarget(target);")
		c.emitLine("runtime.stopForTarget(target);")
		c.emitLine("return;")
		c.emitLine("}")
		return nil

	case ir.KindEventBroadcast:
		data, err := payload[ir.BroadcastData](node)
		if err != nil {
			return err
		}
		broadcast, err := c.descendInput(data.Broadcast)
		if err != nil {
			return err
		}
		c.emitLine(`startHats("event_whenbroadcastreceived", { BROADCAST_OPTION: %s });`, broadcast.AsSafe())
		c.resetVariableInputs()
		return nil
	case ir.KindEventBroadcastAndWait:
		data, err := payload[ir.BroadcastData](node)
		if err != nil {
			return err
		}
		broadcast, err := c.descendInput(data.Broadcast)
		if err != nil {
			return err
		}
		c.emitLine(`yield* waitThreads(startHats("event_whenbroadcastreceived", { BROADCAST_OPTION: %s }));`,
			broadcast.AsSafe())
		if err := c.yielded(); err != nil {
			return err
		}
		c.resetVariableInputs()
		return nil

	case ir.KindProceduresCall:
		data, err := payload[ir.ProcedureCallData](node)
		if err != nil {
			return err
		}
		call, ok, err := c.generateProcedureCall(data)
		if err != nil {
			return err
		}
		if ok {
			c.emitLine("%s;", call)
		}
		c.resetVariableInputs()
		return nil
	case ir.KindProceduresReturn:
		data, err := payload[ir.ReturnData](node)
		if err != nil {
			return err
		}
		value, err := c.descendInput(data.Value)
		if err != nil {
			return err
		}
		c.emitLine("return %s;", value.AsUnknown())
		return nil

	case ir.KindCompat:
		data, err := payload[ir.CompatData](node)
		if err != nil {
			return err
		}
		src, err := c.generateCompatCall(data.Opcode, data.BlockID, data.Inputs, data.Fields)
		if err != nil {
			return err
		}
		c.emitLine("%s;", src)
		c.resetVariableInputs()
		return nil

	case ir.KindAddonsCall:
		data, err := payload[ir.AddonCallData](node)
		if err != nil {
			return err
		}
		return c.lowerAddonCall(data)

	case ir.KindVisualReport:
		data, err := payload[ir.VisualReportData](node)
		if err != nil {
			return err
		}
		value, err := c.descendInput(data.Input)
		if err != nil {
			return err
		}
		tmp := c.locals.Next()
		c.emitLine("const %s = %s;", tmp, value.AsUnknown())
		// Legacy no-op blocks can report a literal undefined; skip those.
		c.emitLine("if (%s !== undefined) runtime.visualReport(%s, %s);", tmp, quote(c.script.TopBlockID), tmp)
		return nil

	case ir.KindTwDebugger:
		c.emitLine("debugger;")
		return nil
	case ir.KindTimerReset:
		c.emitLine("runtime.ioDevices.clock.resetProjectTimer();")
		return nil
	}

	if handled, err := c.descendEffectStmt(node); handled {
		return err
	}
	return fmt.Errorf("jsgen: %w: statement %q", ErrUnknownKind, node.Kind)
}

// retire terminates the thread and leaves the script body.
func (c *Compiler) retire() {
	c.emitLine("retire();")
	c.emitLine("return;")
}

func (c *Compiler) lowerIf(node *ir.Node) error {
	data, err := payload[ir.IfData](node)
	if err != nil {
		return err
	}
	condition, err := c.descendInput(data.Condition)
	if err != nil {
		return err
	}
	c.emitLine("if (%s) {", condition.AsBoolean())
	if err := c.descendStack(data.Then, &Frame{}); err != nil {
		return err
	}
	if len(data.Else) > 0 {
		c.emitLine("} else {")
		if err := c.descendStack(data.Else, &Frame{}); err != nil {
			return err
		}
	}
	c.emitLine("}")
	return nil
}

func (c *Compiler) lowerRepeat(node *ir.Node) error {
	data, err := payload[ir.RepeatData](node)
	if err != nil {
		return err
	}
	times, err := c.descendInput(data.Times)
	if err != nil {
		return err
	}
	counter := c.locals.Next()
	c.emitLine("var %s = %s;", counter, times.AsNumber())
	// The 0.5 threshold reproduces the legacy rounding of repeat counts.
	c.emitLine("for (; %s >= 0.5; %s--) {", counter, counter)
	if err := c.descendStack(data.Do, &Frame{IsLoop: true}); err != nil {
		return err
	}
	if err := c.yieldLoop(); err != nil {
		return err
	}
	c.emitLine("}")
	return nil
}

func (c *Compiler) lowerWhile(node *ir.Node) error {
	data, err := payload[ir.WhileData](node)
	if err != nil {
		return err
	}
	condition, err := c.descendInput(data.Condition)
	if err != nil {
		return err
	}
	c.emitLine("while (%s) {", condition.AsBoolean())
	if err := c.descendStack(data.Do, &Frame{IsLoop: true}); err != nil {
		return err
	}
	if err := c.yieldLoop(); err != nil {
		return err
	}
	c.emitLine("}")
	return nil
}

func (c *Compiler) lowerFor(node *ir.Node) error {
	data, err := payload[ir.ForData](node)
	if err != nil {
		return err
	}
	c.resetVariableInputs()
	index := c.locals.Next()
	count, err := c.descendInput(data.Count)
	if err != nil {
		return err
	}
	c.emitLine("var %s = 0;", index)
	c.emitLine("while (%s < %s) {", index, count.AsNumber())
	c.emitLine("%s++;", index)
	c.emitLine("%s.value = %s;", c.referenceVariable(data.Variable), index)
	if err := c.descendStack(data.Do, &Frame{IsLoop: true}); err != nil {
		return err
	}
	if err := c.yieldLoop(); err != nil {
		return err
	}
	c.emitLine("}")
	return nil
}

func (c *Compiler) lowerWait(node *ir.Node) error {
	data, err := payload[ir.WaitData](node)
	if err != nil {
		return err
	}
	seconds, err := c.descendInput(data.Seconds)
	if err != nil {
		return err
	}
	duration := c.locals.Next()
	c.emitLine("thread.timer = timer();")
	c.emitLine("var %s = Math.max(0, 1000 * %s);", duration, seconds.AsNumber())
	c.requestRedraw()
	// Always yield at least once, even on zero-length waits.
	if err := c.yieldNotWarp(); err != nil {
		return err
	}
	c.emitLine("while (thread.timer.timeElapsed() < %s) {", duration)
	if err := c.yieldStuckOrNotWarp(); err != nil {
		return err
	}
	c.emitLine("}")
	c.emitLine("thread.timer = null;")
	return nil
}

func (c *Compiler) lowerWaitUntil(node *ir.Node) error {
	data, err := payload[ir.WaitUntilData](node)
	if err != nil {
		return err
	}
	condition, err := c.descendInput(data.Condition)
	if err != nil {
		return err
	}
	// The condition is re-evaluated after arbitrary suspensions.
	c.resetVariableInputs()
	c.emitLine("while (!%s) {", condition.AsBoolean())
	if err := c.yieldStuckOrNotWarp(); err != nil {
		return err
	}
	c.emitLine("}")
	return nil
}

func (c *Compiler) lowerWaitOrUntil(node *ir.Node) error {
	data, err := payload[ir.WaitOrUntilData](node)
	if err != nil {
		return err
	}
	seconds, err := c.descendInput(data.Seconds)
	if err != nil {
		return err
	}
	condition, err := c.descendInput(data.Condition)
	if err != nil {
		return err
	}
	c.resetVariableInputs()
	duration := c.locals.Next()
	c.emitLine("thread.timer = timer();")
	c.emitLine("var %s = Math.max(0, 1000 * %s);", duration, seconds.AsNumber())
	c.requestRedraw()
	if err := c.yieldNotWarp(); err != nil {
		return err
	}
	c.emitLine("while (!%s && thread.timer.timeElapsed() < %s) {", condition.AsBoolean(), duration)
	if err := c.yieldStuckOrNotWarp(); err != nil {
		return err
	}
	c.emitLine("}")
	c.emitLine("thread.timer = null;")
	return nil
}

// lowerAllAtOnce forces warp mode over the nested stack so it runs
// without voluntary yields.
func (c *Compiler) lowerAllAtOnce(node *ir.Node) error {
	data, err := payload[ir.StackData](node)
	if err != nil {
		return err
	}
	savedWarp := c.isWarp
	c.isWarp = true
	err = c.descendStack(data.Do, &Frame{})
	c.isWarp = savedWarp
	return err
}

func (c *Compiler) lowerSwitch(node *ir.Node) error {
	data, err := payload[ir.SwitchData](node)
	if err != nil {
		return err
	}
	test, err := c.descendInput(data.Test)
	if err != nil {
		return err
	}
	c.emitLine("switch (%s) {", test.AsString())
	if err := c.descendStack(data.Cases, &Frame{}); err != nil {
		return err
	}
	c.emitLine("}")
	return nil
}

// lowerCase emits one switch arm. An arm with RunsNext leaves the label
// open so execution falls through into the next arm.
func (c *Compiler) lowerCase(node *ir.Node) error {
	data, err := payload[ir.CaseData](node)
	if err != nil {
		return err
	}
	condition, err := c.descendInput(data.Condition)
	if err != nil {
		return err
	}
	c.emitLine("case %s:", condition.AsString())
	if data.RunsNext {
		return nil
	}
	if err := c.descendStack(data.Do, &Frame{}); err != nil {
		return err
	}
	c.emitLine("break;")
	return nil
}

func (c *Compiler) lowerRunAsSprite(node *ir.Node) error {
	data, err := payload[ir.RunAsSpriteData](node)
	if err != nil {
		return err
	}
	object, err := c.descendInput(data.Target)
	if err != nil {
		return err
	}
	spoofed := c.locals.Next()
	c.emitLine(`var %s = %s === "_stage_" ? stage : runtime.getSpriteTargetByName(%s);`,
		spoofed, object.AsString(), object.AsString())
	saved := c.locals.Next()
	c.emitLine("if (%s) {", spoofed)
	c.emitLine("const %s = thread.target;", saved)
	c.emitLine("thread.target = %s;", spoofed)
	c.emitLine("thread.spoofing = true;")
	c.emitLine("thread.spoofTarget = %s;", spoofed)
	c.emitLine("target = %s;", spoofed)
	c.emitLine("try {")
	if err := c.descendStack(data.Do, &Frame{}); err != nil {
		return err
	}
	c.emitLine("} finally {")
	c.emitLine("thread.target = %s;", saved)
	c.emitLine("thread.spoofing = false;")
	c.emitLine("thread.spoofTarget = null;")
	c.emitLine("target = %s;", saved)
	c.emitLine("}")
	c.emitLine("}")
	c.resetVariableInputs()
	return nil
}

func (c *Compiler) lowerAddonCall(data ir.AddonCallData) error {
	fn := c.evaluateOnce(fmt.Sprintf("runtime.getAddonBlock(%s).callback", quote(data.Code)))
	parts := make([]string, 0, len(data.Arguments))
	for _, key := range sortedKeys(data.Arguments) {
		value, err := c.descendInput(data.Arguments[key])
		if err != nil {
			return err
		}
		parts = append(parts, quote(key)+": "+value.AsSafe())
	}
	obj := "{}"
	if len(parts) > 0 {
		obj = "{ " + strings.Join(parts, ", ") + " }"
	}
	id := "null"
	if data.BlockID != "" {
		id = quote(data.BlockID)
	}
	c.emitLine("yield* executeInCompatibilityLayer(%s, %s, %s, %s, %s);",
		obj, fn, jsBool(c.isWarp), jsBool(c.isLastBlockInLoop()), id)
	if err := c.yielded(); err != nil {
		return err
	}
	c.resetVariableInputs()
	return nil
}
