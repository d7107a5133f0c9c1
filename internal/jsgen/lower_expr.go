package jsgen

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"sprocket/internal/ir"
)

func payload[T any](n *ir.Node) (T, error) {
	data, ok := n.Data.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("jsgen: %s: unexpected payload %T", n.Kind, n.Data)
	}
	return data, nil
}

// constantValue returns the literal behind a constant node, if any.
func constantValue(n *ir.Node) (any, bool) {
	if n == nil || n.Kind != ir.KindConstant {
		return nil, false
	}
	data, ok := n.Data.(ir.ConstantData)
	if !ok {
		return nil, false
	}
	return data.Value, true
}

// DescendInput lowers an expression node and returns its value. Extension
// transformers may call this through the compiler handle.
func (c *Compiler) DescendInput(node *ir.Node) (Value, error) {
	return c.descendInput(node)
}

func (c *Compiler) descendInput(node *ir.Node) (Value, error) {
	if node == nil {
		return nil, fmt.Errorf("jsgen: nil expression node")
	}
	c.debugNode(node.Kind)

	if fn, ok := c.extensionTransformer(node.Kind); ok {
		value, err := runExtensionTransformer(fn, node, c)
		if err != nil {
			// A broken transformer only costs its own block.
			c.warnf("extension transformer failed for %q: %v", node.Kind, err)
			return NewConstant(""), nil
		}
		if value == nil {
			value = NewConstant("")
		}
		return value, nil
	}

	switch node.Kind {
	case ir.KindConstant:
		data, err := payload[ir.ConstantData](node)
		if err != nil {
			return nil, err
		}
		cst := NewConstant(data.Value)
		if c.ambiguous[norm.NFC.String(ToString(data.Value))] {
			cst.markUnsafe()
		}
		return cst, nil

	case ir.KindNoop:
		return NewConstant(""), nil

	case ir.KindArgsBoolean:
		data, err := payload[ir.ArgumentData](node)
		if err != nil {
			return nil, err
		}
		return NewTyped(fmt.Sprintf("toBoolean(p%d)", data.Index), TypeBoolean), nil

	case ir.KindArgsStringNumber:
		data, err := payload[ir.ArgumentData](node)
		if err != nil {
			return nil, err
		}
		return NewTyped(fmt.Sprintf("p%d", data.Index), TypeUnknown), nil

	case ir.KindVarGet:
		data, err := payload[ir.VarData](node)
		if err != nil {
			return nil, err
		}
		return c.descendVariable(data.Variable), nil

	case ir.KindCompat:
		data, err := payload[ir.CompatData](node)
		if err != nil {
			return nil, err
		}
		src, err := c.generateCompatCall(data.Opcode, data.BlockID, data.Inputs, data.Fields)
		if err != nil {
			return nil, err
		}
		return NewTyped("("+src+")", TypeUnknown), nil

	case ir.KindControlInlineStack:
		data, err := payload[ir.InlineStackData](node)
		if err != nil {
			return nil, err
		}
		inner, err := c.descendStackForSource(data.Do, &Frame{})
		if err != nil {
			return nil, err
		}
		if err := c.yielded(); err != nil {
			return nil, err
		}
		return NewTyped(fmt.Sprintf("(yield* (function*() {\n%s})())", inner), TypeUnknown), nil

	case ir.KindProceduresCall:
		data, err := payload[ir.ProcedureCallData](node)
		if err != nil {
			return nil, err
		}
		call, ok, err := c.generateProcedureCall(data)
		if err != nil {
			return nil, err
		}
		if !ok {
			return NewConstant(""), nil
		}
		c.resetVariableInputs()
		return NewTyped("("+call+")", TypeUnknown), nil

	case ir.KindBroadcastFunction:
		data, err := payload[ir.BroadcastData](node)
		if err != nil {
			return nil, err
		}
		broadcast, err := c.descendInput(data.Broadcast)
		if err != nil {
			return nil, err
		}
		if err := c.yielded(); err != nil {
			return nil, err
		}
		c.resetVariableInputs()
		src := fmt.Sprintf(
			`(yield* waitThreads(startHats("event_whenbroadcastreceived", { BROADCAST_OPTION: %s })))`,
			broadcast.AsSafe(),
		)
		return NewTyped(src, TypeUnknown), nil

	case ir.KindMathPolygon:
		data, err := payload[ir.PolygonData](node)
		if err != nil {
			return nil, err
		}
		points := make([]string, 0, len(data.Points))
		for _, p := range data.Points {
			x, err := c.descendInput(p.X)
			if err != nil {
				return nil, err
			}
			y, err := c.descendInput(p.Y)
			if err != nil {
				return nil, err
			}
			points = append(points, fmt.Sprintf("{ x: %s, y: %s }", x.AsNumber(), y.AsNumber()))
		}
		return NewTyped("["+strings.Join(points, ", ")+"]", TypeUnknown), nil
	}

	if strings.HasPrefix(node.Kind, "op.") {
		return c.descendOperator(node)
	}
	if v, handled, err := c.descendQueryInput(node); handled {
		return v, err
	}
	return nil, fmt.Errorf("jsgen: %w: expression %q", ErrUnknownKind, node.Kind)
}

// descendOperator lowers the op.* expression family.
func (c *Compiler) descendOperator(node *ir.Node) (Value, error) {
	switch node.Kind {
	case ir.KindOpAdd, ir.KindOpSubtract, ir.KindOpMultiply, ir.KindOpDivide:
		data, err := payload[ir.BinaryData](node)
		if err != nil {
			return nil, err
		}
		left, right, err := c.descendBinary(data)
		if err != nil {
			return nil, err
		}
		op := map[string]string{
			ir.KindOpAdd:      "+",
			ir.KindOpSubtract: "-",
			ir.KindOpMultiply: "*",
			ir.KindOpDivide:   "/",
		}[node.Kind]
		return NewTyped(fmt.Sprintf("(%s %s %s)", left.AsNumber(), op, right.AsNumber()), TypeNumberOrNaN), nil

	case ir.KindOpMod:
		data, err := payload[ir.BinaryData](node)
		if err != nil {
			return nil, err
		}
		left, right, err := c.descendBinary(data)
		if err != nil {
			return nil, err
		}
		c.sawModulo = true
		return NewTyped(fmt.Sprintf("mod(%s, %s)", left.AsNumber(), right.AsNumber()), TypeNumberOrNaN), nil

	case ir.KindOpEquals:
		data, err := payload[ir.BinaryData](node)
		if err != nil {
			return nil, err
		}
		left, right, err := c.descendBinary(data)
		if err != nil {
			return nil, err
		}
		return c.lowerEquals(left, right), nil

	case ir.KindOpLess, ir.KindOpGreater:
		data, err := payload[ir.BinaryData](node)
		if err != nil {
			return nil, err
		}
		left, right, err := c.descendBinary(data)
		if err != nil {
			return nil, err
		}
		return c.lowerOrdering(node.Kind, left, right), nil

	case ir.KindOpAnd, ir.KindOpOr:
		data, err := payload[ir.BinaryData](node)
		if err != nil {
			return nil, err
		}
		left, right, err := c.descendBinary(data)
		if err != nil {
			return nil, err
		}
		op := "&&"
		if node.Kind == ir.KindOpOr {
			op = "||"
		}
		return NewTyped(fmt.Sprintf("(%s %s %s)", left.AsBoolean(), op, right.AsBoolean()), TypeBoolean), nil

	case ir.KindOpNot:
		data, err := payload[ir.UnaryData](node)
		if err != nil {
			return nil, err
		}
		value, err := c.descendInput(data.Value)
		if err != nil {
			return nil, err
		}
		return NewTyped("!"+value.AsBoolean(), TypeBoolean), nil

	case ir.KindOpJoin:
		data, err := payload[ir.BinaryData](node)
		if err != nil {
			return nil, err
		}
		left, right, err := c.descendBinary(data)
		if err != nil {
			return nil, err
		}
		return NewTyped(fmt.Sprintf("(%s + %s)", left.AsString(), right.AsString()), TypeString), nil

	case ir.KindOpLength:
		data, err := payload[ir.UnaryData](node)
		if err != nil {
			return nil, err
		}
		value, err := c.descendInput(data.Value)
		if err != nil {
			return nil, err
		}
		return NewTyped(value.AsString()+".length", TypeNumber), nil

	case ir.KindOpLetterOf:
		data, err := payload[ir.LetterOfData](node)
		if err != nil {
			return nil, err
		}
		letter, err := c.descendInput(data.Letter)
		if err != nil {
			return nil, err
		}
		str, err := c.descendInput(data.String)
		if err != nil {
			return nil, err
		}
		return NewTyped(fmt.Sprintf(`((%s)[(%s | 0) - 1] || "")`, str.AsString(), letter.AsNumber()), TypeString), nil

	case ir.KindOpContains:
		data, err := payload[ir.StringContainsData](node)
		if err != nil {
			return nil, err
		}
		str, err := c.descendInput(data.String)
		if err != nil {
			return nil, err
		}
		contains, err := c.descendInput(data.Contains)
		if err != nil {
			return nil, err
		}
		src := fmt.Sprintf("(%s.toLowerCase().indexOf(%s.toLowerCase()) !== -1)", str.AsString(), contains.AsString())
		return NewTyped(src, TypeBoolean), nil

	case ir.KindOpRandom:
		data, err := payload[ir.RandomData](node)
		if err != nil {
			return nil, err
		}
		return c.lowerRandom(data)

	case ir.KindOpAbs:
		return c.unaryNumber(node, "Math.abs(%s)", TypeNumber)
	case ir.KindOpCeiling:
		return c.unaryNumber(node, "Math.ceil(%s)", TypeNumber)
	case ir.KindOpFloor:
		return c.unaryNumber(node, "Math.floor(%s)", TypeNumber)
	case ir.KindOpRound:
		return c.unaryNumber(node, "Math.round(%s)", TypeNumber)
	case ir.KindOpSqrt:
		return c.unaryNumber(node, "Math.sqrt(%s)", TypeNumberOrNaN)
	case ir.KindOpLn:
		return c.unaryNumber(node, "Math.log(%s)", TypeNumberOrNaN)
	case ir.KindOpLog:
		return c.unaryNumber(node, "(Math.log(%s) / Math.LN10)", TypeNumberOrNaN)
	case ir.KindOpEPow:
		return c.unaryNumber(node, "Math.exp(%s)", TypeNumber)
	case ir.KindOpTenPow:
		return c.unaryNumber(node, "Math.pow(10, %s)", TypeNumber)

	case ir.KindOpSin:
		// Rounding to 10 places canonicalizes near-zero float artifacts
		// so sin/cos of right angles come out exact.
		return c.unaryNumber(node, "(Math.round(Math.sin((Math.PI * %s) / 180) * 1e10) / 1e10)", TypeNumberOrNaN)
	case ir.KindOpCos:
		return c.unaryNumber(node, "(Math.round(Math.cos((Math.PI * %s) / 180) * 1e10) / 1e10)", TypeNumberOrNaN)
	case ir.KindOpTan:
		return c.unaryNumber(node, "tan(%s)", TypeNumberOrNaN)
	case ir.KindOpAsin:
		return c.unaryNumber(node, "((Math.asin(%s) * 180) / Math.PI)", TypeNumberOrNaN)
	case ir.KindOpAcos:
		return c.unaryNumber(node, "((Math.acos(%s) * 180) / Math.PI)", TypeNumberOrNaN)
	case ir.KindOpAtan:
		return c.unaryNumber(node, "((Math.atan(%s) * 180) / Math.PI)", TypeNumber)

	case ir.KindOpAdvLog:
		// log base left of right.
		data, err := payload[ir.BinaryData](node)
		if err != nil {
			return nil, err
		}
		left, right, err := c.descendBinary(data)
		if err != nil {
			return nil, err
		}
		src := fmt.Sprintf("(Math.log(%s) / Math.log(%s))", right.AsNumber(), left.AsNumber())
		return NewTyped(src, TypeNumberOrNaN), nil
	}
	return nil, fmt.Errorf("jsgen: %w: expression %q", ErrUnknownKind, node.Kind)
}

func (c *Compiler) descendBinary(data ir.BinaryData) (Value, Value, error) {
	left, err := c.descendInput(data.Left)
	if err != nil {
		return nil, nil, err
	}
	right, err := c.descendInput(data.Right)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func (c *Compiler) unaryNumber(node *ir.Node, format string, typ Type) (Value, error) {
	data, err := payload[ir.UnaryData](node)
	if err != nil {
		return nil, err
	}
	value, err := c.descendInput(data.Value)
	if err != nil {
		return nil, err
	}
	return NewTyped(fmt.Sprintf(format, value.AsNumber()), typ), nil
}

// lowerEquals picks the cheapest equality strategy the static types
// allow. A constant only counts as numerically comparable when its text
// round-trips through the number form; "010" reads back as "10", and ===
// against its string form would get that wrong.
func (c *Compiler) lowerEquals(left, right Value) Value {
	// If either side can never be a number, compare as lowercased strings
	// and skip number parsing entirely.
	if left.IsNeverNumber() || right.IsNeverNumber() {
		src := fmt.Sprintf("(%s.toLowerCase() === %s.toLowerCase())", left.AsString(), right.AsString())
		return NewTyped(src, TypeBoolean)
	}
	if numberComparable(left) && numberComparable(right) {
		return NewTyped(fmt.Sprintf("(%s === %s)", left.AsNumber(), right.AsNumber()), TypeBoolean)
	}
	// A single optimization-safe constant side still allows === against a
	// non-constant operand.
	if lc, ok := left.(*Constant); ok && lc.IsAlwaysNumber() && isSafeConstantForEqualsOptimization(lc) {
		if _, otherConstant := right.(*Constant); !otherConstant {
			return NewTyped(fmt.Sprintf("(%s === %s)", left.AsNumber(), right.AsNumber()), TypeBoolean)
		}
	}
	if rc, ok := right.(*Constant); ok && rc.IsAlwaysNumber() && isSafeConstantForEqualsOptimization(rc) {
		if _, otherConstant := left.(*Constant); !otherConstant {
			return NewTyped(fmt.Sprintf("(%s === %s)", left.AsNumber(), right.AsNumber()), TypeBoolean)
		}
	}
	return NewTyped(fmt.Sprintf("compareEqual(%s, %s)", left.AsUnknown(), right.AsUnknown()), TypeBoolean)
}

// numberComparable reports whether === on the numeric coercion is exact
// for this value.
func numberComparable(v Value) bool {
	if cst, ok := v.(*Constant); ok {
		return cst.IsAlwaysNumber() && isSafeConstantForEqualsOptimization(cst)
	}
	return v.IsAlwaysNumber()
}

// lowerOrdering emits < and > with NaN-correct semantics: a strict
// comparison is usable only when NaN cannot land on the side where it
// would flip the result, otherwise the complementary non-strict form is
// negated.
func (c *Compiler) lowerOrdering(kind string, left, right Value) Value {
	if kind == ir.KindOpLess {
		if left.IsAlwaysNumberOrNaN() && right.IsAlwaysNumber() {
			return NewTyped(fmt.Sprintf("(%s < %s)", left.AsNumberOrNaN(), right.AsNumber()), TypeBoolean)
		}
		if left.IsAlwaysNumber() && right.IsAlwaysNumberOrNaN() {
			return NewTyped(fmt.Sprintf("!(%s >= %s)", left.AsNumber(), right.AsNumberOrNaN()), TypeBoolean)
		}
		if left.IsNeverNumber() || right.IsNeverNumber() {
			return NewTyped(fmt.Sprintf("(%s.toLowerCase() < %s.toLowerCase())", left.AsString(), right.AsString()), TypeBoolean)
		}
		return NewTyped(fmt.Sprintf("compareLessThan(%s, %s)", left.AsUnknown(), right.AsUnknown()), TypeBoolean)
	}
	if left.IsAlwaysNumber() && right.IsAlwaysNumberOrNaN() {
		return NewTyped(fmt.Sprintf("(%s > %s)", left.AsNumber(), right.AsNumberOrNaN()), TypeBoolean)
	}
	if left.IsAlwaysNumberOrNaN() && right.IsAlwaysNumber() {
		return NewTyped(fmt.Sprintf("!(%s <= %s)", left.AsNumberOrNaN(), right.AsNumber()), TypeBoolean)
	}
	if left.IsNeverNumber() || right.IsNeverNumber() {
		return NewTyped(fmt.Sprintf("(%s.toLowerCase() > %s.toLowerCase())", left.AsString(), right.AsString()), TypeBoolean)
	}
	return NewTyped(fmt.Sprintf("compareGreaterThan(%s, %s)", left.AsUnknown(), right.AsUnknown()), TypeBoolean)
}

func (c *Compiler) lowerRandom(data ir.RandomData) (Value, error) {
	low, err := c.descendInput(data.Low)
	if err != nil {
		return nil, err
	}
	high, err := c.descendInput(data.High)
	if err != nil {
		return nil, err
	}
	lowLit, lowOK := constantValue(data.Low)
	highLit, highOK := constantValue(data.High)
	if lowOK && highOK {
		if isWholeNumber(lowLit) && isWholeNumber(highLit) {
			return NewTyped(fmt.Sprintf("randomInt(%s, %s)", low.AsNumber(), high.AsNumber()), TypeNumber), nil
		}
		return NewTyped(fmt.Sprintf("randomFloat(%s, %s)", low.AsNumber(), high.AsNumber()), TypeNumber), nil
	}
	// Non-constant bounds decide int vs float at evaluation time.
	src := fmt.Sprintf("runtime.ext_scratch3_operators._random(%s, %s)", low.AsUnknown(), high.AsUnknown())
	return NewTyped(src, TypeNumber), nil
}

func isWholeNumber(v any) bool {
	n := ToNumber(v)
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return false
	}
	return n == math.Trunc(n)
}

// generateProcedureCall builds the call fragment shared by the statement
// and expression forms. ok is false when the definition is missing, in
// which case the call site becomes a no-op.
func (c *Compiler) generateProcedureCall(data ir.ProcedureCallData) (call string, ok bool, err error) {
	info := c.procs[data.Variant]
	if info == nil || info.Stack == nil {
		c.warnf("procedures.call: no definition for %q", data.Variant)
		return "", false, nil
	}
	// Direct recursion outside warp needs a yield so the thread cannot
	// monopolize the sequencer.
	if data.Code == c.script.ProcedureCode {
		if err := c.yieldNotWarp(); err != nil {
			return "", false, err
		}
	}
	args := make([]string, 0, len(data.Arguments))
	for _, argNode := range data.Arguments {
		arg, err := c.descendInput(argNode)
		if err != nil {
			return "", false, err
		}
		args = append(args, arg.AsSafe())
	}
	call = fmt.Sprintf("thread.procedures[%s](%s)", quote(data.Variant), strings.Join(args, ", "))
	if info.Yields {
		call = "yield* " + call
		if err := c.yielded(); err != nil {
			return "", false, err
		}
	}
	return call, true, nil
}

// generateCompatCall routes a block through the runtime's compatibility
// layer. The opcode function is hoisted so the lookup happens once per
// script instantiation.
func (c *Compiler) generateCompatCall(opcode, blockID string, inputs map[string]*ir.Node, fields map[string]string) (string, error) {
	fn := c.evaluateOnce(fmt.Sprintf("runtime.getOpcodeFunction(%s)", quote(opcode)))
	parts := make([]string, 0, len(inputs)+len(fields))
	for _, key := range sortedKeys(inputs) {
		value, err := c.descendInput(inputs[key])
		if err != nil {
			return "", err
		}
		parts = append(parts, quote(key)+": "+value.AsSafe())
	}
	for _, key := range sortedKeys(fields) {
		parts = append(parts, quote(key)+": "+quote(fields[key]))
	}
	obj := "{ " + strings.Join(parts, ", ") + " }"
	if len(parts) == 0 {
		obj = "{}"
	}
	id := "null"
	if blockID != "" {
		id = quote(blockID)
	}
	src := fmt.Sprintf("yield* executeInCompatibilityLayer(%s, %s, %s, %s, %s)",
		obj, fn, jsBool(c.isWarp), jsBool(c.isLastBlockInLoop()), id)
	if err := c.yielded(); err != nil {
		return "", err
	}
	return src, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
