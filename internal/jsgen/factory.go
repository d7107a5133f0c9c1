package jsgen

import (
	"fmt"
	"strings"
)

// createScriptFactory wraps the accumulated body in the factory closure.
// The factory binds the thread-stable references and every hoisted setup
// expression once, then returns the script function itself: a generator
// when the script can suspend, a plain function otherwise. The inner
// preamble rebinds target so spoofed threads see the spoof target.
func (c *Compiler) createScriptFactory() string {
	factoryName := c.pools.Factory.Next()
	var scriptName string
	if c.script.Yields {
		scriptName = c.pools.Generator.Next()
	} else {
		scriptName = c.pools.Function.Next()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "(function %s(thread) {\n", factoryName)
	b.WriteString("const __target = thread.target;\n")
	b.WriteString("let target = __target;\n")
	b.WriteString("const runtime = __target.runtime;\n")
	b.WriteString("const stage = runtime.getTargetForStage();\n")
	for _, expr := range c.setupOrder {
		fmt.Fprintf(&b, "const %s = %s;\n", c.setupNames[expr], expr)
	}

	b.WriteString("return function")
	if c.script.Yields {
		b.WriteString("*")
	}
	fmt.Fprintf(&b, " %s(", scriptName)
	for i := range c.script.Arguments {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "p%d", i)
	}
	b.WriteString(") {\n")
	b.WriteString("target = __target;\n")
	b.WriteString("if (thread.spoofing) {\n")
	b.WriteString("target = thread.spoofTarget;\n")
	b.WriteString("}\n")
	b.WriteString(c.source)
	if !c.script.IsProcedure {
		b.WriteString("retire();\n")
	}
	b.WriteString("};\n})")
	return b.String()
}
