// Package testkit holds invariant checkers shared by tests and producer
// debugging tools.
package testkit

import (
	"fmt"
	"reflect"

	"fortio.org/safecast"

	"sprocket/internal/ir"
)

// CheckProgramInvariants runs a minimal set of structural invariants on a
// decoded program:
// 1) target names are non-empty and unique, with at most one stage
// 2) every reachable node is non-nil and carries a kind tag
// 3) procedure tables contain no nil entries
func CheckProgramInvariants(prog *ir.Program) error {
	if prog == nil {
		return fmt.Errorf("nil program")
	}
	seen := make(map[string]bool, len(prog.Targets))
	stages := 0
	for _, target := range prog.Targets {
		if target == nil {
			return fmt.Errorf("nil target")
		}
		if target.Name == "" {
			return fmt.Errorf("target with empty name")
		}
		if seen[target.Name] {
			return fmt.Errorf("duplicate target name %q", target.Name)
		}
		seen[target.Name] = true
		if target.IsStage {
			stages++
		}
		for variant, info := range target.Procedures {
			if info == nil {
				return fmt.Errorf("target %q: nil procedure %q", target.Name, variant)
			}
		}
		for i, script := range target.Scripts {
			if script == nil {
				return fmt.Errorf("target %q: nil script #%d", target.Name, i)
			}
			count := 0
			for _, node := range script.Stack {
				if err := checkNode(node, &count); err != nil {
					return fmt.Errorf("target %q script %q: %w", target.Name, script.TopBlockID, err)
				}
			}
			if _, err := safecast.Conv[uint32](count); err != nil {
				return fmt.Errorf("target %q script %q: node count overflow: %w", target.Name, script.TopBlockID, err)
			}
		}
	}
	if stages > 1 {
		return fmt.Errorf("%d stage targets, want at most 1", stages)
	}
	return nil
}

// checkNode validates one node and recurses into every *Node reachable
// through its payload, whatever its shape.
func checkNode(node *ir.Node, count *int) error {
	if node == nil {
		return fmt.Errorf("nil node")
	}
	if node.Kind == "" {
		return fmt.Errorf("node with empty kind")
	}
	*count++
	if node.Data == nil {
		return nil
	}
	return walkPayload(reflect.ValueOf(node.Data), count)
}

func walkPayload(v reflect.Value, count *int) error {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		if node, ok := v.Interface().(*ir.Node); ok {
			return checkNode(node, count)
		}
		return walkPayload(v.Elem(), count)
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if err := walkPayload(v.Field(i), count); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := walkPayload(v.Index(i), count); err != nil {
				return err
			}
		}
	case reflect.Map:
		for _, key := range v.MapKeys() {
			if err := walkPayload(v.MapIndex(key), count); err != nil {
				return err
			}
		}
	case reflect.Interface:
		if !v.IsNil() {
			return walkPayload(v.Elem(), count)
		}
	}
	return nil
}
