// Package ir defines the intermediate representation consumed by the
// block-to-source compiler. A prior pass in the runtime lowers sprite
// scripts into trees of Node values; this package is the contract between
// that producer and the jsgen backend.
package ir

import "strings"

// Node is a single IR node. Kind is a dotted classifier such as "op.add" or
// "control.repeat"; Data carries the kind-specific payload (one of the
// *Data structs in payload.go). Expression nodes yield a value when
// lowered, statement nodes produce effects. Nodes are treated as immutable
// once built.
type Node struct {
	Kind string
	Data any
}

// SplitKind splits a node kind at the first dot into an extension
// identifier and a block identifier. "op.add" splits into ("op", "add");
// a kind with no dot has an empty block identifier.
func SplitKind(kind string) (ext, block string) {
	if i := strings.IndexByte(kind, '.'); i >= 0 {
		return kind[:i], kind[i+1:]
	}
	return kind, ""
}

// VariableScope says where a variable or list lives.
type VariableScope uint8

const (
	ScopeTarget VariableScope = iota // on the sprite (or clone)
	ScopeStage                       // global, on the stage
)

// VariableRef identifies a variable slot.
type VariableRef struct {
	ID      string
	Name    string
	Scope   VariableScope
	IsCloud bool
}

// ListRef identifies a list slot.
type ListRef struct {
	ID    string
	Name  string
	Scope VariableScope
}

// Script is the per-script IR header plus its statement list.
type Script struct {
	Stack         []*Node
	IsWarp        bool
	IsProcedure   bool
	Yields        bool
	WarpTimer     bool
	Arguments     []string
	ProcedureCode string
	TopBlockID    string
}

// ProcedureInfo describes one procedure variant referenced by
// procedures.call nodes. Stack is nil when the definition is missing from
// the project; callers must treat such calls as no-ops.
type ProcedureInfo struct {
	Stack     []*Node
	Yields    bool
	IsWarp    bool
	Arguments []string
}

// TargetInfo is the compile-time metadata for one target (sprite or
// stage): the scripts to compile and the name sets the lowerer consults
// for costume/sound ambiguity.
type TargetInfo struct {
	Name       string
	IsStage    bool
	Costumes   []string
	Sounds     []string
	Scripts    []*Script
	Procedures map[string]*ProcedureInfo
}

// Program is a full serialized compile request: every target of a project
// with its scripts and procedure table.
type Program struct {
	Schema  uint16
	Targets []*TargetInfo
}
