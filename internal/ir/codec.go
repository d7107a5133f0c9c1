package ir

import (
	"fmt"
	"io"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"
)

// Programs travel between the block producer and the compiler as msgpack
// payloads. Node needs a custom codec because its payload type depends on
// the kind tag.

// SchemaVersion is bumped whenever the wire format changes shape.
const SchemaVersion uint16 = 1

var (
	_ msgpack.CustomEncoder = (*Node)(nil)
	_ msgpack.CustomDecoder = (*Node)(nil)
)

// EncodeMsgpack writes the node as a [kind, payload] pair.
func (n *Node) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeArrayLen(2); err != nil {
		return err
	}
	if err := enc.EncodeString(n.Kind); err != nil {
		return err
	}
	return enc.Encode(n.Data)
}

// DecodeMsgpack reads a [kind, payload] pair, picking the payload shape
// from the kind table. Kinds outside the built-in catalog decode as
// ExtensionData so registered transformers can interpret them.
func (n *Node) DecodeMsgpack(dec *msgpack.Decoder) error {
	l, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	if l != 2 {
		return fmt.Errorf("ir: node: expected 2 elements, got %d", l)
	}
	kind, err := dec.DecodeString()
	if err != nil {
		return err
	}
	n.Kind = kind

	if noPayloadKinds[kind] {
		n.Data = nil
		return dec.Skip()
	}
	typ, ok := payloadTypes[kind]
	if !ok {
		typ = reflect.TypeOf(ExtensionData{})
	}
	ptr := reflect.New(typ)
	if err := dec.Decode(ptr.Interface()); err != nil {
		return fmt.Errorf("ir: node %q: %w", kind, err)
	}
	n.Data = ptr.Elem().Interface()
	return nil
}

// EncodeProgram serializes a program, stamping the current schema version.
func EncodeProgram(w io.Writer, p *Program) error {
	if p == nil {
		return fmt.Errorf("ir: nil program")
	}
	p.Schema = SchemaVersion
	enc := msgpack.NewEncoder(w)
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("ir: encode program: %w", err)
	}
	return nil
}

// DecodeProgram reads a program and validates its schema version.
func DecodeProgram(r io.Reader) (*Program, error) {
	var p Program
	dec := msgpack.NewDecoder(r)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("ir: decode program: %w", err)
	}
	if p.Schema != SchemaVersion {
		return nil, fmt.Errorf("ir: program schema %d, want %d", p.Schema, SchemaVersion)
	}
	return &p, nil
}
