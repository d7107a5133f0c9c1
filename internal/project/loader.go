package project

import (
	"fmt"
	"os"

	"sprocket/internal/ir"
)

// LoadProgram reads a serialized program from disk.
func LoadProgram(path string) (*ir.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, statError(path, err)
	}
	defer f.Close()
	prog, err := ir.DecodeProgram(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return prog, nil
}

// SaveProgram writes a program to disk, for producers and tests.
func SaveProgram(path string, prog *ir.Program) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ir.EncodeProgram(f, prog); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
