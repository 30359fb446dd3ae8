package compiler

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// Encode serializes a compiled Program to a binary form suitable for
// storing alongside, or in place of, source. Decode is its inverse;
// Encode(p) followed by Decode round-trips to an equal Program.
func Encode(p *Program) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(p); err != nil {
		return nil, fmt.Errorf("encode program: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode deserializes a Program previously produced by Encode.
func Decode(b []byte) (*Program, error) {
	var p Program
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode program: %w", err)
	}
	return &p, nil
}
