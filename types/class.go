package types

import (
	"encoding/json"
	"fmt"
)

// ClassKind distinguishes legacy Cairo 0 classes from Sierra classes.
type ClassKind uint8

const (
	ClassKindCairo ClassKind = iota + 1
	ClassKindSierra
)

func (k ClassKind) String() string {
	switch k {
	case ClassKindCairo:
		return "cairo"
	case ClassKindSierra:
		return "sierra"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// ClassDefinition is a downloaded class artifact. Compiled and
// CompiledClassHash are only set for Sierra classes.
type ClassDefinition struct {
	Hash              ClassHash
	Kind              ClassKind
	Definition        []byte
	CompiledClassHash CompiledClassHash
	Compiled          []byte
}

// DetectClassKind inspects a raw gateway class definition. Sierra classes
// carry a sierra_program, Cairo 0 classes a program.
func DetectClassKind(definition []byte) (ClassKind, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(definition, &probe); err != nil {
		return 0, fmt.Errorf("decoding class definition: %w", err)
	}
	if _, ok := probe["sierra_program"]; ok {
		return ClassKindSierra, nil
	}
	if _, ok := probe["program"]; ok {
		return ClassKindCairo, nil
	}
	return 0, fmt.Errorf("class definition has neither program nor sierra_program")
}
