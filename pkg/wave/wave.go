package wave

import (
	"fmt"
	"strconv"
	"strings"
)

// Type identifies a generator waveform shape. The numeric values are the ids
// used on the wire in LABEL:<id>:<name> messages and generator config commands.
type Type int

const (
	Sine Type = iota
	Square
	Triangle
	Sawtooth
)

// Types returns all waveform types in wire-id order.
func Types() []Type {
	return []Type{Sine, Square, Triangle, Sawtooth}
}

// Names returns the canonical upper-case names in wire-id order.
func Names() []string {
	types := Types()
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, t.String())
	}
	return names
}

// String returns the canonical upper-case waveform name.
func (t Type) String() string {
	switch t {
	case Sine:
		return "SINE"
	case Square:
		return "SQUARE"
	case Triangle:
		return "TRIANGLE"
	case Sawtooth:
		return "SAWTOOTH"
	default:
		return fmt.Sprintf("WAVE(%d)", int(t))
	}
}

// ParseType parses a waveform name (case-insensitive) or a wire id.
func ParseType(s string) (Type, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SINE":
		return Sine, nil
	case "SQUARE":
		return Square, nil
	case "TRIANGLE":
		return Triangle, nil
	case "SAWTOOTH":
		return Sawtooth, nil
	}

	if id, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		if id >= int(Sine) && id <= int(Sawtooth) {
			return Type(id), nil
		}
		return 0, fmt.Errorf("waveform id out of range: %d", id)
	}

	return 0, fmt.Errorf("unknown waveform: %q", s)
}
