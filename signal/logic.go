// Package signal defines the values sampled from the write address and write
// data channels on each clock edge.
package signal

import (
	"fmt"
	"strings"
)

// Logic is the value of a single-bit signal. Besides 0 and 1 a signal can be
// unknown (x) or undriven (z). Only High counts as asserted.
type Logic uint8

// Possible Logic values.
const (
	Low Logic = iota
	High
	Unknown
	HighZ
)

// Bool converts a Go bool into Low or High.
func Bool(b bool) Logic {
	if b {
		return High
	}

	return Low
}

// IsHigh returns true only for a driven 1.
func (l Logic) IsHigh() bool {
	return l == High
}

// IsLow returns true only for a driven 0.
func (l Logic) IsLow() bool {
	return l == Low
}

// IsKnown returns true for a driven 0 or 1.
func (l Logic) IsKnown() bool {
	return l == Low || l == High
}

func (l Logic) String() string {
	switch l {
	case Low:
		return "0"
	case High:
		return "1"
	case Unknown:
		return "x"
	case HighZ:
		return "z"
	default:
		return fmt.Sprintf("Logic(%d)", uint8(l))
	}
}

// ParseLogic accepts 0, 1, x and z (case-insensitive), as well as true and
// false.
func ParseLogic(s string) (Logic, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "false":
		return Low, nil
	case "1", "true":
		return High, nil
	case "x":
		return Unknown, nil
	case "z":
		return HighZ, nil
	default:
		return Unknown, fmt.Errorf("invalid logic value %q", s)
	}
}
