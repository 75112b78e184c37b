package signal

import (
	"fmt"
	"math/bits"
	"strings"
)

// Vector is an immutable unsigned value of a fixed bit width. It carries bus
// fields that can be wider than 64 bits, such as write data and write strobes.
type Vector struct {
	width int
	words []uint64
}

func numWords(width int) int {
	return (width + 63) / 64
}

// NewVector returns a zero vector of the given width.
func NewVector(width int) Vector {
	if width < 0 {
		panic("signal: negative vector width")
	}

	return Vector{width: width, words: make([]uint64, numWords(width))}
}

// VectorFromUint64 creates a vector of the given width holding v. Bits of v
// above the width are dropped.
func VectorFromUint64(width int, v uint64) Vector {
	vec := NewVector(width)
	if len(vec.words) > 0 {
		vec.words[0] = v
		vec.clearAboveWidth()
	}

	return vec
}

// ParseVector parses a hexadecimal string, with or without a 0x prefix, into a
// vector of the given width. Underscores are ignored. The value must fit in
// the width.
func ParseVector(width int, s string) (Vector, error) {
	digits := strings.ReplaceAll(strings.TrimSpace(s), "_", "")
	digits = strings.TrimPrefix(strings.TrimPrefix(digits, "0x"), "0X")
	if digits == "" {
		return Vector{}, fmt.Errorf("empty vector literal %q", s)
	}

	vec := NewVector(width)
	for i := 0; i < len(digits); i++ {
		c := digits[len(digits)-1-i]

		nibble, ok := hexValue(c)
		if !ok {
			return Vector{}, fmt.Errorf("invalid hex digit %q in %q", c, s)
		}

		if nibble == 0 {
			continue
		}

		bit := i * 4
		if bit+bits.Len64(nibble) > width {
			return Vector{}, fmt.Errorf(
				"value %s does not fit in %d bits", s, width)
		}

		vec.words[bit/64] |= nibble << (bit % 64)
	}

	return vec, nil
}

func hexValue(c byte) (uint64, bool) {
	switch {
	case c >= '0' && c <= '9':
		return uint64(c - '0'), true
	case c >= 'a' && c <= 'f':
		return uint64(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return uint64(c-'A') + 10, true
	default:
		return 0, false
	}
}

func (v *Vector) clearAboveWidth() {
	rem := v.width % 64
	if rem == 0 || len(v.words) == 0 {
		return
	}

	v.words[len(v.words)-1] &= (uint64(1) << rem) - 1
}

// Width returns the number of bits of the vector.
func (v Vector) Width() int {
	return v.width
}

// Bit returns bit i of the vector.
func (v Vector) Bit(i int) bool {
	if i < 0 || i >= v.width {
		panic(fmt.Sprintf("signal: bit %d out of range [0, %d)", i, v.width))
	}

	return v.words[i/64]&(uint64(1)<<(i%64)) != 0
}

// FlipBit returns a copy of the vector with bit i inverted.
func (v Vector) FlipBit(i int) Vector {
	if i < 0 || i >= v.width {
		panic(fmt.Sprintf("signal: bit %d out of range [0, %d)", i, v.width))
	}

	out := Vector{width: v.width, words: append([]uint64(nil), v.words...)}
	out.words[i/64] ^= uint64(1) << (i % 64)

	return out
}

// Uint64 returns the low 64 bits of the vector.
func (v Vector) Uint64() uint64 {
	if len(v.words) == 0 {
		return 0
	}

	return v.words[0]
}

// Equal returns true if both vectors have the same width and value.
func (v Vector) Equal(other Vector) bool {
	if v.width != other.width {
		return false
	}

	for i := range v.words {
		if v.words[i] != other.words[i] {
			return false
		}
	}

	return true
}

// String formats the vector as 0x-prefixed hex with one digit per started
// nibble of width.
func (v Vector) String() string {
	if v.width == 0 {
		return "0x0"
	}

	nibbles := (v.width + 3) / 4
	var b strings.Builder
	b.WriteString("0x")

	for i := nibbles - 1; i >= 0; i-- {
		bit := i * 4
		nibble := (v.words[bit/64] >> (bit % 64)) & 0xf
		fmt.Fprintf(&b, "%x", nibble)
	}

	return b.String()
}
