package signal

import "fmt"

// Widths holds the bit widths of the monitored bus fields. They are fixed for
// a run and only affect value validation and decoded byte counts.
type Widths struct {
	Addr int `yaml:"addr" json:"addr"`
	Data int `yaml:"data" json:"data"`
	Strb int `yaml:"strb" json:"strb"`
	Len  int `yaml:"len" json:"len"`
	Size int `yaml:"size" json:"size"`
}

// DefaultWidths returns the widths of a 32-bit bus with 8-bit burst length and
// 3-bit burst size fields.
func DefaultWidths() Widths {
	return Widths{
		Addr: 32,
		Data: 32,
		Strb: 4,
		Len:  8,
		Size: 3,
	}
}

// Validate checks that the widths describe a realizable bus.
func (w Widths) Validate() error {
	switch {
	case w.Addr < 1 || w.Addr > 64:
		return fmt.Errorf("address width %d out of range [1, 64]", w.Addr)
	case w.Data < 8 || w.Data%8 != 0:
		return fmt.Errorf("data width %d must be a positive multiple of 8", w.Data)
	case w.Strb != w.Data/8:
		return fmt.Errorf(
			"strobe width %d must be data width / 8 = %d", w.Strb, w.Data/8)
	case w.Len < 1 || w.Len > 32:
		return fmt.Errorf("burst length width %d out of range [1, 32]", w.Len)
	case w.Size < 1 || w.Size > 6:
		return fmt.Errorf("burst size width %d out of range [1, 6]", w.Size)
	}

	return nil
}

// MaxBeats returns the largest number of beats a burst can declare.
func (w Widths) MaxBeats() uint64 {
	return uint64(1) << w.Len
}

func fitsIn(v uint64, width int) bool {
	if width >= 64 {
		return true
	}

	return v>>width == 0
}
