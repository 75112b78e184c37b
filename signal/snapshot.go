package signal

import "fmt"

// A Snapshot is the value of every monitored signal at one rising clock edge.
// Snapshots cannot be modified after Build, so any number of readers can share
// one without locking.
type Snapshot struct {
	awValid Logic
	awReady Logic
	awAddr  uint64
	awLen   uint64
	awSize  uint64

	wValid Logic
	wReady Logic
	wData  Vector
	wStrb  Vector
	wLast  Logic
}

// AWValid returns the write address valid signal.
func (s *Snapshot) AWValid() Logic { return s.awValid }

// AWReady returns the write address ready signal.
func (s *Snapshot) AWReady() Logic { return s.awReady }

// AWAddr returns the write address.
func (s *Snapshot) AWAddr() uint64 { return s.awAddr }

// AWLen returns the burst length field, which is the number of beats minus
// one.
func (s *Snapshot) AWLen() uint64 { return s.awLen }

// AWSize returns the burst size field, log2 of the bytes per beat.
func (s *Snapshot) AWSize() uint64 { return s.awSize }

// WValid returns the write data valid signal.
func (s *Snapshot) WValid() Logic { return s.wValid }

// WReady returns the write data ready signal.
func (s *Snapshot) WReady() Logic { return s.wReady }

// WData returns the write data.
func (s *Snapshot) WData() Vector { return s.wData }

// WStrb returns the write strobes.
func (s *Snapshot) WStrb() Vector { return s.wStrb }

// WLast returns the last-beat marker.
func (s *Snapshot) WLast() Logic { return s.wLast }

// AWHandshake tells if an address transfer completes at this edge.
func (s *Snapshot) AWHandshake() bool {
	return s.awValid.IsHigh() && s.awReady.IsHigh()
}

// WHandshake tells if a data beat transfers at this edge.
func (s *Snapshot) WHandshake() bool {
	return s.wValid.IsHigh() && s.wReady.IsHigh()
}

// WStalled tells if a data beat is offered but not accepted at this edge.
func (s *Snapshot) WStalled() bool {
	return s.wValid.IsHigh() && s.wReady.IsLow()
}

// BytesPerBeat decodes the burst size field.
func (s *Snapshot) BytesPerBeat() uint64 {
	return uint64(1) << s.awSize
}

// Beats decodes the burst length field.
func (s *Snapshot) Beats() uint64 {
	return s.awLen + 1
}

func (s *Snapshot) String() string {
	return fmt.Sprintf(
		"aw{valid=%s ready=%s addr=0x%x len=%d size=%d} "+
			"w{valid=%s ready=%s data=%s strb=%s last=%s}",
		s.awValid, s.awReady, s.awAddr, s.awLen, s.awSize,
		s.wValid, s.wReady, s.wData, s.wStrb, s.wLast,
	)
}

// SnapshotBuilder assembles a Snapshot. The zero value describes an idle bus.
type SnapshotBuilder struct {
	s Snapshot
}

// MakeSnapshotBuilder creates a SnapshotBuilder with all signals low.
func MakeSnapshotBuilder() SnapshotBuilder {
	return SnapshotBuilder{}
}

// WithAWValid sets the write address valid signal.
func (b SnapshotBuilder) WithAWValid(l Logic) SnapshotBuilder {
	b.s.awValid = l
	return b
}

// WithAWReady sets the write address ready signal.
func (b SnapshotBuilder) WithAWReady(l Logic) SnapshotBuilder {
	b.s.awReady = l
	return b
}

// WithAWAddr sets the write address.
func (b SnapshotBuilder) WithAWAddr(addr uint64) SnapshotBuilder {
	b.s.awAddr = addr
	return b
}

// WithAWLen sets the burst length field (beats - 1).
func (b SnapshotBuilder) WithAWLen(n uint64) SnapshotBuilder {
	b.s.awLen = n
	return b
}

// WithAWSize sets the burst size field.
func (b SnapshotBuilder) WithAWSize(size uint64) SnapshotBuilder {
	b.s.awSize = size
	return b
}

// WithAWHandshake sets both address valid and ready high.
func (b SnapshotBuilder) WithAWHandshake() SnapshotBuilder {
	return b.WithAWValid(High).WithAWReady(High)
}

// WithWValid sets the write data valid signal.
func (b SnapshotBuilder) WithWValid(l Logic) SnapshotBuilder {
	b.s.wValid = l
	return b
}

// WithWReady sets the write data ready signal.
func (b SnapshotBuilder) WithWReady(l Logic) SnapshotBuilder {
	b.s.wReady = l
	return b
}

// WithWData sets the write data.
func (b SnapshotBuilder) WithWData(v Vector) SnapshotBuilder {
	b.s.wData = v
	return b
}

// WithWStrb sets the write strobes.
func (b SnapshotBuilder) WithWStrb(v Vector) SnapshotBuilder {
	b.s.wStrb = v
	return b
}

// WithWLast sets the last-beat marker.
func (b SnapshotBuilder) WithWLast(l Logic) SnapshotBuilder {
	b.s.wLast = l
	return b
}

// Build validates every field against the widths and returns the snapshot.
// Unset data and strobe vectors become zero vectors of the configured width.
func (b SnapshotBuilder) Build(w Widths) (*Snapshot, error) {
	s := b.s

	if s.wData.Width() == 0 {
		s.wData = NewVector(w.Data)
	}

	if s.wStrb.Width() == 0 {
		s.wStrb = NewVector(w.Strb)
	}

	err := s.Validate(w)
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// MustBuild is like Build but panics on invalid values.
func (b SnapshotBuilder) MustBuild(w Widths) *Snapshot {
	s, err := b.Build(w)
	if err != nil {
		panic(err)
	}

	return s
}

// Validate checks that every field of the snapshot fits the widths.
func (s *Snapshot) Validate(w Widths) error {
	switch {
	case !fitsIn(s.awAddr, w.Addr):
		return fmt.Errorf("aw_addr 0x%x wider than %d bits", s.awAddr, w.Addr)
	case !fitsIn(s.awLen, w.Len):
		return fmt.Errorf("aw_len %d wider than %d bits", s.awLen, w.Len)
	case !fitsIn(s.awSize, w.Size):
		return fmt.Errorf("aw_size %d wider than %d bits", s.awSize, w.Size)
	case s.awSize > 63:
		return fmt.Errorf("aw_size %d exceeds 63", s.awSize)
	case s.wData.Width() != w.Data:
		return fmt.Errorf(
			"w_data is %d bits, expected %d", s.wData.Width(), w.Data)
	case s.wStrb.Width() != w.Strb:
		return fmt.Errorf(
			"w_strb is %d bits, expected %d", s.wStrb.Width(), w.Strb)
	}

	return nil
}
