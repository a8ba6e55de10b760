// Package dataset holds the in-memory representation shared by all three
// dataset parsers and consumed by the transmit device stack: the
// (modulation, SNR) keyed store of SignalData, plus the per-kind shape
// constants used to validate parses.
package dataset

import "github.com/gosdrtx/radiotx/modulation"

// IQPoint is one complex baseband sample in host-normalized units.
type IQPoint struct {
	I float32
	Q float32
}

// FrameData is a fixed-length ordered sequence of IQPoint. Its length
// must match the owning dataset kind's FrameLength exactly.
type FrameData []IQPoint

// SignalData is an ordered sequence of equal-length FrameData plus the
// precomputed maximum absolute component value across every frame. MaxAbs
// is later used as the denominator of a device's scale factor, so a
// SignalData with MaxAbs == 0 is rejected by loaders.
type SignalData struct {
	Frames []FrameData
	MaxAbs float32
}

// Kind identifies which of the three supported dataset containers a
// SignalData originated from.
type Kind int

const (
	TupleSerialized Kind = iota
	HierarchicalScientific
	TextTabular
)

func (k Kind) String() string {
	switch k {
	case TupleSerialized:
		return "tuple-serialized"
	case HierarchicalScientific:
		return "hierarchical-scientific"
	case TextTabular:
		return "text-tabular"
	default:
		return "unknown"
	}
}

// Key identifies one (modulation, SNR) combination in the Store.
type Key struct {
	Modulation modulation.Name
	SnrDb      int
}
