package dataset

// Constants is the static per-kind shape table: the number of (I,Q) pairs
// per frame, the number of frames per (modulation, SNR) combination, and
// the total number of distinct modulations and SNRs a complete parse of
// that kind must produce.
type Constants struct {
	FrameLength     int
	FramesPerCombo  int
	ModulationCount int
	SnrCount        int
}

var constantsByKind = map[Kind]Constants{
	TupleSerialized:        {FrameLength: 128, FramesPerCombo: 1000, ModulationCount: 11, SnrCount: 20},
	HierarchicalScientific: {FrameLength: 1024, FramesPerCombo: 4096, ModulationCount: 24, SnrCount: 26},
	TextTabular:            {FrameLength: 1024, FramesPerCombo: 500, ModulationCount: 26, SnrCount: 20},
}

// ConstantsFor returns the shape table for kind.
func ConstantsFor(kind Kind) Constants {
	return constantsByKind[kind]
}

// MinFrameLength returns the smallest FrameLength across every known
// dataset kind. The Transmit HAL's sampling-rate policy scales variant A's
// sampling frequency by the ratio of a newly parsed dataset's frame length
// to this minimum.
func MinFrameLength() int {
	min := -1
	for _, c := range constantsByKind {
		if min == -1 || c.FrameLength < min {
			min = c.FrameLength
		}
	}
	return min
}
