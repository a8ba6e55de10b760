package dataset

import (
	"sort"
	"strconv"

	"github.com/gosdrtx/radiotx/errs"
	"github.com/gosdrtx/radiotx/modulation"
)

// Store is the in-memory mapping from (modulation, SNR_dB) to SignalData.
// It is single-owner, held by the transmit orchestration: parsers build a
// fresh Store and hand it over only on a fully successful parse, so a
// failed parse never mutates the Store currently in use.
type Store struct {
	kind    Kind
	entries map[Key]SignalData
	mods    []modulation.Name
	snrs    []int
}

// NewStore creates an empty Store for the given dataset kind.
func NewStore(kind Kind) *Store {
	return &Store{kind: kind, entries: make(map[Key]SignalData)}
}

// Kind reports which dataset container this Store was populated from.
func (s *Store) Kind() Kind { return s.kind }

// Insert adds signal for key, rejecting a second insertion of the same
// key. A dataset file that repeats a (modulation, SNR) combination is
// treated as malformed input rather than silently overwritten or merged.
func (s *Store) Insert(key Key, signal SignalData) error {
	if _, exists := s.entries[key]; exists {
		return errs.New(errs.InputFormat, "duplicate (modulation, snr) key in dataset")
	}
	if signal.MaxAbs == 0 {
		return errs.New(errs.InputFormat, "signal data has zero maxAbs")
	}
	s.entries[key] = signal
	s.mods = appendUnique(s.mods, key.Modulation)
	s.snrs = appendUniqueInt(s.snrs, key.SnrDb)
	return nil
}

// Get retrieves the SignalData for key.
func (s *Store) Get(key Key) (SignalData, bool) {
	signal, ok := s.entries[key]
	return signal, ok
}

// Len returns the number of (modulation, SNR) combinations currently held.
func (s *Store) Len() int { return len(s.entries) }

// UniqueModulations returns the distinct modulations seen so far, in
// first-insertion order.
func (s *Store) UniqueModulations() []modulation.Name {
	out := make([]modulation.Name, len(s.mods))
	copy(out, s.mods)
	return out
}

// UniqueSNRs returns the distinct SNRs seen so far, sorted ascending.
func (s *Store) UniqueSNRs() []int {
	out := make([]int, len(s.snrs))
	copy(out, s.snrs)
	sort.Ints(out)
	return out
}

// Validate checks that the Store's cardinalities match the Constants
// table for its Kind: it must hold exactly ModulationCount distinct
// modulations and SnrCount distinct SNRs, and every SignalData must have
// FramesPerCombo frames of FrameLength points each.
func (s *Store) Validate() error {
	c := ConstantsFor(s.kind)
	if len(s.mods) != c.ModulationCount {
		return errs.New(errs.InputFormat, "modulation count mismatch after parse")
	}
	if len(s.snrs) != c.SnrCount {
		return errs.New(errs.InputFormat, "snr count mismatch after parse")
	}
	for key, signal := range s.entries {
		if len(signal.Frames) != c.FramesPerCombo {
			return errs.New(errs.InputFormat, "frame count mismatch for key "+keyLabel(key))
		}
		for _, frame := range signal.Frames {
			if len(frame) != c.FrameLength {
				return errs.New(errs.InputFormat, "frame length mismatch for key "+keyLabel(key))
			}
		}
	}
	return nil
}

func keyLabel(k Key) string {
	return "(" + strconv.Itoa(int(k.Modulation)) + "," + strconv.Itoa(k.SnrDb) + ")"
}

func appendUnique(names []modulation.Name, name modulation.Name) []modulation.Name {
	for _, existing := range names {
		if existing == name {
			return names
		}
	}
	return append(names, name)
}

func appendUniqueInt(values []int, value int) []int {
	for _, existing := range values {
		if existing == value {
			return values
		}
	}
	return append(values, value)
}
