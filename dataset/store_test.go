package dataset

import (
	"testing"

	"github.com/gosdrtx/radiotx/errs"
	"github.com/gosdrtx/radiotx/modulation"
)

func sampleSignal(frames, frameLen int, maxAbs float32) SignalData {
	out := SignalData{Frames: make([]FrameData, frames), MaxAbs: maxAbs}
	for f := range out.Frames {
		frame := make(FrameData, frameLen)
		for p := range frame {
			frame[p] = IQPoint{I: 1, Q: 2}
		}
		out.Frames[f] = frame
	}
	return out
}

func TestStoreInsertAndGet(t *testing.T) {
	s := NewStore(TupleSerialized)
	key := Key{Modulation: modulation.QPSK, SnrDb: -4}
	signal := sampleSignal(1000, 128, 2)

	if err := s.Insert(key, signal); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	got, ok := s.Get(key)
	if !ok {
		t.Fatal("expected key to be present")
	}
	if got.MaxAbs != 2 {
		t.Fatalf("MaxAbs = %v, want 2", got.MaxAbs)
	}
}

func TestStoreRejectsDuplicateKey(t *testing.T) {
	s := NewStore(TupleSerialized)
	key := Key{Modulation: modulation.QPSK, SnrDb: -4}
	signal := sampleSignal(1000, 128, 2)

	if err := s.Insert(key, signal); err != nil {
		t.Fatalf("first Insert: %v", err)
	}
	err := s.Insert(key, signal)
	if err == nil {
		t.Fatal("expected duplicate key to be rejected")
	}
	if !errs.Is(err, errs.InputFormat) {
		t.Fatalf("expected InputFormat kind, got %v", err)
	}
}

func TestStoreRejectsZeroMaxAbs(t *testing.T) {
	s := NewStore(TupleSerialized)
	key := Key{Modulation: modulation.QPSK, SnrDb: -4}
	signal := sampleSignal(1000, 128, 0)

	err := s.Insert(key, signal)
	if err == nil {
		t.Fatal("expected zero maxAbs to be rejected")
	}
	if !errs.Is(err, errs.InputFormat) {
		t.Fatalf("expected InputFormat kind, got %v", err)
	}
}

func TestStoreValidateCardinality(t *testing.T) {
	s := NewStore(TupleSerialized)
	key := Key{Modulation: modulation.QPSK, SnrDb: -4}
	if err := s.Insert(key, sampleSignal(1000, 128, 2)); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	// Only one (modulation, snr) combination inserted; TupleSerialized
	// requires 11 modulations and 20 SNRs, so validation must fail.
	if err := s.Validate(); err == nil {
		t.Fatal("expected Validate to fail cardinality check")
	}
}

func TestMinFrameLength(t *testing.T) {
	if got := MinFrameLength(); got != 128 {
		t.Fatalf("MinFrameLength() = %d, want 128", got)
	}
}
