package hierarchical

import (
	"testing"

	"github.com/gosdrtx/radiotx/dataset"
	"github.com/gosdrtx/radiotx/errs"
	"github.com/gosdrtx/radiotx/modulation"
)

// fakeSource is a minimal in-memory Source backed by one flat float64
// buffer representing dataset "X", enough to drive Parse's slab math
// without a real scientific-data container.
type fakeSource struct {
	shapeX []int
	shapeY []int
	shapeZ []int
	buffer []float64
}

func (f *fakeSource) Datasets() ([]DatasetInfo, error) {
	return []DatasetInfo{
		{Name: "X", Shape: f.shapeX, IsFloat: true},
		{Name: "Y", Shape: f.shapeY, IsFloat: false},
		{Name: "Z", Shape: f.shapeZ, IsFloat: true},
	}, nil
}

func (f *fakeSource) ReadFloats(name string, startElement, count int64) ([]float64, error) {
	return f.buffer[startElement : startElement+count], nil
}

// smallConsts keeps the real 24-entry modulation ordering and SNR
// count meaningful while shrinking frame length and frame count so
// the fixture stays tiny.
func smallConsts() dataset.Constants {
	return dataset.Constants{FrameLength: 2, FramesPerCombo: 2, ModulationCount: 24, SnrCount: 26}
}

func newFakeSource(consts dataset.Constants) *fakeSource {
	totalRows := consts.FramesPerCombo * consts.ModulationCount * consts.SnrCount
	buf := make([]float64, totalRows*consts.FrameLength*2)
	for i := range buf {
		// Every element is its own flat index, so a read's contents are
		// checkable against the known slab offset math.
		buf[i] = float64(i)
	}

	return &fakeSource{
		shapeX: []int{totalRows, consts.FrameLength, 2},
		shapeY: []int{totalRows, consts.ModulationCount},
		shapeZ: []int{totalRows, 1},
		buffer: buf,
	}
}

func TestParseSelectsCorrectSlabForModulation(t *testing.T) {
	consts := smallConsts()
	src := newFakeSource(consts)

	store, err := parseWithConstants(src, modulation.BPSK, consts)
	if err != nil {
		t.Fatalf("parseWithConstants: %v", err)
	}
	if got := store.Len(); got != consts.SnrCount {
		t.Fatalf("Len = %d, want %d", got, consts.SnrCount)
	}

	// BPSK is index 3 in hierarchicalModOrder.
	frameElements := int64(2 * consts.FrameLength)
	totalRows := consts.FramesPerCombo * consts.ModulationCount * consts.SnrCount
	modRows := int64(totalRows / consts.ModulationCount)
	expectedStart := float64(3) * float64(modRows) * float64(frameElements)

	signal, ok := store.Get(dataset.Key{Modulation: modulation.BPSK, SnrDb: -20})
	if !ok {
		t.Fatal("expected BPSK/-20dB entry")
	}
	if signal.Frames[0][0].I != float32(expectedStart) {
		t.Errorf("first I value = %v, want %v", signal.Frames[0][0].I, expectedStart)
	}
	if signal.Frames[0][0].Q != float32(expectedStart+1) {
		t.Errorf("first Q value = %v, want %v", signal.Frames[0][0].Q, expectedStart+1)
	}
}

func TestParseRejectsUnknownModulation(t *testing.T) {
	consts := smallConsts()
	src := newFakeSource(consts)

	_, err := parseWithConstants(src, modulation.Unknown, consts)
	if err == nil {
		t.Fatal("expected error for Unknown modulation")
	}
	if !errs.Is(err, errs.InputFormat) {
		t.Fatalf("expected InputFormat, got %v", err)
	}
}

func TestParseRejectsBadShape(t *testing.T) {
	consts := smallConsts()
	src := newFakeSource(consts)
	src.shapeX[1] = 99

	_, err := parseWithConstants(src, modulation.BPSK, consts)
	if err == nil {
		t.Fatal("expected error for bad X shape")
	}
	if !errs.Is(err, errs.InputFormat) {
		t.Fatalf("expected InputFormat, got %v", err)
	}
}
