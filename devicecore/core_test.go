package devicecore

import (
	"testing"

	"github.com/gosdrtx/radiotx/dataset"
)

func TestScaleSamplePinsMaxAbsToFullScaleWithoutOverflow(t *testing.T) {
	widths := []int{12, 14, 16}
	for _, width := range widths {
		maxAbs := float32(4.0)
		s := scaleSample(maxAbs, -maxAbs, width, maxAbs)

		fullScale := int16(1<<(width-1) - 1)
		shift := uint(16 - width)
		want := fullScale << shift
		if s.I != want {
			t.Errorf("width %d: I = %d, want %d", width, s.I, want)
		}
		if s.Q != -want {
			t.Errorf("width %d: Q = %d, want %d", width, s.Q, -want)
		}
	}
}

func TestScaleSampleZeroStaysZero(t *testing.T) {
	s := scaleSample(0, 0, 12, 4.0)
	if s.I != 0 || s.Q != 0 {
		t.Errorf("s = %+v, want zero sample", s)
	}
}

func TestEncodeSignalProducesOneSamplePerPoint(t *testing.T) {
	signal := dataset.SignalData{
		Frames: []dataset.FrameData{
			{{I: 1, Q: 1}, {I: 2, Q: 2}},
			{{I: 3, Q: 3}},
		},
		MaxAbs: 3,
	}
	samples := encodeSignal(signal, 16)
	if len(samples) != 3 {
		t.Fatalf("len(samples) = %d, want 3", len(samples))
	}
}

func TestSilenceBufferIsAllZero(t *testing.T) {
	buf := silenceBuffer()
	if len(buf) != 1024 {
		t.Fatalf("len(buf) = %d, want 1024", len(buf))
	}
	for i, s := range buf {
		if s.I != 0 || s.Q != 0 {
			t.Fatalf("buf[%d] = %+v, want zero", i, s)
		}
	}
}

func TestIntRangeContains(t *testing.T) {
	r := IntRange{Min: 100, Step: 10, Max: 200}
	cases := []struct {
		v    int64
		want bool
	}{
		{100, true},
		{110, true},
		{105, false},
		{200, true},
		{201, false},
		{99, false},
	}
	for _, c := range cases {
		if got := r.Contains(c.v); got != c.want {
			t.Errorf("Contains(%d) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestIntRangeContainsIgnoresStepWhenZero(t *testing.T) {
	r := IntRange{Min: 0, Max: 10}
	if !r.Contains(7) {
		t.Error("expected 7 to be contained when step is zero")
	}
}

func TestFloatRangeContains(t *testing.T) {
	r := FloatRange{Min: -10, Max: 0}
	if !r.Contains(-5) {
		t.Error("expected -5 to be contained")
	}
	if r.Contains(1) {
		t.Error("expected 1 to be out of range")
	}
}

func TestRequireInitialized(t *testing.T) {
	if err := requireInitialized(true); err != nil {
		t.Errorf("requireInitialized(true) = %v, want nil", err)
	}
	if err := requireInitialized(false); err == nil {
		t.Error("requireInitialized(false) = nil, want error")
	}
}
