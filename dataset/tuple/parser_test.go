package tuple

import (
	"testing"

	"github.com/gosdrtx/radiotx/dataset"
	"github.com/gosdrtx/radiotx/errs"
	"github.com/gosdrtx/radiotx/modulation"
)

func TestParseKeyExtractsModulationAndSnr(t *testing.T) {
	reg, err := modulation.New()
	if err != nil {
		t.Fatalf("modulation.New: %v", err)
	}
	text := "('QPSK', -4)"
	key, next, err := parseKey(text, 0, reg)
	if err != nil {
		t.Fatalf("parseKey: %v", err)
	}
	if key.Modulation != modulation.QPSK {
		t.Errorf("Modulation = %v, want QPSK", key.Modulation)
	}
	if key.SnrDb != -4 {
		t.Errorf("SnrDb = %d, want -4", key.SnrDb)
	}
	if next != len(text) {
		t.Errorf("next = %d, want %d", next, len(text))
	}
}

func TestParseKeyRejectsMissingSeparator(t *testing.T) {
	reg, err := modulation.New()
	if err != nil {
		t.Fatalf("modulation.New: %v", err)
	}
	_, _, err = parseKey("('QPSK' -4)", 0, reg)
	if err == nil {
		t.Fatal("expected error for missing separator")
	}
	if !errs.Is(err, errs.InputFormat) {
		t.Fatalf("expected InputFormat, got %v", err)
	}
}

func TestParseValueReshapesIntoFramesAndComputesMaxAbs(t *testing.T) {
	consts := dataset.Constants{FrameLength: 2, FramesPerCombo: 2}
	// Two frames, each 2 I values then 2 Q values: frame0=(1,-3),(2,4); frame1=(0.5,0.5),(0.5,0.5)
	text := "([1,2,-3,4,0.5,0.5,0.5,0.5])"
	signal, next, err := parseValue(text, 0, 8, consts)
	if err != nil {
		t.Fatalf("parseValue: %v", err)
	}
	if next != len(text) {
		t.Errorf("next = %d, want %d", next, len(text))
	}
	if len(signal.Frames) != 2 {
		t.Fatalf("frame count = %d, want 2", len(signal.Frames))
	}
	if signal.Frames[0][0] != (dataset.IQPoint{I: 1, Q: -3}) {
		t.Errorf("frame0[0] = %+v, want {1 -3}", signal.Frames[0][0])
	}
	if signal.Frames[0][1] != (dataset.IQPoint{I: 2, Q: 4}) {
		t.Errorf("frame0[1] = %+v, want {2 4}", signal.Frames[0][1])
	}
	if signal.MaxAbs != 4 {
		t.Errorf("MaxAbs = %v, want 4", signal.MaxAbs)
	}
}

func TestParseValueRejectsWrongFloatCount(t *testing.T) {
	consts := dataset.Constants{FrameLength: 2, FramesPerCombo: 2}
	_, _, err := parseValue("([1,2,3])", 0, 8, consts)
	if err == nil {
		t.Fatal("expected error for wrong float count")
	}
	if !errs.Is(err, errs.InputFormat) {
		t.Fatalf("expected InputFormat, got %v", err)
	}
}

func TestTokenizeFloatsRejectsInvalidToken(t *testing.T) {
	_, err := tokenizeFloats("1,not-a-float,3")
	if err == nil {
		t.Fatal("expected error for invalid float token")
	}
	if !errs.Is(err, errs.InputFormat) {
		t.Fatalf("expected InputFormat, got %v", err)
	}
}

func TestParseRejectsWrongFloatCountEndToEnd(t *testing.T) {
	reg, err := modulation.New()
	if err != nil {
		t.Fatalf("modulation.New: %v", err)
	}
	literal := "('BPSK', -20):([0.1,0.2,0.3])"

	_, err = Parse(literal, reg)
	if err == nil {
		t.Fatal("expected error for wrong float count")
	}
	if !errs.Is(err, errs.InputFormat) {
		t.Fatalf("expected InputFormat, got %v", err)
	}
}

func TestParseFailsCardinalityOnIncompleteDataset(t *testing.T) {
	reg, err := modulation.New()
	if err != nil {
		t.Fatalf("modulation.New: %v", err)
	}
	consts := dataset.ConstantsFor(dataset.TupleSerialized)
	n := consts.FrameLength * consts.FramesPerCombo * 2

	var sb []byte
	sb = append(sb, []byte("('BPSK', -20):([")...)
	for i := 0; i < n; i++ {
		if i > 0 {
			sb = append(sb, ',')
		}
		sb = append(sb, []byte("0.1")...)
	}
	sb = append(sb, []byte("])")...)

	_, err = Parse(string(sb), reg)
	if err == nil {
		t.Fatal("expected cardinality failure for single-entry dataset")
	}
	if !errs.Is(err, errs.InputFormat) {
		t.Fatalf("expected InputFormat, got %v", err)
	}
}
