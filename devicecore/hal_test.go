package devicecore

import (
	"context"
	"net"
	"strings"
	"testing"

	"github.com/gosdrtx/radiotx/dataset"
	"github.com/gosdrtx/radiotx/internal/mdns"
)

func TestDiscoverMergesStaticAndMdnsDeduped(t *testing.T) {
	h := &HAL{
		browse: func(timeoutSeconds int) ([]mdns.Host, error) {
			return []mdns.Host{
				{Instance: "iiod on pluto", Addresses: []net.IP{net.ParseIP("192.168.2.1")}, Port: 30431},
				{Instance: "no address", Addresses: nil, Port: 30431},
			}, nil
		},
	}

	static := []Context{{URI: "192.168.2.1:30431", Description: "already known"}}
	out, err := h.Discover(static, 3)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1 (deduped)", len(out))
	}
	if out[0].Description != "already known" {
		t.Errorf("expected static entry to win, got %q", out[0].Description)
	}
}

func TestDiscoverSkipsMdnsWhenTimeoutNonPositive(t *testing.T) {
	called := false
	h := &HAL{
		browse: func(timeoutSeconds int) ([]mdns.Host, error) {
			called = true
			return nil, nil
		},
	}
	if _, err := h.Discover(nil, 0); err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if called {
		t.Error("expected mdns browse to be skipped")
	}
}

func TestVariantForMatchesKnownFamilies(t *testing.T) {
	cases := map[string]bool{
		"iiod on pluto":        true,
		"FMCOMMS2 (AD9361)":    true,
		"AD9364-FMCOMMS4":      true,
		"ADRV9009-ZU11EG":      true,
		"AD9081-FMCOMMS8":      true,
		"ad9082 eval board":    true,
		"some unrelated board": false,
	}
	for desc, wantMatch := range cases {
		_, err := variantFor(desc, nil)
		if wantMatch && err != nil {
			t.Errorf("variantFor(%q) = %v, want a match", desc, err)
		}
		if !wantMatch && err == nil {
			t.Errorf("variantFor(%q) = nil error, want no match", desc)
		}
	}
}

func TestMatchesVariantBOrCRejectsVariantA(t *testing.T) {
	cases := map[string]bool{
		"iiod on pluto":      false,
		"FMCOMMS2 (AD9361)":  false,
		"AD9364-FMCOMMS4":    false,
		"ADRV9009-ZU11EG":    true,
		"AD9081-FMCOMMS8":    true,
		"ad9082 eval board":  true,
		"some unrelated box": false,
	}
	for desc, want := range cases {
		got := matchesVariantBOrC(strings.ToLower(desc))
		if got != want {
			t.Errorf("matchesVariantBOrC(%q) = %v, want %v", desc, got, want)
		}
	}
}

// TestPlanSamplingFrequencyScalesFromReferenceRate reproduces the worked
// example for variant A: 2 500 000 * (1024/128) = 20 000 000 Hz. Scaling
// from the range minimum (≈2,083,333 Hz) instead of the 2.5 MHz reference
// would instead yield ≈16,666,664 Hz.
func TestPlanSamplingFrequencyScalesFromReferenceRate(t *testing.T) {
	core := &fakeCore{
		fsRange: IntRange{Min: 2_083_333, Step: 1, Max: 61_440_000},
		fsDefault: 2_500_000,
	}

	hz, err := PlanSamplingFrequency(core, 1024)
	if err != nil {
		t.Fatalf("PlanSamplingFrequency: %v", err)
	}
	if hz != 20_000_000 {
		t.Errorf("hz = %d, want 20000000", hz)
	}
}

// TestPlanSamplingFrequencyNoOpForFixedRateVariant models variant B/C:
// DefaultSamplingFrequency equals both ends of the range, so the policy
// always clamps back to the same fixed rate regardless of frame length.
func TestPlanSamplingFrequencyNoOpForFixedRateVariant(t *testing.T) {
	core := &fakeCore{
		fsRange:   IntRange{Min: 122_880_000, Step: 1, Max: 122_880_000},
		fsDefault: 122_880_000,
	}

	hz, err := PlanSamplingFrequency(core, 1024)
	if err != nil {
		t.Fatalf("PlanSamplingFrequency: %v", err)
	}
	if hz != 122_880_000 {
		t.Errorf("hz = %d, want 122880000", hz)
	}
}

func TestPlanSamplingFrequencyRejectsNilCore(t *testing.T) {
	if _, err := PlanSamplingFrequency(nil, 1024); err == nil {
		t.Error("expected error for nil core")
	}
}

// fakeCore implements just enough of Core for PlanSamplingFrequency.
type fakeCore struct {
	fsRange   IntRange
	fsDefault int64
}

func (f *fakeCore) Initialize(ctx context.Context, uri string) error      { return nil }
func (f *fakeCore) Teardown(ctx context.Context) error                    { return nil }
func (f *fakeCore) Initialized() bool                                     { return true }
func (f *fakeCore) LoFrequencyRange() IntRange                            { return IntRange{} }
func (f *fakeCore) SamplingFrequencyRange() IntRange                      { return f.fsRange }
func (f *fakeCore) BandwidthRange() IntRange                              { return IntRange{} }
func (f *fakeCore) HwGainRange() FloatRange                               { return FloatRange{} }
func (f *fakeCore) DefaultSamplingFrequency() int64                       { return f.fsDefault }
func (f *fakeCore) GetLoFrequency(ctx context.Context) (int64, error)     { return 0, nil }
func (f *fakeCore) SetLoFrequency(ctx context.Context, hz int64) error    { return nil }
func (f *fakeCore) GetSamplingFrequency(ctx context.Context) (int64, error) { return 0, nil }
func (f *fakeCore) SetSamplingFrequency(ctx context.Context, hz int64) error { return nil }
func (f *fakeCore) GetBandwidth(ctx context.Context) (int64, error)       { return 0, nil }
func (f *fakeCore) SetBandwidth(ctx context.Context, hz int64) error      { return nil }
func (f *fakeCore) GetHwGain(ctx context.Context) (float64, error)       { return 0, nil }
func (f *fakeCore) SetHwGain(ctx context.Context, db float64) error       { return nil }
func (f *fakeCore) LoadSignal(signal dataset.SignalData)                  {}
func (f *fakeCore) StartStreaming(ctx context.Context) error              { return nil }
func (f *fakeCore) StopStreaming(ctx context.Context) error               { return nil }
func (f *fakeCore) DACBits() int                                          { return 16 }
func (f *fakeCore) DumpPath() string                                     { return "" }
func (f *fakeCore) SetDumpPath(path string)                              {}
func (f *fakeCore) ReadRegister(ctx context.Context, addr uint32) (byte, error) { return 0, nil }
func (f *fakeCore) WriteRegister(ctx context.Context, addr uint32, value byte) error { return nil }
