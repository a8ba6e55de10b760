package devicecore

import (
	"context"
	"strconv"

	"github.com/gosdrtx/radiotx/dataset"
	"github.com/gosdrtx/radiotx/errs"
	"github.com/gosdrtx/radiotx/iiod"
)

// variantC is the mixed-signal frontend core: AD9081/AD9082-class,
// 16-bit DAC, with a different topology from A and B: the streaming
// device (axi-ad9081-tx-hpc) carries no attribute-bus presence of its
// own, so every attribute read/write is routed through the control
// device (axi-ad9081-rx-hpc), which is also where the Tx NCO lives.
// It has no analog LO: the "main_nco_frequency" attribute stands in
// for one. Sampling frequency is read-only and pinned by the clocking
// profile; bandwidth is not modeled by the device at all, so its getter
// and setter always fail and its range is empty. There is no hardware
// gain attribute either: the gain getter and setter work on a unitless
// NCO scale in [0, 1], applied at streaming time rather than through an
// attribute.
type variantC struct {
	client *iiod.Client
	buf    *iiod.Buffer

	initialized bool
	ncoScale    float64
	dumpPath    string

	frameLen int
	frames   int
	maxAbs   float32
	frameSrc []dataset.FrameData
}

const (
	variantCStreamDevice  = "axi-ad9081-tx-hpc"
	variantCControlDevice = "axi-ad9081-rx-hpc"
	variantCChannel       = "voltage0"
	variantCDACBits       = 16
)

var (
	variantCNcoRange = IntRange{Min: 0, Step: 1, Max: 12_000_000_000}
	variantCFsFixed  = IntRange{Min: 4_000_000_000, Step: 1, Max: 4_000_000_000}
)

func newVariantC(client *iiod.Client) *variantC {
	return &variantC{client: client, ncoScale: 1}
}

func (v *variantC) Initialize(ctx context.Context, uri string) error {
	devices, err := v.client.ListDevices(ctx)
	if err != nil {
		return errs.Wrap(errs.DeviceMissing, "variantC.Initialize: list devices", err)
	}
	if !contains(devices, variantCStreamDevice) || !contains(devices, variantCControlDevice) {
		return errs.New(errs.DeviceMissing, "variantC.Initialize: axi-ad9081-tx-hpc or axi-ad9081-rx-hpc not present")
	}

	buf, err := v.client.OpenBuffer(ctx, variantCStreamDevice, 0, true)
	if err != nil {
		return errs.Wrap(errs.AttributeIO, "variantC.Initialize: create zero-length buffer", err)
	}
	v.buf = buf

	// Clear whatever test-tone configuration the NCO booted with, so a
	// prior diagnostic session can't leak a tone into dataset replay.
	if err := v.client.WriteAttr(ctx, variantCControlDevice, variantCChannel, "main_nco_phase", "0"); err != nil {
		return errs.Wrap(errs.AttributeIO, "variantC.Initialize: zero nco phase", err)
	}
	if err := v.client.WriteAttr(ctx, variantCControlDevice, variantCChannel, "main_nco_test_tone_en", "0"); err != nil {
		return errs.Wrap(errs.AttributeIO, "variantC.Initialize: disable nco test tone", err)
	}
	if err := v.client.WriteAttr(ctx, variantCControlDevice, variantCChannel, "main_nco_test_tone_scale", "0"); err != nil {
		return errs.Wrap(errs.AttributeIO, "variantC.Initialize: zero nco test tone scale", err)
	}

	v.ncoScale = 1
	v.initialized = true
	return nil
}

func (v *variantC) Teardown(ctx context.Context) error {
	if v.buf != nil {
		_ = v.buf.Close(ctx)
		v.buf = nil
	}
	v.initialized = false
	return nil
}

func (v *variantC) Initialized() bool { return v.initialized }

func (v *variantC) LoFrequencyRange() IntRange       { return variantCNcoRange }
func (v *variantC) SamplingFrequencyRange() IntRange { return variantCFsFixed }
func (v *variantC) BandwidthRange() IntRange         { return IntRange{} }
func (v *variantC) HwGainRange() FloatRange          { return FloatRange{Min: 0, Max: 1} }

// DefaultSamplingFrequency is pinned by the clocking profile, same as
// SamplingFrequencyRange's single-point range, so the HAL's
// sampling-rate policy is a no-op for this variant.
func (v *variantC) DefaultSamplingFrequency() int64 { return variantCFsFixed.Min }

func (v *variantC) GetLoFrequency(ctx context.Context) (int64, error) {
	return readInt64Attr(ctx, v.client, variantCControlDevice, variantCChannel, "main_nco_frequency")
}

func (v *variantC) SetLoFrequency(ctx context.Context, hz int64) error {
	if !variantCNcoRange.Contains(hz) {
		return errs.New(errs.OutOfRange, "variantC.SetLoFrequency: out of range")
	}
	return v.client.WriteAttr(ctx, variantCControlDevice, variantCChannel, "main_nco_frequency", strconv.FormatInt(hz, 10))
}

func (v *variantC) GetSamplingFrequency(ctx context.Context) (int64, error) {
	return variantCFsFixed.Min, nil
}

func (v *variantC) SetSamplingFrequency(ctx context.Context, hz int64) error {
	return errs.New(errs.OutOfRange, "variantC.SetSamplingFrequency: pinned by the clocking profile, not writable")
}

func (v *variantC) GetBandwidth(ctx context.Context) (int64, error) {
	return 0, errs.New(errs.AttributeIO, "variantC.GetBandwidth: not modeled by this variant")
}

func (v *variantC) SetBandwidth(ctx context.Context, hz int64) error {
	return errs.New(errs.AttributeIO, "variantC.SetBandwidth: not modeled by this variant")
}

func (v *variantC) GetHwGain(ctx context.Context) (float64, error) {
	return v.ncoScale, nil
}

func (v *variantC) SetHwGain(ctx context.Context, db float64) error {
	if !v.HwGainRange().Contains(db) {
		return errs.New(errs.OutOfRange, "variantC.SetHwGain: nco scale out of [0,1]")
	}
	v.ncoScale = db
	return nil
}

func (v *variantC) DumpPath() string          { return v.dumpPath }
func (v *variantC) SetDumpPath(path string) { v.dumpPath = path }

func (v *variantC) ReadRegister(ctx context.Context, addr uint32) (byte, error) {
	return readRegister(ctx, v.client, variantCControlDevice, addr)
}

func (v *variantC) WriteRegister(ctx context.Context, addr uint32, value byte) error {
	return writeRegister(ctx, v.client, variantCControlDevice, addr, value)
}

func (v *variantC) LoadSignal(signal dataset.SignalData) {
	v.frameSrc = signal.Frames
	v.maxAbs = signal.MaxAbs
	v.frames = len(signal.Frames)
	if v.frames > 0 {
		v.frameLen = len(signal.Frames[0])
	}
}

func (v *variantC) StartStreaming(ctx context.Context) error {
	if err := requireInitialized(v.initialized); err != nil {
		return err
	}
	signal := dataset.SignalData{Frames: v.frameSrc, MaxAbs: v.maxAbs}
	if err := writeDumpFile(v.dumpPath, signal); err != nil {
		return err
	}
	samples := encodeSignal(signal, variantCDACBits)
	scaleNco(samples, v.ncoScale)

	if v.buf != nil {
		_ = v.buf.Close(ctx)
		v.buf = nil
	}
	buf, err := v.client.OpenBuffer(ctx, variantCStreamDevice, v.frameLen*v.frames, true)
	if err != nil {
		return errs.Wrap(errs.AttributeIO, "variantC.StartStreaming: open buffer", err)
	}
	if err := buf.Push(ctx, iiod.EncodeSamples(samples)); err != nil {
		return errs.Wrap(errs.AttributeIO, "variantC.StartStreaming: push buffer", err)
	}
	v.buf = buf
	return nil
}

func (v *variantC) StopStreaming(ctx context.Context) error {
	if err := requireInitialized(v.initialized); err != nil {
		return err
	}
	if v.buf != nil {
		_ = v.buf.Close(ctx)
		v.buf = nil
	}
	buf, err := v.client.OpenBuffer(ctx, variantCStreamDevice, len(silenceBuffer()), true)
	if err != nil {
		return errs.Wrap(errs.AttributeIO, "variantC.StopStreaming: open buffer", err)
	}
	if err := buf.Push(ctx, iiod.EncodeSamples(silenceBuffer())); err != nil {
		return errs.Wrap(errs.AttributeIO, "variantC.StopStreaming: push buffer", err)
	}
	v.buf = buf
	return nil
}

func (v *variantC) DACBits() int { return variantCDACBits }

// scaleNco applies the unitless NCO gain scale to an already-converted
// sample buffer in place.
func scaleNco(samples []iiod.Sample, scale float64) {
	if scale == 1 {
		return
	}
	for i, s := range samples {
		samples[i] = iiod.Sample{
			I: int16(float64(s.I) * scale),
			Q: int16(float64(s.Q) * scale),
		}
	}
}
