package devicecore

import (
	"context"
	"strconv"
	"strings"

	"github.com/gosdrtx/radiotx/dataset"
	"github.com/gosdrtx/radiotx/errs"
	"github.com/gosdrtx/radiotx/iiod"
)

// variantB is the wideband TRX core: ADRV9009-class, 14-bit DAC.
// Unlike variant A, its parameter ranges are fixed by the datasheet
// rather than queried from the attribute bus, and bandwidth and
// sampling frequency are not writable once the device boots with its
// profile loaded.
type variantB struct {
	client *iiod.Client
	buf    *iiod.Buffer

	initialized bool
	dumpPath    string

	frameLen int
	frames   int
	maxAbs   float32
	frameSrc []dataset.FrameData
}

const (
	variantBPhyDevice    = "adrv9009-phy"
	variantBStreamDevice = "axi-adrv9009-tx-hpc"
	variantBLoChannel    = "altvoltage0"
	variantBDACBits      = 14
)

var (
	variantBLoRange = IntRange{Min: 70_000_000, Step: 1, Max: 6_000_000_000}
	variantBFsRange = IntRange{Min: 122_880_000, Step: 1, Max: 122_880_000}
	variantBBwRange = IntRange{Min: 100_000_000, Step: 1, Max: 100_000_000}
	variantBGain    = FloatRange{Min: -30, Step: 0.05, Max: 0}
)

func newVariantB(client *iiod.Client) *variantB {
	return &variantB{client: client}
}

func (v *variantB) Initialize(ctx context.Context, uri string) error {
	devices, err := v.client.ListDevices(ctx)
	if err != nil {
		return errs.Wrap(errs.DeviceMissing, "variantB.Initialize: list devices", err)
	}
	if !contains(devices, variantBPhyDevice) || !contains(devices, variantBStreamDevice) {
		return errs.New(errs.DeviceMissing, "variantB.Initialize: adrv9009-phy or axi-adrv9009-tx-hpc not present")
	}

	buf, err := v.client.OpenBuffer(ctx, variantBStreamDevice, 0, true)
	if err != nil {
		return errs.Wrap(errs.AttributeIO, "variantB.Initialize: create zero-length buffer", err)
	}
	v.buf = buf

	if err := v.client.WriteAttr(ctx, variantBPhyDevice, "voltage0", "hardwaregain", strconv.FormatFloat(variantBGain.Max, 'f', 2, 64)); err != nil {
		return errs.Wrap(errs.AttributeIO, "variantB.Initialize: set hardware gain", err)
	}

	v.initialized = true
	return nil
}

func (v *variantB) Teardown(ctx context.Context) error {
	if v.buf != nil {
		_ = v.buf.Close(ctx)
		v.buf = nil
	}
	v.initialized = false
	return nil
}

func (v *variantB) Initialized() bool { return v.initialized }

func (v *variantB) LoFrequencyRange() IntRange       { return variantBLoRange }
func (v *variantB) SamplingFrequencyRange() IntRange { return variantBFsRange }
func (v *variantB) BandwidthRange() IntRange         { return variantBBwRange }
func (v *variantB) HwGainRange() FloatRange          { return variantBGain }

// DefaultSamplingFrequency is pinned by the loaded profile, same as
// SamplingFrequencyRange's single-point range, so the HAL's
// sampling-rate policy is a no-op for this variant.
func (v *variantB) DefaultSamplingFrequency() int64 { return variantBFsRange.Min }

func (v *variantB) GetLoFrequency(ctx context.Context) (int64, error) {
	return readInt64Attr(ctx, v.client, variantBPhyDevice, variantBLoChannel, "frequency")
}

func (v *variantB) SetLoFrequency(ctx context.Context, hz int64) error {
	if !variantBLoRange.Contains(hz) {
		return errs.New(errs.OutOfRange, "variantB.SetLoFrequency: out of range")
	}
	return v.client.WriteAttr(ctx, variantBPhyDevice, variantBLoChannel, "frequency", strconv.FormatInt(hz, 10))
}

func (v *variantB) GetSamplingFrequency(ctx context.Context) (int64, error) {
	return variantBFsRange.Min, nil
}

func (v *variantB) SetSamplingFrequency(ctx context.Context, hz int64) error {
	return errs.New(errs.OutOfRange, "variantB.SetSamplingFrequency: fixed by the loaded profile, not writable")
}

func (v *variantB) GetBandwidth(ctx context.Context) (int64, error) {
	return variantBBwRange.Min, nil
}

func (v *variantB) SetBandwidth(ctx context.Context, hz int64) error {
	return errs.New(errs.OutOfRange, "variantB.SetBandwidth: fixed by the loaded profile, not writable")
}

func (v *variantB) GetHwGain(ctx context.Context) (float64, error) {
	text, err := v.client.ReadAttr(ctx, variantBPhyDevice, "voltage0", "hardwaregain")
	if err != nil {
		return 0, errs.Wrap(errs.AttributeIO, "variantB.GetHwGain", err)
	}
	db, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, errs.Wrap(errs.AttributeIO, "variantB.GetHwGain: parse", err)
	}
	return db, nil
}

func (v *variantB) SetHwGain(ctx context.Context, db float64) error {
	if !variantBGain.Contains(db) {
		return errs.New(errs.OutOfRange, "variantB.SetHwGain: out of range")
	}
	return v.client.WriteAttr(ctx, variantBPhyDevice, "voltage0", "hardwaregain", strconv.FormatFloat(db, 'f', 2, 64))
}

func (v *variantB) LoadSignal(signal dataset.SignalData) {
	v.frameSrc = signal.Frames
	v.maxAbs = signal.MaxAbs
	v.frames = len(signal.Frames)
	if v.frames > 0 {
		v.frameLen = len(signal.Frames[0])
	}
}

func (v *variantB) DumpPath() string        { return v.dumpPath }
func (v *variantB) SetDumpPath(path string) { v.dumpPath = path }

func (v *variantB) ReadRegister(ctx context.Context, addr uint32) (byte, error) {
	return readRegister(ctx, v.client, variantBPhyDevice, addr)
}

func (v *variantB) WriteRegister(ctx context.Context, addr uint32, value byte) error {
	return writeRegister(ctx, v.client, variantBPhyDevice, addr, value)
}

func (v *variantB) StartStreaming(ctx context.Context) error {
	if err := requireInitialized(v.initialized); err != nil {
		return err
	}
	signal := dataset.SignalData{Frames: v.frameSrc, MaxAbs: v.maxAbs}
	if err := writeDumpFile(v.dumpPath, signal); err != nil {
		return err
	}
	samples := encodeSignal(signal, variantBDACBits)

	if v.buf != nil {
		_ = v.buf.Close(ctx)
		v.buf = nil
	}
	buf, err := v.client.OpenBuffer(ctx, variantBStreamDevice, v.frameLen*v.frames, true)
	if err != nil {
		return errs.Wrap(errs.AttributeIO, "variantB.StartStreaming: open buffer", err)
	}
	if err := buf.Push(ctx, iiod.EncodeSamples(samples)); err != nil {
		return errs.Wrap(errs.AttributeIO, "variantB.StartStreaming: push buffer", err)
	}
	v.buf = buf
	return nil
}

func (v *variantB) StopStreaming(ctx context.Context) error {
	if err := requireInitialized(v.initialized); err != nil {
		return err
	}
	if v.buf != nil {
		_ = v.buf.Close(ctx)
		v.buf = nil
	}
	buf, err := v.client.OpenBuffer(ctx, variantBStreamDevice, len(silenceBuffer()), true)
	if err != nil {
		return errs.Wrap(errs.AttributeIO, "variantB.StopStreaming: open buffer", err)
	}
	if err := buf.Push(ctx, iiod.EncodeSamples(silenceBuffer())); err != nil {
		return errs.Wrap(errs.AttributeIO, "variantB.StopStreaming: push buffer", err)
	}
	v.buf = buf
	return nil
}

func (v *variantB) DACBits() int { return variantBDACBits }
