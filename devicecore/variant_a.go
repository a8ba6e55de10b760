package devicecore

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gosdrtx/radiotx/dataset"
	"github.com/gosdrtx/radiotx/errs"
	"github.com/gosdrtx/radiotx/iiod"
)

// variantA is the baseband TRX core: AD9361-class, 12-bit DAC. Ranges
// for LO frequency, sampling frequency, and bandwidth are read from
// the attribute bus as "[min step max]" strings; the hardware gain
// lower bound is read from a separate "hardwaregain_available" list.
type variantA struct {
	client *iiod.Client
	buf    *iiod.Buffer

	initialized bool

	loRange     IntRange
	fsRange     IntRange
	bwRange     IntRange
	gainMin     float64
	dumpPath    string
	sshFallback *SSHAttributeWriter
	frameLen    int
	frames      int
	maxAbs      float32
	frameSrc    []dataset.FrameData
}

const (
	variantAPhyDevice    = "ad9361-phy"
	variantAStreamDevice = "cf-ad9361-dds-core-lpc"
	variantALoChannel    = "altvoltage1"
	variantADACBits      = 12
)

func newVariantA(client *iiod.Client) *variantA {
	return &variantA{client: client}
}

func (v *variantA) Initialize(ctx context.Context, uri string) error {
	devices, err := v.client.ListDevices(ctx)
	if err != nil {
		return errs.Wrap(errs.DeviceMissing, "variantA.Initialize: list devices", err)
	}
	if !contains(devices, variantAPhyDevice) || !contains(devices, variantAStreamDevice) {
		return errs.New(errs.DeviceMissing, "variantA.Initialize: ad9361-phy or cf-ad9361-dds-core-lpc not present")
	}

	loRangeText, err := v.client.ReadAttr(ctx, variantAPhyDevice, variantALoChannel, "frequency_available")
	if err != nil {
		return errs.Wrap(errs.AttributeIO, "variantA.Initialize: read lo range", err)
	}
	v.loRange, err = parseBracketRange(loRangeText)
	if err != nil {
		return err
	}

	fsRangeText, err := v.client.ReadAttr(ctx, variantAPhyDevice, "voltage0", "sampling_frequency_available")
	if err != nil {
		return errs.Wrap(errs.AttributeIO, "variantA.Initialize: read sampling frequency range", err)
	}
	v.fsRange, err = parseBracketRange(fsRangeText)
	if err != nil {
		return err
	}

	bwRangeText, err := v.client.ReadAttr(ctx, variantAPhyDevice, "voltage0", "rf_bandwidth_available")
	if err != nil {
		return errs.Wrap(errs.AttributeIO, "variantA.Initialize: read bandwidth range", err)
	}
	v.bwRange, err = parseBracketRange(bwRangeText)
	if err != nil {
		return err
	}

	gainText, err := v.client.ReadAttr(ctx, variantAPhyDevice, "voltage0", "hardwaregain_available")
	if err != nil {
		return errs.Wrap(errs.AttributeIO, "variantA.Initialize: read gain range", err)
	}
	v.gainMin, err = parseGainMin(gainText)
	if err != nil {
		return err
	}

	buf, err := v.client.OpenBuffer(ctx, variantAStreamDevice, 0, true)
	if err != nil {
		return errs.Wrap(errs.AttributeIO, "variantA.Initialize: create zero-length buffer", err)
	}
	v.buf = buf

	if err := v.setHwGainRaw(ctx, maxGainDb); err != nil {
		return err
	}
	if err := v.setBandwidthRaw(ctx, v.bwRange.Max); err != nil {
		return err
	}
	if err := v.setSamplingFrequencyRaw(ctx, defaultSamplingFrequencyHz); err != nil {
		return err
	}

	v.initialized = true
	return nil
}

// maxGainDb is AD9361's top-of-range hardware gain; Initialize pins
// the transmitter there so a freshly selected context starts at full
// output power, matching the reference application's startup policy.
const maxGainDb = 0

// defaultSamplingFrequencyHz is variant A's startup sampling rate: it
// exceeds the device's minimum (2.083 MHz) and is the reference the
// Transmit HAL's sampling-rate policy scales from.
const defaultSamplingFrequencyHz = 2_500_000

func (v *variantA) setHwGainRaw(ctx context.Context, db float64) error {
	return writeAttrWithFallback(ctx, v.client, v.sshFallback, variantAPhyDevice, "voltage0", "hardwaregain", strconv.FormatFloat(db, 'f', 2, 64))
}

func (v *variantA) setBandwidthRaw(ctx context.Context, hz int64) error {
	return writeAttrWithFallback(ctx, v.client, v.sshFallback, variantAPhyDevice, "voltage0", "rf_bandwidth", strconv.FormatInt(hz, 10))
}

func (v *variantA) setSamplingFrequencyRaw(ctx context.Context, hz int64) error {
	return writeAttrWithFallback(ctx, v.client, v.sshFallback, variantAPhyDevice, "voltage0", "sampling_frequency", strconv.FormatInt(hz, 10))
}

// SetSSHFallback installs the sysfs-over-SSH attribute writer variant
// A retries a write through when the IIOD backend rejects it. Passing
// nil disables the fallback.
func (v *variantA) SetSSHFallback(w *SSHAttributeWriter) { v.sshFallback = w }

func (v *variantA) Teardown(ctx context.Context) error {
	if v.buf != nil {
		_ = v.buf.Close(ctx)
		v.buf = nil
	}
	v.initialized = false
	return nil
}

func (v *variantA) Initialized() bool { return v.initialized }

func (v *variantA) LoFrequencyRange() IntRange       { return v.loRange }
func (v *variantA) SamplingFrequencyRange() IntRange { return v.fsRange }
func (v *variantA) BandwidthRange() IntRange         { return v.bwRange }
func (v *variantA) HwGainRange() FloatRange          { return FloatRange{Min: v.gainMin, Max: maxGainDb} }

func (v *variantA) DefaultSamplingFrequency() int64 { return defaultSamplingFrequencyHz }

func (v *variantA) GetLoFrequency(ctx context.Context) (int64, error) {
	return readInt64Attr(ctx, v.client, variantAPhyDevice, variantALoChannel, "frequency")
}

func (v *variantA) SetLoFrequency(ctx context.Context, hz int64) error {
	if !v.loRange.Contains(hz) {
		return errs.New(errs.OutOfRange, "variantA.SetLoFrequency: out of range")
	}
	return writeAttrWithFallback(ctx, v.client, v.sshFallback, variantAPhyDevice, variantALoChannel, "frequency", strconv.FormatInt(hz, 10))
}

func (v *variantA) GetSamplingFrequency(ctx context.Context) (int64, error) {
	return readInt64Attr(ctx, v.client, variantAPhyDevice, "voltage0", "sampling_frequency")
}

func (v *variantA) SetSamplingFrequency(ctx context.Context, hz int64) error {
	if !v.fsRange.Contains(hz) {
		return errs.New(errs.OutOfRange, "variantA.SetSamplingFrequency: out of range")
	}
	return v.setSamplingFrequencyRaw(ctx, hz)
}

func (v *variantA) GetBandwidth(ctx context.Context) (int64, error) {
	return readInt64Attr(ctx, v.client, variantAPhyDevice, "voltage0", "rf_bandwidth")
}

func (v *variantA) SetBandwidth(ctx context.Context, hz int64) error {
	if !v.bwRange.Contains(hz) {
		return errs.New(errs.OutOfRange, "variantA.SetBandwidth: out of range")
	}
	return v.setBandwidthRaw(ctx, hz)
}

func (v *variantA) GetHwGain(ctx context.Context) (float64, error) {
	text, err := v.client.ReadAttr(ctx, variantAPhyDevice, "voltage0", "hardwaregain")
	if err != nil {
		return 0, errs.Wrap(errs.AttributeIO, "variantA.GetHwGain", err)
	}
	db, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, errs.Wrap(errs.AttributeIO, "variantA.GetHwGain: parse", err)
	}
	return db, nil
}

func (v *variantA) SetHwGain(ctx context.Context, db float64) error {
	if !v.HwGainRange().Contains(db) {
		return errs.New(errs.OutOfRange, "variantA.SetHwGain: out of range")
	}
	return v.setHwGainRaw(ctx, db)
}

func (v *variantA) LoadSignal(signal dataset.SignalData) {
	v.frameSrc = signal.Frames
	v.maxAbs = signal.MaxAbs
	v.frames = len(signal.Frames)
	if v.frames > 0 {
		v.frameLen = len(signal.Frames[0])
	}
}

func (v *variantA) DumpPath() string        { return v.dumpPath }
func (v *variantA) SetDumpPath(path string) { v.dumpPath = path }

func (v *variantA) ReadRegister(ctx context.Context, addr uint32) (byte, error) {
	return readRegister(ctx, v.client, variantAPhyDevice, addr)
}

func (v *variantA) WriteRegister(ctx context.Context, addr uint32, value byte) error {
	return writeRegister(ctx, v.client, variantAPhyDevice, addr, value)
}

func (v *variantA) StartStreaming(ctx context.Context) error {
	if err := requireInitialized(v.initialized); err != nil {
		return err
	}
	signal := dataset.SignalData{Frames: v.frameSrc, MaxAbs: v.maxAbs}
	if err := writeDumpFile(v.dumpPath, signal); err != nil {
		return err
	}
	samples := encodeSignal(signal, variantADACBits)

	if v.buf != nil {
		_ = v.buf.Close(ctx)
		v.buf = nil
	}
	buf, err := v.client.OpenBuffer(ctx, variantAStreamDevice, v.frameLen*v.frames, true)
	if err != nil {
		return errs.Wrap(errs.AttributeIO, "variantA.StartStreaming: open buffer", err)
	}
	if err := buf.Push(ctx, iiod.EncodeSamples(samples)); err != nil {
		return errs.Wrap(errs.AttributeIO, "variantA.StartStreaming: push buffer", err)
	}
	v.buf = buf
	return nil
}

func (v *variantA) StopStreaming(ctx context.Context) error {
	if err := requireInitialized(v.initialized); err != nil {
		return err
	}
	if v.buf != nil {
		_ = v.buf.Close(ctx)
		v.buf = nil
	}
	buf, err := v.client.OpenBuffer(ctx, variantAStreamDevice, len(silenceBuffer()), true)
	if err != nil {
		return errs.Wrap(errs.AttributeIO, "variantA.StopStreaming: open buffer", err)
	}
	if err := buf.Push(ctx, iiod.EncodeSamples(silenceBuffer())); err != nil {
		return errs.Wrap(errs.AttributeIO, "variantA.StopStreaming: push buffer", err)
	}
	v.buf = buf
	return nil
}

func (v *variantA) DACBits() int { return variantADACBits }

func readInt64Attr(ctx context.Context, client *iiod.Client, device, channel, attr string) (int64, error) {
	text, err := client.ReadAttr(ctx, device, channel, attr)
	if err != nil {
		return 0, errs.Wrap(errs.AttributeIO, fmt.Sprintf("read %s/%s/%s", device, channel, attr), err)
	}
	v, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return 0, errs.Wrap(errs.AttributeIO, fmt.Sprintf("parse %s/%s/%s", device, channel, attr), err)
	}
	return v, nil
}

func contains(list []string, item string) bool {
	for _, s := range list {
		if s == item {
			return true
		}
	}
	return false
}

// parseBracketRange parses the attribute bus's "[min step max]" range
// text into an IntRange.
func parseBracketRange(text string) (IntRange, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "[")
	text = strings.TrimSuffix(text, "]")
	fields := strings.Fields(text)
	if len(fields) != 3 {
		return IntRange{}, errs.New(errs.InputFormat, "devicecore: malformed range text")
	}
	min, err1 := strconv.ParseInt(fields[0], 10, 64)
	step, err2 := strconv.ParseInt(fields[1], 10, 64)
	max, err3 := strconv.ParseInt(fields[2], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return IntRange{}, errs.New(errs.InputFormat, "devicecore: non-numeric range text")
	}
	return IntRange{Min: min, Step: step, Max: max}, nil
}

// parseGainMin parses a space-separated list of available gain values
// (as AD9361 reports via hardwaregain_available) and returns the
// smallest.
func parseGainMin(text string) (float64, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0, errs.New(errs.InputFormat, "devicecore: empty gain list")
	}
	min, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, errs.Wrap(errs.InputFormat, "devicecore: parse gain list", err)
	}
	for _, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return 0, errs.Wrap(errs.InputFormat, "devicecore: parse gain list", err)
		}
		if v < min {
			min = v
		}
	}
	return min, nil
}
