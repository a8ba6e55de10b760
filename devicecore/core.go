// Package devicecore implements the tagged-union device abstraction
// over the three supported transmit variants (AD9361-class baseband
// TRX, ADRV9009-class wideband TRX, AD9081-class mixed-signal
// frontend), plus the Transmit HAL that discovers contexts and
// selects which variant is active.
package devicecore

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gosdrtx/radiotx/dataset"
	"github.com/gosdrtx/radiotx/errs"
	"github.com/gosdrtx/radiotx/iiod"
)

// IntRange is an inclusive integer range with a step, as parsed from
// the attribute bus's "[min step max]" text form or hard-coded for a
// variant whose datasheet fixes it.
type IntRange struct {
	Min  int64
	Step int64
	Max  int64
}

// Contains reports whether v lies on the range's step grid between
// Min and Max inclusive.
func (r IntRange) Contains(v int64) bool {
	if v < r.Min || v > r.Max {
		return false
	}
	if r.Step <= 0 {
		return true
	}
	return (v-r.Min)%r.Step == 0
}

// FloatRange is the double-precision counterpart of IntRange, used for
// hardware gain in dB.
type FloatRange struct {
	Min  float64
	Step float64
	Max  float64
}

// Contains reports whether v lies within [Min, Max]. Step is
// informational only for float ranges: the attribute bus itself
// rejects values that don't land on its grid.
func (r FloatRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Core is the contract every device variant satisfies. The Transmit
// HAL holds at most one Core at a time and hands it to the caller
// (SelectContext, Active); the HAL has no forwarding methods of its
// own, so callers invoke the Core directly. PlanSamplingFrequency fails
// with errs.DeviceMissing when given no Core.
type Core interface {
	// Initialize runs on the client the HAL has already dialed for
	// uri (uri itself is not used). It checks that the family's PHY
	// and streaming devices are listed, creates a zero-length cyclic
	// buffer, and reads or fixes the parameter ranges; channels are
	// neither looked up nor enabled. It sets the core's initialized
	// flag only if every step succeeds.
	Initialize(ctx context.Context, uri string) error

	// Teardown releases the transport context and any open buffer.
	// Safe to call on a core that was never initialized.
	Teardown(ctx context.Context) error

	Initialized() bool

	LoFrequencyRange() IntRange
	SamplingFrequencyRange() IntRange
	BandwidthRange() IntRange
	HwGainRange() FloatRange

	// DefaultSamplingFrequency is the variant's startup sampling rate:
	// the reference the Transmit HAL's sampling-rate policy scales from,
	// not necessarily SamplingFrequencyRange().Min. For a variant whose
	// rate is fixed by the loaded profile rather than tunable, this is
	// that fixed rate, which makes the policy a no-op.
	DefaultSamplingFrequency() int64

	GetLoFrequency(ctx context.Context) (int64, error)
	SetLoFrequency(ctx context.Context, hz int64) error

	GetSamplingFrequency(ctx context.Context) (int64, error)
	SetSamplingFrequency(ctx context.Context, hz int64) error

	GetBandwidth(ctx context.Context) (int64, error)
	SetBandwidth(ctx context.Context, hz int64) error

	GetHwGain(ctx context.Context) (float64, error)
	SetHwGain(ctx context.Context, db float64) error

	// LoadSignal borrows signal's frames and caches frame length and
	// frame count for the next StartStreaming call.
	LoadSignal(signal dataset.SignalData)

	StartStreaming(ctx context.Context) error
	StopStreaming(ctx context.Context) error

	// DACBits reports the variant's DAC bit width, the width its
	// sample conversion formula uses.
	DACBits() int

	// DumpPath and SetDumpPath manage the optional plain-text IQ dump
	// of the first two frames of a streaming session. An empty path
	// disables dumping.
	DumpPath() string
	SetDumpPath(path string)

	// ReadRegister and WriteRegister give direct low-level PHY
	// register access alongside the attribute bus.
	ReadRegister(ctx context.Context, addr uint32) (byte, error)
	WriteRegister(ctx context.Context, addr uint32, value byte) error
}

// scaleSample converts one normalized (i, q) pair into the signed
// 16-bit, left-shifted wire format every variant's streaming device
// expects. width is the DAC bit width (12, 14, or 16); maxAbs is the
// SignalData's precomputed maximum absolute component.
func scaleSample(i, q float32, width int, maxAbs float32) iiod.Sample {
	shift := uint(16 - width)
	scale := float32((int64(1)<<(width-1) - 1)) / maxAbs
	return iiod.Sample{
		I: int16(i*scale) << shift,
		Q: int16(q*scale) << shift,
	}
}

// encodeSignal converts every frame of signal into the wire sample
// format for a variant of the given DAC width.
func encodeSignal(signal dataset.SignalData, width int) []iiod.Sample {
	total := 0
	for _, f := range signal.Frames {
		total += len(f)
	}
	out := make([]iiod.Sample, 0, total)
	for _, frame := range signal.Frames {
		for _, point := range frame {
			out = append(out, scaleSample(point.I, point.Q, width, signal.MaxAbs))
		}
	}
	return out
}

// silenceBuffer builds a zero-filled 1024-slot cyclic buffer payload,
// used by StopStreaming to go quiet without tearing down the variant.
func silenceBuffer() []iiod.Sample {
	return make([]iiod.Sample, 1024)
}

func requireInitialized(initialized bool) error {
	if !initialized {
		return errs.New(errs.DeviceMissing, "devicecore: variant not initialized")
	}
	return nil
}

// direct_reg_access is the debugfs-style attribute every variant's PHY
// or control device exposes for raw register access: writing
// "<addr> <value>" pokes a register, and reading the attribute back
// after writing just "<addr>" returns "<addr> <value>" in hex.
const directRegAccessAttr = "direct_reg_access"

func readRegister(ctx context.Context, client *iiod.Client, device string, addr uint32) (byte, error) {
	if err := client.WriteAttr(ctx, device, "", directRegAccessAttr, fmt.Sprintf("0x%x", addr)); err != nil {
		return 0, errs.Wrap(errs.AttributeIO, "devicecore.readRegister: select address", err)
	}
	text, err := client.ReadAttr(ctx, device, "", directRegAccessAttr)
	if err != nil {
		return 0, errs.Wrap(errs.AttributeIO, "devicecore.readRegister: read back", err)
	}
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return 0, errs.New(errs.InputFormat, "devicecore.readRegister: malformed reply "+text)
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(fields[1], "0x"), 16, 8)
	if err != nil {
		return 0, errs.Wrap(errs.InputFormat, "devicecore.readRegister: parse value", err)
	}
	return byte(v), nil
}

func writeRegister(ctx context.Context, client *iiod.Client, device string, addr uint32, value byte) error {
	text := fmt.Sprintf("0x%x 0x%x", addr, value)
	if err := client.WriteAttr(ctx, device, "", directRegAccessAttr, text); err != nil {
		return errs.Wrap(errs.AttributeIO, "devicecore.writeRegister", err)
	}
	return nil
}

// writeDumpFile writes the first two frames of signal's normalized
// (i, q) values, one sample per line, to path. A blank path disables
// dumping and is not an error.
func writeDumpFile(path string, signal dataset.SignalData) error {
	if path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(errs.AttributeIO, "devicecore.writeDumpFile: create", err)
	}
	defer f.Close()

	frames := signal.Frames
	if len(frames) > 2 {
		frames = frames[:2]
	}
	index := 0
	for _, frame := range frames {
		for _, point := range frame {
			iNorm := point.I / signal.MaxAbs
			qNorm := point.Q / signal.MaxAbs
			if _, err := fmt.Fprintf(f, "%d %f %f\n", index, iNorm, qNorm); err != nil {
				return errs.Wrap(errs.AttributeIO, "devicecore.writeDumpFile: write", err)
			}
			index++
		}
	}
	return nil
}

// writeAttrWithFallback writes an attribute through client, and if
// that fails and fallback is non-nil, retries the write over the
// fallback's SSH sysfs path instead of surfacing the IIOD failure.
// This is how variant A tolerates an IIOD build (protocol v0.25 and
// earlier) whose WRITE command is unimplemented.
func writeAttrWithFallback(ctx context.Context, client *iiod.Client, fallback *SSHAttributeWriter, device, channel, attr, value string) error {
	err := client.WriteAttr(ctx, device, channel, attr, value)
	if err == nil || fallback == nil {
		return err
	}
	return fallback.WriteAttribute(ctx, device, channel, attr, value)
}

// DumpFilename builds the default dump filename for one (dataset
// label, modulation alias, SNR) combination.
func DumpFilename(datasetLabel, modulationAlias string, snrDb int) string {
	return fmt.Sprintf("%s_%s_%ddB.txt", datasetLabel, modulationAlias, snrDb)
}
