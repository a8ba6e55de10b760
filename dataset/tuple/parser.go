// Package tuple parses the tuple-serialized dataset container: a single
// decoded text blob holding a dict literal whose keys are
// ('<modulation alias>', snr_dB) tuples and whose values are nested
// tuples wrapping a flat bracketed list of decimal floats.
package tuple

import (
	"strconv"
	"strings"

	"github.com/gosdrtx/radiotx/dataset"
	"github.com/gosdrtx/radiotx/errs"
	"github.com/gosdrtx/radiotx/modulation"
	"gonum.org/v1/gonum/floats"
)

const op = "tuple.Parse"

// Parse decodes text (the already-unpickled dict literal, one flat
// string) into a Store. A malformed key, an unclosed list, or a value
// whose float count does not match frameLength*frames*2 fails the whole
// parse; the returned Store is nil in that case.
func Parse(text string, reg *modulation.Registry) (*dataset.Store, error) {
	consts := dataset.ConstantsFor(dataset.TupleSerialized)
	expectedFloats := consts.FrameLength * consts.FramesPerCombo * 2

	store := dataset.NewStore(dataset.TupleSerialized)

	i := 0
	for i < len(text) {
		if text[i] != '(' {
			i++
			continue
		}

		key, afterKey, err := parseKey(text, i, reg)
		if err != nil {
			return nil, err
		}

		valueStart := strings.IndexByte(text[afterKey:], '(')
		if valueStart == -1 {
			return nil, errs.New(errs.InputFormat, op+": missing value tuple after key")
		}
		valueStart += afterKey

		signal, afterValue, err := parseValue(text, valueStart, expectedFloats, consts)
		if err != nil {
			return nil, err
		}

		if err := store.Insert(key, signal); err != nil {
			return nil, err
		}

		i = afterValue
	}

	if err := store.Validate(); err != nil {
		return nil, err
	}
	return store, nil
}

// parseKey reads a ('<alias>', <snr>) tuple starting at the '(' found at
// index start. It returns the decoded Key and the index just past the
// tuple's closing ')'.
func parseKey(text string, start int, reg *modulation.Registry) (dataset.Key, int, error) {
	closing := strings.IndexByte(text[start+1:], ')')
	if closing == -1 {
		return dataset.Key{}, 0, errs.New(errs.InputFormat, op+": unterminated key tuple")
	}
	closing += start + 1
	body := text[start+1 : closing]

	openQuote := strings.IndexByte(body, '\'')
	if openQuote == -1 {
		return dataset.Key{}, 0, errs.New(errs.InputFormat, op+": missing modulation quote in key")
	}
	closeQuote := strings.IndexByte(body[openQuote+1:], '\'')
	if closeQuote == -1 {
		return dataset.Key{}, 0, errs.New(errs.InputFormat, op+": unterminated modulation quote in key")
	}
	closeQuote += openQuote + 1

	modText := body[openQuote+1 : closeQuote]
	modName := reg.Lookup(modText)

	const sep = ", "
	sepIdx := strings.Index(body, sep)
	if sepIdx == -1 {
		return dataset.Key{}, 0, errs.New(errs.InputFormat, op+": missing snr separator in key")
	}
	snrStr := body[sepIdx+len(sep):]
	snrDb, err := strconv.Atoi(strings.TrimSpace(snrStr))
	if err != nil {
		return dataset.Key{}, 0, errs.Wrap(errs.InputFormat, op+": invalid snr in key", err)
	}

	return dataset.Key{Modulation: modName, SnrDb: snrDb}, closing + 1, nil
}

// parseValue reads a (...[f, f, f, ...]...) tuple starting at the '(' at
// index start, tokenizes the bracketed list, and folds it into a
// SignalData. It returns the SignalData and the index just past the
// tuple's closing ')'.
func parseValue(text string, start int, expectedFloats int, consts dataset.Constants) (dataset.SignalData, int, error) {
	closing := strings.IndexByte(text[start+1:], ')')
	if closing == -1 {
		return dataset.SignalData{}, 0, errs.New(errs.InputFormat, op+": unterminated value tuple")
	}
	closing += start + 1
	body := text[start+1 : closing]

	listStart := strings.IndexByte(body, '[')
	if listStart == -1 {
		return dataset.SignalData{}, 0, errs.New(errs.InputFormat, op+": missing float list in value")
	}
	listEnd := strings.IndexByte(body[listStart+1:], ']')
	if listEnd == -1 {
		return dataset.SignalData{}, 0, errs.New(errs.InputFormat, op+": unterminated float list in value")
	}
	listEnd += listStart + 1

	values, err := tokenizeFloats(body[listStart+1 : listEnd])
	if err != nil {
		return dataset.SignalData{}, 0, err
	}
	if len(values) != expectedFloats {
		return dataset.SignalData{}, 0, errs.New(errs.InputFormat, op+": unexpected float count in value")
	}

	signal, err := reshape(values, consts)
	if err != nil {
		return dataset.SignalData{}, 0, err
	}
	return signal, closing + 1, nil
}

func tokenizeFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, errs.Wrap(errs.InputFormat, op+": invalid float token", err)
		}
		out = append(out, v)
	}
	return out, nil
}

// reshape lays a flat [I-stream..., Q-stream...] array (repeated per
// frame) into frames of (I, Q) pairs, matching the original per-frame
// interleaving: within frame f, the first FrameLength values are I and
// the next FrameLength are Q.
func reshape(values []float64, consts dataset.Constants) (dataset.SignalData, error) {
	signal := dataset.SignalData{Frames: make([]dataset.FrameData, consts.FramesPerCombo)}
	var maxAbs float64

	for f := 0; f < consts.FramesPerCombo; f++ {
		base := f * 2 * consts.FrameLength
		frame := make(dataset.FrameData, consts.FrameLength)
		for p := 0; p < consts.FrameLength; p++ {
			iVal := values[base+p]
			qVal := values[base+p+consts.FrameLength]
			frame[p] = dataset.IQPoint{I: float32(iVal), Q: float32(qVal)}
		}
		signal.Frames[f] = frame

		if frameAbs := maxAbsComponent(frame); frameAbs > maxAbs {
			maxAbs = frameAbs
		}
	}

	if maxAbs == 0 {
		return dataset.SignalData{}, errs.New(errs.InputFormat, op+": signal data has zero maxAbs")
	}
	signal.MaxAbs = float32(maxAbs)
	return signal, nil
}

func maxAbsComponent(frame dataset.FrameData) float64 {
	components := make([]float64, 0, len(frame)*2)
	for _, p := range frame {
		components = append(components, absF(float64(p.I)), absF(float64(p.Q)))
	}
	if len(components) == 0 {
		return 0
	}
	return floats.Max(components)
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
