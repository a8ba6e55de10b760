// Package tabular parses the text-tabular dataset container: one
// frame per line, each line a fixed number of comma-separated complex
// tokens in "I+Qi" / "I-Qi" form, ordered first by SNR then by a fixed
// modulation code sequence, then by frame.
package tabular

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/gosdrtx/radiotx/dataset"
	"github.com/gosdrtx/radiotx/errs"
	"github.com/gosdrtx/radiotx/modulation"
)

const op = "tabular.Parse"

// modulationMapping maps a modulation code (as it appears in
// modulationSeries) to its canonical modulation name.
var modulationMapping = map[int]modulation.Name{
	// PSK
	0:  modulation.BPSK,
	10: modulation.QPSK,
	20: modulation.PSK8,
	30: modulation.PSK16,
	40: modulation.PSK32,
	50: modulation.PSK64,
	// QAM
	1:  modulation.QAM4,
	11: modulation.QAM8,
	21: modulation.QAM16,
	31: modulation.QAM32,
	41: modulation.QAM64,
	51: modulation.QAM128,
	61: modulation.QAM256,
	// FSK
	2:  modulation.FSK2,
	12: modulation.FSK4,
	22: modulation.FSK8,
	32: modulation.FSK16,
	// PAM
	3:  modulation.PAM4,
	13: modulation.PAM8,
	23: modulation.PAM16,
	// analog
	4:  modulation.AM_DSB,
	14: modulation.AM_DSB_SC,
	24: modulation.AM_USB,
	34: modulation.AM_LSB,
	44: modulation.FM,
	54: modulation.PM,
}

// modulationSeries is the physical ordering of modulation codes within
// one SNR block of the text-tabular file.
var modulationSeries = []int{
	4, 14, 44, 32, 2, 12, 22, 34, 23, 3, 13, 54, 30,
	0, 40, 10, 50, 20, 51, 21, 61, 31, 1, 41, 11, 24,
}

// Parse reads lines from r and folds every FramesPerCombo-line block
// into a SignalData, inserted into a fresh Store keyed by
// (modulation, snr), then validates the result against the
// text-tabular dataset's shape constants.
func Parse(r io.Reader) (*dataset.Store, error) {
	consts := dataset.ConstantsFor(dataset.TextTabular)
	store, err := fold(r, consts)
	if err != nil {
		return nil, err
	}
	if err := store.Validate(); err != nil {
		return nil, err
	}
	return store, nil
}

// fold performs the line-by-line parse and per-block SignalData
// finalization without the final cardinality check, so it can be
// exercised against a shape table far smaller than the real dataset.
func fold(r io.Reader, consts dataset.Constants) (*dataset.Store, error) {
	store := dataset.NewStore(dataset.TextTabular)

	linesPerSNR := consts.FramesPerCombo * consts.ModulationCount
	if len(modulationSeries) != consts.ModulationCount {
		return nil, errs.New(errs.InputFormat, op+": modulation series length mismatch")
	}

	var currentKey dataset.Key
	var currentSignal dataset.SignalData
	haveCurrent := false

	lineNr := 0
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		snrIdx := lineNr / linesPerSNR
		snrDb := -20 + 2*snrIdx
		seriesIdx := (lineNr % linesPerSNR) / consts.FramesPerCombo
		modCode := modulationSeries[seriesIdx]
		modName, ok := modulationMapping[modCode]
		if !ok {
			return nil, errs.New(errs.InputFormat, op+": unknown modulation code in series")
		}

		key := dataset.Key{Modulation: modName, SnrDb: snrDb}
		if !haveCurrent || key != currentKey {
			if haveCurrent {
				if err := finalize(store, currentKey, currentSignal, consts); err != nil {
					return nil, err
				}
			}
			currentKey = key
			currentSignal = dataset.SignalData{Frames: make([]dataset.FrameData, 0, consts.FramesPerCombo)}
			haveCurrent = true
		}

		frame, err := parseLine(line, consts.FrameLength)
		if err != nil {
			return nil, err
		}
		currentSignal.Frames = append(currentSignal.Frames, frame)
		if abs := frameMaxAbs(frame); abs > currentSignal.MaxAbs {
			currentSignal.MaxAbs = abs
		}

		lineNr++
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.Wrap(errs.InputFormat, op+": failed reading input", err)
	}

	if haveCurrent {
		if err := finalize(store, currentKey, currentSignal, consts); err != nil {
			return nil, err
		}
	}

	return store, nil
}

func finalize(store *dataset.Store, key dataset.Key, signal dataset.SignalData, consts dataset.Constants) error {
	if len(signal.Frames) != consts.FramesPerCombo {
		return errs.New(errs.InputFormat, op+": frame count mismatch before snr/modulation boundary")
	}
	return store.Insert(key, signal)
}

func parseLine(line string, frameLength int) (dataset.FrameData, error) {
	tokens := strings.Split(line, ",")
	if len(tokens) != frameLength {
		return nil, errs.New(errs.InputFormat, op+": line has wrong token count")
	}

	frame := make(dataset.FrameData, frameLength)
	for i, tok := range tokens {
		point, err := parseComplexToken(tok)
		if err != nil {
			return nil, err
		}
		frame[i] = point
	}
	return frame, nil
}

// parseComplexToken decodes one "I+Qi" / "I-Qi" token. The separator
// between the real and imaginary parts is the first '+' or '-' found
// after skipping a possible leading '-' on the real part, so a
// negative real part never swallows the following sign.
func parseComplexToken(tok string) (dataset.IQPoint, error) {
	tok = strings.TrimSpace(tok)
	body := strings.TrimSuffix(tok, "i")
	if body == tok {
		return dataset.IQPoint{}, errs.New(errs.InputFormat, op+": complex token missing trailing i")
	}

	searchFrom := 0
	if len(body) > 0 && body[0] == '-' {
		searchFrom = 1
	}

	sepIdx := -1
	for i := searchFrom; i < len(body); i++ {
		if body[i] == '+' || body[i] == '-' {
			sepIdx = i
			break
		}
	}
	if sepIdx == -1 {
		return dataset.IQPoint{}, errs.New(errs.InputFormat, op+": no inner sign in complex token")
	}

	realPart := body[:sepIdx]
	imagPart := body[sepIdx:]

	i, err := strconv.ParseFloat(realPart, 64)
	if err != nil {
		return dataset.IQPoint{}, errs.Wrap(errs.InputFormat, op+": invalid real part", err)
	}
	q, err := strconv.ParseFloat(imagPart, 64)
	if err != nil {
		return dataset.IQPoint{}, errs.Wrap(errs.InputFormat, op+": invalid imaginary part", err)
	}

	return dataset.IQPoint{I: float32(i), Q: float32(q)}, nil
}

func frameMaxAbs(frame dataset.FrameData) float32 {
	var max float32
	for _, p := range frame {
		if abs := absF32(p.I); abs > max {
			max = abs
		}
		if abs := absF32(p.Q); abs > max {
			max = abs
		}
	}
	return max
}

func absF32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
