// Package hierarchical parses the hierarchical-scientific dataset
// container (three root-level tensors X, Y, Z) one modulation at a
// time. The full cube is tens of gigabytes; this package never reads
// more than the contiguous slab belonging to a single caller-chosen
// modulation.
package hierarchical

import (
	"fmt"
	"strconv"

	"github.com/gosdrtx/radiotx/dataset"
	"github.com/gosdrtx/radiotx/errs"
	"github.com/gosdrtx/radiotx/modulation"
)

const op = "hierarchical.Parse"

// DatasetInfo describes one root-level tensor found in a container:
// its name, shape (row-major dimensions) and whether its element type
// is floating point.
type DatasetInfo struct {
	Name    string
	Shape   []int
	IsFloat bool
}

// Source abstracts the on-disk container. It is implemented against
// whatever concrete scientific-data format backs a given file; this
// package only ever asks for the root dataset listing and a bounded
// range of float elements from one named dataset.
type Source interface {
	// Datasets lists every root-level dataset with its shape and type.
	Datasets() ([]DatasetInfo, error)

	// ReadFloats reads count consecutive float elements of dataset name
	// starting at element index startElement, as if the dataset's
	// underlying storage were one flat float64 array in row-major order.
	ReadFloats(name string, startElement, count int64) ([]float64, error)
}

// hierarchicalModOrder is the fixed row ordering of modulations in the
// "Y" one-hot tensor: ASK family first, then PSK, APSK, QAM, AM, FM,
// then GMSK, then OQPSK.
var hierarchicalModOrder = []modulation.Name{
	modulation.OOK, modulation.ASK4, modulation.ASK8,
	modulation.BPSK, modulation.QPSK, modulation.PSK8, modulation.PSK16, modulation.PSK32,
	modulation.APSK16, modulation.APSK32, modulation.APSK64, modulation.APSK128,
	modulation.QAM16, modulation.QAM32, modulation.QAM64, modulation.QAM128, modulation.QAM256,
	modulation.AM_SSB_WC, modulation.AM_SSB_SC, modulation.AM_DSB_WC, modulation.AM_DSB_SC,
	modulation.FM,
	modulation.GMSK,
	modulation.OQPSK,
}

// Parse reads the single-modulation slab belonging to mod from src and
// folds it into one SignalData per SNR, inserted into a fresh Store.
func Parse(src Source, mod modulation.Name) (*dataset.Store, error) {
	return parseWithConstants(src, mod, dataset.ConstantsFor(dataset.HierarchicalScientific))
}

// parseWithConstants is Parse with the shape table passed explicitly,
// so tests can exercise the slab-selection math against a dataset far
// smaller than the real one without changing the public API.
func parseWithConstants(src Source, mod modulation.Name, consts dataset.Constants) (*dataset.Store, error) {
	if mod == modulation.Unknown {
		return nil, errs.New(errs.InputFormat, op+": no modulation selected")
	}

	totalRows := consts.FramesPerCombo * consts.ModulationCount * consts.SnrCount
	if err := verifyShapes(src, totalRows, consts); err != nil {
		return nil, err
	}

	modOffset := -1
	for i, candidate := range hierarchicalModOrder {
		if candidate == mod {
			modOffset = i
			break
		}
	}
	if modOffset == -1 {
		return nil, errs.New(errs.InputFormat, op+": modulation not present in hierarchical ordering")
	}

	// Each row of X is one whole frame: frameElements flat floats laid
	// out as frameLength (I, Q) pairs.
	frameElements := int64(2 * consts.FrameLength)
	modRows := int64(totalRows / consts.ModulationCount)
	snrRows := modRows / int64(consts.SnrCount)

	startElement := int64(modOffset) * modRows * frameElements
	count := modRows * frameElements

	values, err := src.ReadFloats("X", startElement, count)
	if err != nil {
		slabBytes := count * 8 // float64 elements
		return nil, errs.Wrap(errs.ResourceExhausted, fmt.Sprintf("%s: slab read failed (%d bytes)", op, slabBytes), err)
	}
	if int64(len(values)) != count {
		return nil, errs.New(errs.ResourceExhausted, op+": short read of modulation slab")
	}

	store := dataset.NewStore(dataset.HierarchicalScientific)
	elementsPerModSnr := snrRows * frameElements

	for snrIdx := 0; snrIdx < consts.SnrCount; snrIdx++ {
		snrDb := -20 + 2*snrIdx
		signal := dataset.SignalData{Frames: make([]dataset.FrameData, consts.FramesPerCombo)}
		var maxAbs float32

		snrBase := int64(snrIdx) * elementsPerModSnr
		for frameIdx := 0; frameIdx < consts.FramesPerCombo; frameIdx++ {
			frameBase := snrBase + int64(frameIdx)*frameElements
			frame := make(dataset.FrameData, consts.FrameLength)
			for p := 0; p < consts.FrameLength; p++ {
				idx := frameBase + int64(p)*2
				iVal := float32(values[idx])
				qVal := float32(values[idx+1])
				frame[p] = dataset.IQPoint{I: iVal, Q: qVal}
				if abs := absF32(iVal); abs > maxAbs {
					maxAbs = abs
				}
				if abs := absF32(qVal); abs > maxAbs {
					maxAbs = abs
				}
			}
			signal.Frames[frameIdx] = frame
		}

		signal.MaxAbs = maxAbs
		key := dataset.Key{Modulation: mod, SnrDb: snrDb}
		if err := store.Insert(key, signal); err != nil {
			return nil, err
		}
	}

	if got := len(store.UniqueSNRs()); got != consts.SnrCount {
		return nil, errs.New(errs.InputFormat, op+": snr cardinality mismatch, got "+strconv.Itoa(got))
	}

	return store, nil
}

func verifyShapes(src Source, totalRows int, consts dataset.Constants) error {
	infos, err := src.Datasets()
	if err != nil {
		return errs.Wrap(errs.InputFormat, op+": failed to enumerate datasets", err)
	}

	var foundX, foundY, foundZ bool
	for _, info := range infos {
		switch info.Name {
		case "X":
			if !info.IsFloat || len(info.Shape) != 3 ||
				info.Shape[0] != totalRows || info.Shape[1] != consts.FrameLength || info.Shape[2] != 2 {
				return errs.New(errs.InputFormat, op+": dataset X has unexpected shape")
			}
			foundX = true
		case "Y":
			if len(info.Shape) != 2 || info.Shape[0] != totalRows || info.Shape[1] != consts.ModulationCount {
				return errs.New(errs.InputFormat, op+": dataset Y has unexpected shape")
			}
			foundY = true
		case "Z":
			if len(info.Shape) != 2 || info.Shape[0] != totalRows || info.Shape[1] != 1 {
				return errs.New(errs.InputFormat, op+": dataset Z has unexpected shape")
			}
			foundZ = true
		}
	}

	if !foundX || !foundY || !foundZ {
		return errs.New(errs.InputFormat, op+": missing required dataset X, Y or Z")
	}
	return nil
}

func absF32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
