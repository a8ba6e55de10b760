// Package modulation provides the canonical enumeration of modulation
// schemes replayed by this module, along with the alias table that maps
// each scheme to the spellings used by the three supported dataset
// formats.
package modulation

import "github.com/gosdrtx/radiotx/errs"

// Name is a closed enumeration of every modulation scheme that appears in
// any of the three supported datasets.
type Name int

const (
	Unknown Name = iota

	// analog
	AM_SSB
	AM_SSB_WC
	AM_SSB_SC
	AM_DSB
	AM_DSB_WC
	AM_DSB_SC
	AM_USB
	AM_LSB
	FM
	WBFM
	PM

	// digital
	APSK16
	APSK32
	APSK64
	APSK128
	OOK
	ASK4
	ASK8
	FSK2
	FSK4
	FSK8
	FSK16
	GFSK
	CPFSK
	GMSK
	BPSK
	QPSK
	PSK8
	PSK16
	PSK32
	PSK64
	OQPSK
	PAM4
	PAM8
	PAM16
	QAM4
	QAM8
	QAM16
	QAM32
	QAM64
	QAM128
	QAM256
)

// Family groups modulation names by their underlying scheme.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyAM
	FamilyFM
	FamilyPM
	FamilyAPSK
	FamilyASK
	FamilyFSK
	FamilyPSK
	FamilyPAM
	FamilyQAM
)

func (f Family) String() string {
	switch f {
	case FamilyAM:
		return "Amplitude Modulation"
	case FamilyFM:
		return "Frequency Modulation"
	case FamilyPM:
		return "Phase Modulation"
	case FamilyAPSK:
		return "Amplitude and Phase-Shift Keying"
	case FamilyASK:
		return "Amplitude-Shift Keying"
	case FamilyFSK:
		return "Frequency-Shift Keying"
	case FamilyPSK:
		return "Phase-Shift Keying"
	case FamilyPAM:
		return "Pulse-Amplitude Modulation"
	case FamilyQAM:
		return "Quadrature Amplitude Modulation"
	default:
		return "Unknown"
	}
}

// Type classifies a modulation as analog, digital, or unknown.
type Type int

const (
	TypeUnknown Type = iota
	TypeAnalog
	TypeDigital
)

func (t Type) String() string {
	switch t {
	case TypeAnalog:
		return "Analog"
	case TypeDigital:
		return "Digital"
	default:
		return "Unknown"
	}
}

// aliasTable maps each Name to its ordered list of display strings. The
// first entry of every list is the canonical short label. Order and
// spelling are load-bearing: dataset parsers look names up by exact,
// case-sensitive match against these strings.
var aliasTable = map[Name][]string{
	Unknown: {""},

	// analog
	AM_SSB:    {"AM-SSB"},
	AM_SSB_WC: {"AM-SSB WC"},
	AM_SSB_SC: {"AM-SSB SC"},
	AM_DSB:    {"AM-DSB"},
	AM_DSB_WC: {"AM-DSB WC"},
	AM_DSB_SC: {"AM-DSB SC"},
	AM_USB:    {"AM-USB"},
	AM_LSB:    {"AM-LSB"},
	FM:        {"FM"},
	WBFM:      {"WBFM"},
	PM:        {"PM"},

	// digital
	APSK16:  {"16APSK", "APSK16"},
	APSK32:  {"32APSK", "APSK32"},
	APSK64:  {"64APSK", "APSK64"},
	APSK128: {"128APSK", "APSK128"},
	OOK:     {"OOK", "2ASK", "ASK2"},
	ASK4:    {"4ASK", "ASK4"},
	ASK8:    {"8ASK", "ASK8"},
	FSK2:    {"2FSK", "FSK2"},
	FSK4:    {"4FSK", "FSK4"},
	FSK8:    {"8FSK", "FSK8"},
	FSK16:   {"16FSK", "FSK16"},
	GFSK:    {"GFSK"},
	CPFSK:   {"CPFSK"},
	GMSK:    {"GMSK"},
	BPSK:    {"BPSK", "2PSK", "PSK2"},
	QPSK:    {"QPSK", "4PSK", "PSK4"},
	PSK8:    {"8PSK", "PSK8"},
	PSK16:   {"16PSK", "PSK16"},
	PSK32:   {"32PSK", "PSK32"},
	PSK64:   {"64PSK", "PSK64"},
	OQPSK:   {"OQPSK"},
	PAM4:    {"4PAM", "PAM4"},
	PAM8:    {"8PAM", "PAM8"},
	PAM16:   {"16PAM", "PAM16"},
	QAM4:    {"4QAM", "QAM4"},
	QAM8:    {"8QAM", "QAM8"},
	QAM16:   {"16QAM", "QAM16"},
	QAM32:   {"32QAM", "QAM32"},
	QAM64:   {"64QAM", "QAM64"},
	QAM128:  {"128QAM", "QAM128"},
	QAM256:  {"256QAM", "QAM256"},
}

// allNames lists every key of aliasTable in a stable order, since Go maps
// have none. The order matches the declaration order in Modulation.cpp's
// alias table and is used only for deterministic iteration (verification,
// lookup tie-breaking).
var allNames = []Name{
	Unknown,
	AM_SSB, AM_SSB_WC, AM_SSB_SC, AM_DSB, AM_DSB_WC, AM_DSB_SC, AM_USB, AM_LSB, FM, WBFM, PM,
	APSK16, APSK32, APSK64, APSK128,
	OOK, ASK4, ASK8,
	FSK2, FSK4, FSK8, FSK16, GFSK, CPFSK, GMSK,
	BPSK, QPSK, PSK8, PSK16, PSK32, PSK64, OQPSK,
	PAM4, PAM8, PAM16,
	QAM4, QAM8, QAM16, QAM32, QAM64, QAM128, QAM256,
}

// Registry is the process-wide, read-mostly modulation table. It is
// constructed once at process entry via New and passed down by reference
// — there is no package-level singleton.
type Registry struct {
	aliases map[Name][]string
	names   []Name
}

// New builds a Registry and verifies that every alias string is unique
// across the whole table. A duplicate alias is a fatal configuration
// error (errs.DuplicateAlias) — callers should treat it as unrecoverable
// at startup.
func New() (*Registry, error) {
	r := &Registry{aliases: aliasTable, names: allNames}
	if dup, ok := r.firstDuplicate(); ok {
		return nil, errs.New(errs.DuplicateAlias, "alias \""+dup+"\" appears in more than one modulation's alias list")
	}
	return r, nil
}

func (r *Registry) firstDuplicate() (string, bool) {
	for i, nameOne := range r.names {
		if nameOne == Unknown {
			continue
		}
		aliasesOne := r.aliases[nameOne]
		for _, nameTwo := range r.names[i+1:] {
			for _, aliasTwo := range r.aliases[nameTwo] {
				for _, aliasOne := range aliasesOne {
					if aliasOne == aliasTwo {
						return aliasOne, true
					}
				}
			}
		}
	}
	return "", false
}

// Canonical returns the first (canonical) alias for name.
func (r *Registry) Canonical(name Name) string {
	aliases := r.aliases[name]
	if len(aliases) == 0 {
		return ""
	}
	return aliases[0]
}

// Lookup finds the Name whose alias list contains an exact, case-sensitive
// match for text. It returns Unknown when no name matches.
func (r *Registry) Lookup(text string) Name {
	for _, name := range r.names {
		if name == Unknown {
			continue
		}
		for _, alias := range r.aliases[name] {
			if alias == text {
				return name
			}
		}
	}
	return Unknown
}

// Family returns the family a modulation name belongs to.
func (r *Registry) Family(name Name) Family {
	switch name {
	case AM_SSB, AM_SSB_WC, AM_SSB_SC, AM_DSB, AM_DSB_WC, AM_DSB_SC, AM_USB, AM_LSB:
		return FamilyAM
	case FM, WBFM:
		return FamilyFM
	case PM:
		return FamilyPM
	case APSK16, APSK32, APSK64, APSK128:
		return FamilyAPSK
	case OOK, ASK4, ASK8:
		return FamilyASK
	case FSK2, FSK4, FSK8, FSK16, GFSK, CPFSK, GMSK:
		return FamilyFSK
	case BPSK, QPSK, PSK8, PSK16, PSK32, PSK64, OQPSK:
		return FamilyPSK
	case PAM4, PAM8, PAM16:
		return FamilyPAM
	case QAM4, QAM8, QAM16, QAM32, QAM64, QAM128, QAM256:
		return FamilyQAM
	default:
		return FamilyUnknown
	}
}

// Kind returns whether name is analog, digital, or unknown. The range
// check mirrors the contiguous analog-then-digital layout of the original
// enumeration: every name declared between AM_SSB and PM is analog, every
// name declared between APSK16 and QAM256 is digital.
func (r *Registry) Kind(name Name) Type {
	switch {
	case name >= AM_SSB && name <= PM:
		return TypeAnalog
	case name >= APSK16 && name <= QAM256:
		return TypeDigital
	default:
		return TypeUnknown
	}
}
