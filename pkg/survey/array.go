package survey

// ArrayType is the electrode configuration used during acquisition.
// Values match the array codes stored in resistivity data files.
type ArrayType int

const (
	ArrayUnknown ArrayType = iota
	WennerAlpha
	PolePole
	DipoleDipole
	WennerBeta
	WennerGammaUnknown
	PoleDipole
	Schlumberger
	EquatorialDipoleDipole
)

// lengthFormula returns the nominal profile length for an electrode extent.
type lengthFormula func(minElectrode, maxElectrode int, spacing float64) float64

type arrayHandler struct {
	name   string
	length lengthFormula
}

func threeSpacings(minElectrode, maxElectrode int, spacing float64) float64 {
	return float64(maxElectrode) + 3*spacing - float64(minElectrode)
}

func oneSpacing(minElectrode, maxElectrode int, spacing float64) float64 {
	return float64(maxElectrode) + spacing - float64(minElectrode)
}

func unknownLength(int, int, float64) float64 {
	return UnknownLength
}

var arrayHandlers = map[ArrayType]arrayHandler{
	ArrayUnknown:           {name: "unknown", length: unknownLength},
	WennerAlpha:            {name: "Wenner-Alpha", length: threeSpacings},
	PolePole:               {name: "Pole-Pole", length: oneSpacing},
	DipoleDipole:           {name: "Dipole-dipole", length: threeSpacings},
	WennerBeta:             {name: "Wenner-Beta", length: threeSpacings},
	WennerGammaUnknown:     {name: "Wenner-Gamma?", length: threeSpacings},
	PoleDipole:             {name: "Pole-dipole", length: threeSpacings},
	Schlumberger:           {name: "Schlumberger", length: threeSpacings},
	EquatorialDipoleDipole: {name: "Equatorial dipole-dipole", length: unknownLength},
}

// ArrayTypeFromCode maps a data file array code onto an ArrayType.
// Codes outside the known table map to ArrayUnknown.
func ArrayTypeFromCode(code int) ArrayType {
	t := ArrayType(code)
	if t == ArrayUnknown {
		return ArrayUnknown
	}
	if _, ok := arrayHandlers[t]; !ok {
		return ArrayUnknown
	}
	return t
}

func (t ArrayType) handler() arrayHandler {
	if h, ok := arrayHandlers[t]; ok {
		return h
	}
	return arrayHandlers[ArrayUnknown]
}

func (t ArrayType) String() string {
	return t.handler().name
}

// ProfileLength returns the nominal profile length covered by the electrode extent.
// Array types without a formula return UnknownLength.
func (t ArrayType) ProfileLength(minElectrode, maxElectrode int, spacing float64) float64 {
	return t.handler().length(minElectrode, maxElectrode, spacing)
}
