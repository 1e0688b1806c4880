package survey

// NullElevation is the value the raster sampler writes when a point has no elevation sample.
const NullElevation = -9999.0

// UnknownLength is the profile length reported for array types without a length formula.
const UnknownLength = -999.0

// PointRecord is one sampled point along a survey profile.
type PointRecord struct {
	ProfileID string
	Distance  float64
	Elevation float64
}

// Profile is one survey line with its records ordered by distance.
type Profile struct {
	ID      string
	Records []PointRecord
}

// Distances returns the distance column of the profile.
func (p Profile) Distances() []float64 {
	out := make([]float64, len(p.Records))
	for i, r := range p.Records {
		out[i] = r.Distance
	}
	return out
}

// Elevations returns the elevation column of the profile.
func (p Profile) Elevations() []float64 {
	out := make([]float64, len(p.Records))
	for i, r := range p.Records {
		out[i] = r.Elevation
	}
	return out
}

// ArrayFileHeader is the array geometry read from a resistivity data file.
type ArrayFileHeader struct {
	BaseSpacing        float64
	ArrayCode          int
	ArrayType          ArrayType
	ElectrodePositions []int
	MinElectrode       int
	MaxElectrode       int
	ProfileLength      float64
}

// DeviceHeader holds the acquisition fields read from an instrument header file.
type DeviceHeader struct {
	Format      DeviceFormat
	FieldLength string
	Date        string
	Time        string
	Device      string
	Operator    string
	Notes       string
}

// ProfileMetadata is the survey metadata exported for one profile.
type ProfileMetadata struct {
	ID            string
	ProfileLength float64
	BaseSpacing   float64
	ArrayName     string
	Device        *DeviceHeader
}

// NewProfileMetadata builds a freshly allocated metadata record for a profile.
// The device header is copied so records never share state.
func NewProfileMetadata(id string, header ArrayFileHeader, device *DeviceHeader) *ProfileMetadata {
	m := &ProfileMetadata{
		ID:            id,
		ProfileLength: header.ProfileLength,
		BaseSpacing:   header.BaseSpacing,
		ArrayName:     header.ArrayType.String(),
	}
	if device != nil {
		d := *device
		m.Device = &d
	}
	return m
}

// MaxBatchEntries is the number of data files a single batch descriptor may reference.
const MaxBatchEntries = 40

// BatchEntry is one inversion task of a batch descriptor.
type BatchEntry struct {
	DataPath      string
	InversionPath string
	ParameterPath string
}

// BatchJob is one batch descriptor file.
type BatchJob struct {
	Index   int
	Path    string
	Entries []BatchEntry
}
