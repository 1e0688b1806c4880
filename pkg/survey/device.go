package survey

// DeviceFormat identifies the layout of an instrument header file.
type DeviceFormat int

const (
	// AresII headers carry a "Time" label on their second line.
	AresII DeviceFormat = iota
	// Ares3D is the fallback layout; it is not validated.
	Ares3D
)

func (f DeviceFormat) String() string {
	switch f {
	case AresII:
		return "ARES-II"
	case Ares3D:
		return "ARES-3D"
	default:
		return "unknown"
	}
}
