package fleet

// Vendor identifies the robot manufacturer. Vendor-specific behavior is
// expressed through the capability table below rather than subtyping.
type Vendor string

const (
	VendorAmazon Vendor = "Amazon"
	VendorBalyo  Vendor = "Balyo"
	VendorGemini Vendor = "Gemini"
)

// Capability describes how robots of one vendor behave.
type Capability struct {
	Model            string
	DrainPerMinute   float64 // battery percent per minute while active
	ChargePerMinute  float64 // battery percent per minute while charging
	SpeedMin         float64 // grid units per second
	SpeedMax         float64
	ErrorProbPerTick float64 // random fault injection probability
}

var capabilities = map[Vendor]Capability{
	VendorAmazon: {
		Model:            "Proteus AMR",
		DrainPerMinute:   0.8,
		ChargePerMinute:  5.0,
		SpeedMin:         1.2,
		SpeedMax:         2.8,
		ErrorProbPerTick: 0.0017,
	},
	VendorBalyo: {
		Model:            "Veeva Tugger",
		DrainPerMinute:   0.6,
		ChargePerMinute:  5.0,
		SpeedMin:         1.0,
		SpeedMax:         2.4,
		ErrorProbPerTick: 0.0017,
	},
	VendorGemini: {
		Model:            "Gemini G2",
		DrainPerMinute:   1.2,
		ChargePerMinute:  5.0,
		SpeedMin:         0.8,
		SpeedMax:         2.0,
		ErrorProbPerTick: 0.005,
	},
}

// CapabilityFor returns the capability entry for a vendor. Unknown vendors
// fall back to a conservative default.
func CapabilityFor(v Vendor) Capability {
	if c, ok := capabilities[v]; ok {
		return c
	}
	return Capability{
		Model:            "Generic AMR",
		DrainPerMinute:   1.0,
		ChargePerMinute:  5.0,
		SpeedMin:         1.0,
		SpeedMax:         2.0,
		ErrorProbPerTick: 0.002,
	}
}

// Vendors lists all known vendors in a stable order.
func Vendors() []Vendor {
	return []Vendor{VendorAmazon, VendorBalyo, VendorGemini}
}
