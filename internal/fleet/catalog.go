package fleet

// TaskDef describes one task type in the warehouse catalog and which
// vendors' robots may execute it.
type TaskDef struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Vendors     []Vendor `json:"vendors"`
	SpeedMin    float64  `json:"-"`
	SpeedMax    float64  `json:"-"`
}

// Catalog is the full set of assignable task types.
var Catalog = []TaskDef{
	{
		ID:          "transport",
		Name:        "Transport",
		Category:    "Transport",
		Description: "Move goods between two stations",
		Vendors:     []Vendor{VendorAmazon, VendorBalyo, VendorGemini},
		SpeedMin:    1.2, SpeedMax: 2.8,
	},
	{
		ID:          "pickup",
		Name:        "Pickup",
		Category:    "Picking",
		Description: "Collect a load at a station",
		Vendors:     []Vendor{VendorAmazon, VendorBalyo, VendorGemini},
		SpeedMin:    1.2, SpeedMax: 2.8,
	},
	{
		ID:          "delivery",
		Name:        "Delivery",
		Category:    "Transport",
		Description: "Deliver a load to a station",
		Vendors:     []Vendor{VendorAmazon, VendorBalyo, VendorGemini},
		SpeedMin:    1.2, SpeedMax: 2.8,
	},
	{
		ID:          "move_pod",
		Name:        "Move Inventory Pod",
		Category:    "Inventory Movement",
		Description: "Drive under a shelving pod, lift it, and carry it to a workstation",
		Vendors:     []Vendor{VendorAmazon},
		SpeedMin:    1.0, SpeedMax: 2.0,
	},
	{
		ID:          "transport_bin",
		Name:        "Transport Bin",
		Category:    "Inventory Movement",
		Description: "Move a standardized bin between storage frame and work cell",
		Vendors:     []Vendor{VendorAmazon, VendorBalyo},
		SpeedMin:    1.2, SpeedMax: 2.5,
	},
	{
		ID:          "stow_inventory",
		Name:        "Stow Inventory",
		Category:    "Inbound",
		Description: "Bring a partial pod to the stower and return it to storage",
		Vendors:     []Vendor{VendorAmazon, VendorGemini},
		SpeedMin:    1.0, SpeedMax: 1.8,
	},
	{
		ID:          "present_to_picker",
		Name:        "Present to Picker",
		Category:    "Picking",
		Description: "Bring a pod to a human picker station and queue",
		Vendors:     []Vendor{VendorAmazon, VendorBalyo},
		SpeedMin:    1.0, SpeedMax: 2.2,
	},
	{
		ID:          "sort_package",
		Name:        "Sort Package",
		Category:    "Sorting",
		Description: "Carry a labeled package to its destination chute",
		Vendors:     []Vendor{VendorAmazon, VendorBalyo},
		SpeedMin:    1.5, SpeedMax: 3.5,
	},
	{
		ID:          "receive_inbound",
		Name:        "Receive Inbound",
		Category:    "Inbound",
		Description: "Move inbound pallets from dock to staging",
		Vendors:     []Vendor{VendorBalyo, VendorGemini},
		SpeedMin:    0.8, SpeedMax: 1.8,
	},
	{
		ID:          "safety_patrol",
		Name:        "Safety Patrol",
		Category:    "Operations",
		Description: "Patrol a zone scanning for obstacles and congestion",
		Vendors:     []Vendor{VendorAmazon, VendorBalyo, VendorGemini},
		SpeedMin:    0.5, SpeedMax: 1.2,
	},
	{
		ID:          "charging",
		Name:        "Charging Run",
		Category:    "Operations",
		Description: "Navigate to a charging station and dock",
		Vendors:     []Vendor{VendorAmazon, VendorBalyo, VendorGemini},
		SpeedMin:    1.0, SpeedMax: 1.5,
	},
}

var catalogByID = func() map[string]TaskDef {
	m := make(map[string]TaskDef, len(Catalog))
	for _, t := range Catalog {
		m[t.ID] = t
	}
	return m
}()

// TaskDefByID looks up a catalog entry.
func TaskDefByID(id string) (TaskDef, bool) {
	t, ok := catalogByID[id]
	return t, ok
}

// VendorCanExecute reports whether robots of the given vendor may run the
// given task type. Unknown task types are not executable by anyone.
func VendorCanExecute(v Vendor, taskType string) bool {
	def, ok := catalogByID[taskType]
	if !ok {
		return false
	}
	for _, cand := range def.Vendors {
		if cand == v {
			return true
		}
	}
	return false
}

// TasksForVendor returns the catalog entries assignable to a vendor.
func TasksForVendor(v Vendor) []TaskDef {
	var out []TaskDef
	for _, t := range Catalog {
		for _, cand := range t.Vendors {
			if cand == v {
				out = append(out, t)
				break
			}
		}
	}
	return out
}
