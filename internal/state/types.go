package state

// #region dimension
// Dimension indexes one component of an event's state vector.
type Dimension int

const (
	WarEscalation Dimension = iota
	MobilizationLevel
	PoliticalStability
	IntelLeakRisk
	LogisticsCapacity
	AlliancesCohesion
	PublicSupport
	CasualtiesExpected // unbounded, integer valued once committed
)

// NumDimensions is the fixed width of a Vector.
const NumDimensions = int(CasualtiesExpected) + 1

var dimensionNames = [NumDimensions]string{
	WarEscalation:      "war_escalation",
	MobilizationLevel:  "mobilization_level",
	PoliticalStability: "political_stability",
	IntelLeakRisk:      "intel_leak_risk",
	LogisticsCapacity:  "logistics_capacity",
	AlliancesCohesion:  "alliances_cohesion",
	PublicSupport:      "public_support",
	CasualtiesExpected: "casualties_expected",
}

// String returns the wire name of the dimension.
func (d Dimension) String() string {
	if d < 0 || int(d) >= NumDimensions {
		return "unknown"
	}
	return dimensionNames[d]
}

// Bounded reports whether the dimension is constrained to [0, 1].
func (d Dimension) Bounded() bool {
	return d != CasualtiesExpected
}

// ParseDimension maps a wire name back to its Dimension.
func ParseDimension(name string) (Dimension, bool) {
	for i, n := range dimensionNames {
		if n == name {
			return Dimension(i), true
		}
	}
	return 0, false
}

// Dimensions returns every dimension in canonical order.
func Dimensions() []Dimension {
	out := make([]Dimension, NumDimensions)
	for i := range out {
		out[i] = Dimension(i)
	}
	return out
}

// #endregion dimension

// #region vector
// Vector is a sparse state vector. A dimension that was never set is absent,
// which means "no information" and is distinct from an explicit zero.
// The zero value is an empty vector.
type Vector struct {
	values  [NumDimensions]float64
	present [NumDimensions]bool

	// Frontline is a free-form region tag; empty means absent.
	Frontline string
}

// Delta is a partial Vector used as an additive, not yet committed adjustment.
type Delta = Vector

// #endregion vector

// #region bounds
const (
	lowerBound = 0.0
	upperBound = 1.0
)

// #endregion bounds
