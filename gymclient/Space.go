package gymclient

// Space names used by the bridge
const (
	DiscreteSpace = "Discrete"
	BoxSpace      = "Box"
)

// Space describes an action or observation space of a remote
// environment. Discrete spaces set N, the number of actions. Box
// spaces set Shape along with elementwise Low and High bounds.
type Space struct {
	Name  string    `json:"name"`
	N     int       `json:"n,omitempty"`
	Shape []int     `json:"shape,omitempty"`
	Low   []float64 `json:"low,omitempty"`
	High  []float64 `json:"high,omitempty"`
}

// Discrete returns whether the space holds a finite set of
// enumerated actions
func (s Space) Discrete() bool {
	return s.Name == DiscreteSpace
}

// Len returns the dimensionality of a single point in the space
func (s Space) Len() int {
	if s.Discrete() {
		return 1
	}

	length := 1
	for _, dim := range s.Shape {
		length *= dim
	}
	return length
}
