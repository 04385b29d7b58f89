package distance

import (
	"fmt"
	"math"
	"strings"
)

// Metric selects the distance used to re-rank candidates.
type Metric int

const (
	// DP2H is the distance from a data point to the hyperplane encoded by the
	// query: normal q[:d-1], offset q[d-1].
	DP2H Metric = iota
	// AbsDot is |q·x|.
	AbsDot
	// Cos is the cosine distance 1 − cos(q, x).
	Cos
)

func (m Metric) String() string {
	switch m {
	case AbsDot:
		return "ABS_DOT"
	case Cos:
		return "COS"
	case DP2H:
		return "DP2H"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// ParseMetric maps a metric name to a Metric. Names are matched case
// insensitively; any unrecognized name selects DP2H.
func ParseMetric(name string) Metric {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "ABS_DOT":
		return AbsDot
	case "COS":
		return Cos
	default:
		return DP2H
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Metric) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Metric) UnmarshalText(text []byte) error {
	*m = ParseMetric(string(text))
	return nil
}

// Distance returns the dissimilarity between query q and data point x.
// Both vectors must have the same length.
//
// Cos returns NaN when either vector is the zero vector, and DP2H returns NaN
// or +Inf when the hyperplane normal q[:d-1] is zero.
func (m Metric) Distance(q, x []float64) float64 {
	switch m {
	case AbsDot:
		return math.Abs(Dot(q, x))
	case Cos:
		return 1 - Dot(q, x)/(Norm(q)*Norm(x))
	default:
		last := len(q) - 1
		return math.Abs(q[last]+DotN(x, q, last)) / math.Sqrt(DotN(q, q, last))
	}
}
