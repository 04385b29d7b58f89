package hash

import (
	"fmt"
	"math/rand/v2"

	"github.com/hupe1980/hyperlsh/distance"
	"github.com/hupe1980/hyperlsh/model"
)

// MaxProbes is the largest number of probe bits packed into one table code.
const MaxProbes = 64

// Kind identifies a bit hash family.
type Kind int

const (
	// BH is the bilinear hyperplane hash: bit = sign(u·x · v·x).
	BH Kind = iota
	// EH is the embedding hyperplane hash: bit = sign(Σ x_i x_j G_ij).
	EH
	// MH is the multilinear hyperplane hash: bit = sign of a product of M dot products.
	MH
)

func (k Kind) String() string {
	switch k {
	case BH:
		return "BH"
	case EH:
		return "EH"
	case MH:
		return "MH"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Bits is a bit-per-probe hyperplane hash with l tables of m probes.
//
// For every probe the data bit is 1 when the probe's score is positive and
// the query bit is 1 when it is not, so a query collides with the points the
// hyperplane separates least.
type Bits struct {
	kind Kind
	dim  int
	m    int
	l    int
	// factors per probe: 2 for BH, 1 for EH (a dim×dim matrix), M for MH
	factors int
	// stride is the number of coefficients owned by one probe
	stride int
	coef   []float64
}

// NewBH returns a bilinear hyperplane hash.
func NewBH(dim, m, l int, rng *rand.Rand) (*Bits, error) {
	return newBits(BH, dim, m, l, 2, rng)
}

// NewEH returns an embedding hyperplane hash.
func NewEH(dim, m, l int, rng *rand.Rand) (*Bits, error) {
	return newBits(EH, dim, m, l, 1, rng)
}

// NewMH returns a multilinear hyperplane hash with numProj dot products per probe.
func NewMH(dim, m, l, numProj int, rng *rand.Rand) (*Bits, error) {
	if err := model.Positive("M", numProj); err != nil {
		return nil, err
	}
	return newBits(MH, dim, m, l, numProj, rng)
}

func newBits(kind Kind, dim, m, l, factors int, rng *rand.Rand) (*Bits, error) {
	if err := model.Positive("dim", dim); err != nil {
		return nil, err
	}
	if err := model.Positive("l", l); err != nil {
		return nil, err
	}
	if m <= 0 || m > MaxProbes {
		return nil, &model.ErrInvalidParameter{Name: "m", Value: m, Reason: fmt.Sprintf("must be in [1, %d]", MaxProbes)}
	}

	stride := factors * dim
	if kind == EH {
		stride = dim * dim
	}

	b := &Bits{
		kind:    kind,
		dim:     dim,
		m:       m,
		l:       l,
		factors: factors,
		stride:  stride,
		coef:    make([]float64, m*l*stride),
	}
	for i := range b.coef {
		b.coef[i] = rng.NormFloat64()
	}
	return b, nil
}

// Kind returns the family.
func (b *Bits) Kind() Kind { return b.kind }

// Dim returns the input dimension.
func (b *Bits) Dim() int { return b.dim }

// Tables returns l.
func (b *Bits) Tables() int { return b.l }

// Probes returns m.
func (b *Bits) Probes() int { return b.m }

// Data returns the l table codes of a data vector.
func (b *Bits) Data(x []float64) ([]uint64, error) {
	return b.codes(x, false)
}

// Query returns the l table codes of a query vector.
func (b *Bits) Query(q []float64) ([]uint64, error) {
	return b.codes(q, true)
}

func (b *Bits) codes(x []float64, query bool) ([]uint64, error) {
	if err := model.CheckDimension(b.dim, len(x)); err != nil {
		return nil, err
	}
	sigs := make([]uint64, b.l)
	for i := range b.l {
		var sig uint64
		for j := range b.m {
			coef := b.coef[(i*b.m+j)*b.stride:][:b.stride]
			positive := b.score(x, coef) > 0
			if positive != query {
				sig = sig<<1 | 1
			} else {
				sig <<= 1
			}
		}
		sigs[i] = sig
	}
	return sigs, nil
}

func (b *Bits) score(x, coef []float64) float64 {
	switch b.kind {
	case EH:
		var val float64
		for d1, x1 := range x {
			row := coef[d1*b.dim:][:b.dim]
			val += x1 * distance.Dot(x, row)
		}
		return val
	default:
		val := 1.0
		for k := range b.factors {
			val *= distance.Dot(x, coef[k*b.dim:][:b.dim])
		}
		return val
	}
}
