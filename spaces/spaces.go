// Package spaces describes observation and action spaces in the
// convention used by common RL toolkits.
package spaces

import (
	"fmt"
	"math"
	"math/rand"
)

// Space describes the shape and bounds of a flat value buffer.
type Space interface {
	Shape() []int
	Size() int
	Sample(rng *rand.Rand) []float64
	Contains(v []float64) bool
	String() string
}

// Box is a bounded (possibly unbounded) continuous space. Low and High
// have one entry per dimension; use -Inf/+Inf for unbounded axes.
type Box struct {
	Low  []float64
	High []float64
}

// NewBox builds a Box with every dimension sharing the same bounds.
func NewBox(low, high float64, dims int) *Box {
	b := &Box{
		Low:  make([]float64, dims),
		High: make([]float64, dims),
	}
	for i := 0; i < dims; i++ {
		b.Low[i] = low
		b.High[i] = high
	}
	return b
}

func (b *Box) Shape() []int { return []int{len(b.Low)} }
func (b *Box) Size() int    { return len(b.Low) }

func (b *Box) Sample(rng *rand.Rand) []float64 {
	v := make([]float64, len(b.Low))
	for i := range v {
		lo, hi := b.Low[i], b.High[i]
		if math.IsInf(lo, -1) || math.IsInf(hi, 1) {
			v[i] = rng.NormFloat64()
			continue
		}
		v[i] = lo + rng.Float64()*(hi-lo)
	}
	return v
}

func (b *Box) Contains(v []float64) bool {
	if len(v) != len(b.Low) {
		return false
	}
	for i := range v {
		if v[i] < b.Low[i] || v[i] > b.High[i] {
			return false
		}
	}
	return true
}

func (b *Box) String() string {
	return fmt.Sprintf("Box(%d)", len(b.Low))
}

// Discrete is a space of n distinct actions, encoded one-hot.
type Discrete struct {
	N int
}

func NewDiscrete(n int) *Discrete {
	return &Discrete{N: n}
}

func (d *Discrete) Shape() []int { return []int{d.N} }
func (d *Discrete) Size() int    { return d.N }

func (d *Discrete) Sample(rng *rand.Rand) []float64 {
	v := make([]float64, d.N)
	v[rng.Intn(d.N)] = 1
	return v
}

func (d *Discrete) Contains(v []float64) bool {
	if len(v) != d.N {
		return false
	}
	hot := 0
	for _, x := range v {
		switch x {
		case 0:
		case 1:
			hot++
		default:
			return false
		}
	}
	return hot == 1
}

func (d *Discrete) String() string {
	return fmt.Sprintf("Discrete(%d)", d.N)
}
