package stginga

import (
	"fmt"

	"github.com/obi-wan76/stginga/stginga_errors"
)

// Mask is a boolean overlay over a 2-D array, row-major.
type Mask struct {
	shape [2]int
	bits  []bool
	nset  int
}

// BuildMask composes a boolean mask from a whole-array index: a position
// is set iff at least one selected flag lists it. Selected flags missing
// from the index are ignored. Deterministic in (index, selected, shape).
func BuildMask(index FlagIndexMap, selected []uint32, shape []int) (*Mask, error) {
	if len(shape) != 2 {
		return nil, fmt.Errorf("%w: got rank %d", stginga_errors.ErrUnsupportedRank, len(shape))
	}
	h, w := shape[0], shape[1]
	if h < 0 || w < 0 {
		return nil, fmt.Errorf("%w: shape %v", stginga_errors.ErrShapeMismatch, shape)
	}
	m := &Mask{shape: [2]int{h, w}, bits: make([]bool, h*w)}
	for _, f := range selected {
		for _, p := range index[f] {
			i := p.Y*w + p.X
			if !m.bits[i] {
				m.bits[i] = true
				m.nset++
			}
		}
	}
	return m, nil
}

func (m *Mask) At(y, x int) bool {
	return m.bits[y*m.shape[1]+x]
}

func (m *Mask) Shape() []int {
	return []int{m.shape[0], m.shape[1]}
}

// CountSet is the number of true positions.
func (m *Mask) CountSet() int {
	return m.nset
}

func (m *Mask) Size() int {
	return len(m.bits)
}

// Fraction is CountSet over the total position count, for the
// "N/total (p%)" style of reporting.
func (m *Mask) Fraction() float64 {
	if len(m.bits) == 0 {
		return 0
	}
	return float64(m.nset) / float64(len(m.bits))
}
