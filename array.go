package stginga

import (
	"fmt"

	"github.com/obi-wan76/stginga/stginga_errors"
)

// Pos is a single array position, row-major (Y is the row).
type Pos struct {
	Y int
	X int
}

// FlagIndexMap maps each non-zero flag value of a table to the positions
// where that bit is set. Every valid flag of the table is present as a key,
// even when its position set is empty, so repeated queries need no rescan.
type FlagIndexMap map[uint32][]Pos

// Array is a host-supplied integer quality array. Pix is row-major; the
// element at (y, x) of a 2-D array lives at Pix[y*Shape[1]+x]. The decoding
// engine never mutates Pix.
type Array struct {
	Shape []int
	Pix   []int64
}

func NewArray2D(h, w int, pix []int64) *Array {
	return &Array{Shape: []int{h, w}, Pix: pix}
}

func (a *Array) Rank() int {
	return len(a.Shape)
}

func (a *Array) Size() int {
	if len(a.Shape) == 0 {
		return 0
	}
	n := 1
	for _, d := range a.Shape {
		n *= d
	}
	return n
}

func (a *Array) At(y, x int) int64 {
	return a.Pix[y*a.Shape[1]+x]
}

// InBounds reports whether (y, x) addresses a pixel of a 2-D array.
func (a *Array) InBounds(y, x int) bool {
	return len(a.Shape) == 2 &&
		y >= 0 && y < a.Shape[0] && x >= 0 && x < a.Shape[1]
}

// check2D validates rank and element count before a whole-array walk.
func (a *Array) check2D() error {
	if a == nil {
		return stginga_errors.ErrNoImage
	}
	if len(a.Shape) != 2 {
		return fmt.Errorf("%w: got rank %d", stginga_errors.ErrUnsupportedRank, len(a.Shape))
	}
	if a.Shape[0] < 0 || a.Shape[1] < 0 || len(a.Pix) != a.Shape[0]*a.Shape[1] {
		return fmt.Errorf("%w: shape %v, %d elements",
			stginga_errors.ErrShapeMismatch, a.Shape, len(a.Pix))
	}
	return nil
}
