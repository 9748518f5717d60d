package stginga

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/obi-wan76/stginga/stginga_errors"
)

func TestBuildMask(t *testing.T) {
	dec := testDecoder(t)
	arr := NewArray2D(2, 2, []int64{0, 1, 4, 5})
	index, err := dec.DecodeArray(arr)
	assert.NoError(t, err)

	mask, err := BuildMask(index, []uint32{1}, arr.Shape)
	assert.NoError(t, err)
	assert.False(t, mask.At(0, 0))
	assert.True(t, mask.At(0, 1))
	assert.False(t, mask.At(1, 0))
	assert.True(t, mask.At(1, 1))
	assert.Equal(t, 2, mask.CountSet())
	assert.Equal(t, 4, mask.Size())
	assert.InDelta(t, 0.5, mask.Fraction(), 1e-9)
}

func TestBuildMaskUnion(t *testing.T) {
	dec := testDecoder(t)
	arr := NewArray2D(2, 2, []int64{0, 1, 4, 5})
	index, err := dec.DecodeArray(arr)
	assert.NoError(t, err)

	// (1,1) carries both flags but is counted once
	mask, err := BuildMask(index, []uint32{1, 4}, arr.Shape)
	assert.NoError(t, err)
	assert.Equal(t, 3, mask.CountSet())
}

func TestBuildMaskUnknownFlagIgnored(t *testing.T) {
	dec := testDecoder(t)
	arr := NewArray2D(2, 2, []int64{0, 1, 4, 5})
	index, err := dec.DecodeArray(arr)
	assert.NoError(t, err)

	mask, err := BuildMask(index, []uint32{1024, 9999}, arr.Shape)
	assert.NoError(t, err)
	assert.Equal(t, 0, mask.CountSet())
	assert.Equal(t, float64(0), mask.Fraction())
}

func TestBuildMaskEmptySelection(t *testing.T) {
	mask, err := BuildMask(FlagIndexMap{}, nil, []int{3, 3})
	assert.NoError(t, err)
	assert.Equal(t, 0, mask.CountSet())
	assert.Equal(t, 9, mask.Size())
}

func TestBuildMaskBadShape(t *testing.T) {
	_, err := BuildMask(FlagIndexMap{}, nil, []int{4})
	assert.ErrorIs(t, err, stginga_errors.ErrUnsupportedRank)

	_, err = BuildMask(FlagIndexMap{}, nil, []int{-1, 4})
	assert.ErrorIs(t, err, stginga_errors.ErrShapeMismatch)
}
