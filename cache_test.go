package stginga

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/obi-wan76/stginga/stginga_errors"
)

type countingDecoder struct {
	*Decoder
	calls atomic.Int32
	gate  chan struct{}
}

func (c *countingDecoder) DecodeArray(arr *Array) (FlagIndexMap, error) {
	c.calls.Add(1)
	if c.gate != nil {
		<-c.gate
	}
	return c.Decoder.DecodeArray(arr)
}

func TestCacheGetOrCompute(t *testing.T) {
	rc := NewResultCache(0, nil)
	dec := &countingDecoder{Decoder: testDecoder(t)}
	arr := NewArray2D(2, 2, []int64{0, 1, 4, 5})

	a, err := rc.GetOrCompute("im1", arr, dec, false)
	assert.NoError(t, err)
	b, err := rc.GetOrCompute("im1", arr, dec, false)
	assert.NoError(t, err)
	assert.Equal(t, a, b)
	assert.EqualValues(t, 1, dec.calls.Load())

	// force recomputes even on a fresh entry
	_, err = rc.GetOrCompute("im1", arr, dec, true)
	assert.NoError(t, err)
	assert.EqualValues(t, 2, dec.calls.Load())
}

func TestCacheInvalidate(t *testing.T) {
	rc := NewResultCache(0, nil)
	dec := &countingDecoder{Decoder: testDecoder(t)}
	arr := NewArray2D(2, 2, []int64{0, 1, 4, 5})

	_, err := rc.GetOrCompute("im1", arr, dec, false)
	assert.NoError(t, err)
	rc.Invalidate("im1")
	_, ok := rc.Get("im1")
	assert.False(t, ok)

	_, err = rc.GetOrCompute("im1", arr, dec, false)
	assert.NoError(t, err)
	assert.EqualValues(t, 2, dec.calls.Load())

	rc.InvalidateAll()
	assert.Equal(t, 0, rc.Len())
}

func TestCacheTableSwapRecomputes(t *testing.T) {
	rc := NewResultCache(0, nil)
	arr := NewArray2D(2, 2, []int64{0, 1, 4, 5})

	decA := &countingDecoder{Decoder: testDecoder(t)}
	decB := &countingDecoder{Decoder: NewDecoder(DefaultTable())}

	_, err := rc.GetOrCompute("im1", arr, decA, false)
	assert.NoError(t, err)
	_, err = rc.GetOrCompute("im1", arr, decB, false)
	assert.NoError(t, err)
	assert.EqualValues(t, 1, decA.calls.Load())
	assert.EqualValues(t, 1, decB.calls.Load())
}

func TestCacheShapeChangeRecomputes(t *testing.T) {
	rc := NewResultCache(0, nil)
	dec := &countingDecoder{Decoder: testDecoder(t)}

	_, err := rc.GetOrCompute("im1", NewArray2D(2, 2, []int64{0, 1, 4, 5}), dec, false)
	assert.NoError(t, err)
	_, err = rc.GetOrCompute("im1", NewArray2D(1, 4, []int64{0, 1, 4, 5}), dec, false)
	assert.NoError(t, err)
	assert.EqualValues(t, 2, dec.calls.Load())
}

func TestCacheFailureStoresNothing(t *testing.T) {
	rc := NewResultCache(0, nil)
	dec := &countingDecoder{Decoder: testDecoder(t)}
	bad := &Array{Shape: []int{4}, Pix: []int64{0, 1, 4, 5}}

	_, err := rc.GetOrCompute("im1", bad, dec, false)
	assert.ErrorIs(t, err, stginga_errors.ErrUnsupportedRank)
	_, ok := rc.Get("im1")
	assert.False(t, ok)
	assert.Equal(t, 0, rc.Len())
}

func TestCacheEviction(t *testing.T) {
	rc := NewResultCache(2, nil)
	dec := &countingDecoder{Decoder: testDecoder(t)}
	arr := NewArray2D(2, 2, []int64{0, 1, 4, 5})

	for _, id := range []string{"im1", "im2", "im3"} {
		_, err := rc.GetOrCompute(id, arr, dec, false)
		assert.NoError(t, err)
	}
	assert.Equal(t, 2, rc.Len())
	_, ok := rc.Get("im1")
	assert.False(t, ok)
}

func TestCacheConcurrentSingleCompute(t *testing.T) {
	rc := NewResultCache(0, nil)
	dec := &countingDecoder{
		Decoder: testDecoder(t),
		gate:    make(chan struct{}),
	}
	arr := NewArray2D(2, 2, []int64{0, 1, 4, 5})

	const n = 16
	var wg sync.WaitGroup
	results := make([]FlagIndexMap, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			index, err := rc.GetOrCompute("im1", arr, dec, false)
			assert.NoError(t, err)
			results[i] = index
		}(i)
	}

	// let every goroutine queue up, then release the one decode
	time.Sleep(50 * time.Millisecond)
	close(dec.gate)
	wg.Wait()

	assert.EqualValues(t, 1, dec.calls.Load())
	for i := 1; i < n; i++ {
		assert.Equal(t, results[0], results[i])
	}
}

func TestCacheDistinctKeysDoNotBlock(t *testing.T) {
	rc := NewResultCache(0, nil)
	arr := NewArray2D(2, 2, []int64{0, 1, 4, 5})

	blocked := &countingDecoder{
		Decoder: testDecoder(t),
		gate:    make(chan struct{}),
	}
	go func() {
		_, _ = rc.GetOrCompute("im1", arr, blocked, false)
	}()

	free := &countingDecoder{Decoder: testDecoder(t)}
	done := make(chan struct{})
	go func() {
		_, err := rc.GetOrCompute("im2", arr, free, false)
		assert.NoError(t, err)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("computation for a distinct key blocked")
	}
	close(blocked.gate)
}
