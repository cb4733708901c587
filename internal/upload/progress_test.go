package upload

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRamp_Single(t *testing.T) {
	assert.Equal(t, []int{9, 18, 27, 36, 45, 54, 63, 72, 81, 90}, slices.Collect(singleRamp.Seq()))
}

func TestRamp_BatchShares(t *testing.T) {
	assert.Equal(t, []int{3, 6, 9, 13, 16, 19, 23, 26, 29, 33}, slices.Collect(batchRamp(0, 3).Seq()))

	last := slices.Collect(batchRamp(2, 3).Seq())
	assert.Equal(t, 66, batchRamp(2, 3).Base)
	assert.Equal(t, 95, last[len(last)-1], "capped below 100")
}

func TestRamp_SeqStopsEarly(t *testing.T) {
	var got []int
	for v := range singleRamp.Seq() {
		got = append(got, v)
		if len(got) == 3 {
			break
		}
	}
	assert.Equal(t, []int{9, 18, 27}, got)
}

func TestRamp_RunEmitsOnInterval(t *testing.T) {
	var got []int
	Ramp{Base: 0, Target: 30, Steps: 3, Cap: 95}.Run(context.Background(), time.Millisecond, func(v int) {
		got = append(got, v)
	})
	assert.Equal(t, []int{10, 20, 30}, got)
}

func TestRamp_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var got []int
	singleRamp.Run(ctx, time.Hour, func(v int) { got = append(got, v) })
	assert.Empty(t, got)
}
