package session

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_AddGetRemove(t *testing.T) {
	r := NewRegistry(10, time.Minute)
	s := &Session{Kind: KindBatch}
	r.Add(s)

	require.NotEmpty(t, s.ID)
	got, ok := r.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)

	assert.True(t, r.Remove(s.ID))
	_, ok = r.Get(s.ID)
	assert.False(t, ok)
	assert.False(t, r.Remove(s.ID))
}

func TestRegistry_EvictionStopsPoller(t *testing.T) {
	r := NewRegistry(1, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	first := &Session{Kind: KindManager, stop: cancel}
	r.Add(first)

	r.Add(&Session{Kind: KindBatch})

	assert.Equal(t, 1, r.Len())
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("evicted session poller still running")
	}
}

func TestRegistry_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(10, time.Minute)
	require.NoError(t, r.RegisterMetrics(reg))

	r.Add(&Session{Kind: KindBatch})
	r.Add(&Session{Kind: KindBatch})

	n, err := testutil.GatherAndCount(reg, "image_gateway_sessions_active")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.Equal(t, 2.0, mfs[0].GetMetric()[0].GetGauge().GetValue())
}
