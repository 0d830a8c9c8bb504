package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheus_ReservationTransition_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)

	p.ReservationTransition("port", "released", "reservedByYou")
	p.ReservationTransition("port", "released", "reservedByYou")

	families, err := reg.Gather()
	require.NoError(t, err)

	var found *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "impair_reservation_transitions_total" {
			found = f
		}
	}
	require.NotNil(t, found)
	require.Len(t, found.Metric, 1)
	assert.Equal(t, float64(2), found.Metric[0].GetCounter().GetValue())
}

func TestPrometheus_NotifyDropped_IncrementsPerPipe(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)

	p.NotifyDropped("resources")
	p.NotifyDropped("statistics")
	p.NotifyDropped("resources")

	families, err := reg.Gather()
	require.NoError(t, err)
	var found *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "impair_notify_dropped_total" {
			found = f
		}
	}
	require.NotNil(t, found)
	assert.Len(t, found.Metric, 2)
}

func TestNoop_DoesNotPanic(t *testing.T) {
	var s Sink = Noop{}
	s.ReservationTransition("port", "released", "reservedByYou")
	s.ApplyDuration("port", 0.1)
	s.NotifyQueueDepth("resources", 3)
	s.NotifyDropped("resources")
}
