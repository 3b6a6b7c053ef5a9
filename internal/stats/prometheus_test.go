package stats

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestPrometheusCollector_RegistersAndCollects(t *testing.T) {
	c := &Counters{}
	c.EnableInstructionCount(true)
	c.CountInstruction()

	collector := NewPrometheusCollector(c)

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(collector))

	metrics, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range metrics {
		if mf.GetName() == "wasm_instruction_count_total" {
			found = true
			require.Equal(t, float64(1), mf.GetMetric()[0].GetCounter().GetValue())
		}
	}
	require.True(t, found)
}
