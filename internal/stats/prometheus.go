package stats

import "github.com/prometheus/client_golang/prometheus"

// PrometheusCollector adapts a *Counters into a prometheus.Collector, the
// optional stats exporter spec.md's DOMAIN STACK wires prometheus/
// client_golang into — grounded on the Provider/registry construction
// pattern in the pack's internal/metrics/prometheus.Provider (collect-on-
// scrape rather than push, so counters stay cheap on the hot path).
type PrometheusCollector struct {
	counters *Counters

	instructionCount *prometheus.Desc
	gasUsed          *prometheus.Desc
	gasLimit         *prometheus.Desc
	wasmTimeSeconds  *prometheus.Desc
	hostTimeSeconds  *prometheus.Desc
}

// NewPrometheusCollector wraps counters for registration with a
// prometheus.Registry.
func NewPrometheusCollector(counters *Counters) *PrometheusCollector {
	return &PrometheusCollector{
		counters:         counters,
		instructionCount: prometheus.NewDesc("wasm_instruction_count_total", "Executed instructions.", nil, nil),
		gasUsed:          prometheus.NewDesc("wasm_gas_used_total", "Gas consumed.", nil, nil),
		gasLimit:         prometheus.NewDesc("wasm_gas_limit", "Configured gas limit.", nil, nil),
		wasmTimeSeconds:  prometheus.NewDesc("wasm_time_seconds_total", "Time spent executing Wasm code.", nil, nil),
		hostTimeSeconds:  prometheus.NewDesc("wasm_host_time_seconds_total", "Time spent executing host callbacks.", nil, nil),
	}
}

func (p *PrometheusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- p.instructionCount
	ch <- p.gasUsed
	ch <- p.gasLimit
	ch <- p.wasmTimeSeconds
	ch <- p.hostTimeSeconds
}

func (p *PrometheusCollector) Collect(ch chan<- prometheus.Metric) {
	snap := p.counters.Snapshot()
	ch <- prometheus.MustNewConstMetric(p.instructionCount, prometheus.CounterValue, float64(snap.InstructionCount))
	ch <- prometheus.MustNewConstMetric(p.gasUsed, prometheus.CounterValue, float64(snap.GasUsed))
	ch <- prometheus.MustNewConstMetric(p.gasLimit, prometheus.GaugeValue, float64(snap.GasLimit))
	ch <- prometheus.MustNewConstMetric(p.wasmTimeSeconds, prometheus.CounterValue, snap.WasmTime.Seconds())
	ch <- prometheus.MustNewConstMetric(p.hostTimeSeconds, prometheus.CounterValue, snap.HostTime.Seconds())
}

var _ prometheus.Collector = (*PrometheusCollector)(nil)
