package observability

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus collectors for provider requests, latency and
// cost, ReAct iterations and tool outcomes. The orchestrator and LLM
// adapters do not record into them.
type Metrics struct {
	ProviderRequests *prometheus.CounterVec
	ProviderLatency  *prometheus.HistogramVec
	ProviderCost     *prometheus.CounterVec
	ReActIterations  prometheus.Histogram
	ToolExecutions   *prometheus.CounterVec
}

// NewMetrics registers and returns the engine's metric collectors against
// reg. Pass prometheus.NewRegistry() in tests to avoid clobbering the
// default global registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "browzer_agent_provider_requests_total",
			Help: "LLM provider requests by provider, model, and outcome.",
		}, []string{"provider", "model", "outcome"}),
		ProviderLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "browzer_agent_provider_latency_seconds",
			Help:    "LLM provider call latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider", "model"}),
		ProviderCost: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "browzer_agent_provider_cost_usd_total",
			Help: "Estimated USD cost of LLM provider calls.",
		}, []string{"provider", "model"}),
		ReActIterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "browzer_agent_react_iterations",
			Help:    "Number of ReAct iterations per completed task.",
			Buckets: prometheus.LinearBuckets(1, 2, 10),
		}),
		ToolExecutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "browzer_agent_tool_executions_total",
			Help: "Tool Registry executions by tool name and outcome.",
		}, []string{"tool", "outcome"}),
	}

	reg.MustRegister(m.ProviderRequests, m.ProviderLatency, m.ProviderCost, m.ReActIterations, m.ToolExecutions)
	return m
}
