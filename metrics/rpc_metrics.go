package metrics

import "github.com/prometheus/client_golang/prometheus"

// RPCMetrics groups JSON-RPC batching metrics
type RPCMetrics struct {
	BatchesTotal   *prometheus.CounterVec
	BatchSize      prometheus.Histogram
	CallErrorsTotal *prometheus.CounterVec
}

// NewRPCMetrics creates and returns RPC batcher metrics
func NewRPCMetrics() *RPCMetrics {
	return &RPCMetrics{
		BatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "omniquote_rpc_batches_total",
				Help: "Total number of JSON-RPC batch round trips",
			},
			[]string{"chain", "status"}, // ok, transport_error
		),
		BatchSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "omniquote_rpc_batch_size",
				Help:    "Number of calls folded into one JSON-RPC batch",
				Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250},
			},
		),
		CallErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "omniquote_rpc_call_errors_total",
				Help: "Node-side errors on individual batched calls",
			},
			[]string{"chain", "method"},
		),
	}
}

// Register registers all RPC metrics with the given registry
func (r *RPCMetrics) Register(reg *prometheus.Registry) {
	reg.MustRegister(
		r.BatchesTotal,
		r.BatchSize,
		r.CallErrorsTotal,
	)
}

func RPCBatchesTotal() *prometheus.CounterVec {
	return GetMetrics().RPC.BatchesTotal
}

func RPCBatchSize() prometheus.Histogram {
	return GetMetrics().RPC.BatchSize
}

func RPCCallErrorsTotal() *prometheus.CounterVec {
	return GetMetrics().RPC.CallErrorsTotal
}
