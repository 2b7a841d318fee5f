/*
Package observability exports engine activity as Prometheus metrics.

Metrics methods are shaped like the engine's callbacks, so wiring is a matter of passing
them as options:

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	seq := sequence.New(sequence.WithOnBlock(metrics.ObserveBlock))
	m, _ := machine.New(states, machine.WithObserver(metrics.ObserveTransition))
*/
package observability
