// Package prometheus renders guard metrics in Prometheus text exposition
// format. Counters are named farm2go_guard_*_total and the evaluate latency
// histogram is farm2go_guard_evaluate_latency_seconds.
//
// Nothing is registered globally; callers mount [Exporter.Handler] or print
// [Exporter.Render].
package prometheus
