// Package http serves experiment tooling over HTTP with chi.
//
// Routes:
//
//	GET    /health
//	GET    /info
//	POST   /sequence                          expand an experiment document (?seed=N)
//	GET    /sessions                          stored sessions
//	GET    /sessions/{id}/trials              stored trial numbers
//	GET    /sessions/{id}/trials/{n}          one stored record
//	GET    /sessions/{id}/events              finished trials as server-sent events
//	DELETE /sessions/{id}
//	GET    /metrics                           when WithMetrics is set
package http
