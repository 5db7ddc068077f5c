// Package health reports whether the retrieval service can do its job.
//
// A Checker inspects one dependency and returns a Result. The Aggregator runs
// every registered checker concurrently under one deadline and folds the
// results into a Report whose status is the worst individual status.
//
// Two checkers ship with the package:
//
//   - StoreChecker pings the durable comment store and reports an open
//     circuit breaker in front of it.
//   - CacheChecker reports result-cache occupancy against its byte budget.
//
// Handlers expose the aggregate over HTTP:
//
//	r := chi.NewRouter()
//	health.Mount(r, agg)   // /livez, /readyz, /health
package health
