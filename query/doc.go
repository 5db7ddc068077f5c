// Package query turns caller-supplied pagination, sort and depth options into
// a bounded query shape.
//
// Planning never fails. Missing or out-of-range values are clamped or replaced
// with defaults, so callers always receive usable Options:
//
//	planner := query.NewPlanner(query.DefaultLimits())
//	opts := planner.Plan(query.RawOptions{Limit: query.Int(500)})
//	// opts.Limit == 100, opts.Page == 1
package query
