// Package dynamo provides the numerical primitives shared by the solver.
//
// The package defines the small building blocks the time-stepping engine is
// assembled from:
//
//   - [State]: a vector of concentrations with validity checks
//   - [Buffer]: a double-buffered state holding the current and next time level
//   - [ForEach]: bounded worker pool for independent whole-run jobs
//   - [SimulationError]: a step-located failure wrapping one of the sentinel errors
//
// # Example
//
//	buf := dynamo.NewBuffer(nodes)
//	buf.Fill(1.0)
//	// ... write buf.Next ...
//	buf.Swap()
//
// # Thread Safety
//
// Buffers are owned by a single run and are NOT thread-safe. Parallelism is
// only offered at the granularity of whole runs through [ForEach].
package dynamo
