// Package benchmark is the segmented-transfer benchmarking engine.
//
// A run generates (or reuses) a synthetic dataset, transfers it against a
// store.Store in parallel segments and reports aggregate throughput:
//
//	PlanSegments      partitions a byte range into contiguous segments
//	GenerateDataset   writes a fixed-size file of random lowercase rows
//	Scheduler         runs tasks with at most N in flight, FIFO start order
//	Orchestrator      drives one upload or one download run
//	StateMachine      gates login, runs and logout
//	Runner            the state machine and orchestrator behind one facade
//
// Progress is delivered as an ordered stream of ProgressSample values on a
// caller-supplied channel which the orchestrator closes when the run ends.
//
// Failed download segments are never retried and never abort their siblings.
// The run returns its RunResult together with an *AggregateTransferFailure,
// and throughput is then computed from completed segments only.
package benchmark
