// Package executor defines the narrow capability the workload gate delegates
// actual work to (spec §6 "Executor interface", §9 "dynamic dispatch of
// executor / discovery / sink"). The gate never assumes an executor is
// local, networked, or simulated — it only calls Run and reacts to the
// reported metrics, which drive billing.
package executor

import (
	"context"
	"errors"
)

// Workload is the unit of work an executor is asked to run. The gate builds
// this from an admitted request; an executor never sees a request that has
// not already cleared admission.
type Workload struct {
	RequestID        string
	ModelID          string
	TaskType         string
	Payload          []byte
	MaxExecutionTime int64 // milliseconds, enforced by the gate before dispatch
	Priority         string
}

// Result is what an executor reports back after running a Workload (spec
// §6). ExecMs, MemoryMB, and TokensGenerated drive billing, so an executor
// must report them deterministically — the core performs no independent
// measurement of its own.
type Result struct {
	Output           []byte
	ExecMs           int64
	MemoryMB         float64
	TokensGenerated  int64
	CPUPercent       float64
	GPUPercent       float64
}

// ErrExecutionFailed wraps any executor-reported failure (spec §6 error
// code EXECUTION_FAILED).
var ErrExecutionFailed = errors.New("executor: execution failed")

// Executor runs an admitted workload and reports back metrics for billing.
// The core depends only on this interface, never a concrete executor (spec
// §9).
type Executor interface {
	Run(ctx context.Context, workload Workload) (Result, error)
}
