// Package inversion drives the external resistivity inversion tool over batch descriptors.
package inversion

import (
	"context"
	"os/exec"

	"github.com/geovolt/geophygis/pkg/survey"
	"go.uber.org/zap"
)

// Result is the outcome of one batch invocation.
type Result struct {
	Batch  string
	Err    error
	Output []byte
}

// Runner invokes the inversion executable once per batch file, with the batch file
// as its only argument.
type Runner struct {
	tool string
}

func NewRunner(tool string) *Runner {
	return &Runner{tool: tool}
}

// Run executes the batches one at a time in order. Failures are logged and reported
// in the results; they never stop the remaining batches. Only context cancellation
// ends the run early.
func (r *Runner) Run(ctx context.Context, jobs []survey.BatchJob) []Result {
	log := zap.S().Named("inversion")
	results := make([]Result, 0, len(jobs))
	for _, job := range jobs {
		if ctx.Err() != nil {
			log.Warnf("inversion cancelled before %s", job.Path)
			break
		}
		log.Infof("running %s %s", r.tool, job.Path)
		out, err := exec.CommandContext(ctx, r.tool, job.Path).CombinedOutput()
		if err != nil {
			log.Warnw("inversion failed", "batch", job.Path, "error", err)
		}
		results = append(results, Result{Batch: job.Path, Err: err, Output: out})
	}
	return results
}
