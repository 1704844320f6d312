package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"
)

// Worker processes one job at a time on behalf of the orchestrator.
type Worker struct {
	id   int
	proc Processor
	log  *slog.Logger
}

func NewWorker(id int, proc Processor, log *slog.Logger) *Worker {
	return &Worker{id: id, proc: proc, log: log.With("worker", id)}
}

// Process runs the job and guarantees it ends in a terminal status, even if
// the processor panics or returns early.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID)
	start := time.Now()
	log.Info("job started", "filename", job.Filename)

	defer func() {
		if r := recover(); r != nil {
			log.Error("job panicked", "panic", r, "stack", string(debug.Stack()))
			job.AddError(fmt.Sprintf("internal error: %v", r))
			job.SetStatus(StatusFailed, "internal error")
		}
		snap := job.Snapshot()
		if !snap.Status.Terminal() {
			job.AddError("processing stopped before completion")
			job.SetStatus(StatusFailed, snap.Phase)
			snap = job.Snapshot()
		}
		log.Info("job finished",
			"status", snap.Status,
			"errors", len(snap.Progress.Errors),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}()

	w.proc.Run(ctx, job)
}
