package pitchrange

import (
	"context"

	"github.com/RyanBlaney/pitchrange/pitchrange/config"
)

// Job is an analysis running on its own goroutine
type Job struct {
	done   chan struct{}
	cancel context.CancelFunc

	report *Report
	err    error
}

// Submit starts Analyze in the background and returns immediately. The caller
// must not modify samples until the job is done. A callback registered with
// WithCompletion runs on the job goroutine before Done is closed.
func Submit(ctx context.Context, samples []float64, sampleRate int, cfg *config.AnalysisConfig, opts ...Option) *Job {
	ctx, cancel := context.WithCancel(ctx)
	job := &Job{
		done:   make(chan struct{}),
		cancel: cancel,
	}

	completion := buildOptions(opts).completion

	go func() {
		defer cancel()
		defer close(job.done)

		job.report, job.err = Analyze(ctx, samples, sampleRate, cfg, opts...)
		if completion != nil {
			completion(job.report, job.err)
		}
	}()

	return job
}

// Done is closed once the job has finished
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job finishes and returns its result
func (j *Job) Wait() (*Report, error) {
	<-j.done
	return j.report, j.err
}

// Cancel asks the job to stop. It is checked between frame batches, so a job
// close to completion may still return a report.
func (j *Job) Cancel() {
	j.cancel()
}
