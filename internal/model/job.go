package model

import "time"

// Job carries one seed URL through the crawl pipeline and accumulates
// what each step produced.
type Job struct {
	// Seed is the URL the crawl starts from.
	Seed string `json:"seed"`

	// Domain is the hostname of Seed.
	Domain string `json:"domain"`

	// Recursive records the crawl mode that was requested.
	Recursive bool `json:"recursive"`

	// Outcome is set by the crawl step.
	Outcome *Outcome `json:"outcome,omitempty"`

	// StartedAt and FinishedAt bound the crawl step.
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`

	// RunID is the history database identifier, or zero when not stored.
	RunID int64 `json:"runId,omitempty"`

	// PerformedSteps lists the names of steps that completed.
	PerformedSteps []string `json:"performedSteps,omitempty"`

	// Errors collects step failures when the pipeline continues on error.
	Errors []string `json:"errors,omitempty"`

	// Interrupted is set when the context ended before every step ran.
	Interrupted bool `json:"interrupted,omitempty"`
}

// NewJob returns a Job for seed.
func NewJob(seed, domain string, recursive bool) *Job {
	return &Job{Seed: seed, Domain: domain, Recursive: recursive}
}

// AddStep records a completed step.
func (j *Job) AddStep(name string) {
	j.PerformedSteps = append(j.PerformedSteps, name)
}

// AddError records a step failure.
func (j *Job) AddError(err error) {
	if err != nil {
		j.Errors = append(j.Errors, err.Error())
	}
}

// Duration is the time spent in the crawl step.
func (j *Job) Duration() time.Duration {
	if j.StartedAt.IsZero() || j.FinishedAt.IsZero() {
		return 0
	}
	return j.FinishedAt.Sub(j.StartedAt)
}
