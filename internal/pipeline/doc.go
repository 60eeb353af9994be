// Package pipeline runs crawl jobs through a fixed sequence of steps.
//
// A job is one seed URL. The usual steps crawl it, store the outcome in
// the history database and export it in the requested format. Each step
// implements Step and records what it produced on the model.Job.
//
// BatchProcessor runs several jobs concurrently with a bounded number of
// goroutines (errgroup.SetLimit), building a fresh pipeline per job so
// that per-domain settings can differ.
package pipeline
