// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package parallel fans a batch of input files across a fixed worker
// pool, running extraction and detection for each file independently.
package parallel

import (
	"context"
	"sync"
	"time"

	"autoredact/internal/engine"
	"autoredact/internal/extract"
)

// Job is one file to scan.
type Job struct {
	FilePath string
}

// Result is the outcome of scanning one file. Error is set when
// extraction or detection failed; the other fields are then zero.
type Result struct {
	FilePath string
	Scan     *engine.Result
	Text     string
	Error    error
	Duration time.Duration
}

// WorkerPool manages parallel file processing over a shared engine.
type WorkerPool struct {
	workers int
	eng     *engine.Engine
	jobs    chan Job
	results chan Result
	wg      sync.WaitGroup
}

// NewWorkerPool creates a pool of the given size. The engine is shared:
// detectors must be safe for concurrent use.
func NewWorkerPool(workers int, eng *engine.Engine) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{
		workers: workers,
		eng:     eng,
		jobs:    make(chan Job, workers*2),
		results: make(chan Result, workers*2),
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx)
	}
	go func() {
		wp.wg.Wait()
		close(wp.results)
	}()
}

// Submit queues files for processing and closes the job queue. It must
// be called exactly once, after Start.
func (wp *WorkerPool) Submit(ctx context.Context, paths []string) {
	go func() {
		defer close(wp.jobs)
		for _, path := range paths {
			select {
			case wp.jobs <- Job{FilePath: path}:
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Results returns the channel scan outcomes arrive on. It is closed
// once every submitted job has finished.
func (wp *WorkerPool) Results() <-chan Result {
	return wp.results
}

func (wp *WorkerPool) worker(ctx context.Context) {
	defer wp.wg.Done()

	for job := range wp.jobs {
		result := wp.processJob(ctx, job)
		select {
		case wp.results <- result:
		case <-ctx.Done():
			return
		}
	}
}

func (wp *WorkerPool) processJob(ctx context.Context, job Job) Result {
	start := time.Now()

	doc, err := extract.File(job.FilePath)
	if err != nil {
		return Result{FilePath: job.FilePath, Error: err, Duration: time.Since(start)}
	}

	scan, err := wp.eng.Detect(ctx, doc.Text, doc.Locator())
	if err != nil {
		return Result{FilePath: job.FilePath, Error: err, Duration: time.Since(start)}
	}

	return Result{
		FilePath: job.FilePath,
		Scan:     scan,
		Text:     doc.Text,
		Duration: time.Since(start),
	}
}
