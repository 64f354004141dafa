package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

// TaskError accumulates multiple errors produced during bulk seeding.
type TaskError struct {
	Errors []error
}

func (e *TaskError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d errors: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *TaskError) Unwrap() []error {
	return e.Errors
}

func (e *TaskError) append(err error) {
	if err == nil {
		return
	}
	e.Errors = append(e.Errors, err)
}

func (e *TaskError) asError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// SeedRecord is one submission to replay through the builder.
type SeedRecord struct {
	Input SubmissionInput
	Raw   map[string]any
}

// SeedResult summarizes a bulk seeding run.
type SeedResult struct {
	Inserted int64
	Failed   int64
}

// Seeder replays stored submissions through TransactionService.Submit on a
// bounded worker pool.
type Seeder struct {
	service *TransactionService
	workers int
}

// NewSeeder creates a Seeder with the provided concurrency.
func NewSeeder(service *TransactionService, workers int) *Seeder {
	if workers <= 0 {
		workers = 4
	}
	return &Seeder{
		service: service,
		workers: workers,
	}
}

// Seed submits every record. Per-record failures are collected into a
// *TaskError; cancellation stops feeding work and returns the context error.
func (sd *Seeder) Seed(ctx context.Context, records []SeedRecord) (SeedResult, error) {
	var result SeedResult
	err := sd.run(ctx, len(records), func(idx int) error {
		if _, err := sd.service.Submit(ctx, records[idx].Input, records[idx].Raw); err != nil {
			atomic.AddInt64(&result.Failed, 1)
			return fmt.Errorf("record %d: %w", idx, err)
		}
		atomic.AddInt64(&result.Inserted, 1)
		return nil
	})
	return result, err
}

func (sd *Seeder) run(ctx context.Context, total int, workerFn func(idx int) error) error {
	if total == 0 {
		return nil
	}
	indexCh := make(chan int)
	errCh := make(chan error, total)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for idx := range indexCh {
			if err := workerFn(idx); err != nil {
				errCh <- err
			}
		}
	}

	for i := 0; i < sd.workers; i++ {
		wg.Add(1)
		go worker()
	}

Loop:
	for i := 0; i < total; i++ {
		select {
		case indexCh <- i:
		case <-ctx.Done():
			break Loop
		}
	}
	close(indexCh)
	wg.Wait()
	close(errCh)

	if err := ctx.Err(); err != nil {
		return err
	}

	var taskErr TaskError
	for err := range errCh {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		taskErr.append(err)
	}
	return taskErr.asError()
}
