package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
)

// Task is one unit of background work, typically the post-ack half of a
// webhook delivery. Tasks receive the pool's context, not the HTTP request
// context that enqueued them.
type Task func(ctx context.Context) error

var ErrQueueFull = errors.New("worker queue full")

// Pool runs submitted tasks on a bounded set of goroutines. Task errors are
// logged and published on Errors so a supervisor can watch failure rates;
// they are never silently dropped.
type Pool struct {
	wg   sync.WaitGroup
	jobs chan Task
	errs chan error
	quit chan struct{}
	n    int
	log  *zerolog.Logger
}

func NewPool(workers int, logger *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	poolLog := logger.With().Str("component", "WorkerPool").Logger()
	return &Pool{
		jobs: make(chan Task, workers*4),
		errs: make(chan error, workers*4),
		quit: make(chan struct{}),
		n:    workers,
		log:  &poolLog,
	}
}

func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.n; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-p.quit:
					return
				case task := <-p.jobs:
					if task == nil {
						continue
					}
					if err := task(ctx); err != nil {
						p.log.Error().Err(err).Int("worker", id).Msg("task failed")
						select {
						case p.errs <- err:
						default: // observer not keeping up; the log line above remains
						}
					}
				}
			}
		}(i)
	}
}

func (p *Pool) Stop() {
	close(p.quit)
	p.wg.Wait()
}

// Errors exposes task failures for supervision.
func (p *Pool) Errors() <-chan error { return p.errs }

// Submit enqueues a task; it fails fast with ErrQueueFull when saturated so
// the caller can fall back to its retry sweep instead of blocking a request.
func (p *Pool) Submit(task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	select {
	case p.jobs <- task:
		return nil
	default:
		return ErrQueueFull
	}
}
