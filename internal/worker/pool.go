package worker

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrPoolClosed is returned by Submit after Stop.
var ErrPoolClosed = errors.New("worker pool is stopped")

// Pool runs submitted jobs on a fixed set of worker goroutines. Crawl runs
// and enrichment batches execute here so trigger calls never block on
// completion.
type Pool struct {
	logger *zap.Logger
	tasks  chan func()
	stop   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

func NewPool(size int, logger *zap.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{
		logger: logger,
		tasks:  make(chan func(), size*2),
		stop:   make(chan struct{}),
	}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stop:
			return
		case task := <-p.tasks:
			p.run(task)
		}
	}
}

func (p *Pool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("task panicked", zap.Any("panic", r))
		}
	}()
	task()
}

// Submit queues a job, blocking while the queue is full.
func (p *Pool) Submit(task func()) error {
	select {
	case <-p.stop:
		return ErrPoolClosed
	case p.tasks <- task:
		return nil
	}
}

// Stop rejects further work and waits for in-flight jobs to finish. Jobs
// still queued but not yet picked up are dropped.
func (p *Pool) Stop() {
	p.once.Do(func() {
		close(p.stop)
	})
	p.wg.Wait()
}
