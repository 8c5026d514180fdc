package wallpaper

import (
	"context"
	"sync"

	"github.com/dixieflatline76/rngpaper/util/log"
)

// Pipeline is a bounded pool of workers consuming change jobs from a buffered queue.
type Pipeline struct {
	jobChan  chan ChangeJob
	workerWg sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	process  ProcessFunc

	mu      sync.Mutex
	started bool
}

// ChangeJob is one queued wallpaper change.
type ChangeJob struct {
	ID     string
	Source string
}

// ProcessFunc handles one job. ctx is cancelled when the pipeline stops.
type ProcessFunc func(ctx context.Context, job ChangeJob)

// NewPipeline creates a pipeline whose lifetime is bound to parent.
func NewPipeline(parent context.Context, queueSize int, process ProcessFunc) *Pipeline {
	if queueSize < 1 {
		queueSize = jobQueueSize
	}
	ctx, cancel := context.WithCancel(parent)
	return &Pipeline{
		jobChan: make(chan ChangeJob, queueSize),
		ctx:     ctx,
		cancel:  cancel,
		process: process,
	}
}

// Start starts workerCount workers. Calling it again is a no-op.
func (p *Pipeline) Start(workerCount int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	if workerCount < 1 {
		workerCount = 1
	}
	log.Printf("Starting pipeline with %d workers", workerCount)
	for i := 0; i < workerCount; i++ {
		p.workerWg.Add(1)
		go p.workerLoop(i)
	}
}

// Stop cancels in-flight jobs and waits for the workers to exit. Queued jobs are dropped.
func (p *Pipeline) Stop() {
	log.Println("Stopping pipeline...")
	p.cancel()
	p.workerWg.Wait()
	log.Println("Pipeline stopped.")
}

// Submit queues job without blocking. It returns false when the queue is full or the pipeline
// has stopped.
func (p *Pipeline) Submit(job ChangeJob) bool {
	if p.ctx.Err() != nil {
		return false
	}
	select {
	case p.jobChan <- job:
		return true
	default:
		return false
	}
}

// Pending returns the number of queued jobs.
func (p *Pipeline) Pending() int {
	return len(p.jobChan)
}

func (p *Pipeline) workerLoop(id int) {
	defer p.workerWg.Done()
	log.Debugf("Worker %d started", id)

	for {
		select {
		case <-p.ctx.Done():
			log.Debugf("Worker %d stopping", id)
			return
		case job := <-p.jobChan:
			p.process(p.ctx, job)
		}
	}
}
