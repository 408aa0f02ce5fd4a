package game

import (
	"fmt"
	"runtime"
	"sync"
)

// defaultParallelThreshold is the minimum item count to use the worker pool.
// Below this, running inline is faster than the channel round trip.
const defaultParallelThreshold = 4096

// chunkFunc processes items [start, end) on the given worker.
type chunkFunc func(start, end, worker int)

// workChunk represents a range of items for a worker to process.
type workChunk struct {
	start, end int
	fn         chunkFunc
}

// workerPool is a set of persistent goroutines fed index ranges.
// dispatch blocks until every chunk has finished, which makes each call a
// barrier between simulation phases.
type workerPool struct {
	numWorkers      int
	chunksPerWorker int
	threshold       int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan error     // workers report completion (nil or recovered panic)
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
	stopped  bool           // true once stop was called
}

func newWorkerPool(numWorkers, threshold, chunksPerWorker int) *workerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	if threshold <= 0 {
		threshold = defaultParallelThreshold
	}
	if chunksPerWorker <= 0 {
		chunksPerWorker = 1
	}
	return &workerPool{
		numWorkers:      numWorkers,
		chunksPerWorker: chunksPerWorker,
		threshold:       threshold,
	}
}

// start launches persistent worker goroutines.
func (p *workerPool) start() {
	if p.running || p.stopped {
		return
	}

	maxChunks := p.numWorkers * p.chunksPerWorker
	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan error, maxChunks)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// stop signals all workers to exit and waits for them.
// The pool cannot be restarted.
func (p *workerPool) stop() {
	p.stopped = true
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *workerPool) worker(workerID int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			p.doneChan <- runChunk(chunk, workerID)
		}
	}
}

// runChunk executes one chunk, converting a panic into an error.
func runChunk(chunk workChunk, workerID int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("chunk [%d,%d) panicked: %v", chunk.start, chunk.end, r)
		}
	}()
	chunk.fn(chunk.start, chunk.end, workerID)
	return nil
}

// dispatch splits [0, n) into chunks and waits for all of them. weight is
// the approximate cost of one item relative to the threshold unit (1 for an
// agent, the row length for a field row).
// The first chunk error is returned after every chunk has completed.
func (p *workerPool) dispatch(n, weight int, fn chunkFunc) error {
	if p.stopped {
		return ErrPoolStopped
	}
	if n <= 0 {
		return nil
	}

	// Single chunk inline for small inputs
	if n*weight < p.threshold || n == 1 {
		return runChunk(workChunk{start: 0, end: n, fn: fn}, 0)
	}

	// Ensure workers are running
	if !p.running {
		p.start()
	}

	numChunks := p.numWorkers * p.chunksPerWorker
	chunkSize := (n + numChunks - 1) / numChunks

	// Dispatch chunks to workers
	chunksDispatched := 0
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		p.workChan <- workChunk{start: start, end: end, fn: fn}
		chunksDispatched++
	}

	// Wait for all chunks to complete
	var firstErr error
	for i := 0; i < chunksDispatched; i++ {
		if err := <-p.doneChan; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// workers returns the number of distinct worker IDs a chunkFunc may see.
func (p *workerPool) workers() int {
	return p.numWorkers
}
