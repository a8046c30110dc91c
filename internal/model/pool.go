package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/ironsheep/captcha-tools-mcp/internal/tensor"
)

// Pool is a bounded checkout pool of runners for one model.
//
// Each slot holds either an idle runner or nil. A nil slot was vacated by a
// call that timed out while its runner was still busy; the next caller to draw
// it builds a replacement with the factory. At most Size runs are ever handed
// to live slots, though a timed-out run keeps its native thread until it
// finishes and its runner is closed.
type Pool struct {
	factory Factory
	slots   chan Runner
	size    int
	filled  int

	// discarded tracks timed-out runners still finishing in the background.
	discarded sync.WaitGroup

	closeOnce sync.Once
	closeErr  error
}

// NewPool pre-constructs size runners.
func NewPool(size int, factory Factory) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("pool size must be at least 1, got %d", size)
	}

	p := &Pool{
		factory: factory,
		slots:   make(chan Runner, size),
		size:    size,
	}
	for i := 0; i < size; i++ {
		r, err := factory()
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to create runner %d: %w", i, err)
		}
		p.slots <- r
		p.filled++
	}
	return p, nil
}

// Size returns the number of slots.
func (p *Pool) Size() int {
	return p.size
}

type runResult struct {
	out []tensor.Output
	err error
}

// Run checks out a runner, executes in, and returns the runner to the pool.
//
// The run itself cannot be interrupted. If ctx ends first, Run returns
// ctx.Err() at once; the busy runner is closed when it finishes and its slot is
// refilled lazily, so the pool is never poisoned.
func (p *Pool) Run(ctx context.Context, in tensor.Tensor) ([]tensor.Output, error) {
	var r Runner
	select {
	case slot, ok := <-p.slots:
		if !ok {
			return nil, fmt.Errorf("model pool is closed")
		}
		r = slot
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if r == nil {
		var err error
		if r, err = p.factory(); err != nil {
			p.slots <- nil
			return nil, fmt.Errorf("failed to replace runner: %w", err)
		}
	}

	done := make(chan runResult, 1)
	go func() {
		out, err := r.Run(in)
		done <- runResult{out: out, err: err}
	}()

	select {
	case res := <-done:
		p.slots <- r
		return res.out, res.err
	case <-ctx.Done():
		p.discarded.Add(1)
		go func() {
			defer p.discarded.Done()
			<-done
			r.Close()
		}()
		p.slots <- nil
		return nil, ctx.Err()
	}
}

// Close waits for in-flight runs to return their runners, then closes them.
// It also waits until every runner discarded after a timeout has finished and
// been closed. Later calls to Run fail.
func (p *Pool) Close() error {
	p.closeOnce.Do(func() {
		for i := 0; i < p.filled; i++ {
			r := <-p.slots
			if r == nil {
				continue
			}
			if err := r.Close(); err != nil && p.closeErr == nil {
				p.closeErr = err
			}
		}
		close(p.slots)
		p.discarded.Wait()
	})
	return p.closeErr
}
