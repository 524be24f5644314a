package pipeline

import (
	"context"
	"sync"
)

// fanOut runs tasks concurrently under a worker limit. The first task
// error cancels the group context; tasks still queued exit without
// running. wait joins everything and reports that first error.
type fanOut struct {
	ctx    context.Context
	cancel context.CancelFunc
	sem    chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
	err    error
}

func newFanOut(ctx context.Context, workers int) *fanOut {
	ctx, cancel := context.WithCancel(ctx)
	return &fanOut{
		ctx:    ctx,
		cancel: cancel,
		sem:    make(chan struct{}, workers),
	}
}

func (f *fanOut) spawn(task func(ctx context.Context) error) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		select {
		case f.sem <- struct{}{}:
		case <-f.ctx.Done():
			return
		}
		defer func() { <-f.sem }()
		if err := task(f.ctx); err != nil {
			f.fail(err)
		}
	}()
}

func (f *fanOut) fail(err error) {
	f.once.Do(func() {
		f.err = err
		f.cancel()
	})
}

func (f *fanOut) wait() error {
	f.wg.Wait()
	f.cancel()
	return f.err
}
