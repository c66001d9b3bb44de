package nimsforestpdfviewer

import (
	"context"
	"sync"
)

// Result is the outcome of an asynchronous viewer operation. It resolves
// once, either with nil or with an error.
type Result struct {
	once sync.Once
	done chan struct{}
	err  error
}

func newResult() *Result {
	return &Result{done: make(chan struct{})}
}

// resolved returns a Result that has already succeeded.
func resolved() *Result {
	r := newResult()
	r.finish(nil)
	return r
}

func failed(err error) *Result {
	r := newResult()
	r.finish(err)
	return r
}

func (r *Result) finish(err error) {
	r.once.Do(func() {
		r.err = err
		close(r.done)
	})
}

// Done is closed once the operation has finished.
func (r *Result) Done() <-chan struct{} {
	return r.done
}

// Err returns the failure, or nil if the operation succeeded or is still
// running.
func (r *Result) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}

// Wait blocks until the operation finishes or ctx is done.
func (r *Result) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stage identifies the provider call an in-flight operation is waiting on.
type Stage int

const (
	StageNone Stage = iota
	StageDocument
	StagePage
	StagePaint
)

func (s Stage) String() string {
	switch s {
	case StageDocument:
		return "document"
	case StagePage:
		return "page"
	case StagePaint:
		return "paint"
	default:
		return ""
	}
}

// LoadHandle is the token of the single in-flight operation.
type LoadHandle struct {
	id     uint64
	stage  Stage
	cancel context.CancelFunc
	result *Result
}

// Stage returns the provider call the operation is currently waiting on.
// The stage is a snapshot taken when the handle was returned.
func (h *LoadHandle) Stage() Stage {
	return h.stage
}

// Done is closed when the operation finishes. Follow-up renders coalesced
// behind it settle their own Result.
func (h *LoadHandle) Done() <-chan struct{} {
	return h.result.Done()
}

// Wait blocks until the operation finishes or ctx is done.
func (h *LoadHandle) Wait(ctx context.Context) error {
	return h.result.Wait(ctx)
}

// PipelineState is the state of the render pipeline.
type PipelineState int

const (
	Idle PipelineState = iota
	LoadingDocument
	LoadingPage
	Rendering
	Committed
	Failed
	Cancelled
)

func (s PipelineState) String() string {
	switch s {
	case Idle:
		return "idle"
	case LoadingDocument:
		return "loading-document"
	case LoadingPage:
		return "loading-page"
	case Rendering:
		return "rendering"
	case Committed:
		return "committed"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}
