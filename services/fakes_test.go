package services

import (
	"context"
	"sync"
	"time"
)

// fakeWorker records invocations and answers them through respond
type fakeWorker struct {
	mu      sync.Mutex
	calls   []Invocation
	limits  []Limits
	respond func(inv Invocation) (*WorkerOutput, error)
}

func (f *fakeWorker) Execute(ctx context.Context, inv Invocation, limits Limits) (*WorkerOutput, error) {
	f.mu.Lock()
	f.calls = append(f.calls, inv)
	f.limits = append(f.limits, limits)
	respond := f.respond
	f.mu.Unlock()

	if respond == nil {
		return &WorkerOutput{Payload: []byte(`{"success":true,"result":null}`)}, nil
	}
	return respond(inv)
}

func (f *fakeWorker) Calls() []Invocation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Invocation{}, f.calls...)
}

func payload(s string) (*WorkerOutput, error) {
	return &WorkerOutput{Payload: []byte(s)}, nil
}

func newTestRegistry(w Worker) *Registry {
	reg := NewRegistry()
	reg.Register(&Language{
		Name:      "r",
		Dialect:   rDialect{},
		Worker:    w,
		Functions: DefaultCatalog("r", "r"),
	})
	return reg
}

// fakeClock is a settable time source
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
