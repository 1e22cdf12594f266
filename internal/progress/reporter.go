// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"sync"
)

var (
	_ Reporter = (*ChannelReporter)(nil)
	_ Reporter = (*FuncReporter)(nil)
	_ Reporter = MultiReporter(nil)
)

// ChannelReporter buffers events on a channel. Report never blocks: when the buffer
// is full the event is dropped. Reporting after Close is a no-op.
type ChannelReporter struct {
	ch     chan Event
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewChannelReporter creates a ChannelReporter with the given buffer size.
func NewChannelReporter(bufferSize int) *ChannelReporter {
	return &ChannelReporter{
		ch: make(chan Event, bufferSize),
	}
}

// Report implements Reporter.
func (cr *ChannelReporter) Report(event Event) {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	if cr.closed {
		return
	}

	select {
	case cr.ch <- event:
	default:
	}
}

// Close stops accepting events, closes the channel and waits for any Listen goroutine
// to drain it.
func (cr *ChannelReporter) Close() {
	cr.mu.Lock()
	if cr.closed {
		cr.mu.Unlock()
		return
	}

	cr.closed = true
	close(cr.ch)
	cr.mu.Unlock()

	cr.wg.Wait()
}

// Listen forwards every buffered event to l on a new goroutine until Close is called.
func (cr *ChannelReporter) Listen(l Listener) {
	cr.wg.Add(1)

	go func() {
		defer cr.wg.Done()

		for event := range cr.ch {
			l.OnEvent(event)
		}
	}()
}

// Events returns the underlying channel. It is closed by Close.
func (cr *ChannelReporter) Events() <-chan Event {
	return cr.ch
}

// FuncReporter calls Fn for every event, serialised by a mutex so Fn never runs concurrently.
type FuncReporter struct {
	Fn func(Event)
	mu sync.Mutex
}

// NewFuncReporter returns a FuncReporter wrapping fn.
func NewFuncReporter(fn func(Event)) *FuncReporter {
	return &FuncReporter{Fn: fn}
}

// Report implements Reporter.
func (fr *FuncReporter) Report(event Event) {
	if fr.Fn == nil {
		return
	}

	fr.mu.Lock()
	defer fr.mu.Unlock()

	fr.Fn(event)
}

// Close implements Reporter.
func (fr *FuncReporter) Close() {}

// MultiReporter fans each event out to every reporter in order.
type MultiReporter []Reporter

// Report implements Reporter.
func (m MultiReporter) Report(event Event) {
	for _, r := range m {
		if r != nil {
			r.Report(event)
		}
	}
}

// Close implements Reporter.
func (m MultiReporter) Close() {
	for _, r := range m {
		if r != nil {
			r.Close()
		}
	}
}
