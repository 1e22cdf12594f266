// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestEventType_String(t *testing.T) {
	tests := []struct {
		eventType EventType
		expected  string
	}{
		{EventStarted, "started"},
		{EventOutput, "output"},
		{EventCompleted, "completed"},
		{EventFailed, "failed"},
		{EventType(999), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.eventType.String())
		})
	}
}

func TestNullReporter(t *testing.T) {
	r := NewNullReporter()

	assert.NotPanics(t, func() {
		r.Report(Event{Task: "a.py", Type: EventStarted})
		r.Close()
	})
}

type collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *collector) OnEvent(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.events = append(c.events, e)
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.events)
}

func TestChannelReporter_Listen(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := NewChannelReporter(10)
	c := &collector{}
	r.Listen(c)

	r.Report(Event{Task: "a.py", Type: EventStarted, Timestamp: time.Now()})
	r.Report(Event{Task: "a.py", Type: EventCompleted, Timestamp: time.Now()})
	r.Close()

	require.Equal(t, 2, c.len())
	assert.Equal(t, EventStarted, c.events[0].Type)
	assert.Equal(t, EventCompleted, c.events[1].Type)
}

func TestChannelReporter_DropsWhenFull(t *testing.T) {
	r := NewChannelReporter(1)

	r.Report(Event{Task: "first"})
	r.Report(Event{Task: "dropped"})
	r.Close()

	var got []string
	for e := range r.Events() {
		got = append(got, e.Task)
	}

	assert.Equal(t, []string{"first"}, got)
}

func TestChannelReporter_ReportAfterClose(t *testing.T) {
	r := NewChannelReporter(1)
	r.Close()

	assert.NotPanics(t, func() {
		r.Report(Event{Task: "late"})
		r.Close()
	})
}

func TestChannelReporter_ConcurrentReportAndClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := NewChannelReporter(4)
	r.Listen(&collector{})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range 100 {
				r.Report(Event{Task: "x"})
			}
		}()
	}

	r.Close()
	wg.Wait()
}

func TestMultiReporter(t *testing.T) {
	var a, b []EventType

	m := MultiReporter{
		NewFuncReporter(func(e Event) { a = append(a, e.Type) }),
		nil,
		NewFuncReporter(func(e Event) { b = append(b, e.Type) }),
	}

	m.Report(Event{Type: EventStarted})
	m.Report(Event{Type: EventFailed})
	m.Close()

	assert.Equal(t, []EventType{EventStarted, EventFailed}, a)
	assert.Equal(t, []EventType{EventStarted, EventFailed}, b)
}
