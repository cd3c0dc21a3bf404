package scheduler

import (
	"sync"
	"time"
)

// Inline runs every task immediately on the caller's goroutine and records the
// requested delays. Used by tests and offline simulations.
type Inline struct {
	mu     sync.Mutex
	Delays []time.Duration
}

// After runs task now.
func (i *Inline) After(delay time.Duration, _ string, task func()) error {
	i.mu.Lock()
	i.Delays = append(i.Delays, delay)
	i.mu.Unlock()
	task()
	return nil
}

// Every runs task once.
func (i *Inline) Every(interval time.Duration, name string, task func()) error {
	return i.After(interval, name, task)
}

// Shutdown is a no-op.
func (i *Inline) Shutdown() error { return nil }

// Manual queues tasks until RunNext or RunAll is called, letting tests observe
// state between scheduled steps.
type Manual struct {
	mu    sync.Mutex
	queue []manualTask
}

type manualTask struct {
	name  string
	delay time.Duration
	task  func()
}

// After queues task.
func (m *Manual) After(delay time.Duration, name string, task func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, manualTask{name: name, delay: delay, task: task})
	return nil
}

// Every queues task once.
func (m *Manual) Every(interval time.Duration, name string, task func()) error {
	return m.After(interval, name, task)
}

// Shutdown drops queued tasks.
func (m *Manual) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = nil
	return nil
}

// Pending returns the number of queued tasks.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// NextDelay returns the delay of the oldest queued task.
func (m *Manual) NextDelay() (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return 0, false
	}
	return m.queue[0].delay, true
}

// RunNext runs the oldest queued task. It reports false when the queue is empty.
func (m *Manual) RunNext() bool {
	m.mu.Lock()
	if len(m.queue) == 0 {
		m.mu.Unlock()
		return false
	}
	next := m.queue[0]
	m.queue = m.queue[1:]
	m.mu.Unlock()

	next.task()
	return true
}

// RunAll runs tasks, including ones queued while running, until none remain.
// It returns how many ran.
func (m *Manual) RunAll() int {
	n := 0
	for m.RunNext() {
		n++
	}
	return n
}
