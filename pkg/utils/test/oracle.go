package testutils

import (
	"context"
	"errors"
	"sync"

	"github.com/papercomputeco/mnemo/pkg/oracle"
)

// ErrMockOracle is returned for tasks configured to fail.
var ErrMockOracle = errors.New("mock oracle failure")

// MockOracle is a test oracle that answers by task name. Each task has a
// queue of raw answers; once it drains the last answer given repeats.
// Tasks that never had an answer fail.
type MockOracle struct {
	mu      sync.Mutex
	answers map[string][]string
	last    map[string]string
	fail    map[string]bool
	calls   []string
	prompts map[string][]string
}

func NewMockOracle() *MockOracle {
	return &MockOracle{
		answers: make(map[string][]string),
		last:    make(map[string]string),
		fail:    make(map[string]bool),
		prompts: make(map[string][]string),
	}
}

// On queues raw answers for a task.
func (m *MockOracle) On(task string, raw ...string) *MockOracle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers[task] = append(m.answers[task], raw...)
	delete(m.fail, task)
	return m
}

// Fail makes every call for task return ErrMockOracle.
func (m *MockOracle) Fail(task string) *MockOracle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[task] = true
	return m
}

func (m *MockOracle) Call(ctx context.Context, instruction string) (string, error) {
	task := oracle.TaskOf(instruction)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, task)
	m.prompts[task] = append(m.prompts[task], instruction)

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.fail[task] {
		return "", ErrMockOracle
	}

	if queue := m.answers[task]; len(queue) > 0 {
		m.last[task] = queue[0]
		m.answers[task] = queue[1:]
		return queue[0], nil
	}
	if answer, ok := m.last[task]; ok {
		return answer, nil
	}
	return "", ErrMockOracle
}

// Calls returns the task of every call in order.
func (m *MockOracle) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// CallCount returns how often task was asked.
func (m *MockOracle) CallCount(task string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts[task])
}

// LastPrompt returns the most recent instruction sent for task.
func (m *MockOracle) LastPrompt(task string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.prompts[task]
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Reset forgets recorded calls but keeps configured answers.
func (m *MockOracle) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.prompts = make(map[string][]string)
}

var _ oracle.Oracle = (*MockOracle)(nil)
