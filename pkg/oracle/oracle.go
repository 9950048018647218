// Package oracle wraps the text completion backend that mnemo consults for
// every classification, extraction and activation decision. Callers treat
// it as a black box: they send an instruction and get back a structured
// answer or an error, and are expected to degrade to a default on error.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Oracle answers a natural language instruction with raw text that is
// expected to contain a JSON object, possibly wrapped in a fenced block.
// Call must return once ctx is done; callers bound it with timeouts.
type Oracle interface {
	Call(ctx context.Context, instruction string) (string, error)
}

// CallFunc adapts an ordinary function to the Oracle interface.
type CallFunc func(ctx context.Context, instruction string) (string, error)

// Call implements Oracle.
func (f CallFunc) Call(ctx context.Context, instruction string) (string, error) {
	return f(ctx, instruction)
}

const taskPrefix = "task: "

// Prompt frames body as an instruction for the named task. The task line
// lets fakes and logs identify the caller without inspecting prompt text.
func Prompt(task, body string) string {
	return taskPrefix + task + "\n\n" + body
}

// TaskOf returns the task named on the first line of a framed prompt.
func TaskOf(instruction string) string {
	line, _, _ := strings.Cut(instruction, "\n")
	if !strings.HasPrefix(line, taskPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(line, taskPrefix))
}

// Ask sends a framed prompt with a per-call timeout and parses the answer.
// A zero timeout means no extra deadline beyond ctx. Timeouts are reported
// as ErrUnavailable so callers handle them like any other outage.
func Ask(ctx context.Context, o Oracle, timeout time.Duration, task, body string) (Fields, error) {
	if o == nil {
		return nil, fmt.Errorf("%w: no oracle configured", ErrUnavailable)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	raw, err := o.Call(ctx, Prompt(task, body))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s timed out: %v", ErrUnavailable, task, err)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, task, err)
	}

	return Parse(raw)
}
