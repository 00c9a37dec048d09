// Package cmdtest provides a scripted cmd.Runner for tests.
package cmdtest

import (
	"context"
	"errors"
	"sync"

	"asxhub/internal/cmd"
)

// Response is the scripted result for one command line.
type Response struct {
	Output string
	Err    error
}

// Recorder records every command and answers from a script keyed by the
// full command line as rendered by cmd.Line.
type Recorder struct {
	mu        sync.Mutex
	responses map[string]Response
	// Fallback answers command lines missing from the script.
	Fallback *Response
	calls    []string
}

// New creates a Recorder with an empty script.
func New() *Recorder {
	return &Recorder{responses: make(map[string]Response)}
}

// On scripts the response for a command line.
func (r *Recorder) On(line string, output string, err error) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses[line] = Response{Output: output, Err: err}
	return r
}

// Run implements cmd.Runner.
func (r *Recorder) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	line := cmd.Line(name, args...)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, line)

	resp, ok := r.responses[line]
	if !ok {
		if r.Fallback != nil {
			resp = *r.Fallback
		} else {
			resp = Response{Err: errors.New("cmdtest: unscripted command")}
		}
	}
	if resp.Err != nil {
		return []byte(resp.Output), &cmd.ExitError{Name: name, Args: args, Output: resp.Output, Err: resp.Err}
	}
	return []byte(resp.Output), nil
}

// Calls returns the command lines seen so far.
func (r *Recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

// Called reports whether a command line was run.
func (r *Recorder) Called(line string) bool {
	for _, c := range r.Calls() {
		if c == line {
			return true
		}
	}
	return false
}
