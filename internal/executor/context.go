package executor

import "fmt"

// Context accumulates step outputs over one workflow run. Each run
// creates its own Context and hands it to every agent invocation, so
// step N sees the outputs of steps 1..N-1. Runs never share state.
type Context map[string]any

// NewContext creates an empty run context.
func NewContext() Context {
	return make(Context)
}

// AddStepOutput records the output of a completed step under the
// step_{n}_output key.
func (c Context) AddStepOutput(step int, output any) {
	c[fmt.Sprintf("step_%d_output", step)] = output
}
