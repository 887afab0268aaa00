package bust

import "github.com/torfstack/bust/internal/pipeline"

// Operation mutates a buffered file in place.
type Operation func(f *pipeline.File)

// Funnel validates each incoming file and hands buffered ones to op.
type Funnel struct {
	op Operation
}

func NewFunnel(op Operation) *Funnel {
	return &Funnel{op: op}
}

func (fn *Funnel) Transform(f *pipeline.File, p pipeline.Pipe) error {
	if f.IsNull() {
		return nil
	}

	if f.IsStream() {
		p.Emit(&pipeline.PluginError{Plugin: PluginName, Message: "Streaming not supported"})
	} else if f.IsBuffer() {
		fn.op(f)
	}

	p.Push(f)
	return nil
}
