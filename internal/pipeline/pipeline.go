package pipeline

import (
	"fmt"

	"github.com/torfstack/bust/internal/logging"
)

// Pipe is the downstream side of a stage.
type Pipe interface {
	// Push hands a file to the next stage.
	Push(f *File)
	// Emit reports a non-fatal error without stopping the run.
	Emit(err error)
}

// Stage processes one file at a time. A returned error is fatal to the run.
type Stage interface {
	Transform(f *File, p Pipe) error
}

// PluginError is emitted by a stage that could not handle a file but
// lets the run continue.
type PluginError struct {
	Plugin  string
	Message string
}

func (e *PluginError) Error() string {
	return fmt.Sprintf("%s: %s", e.Plugin, e.Message)
}

// Run feeds files through stage in order. It stops at the first fatal error.
func Run(stage Stage, files []*File, p Pipe) error {
	for _, f := range files {
		if err := stage.Transform(f, p); err != nil {
			return fmt.Errorf("could not process file '%s': %w", f.Path, err)
		}
	}
	return nil
}

// Collector is a Pipe that keeps everything it receives.
type Collector struct {
	Files  []*File
	Errors []error
}

func (c *Collector) Push(f *File) {
	c.Files = append(c.Files, f)
}

func (c *Collector) Emit(err error) {
	logging.Warn("Pipeline stage reported an error", err)
	c.Errors = append(c.Errors, err)
}
