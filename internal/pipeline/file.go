package pipeline

import (
	"io"
	"path/filepath"
)

// File is a single record flowing through a pipeline. Exactly one of
// Contents and Stream is set for files carrying content; neither is set
// for null files such as directories.
type File struct {
	Base     string // directory the relative path is computed from
	Path     string
	Contents []byte
	Stream   io.ReadCloser
}

func NewBufferFile(base, path string, contents []byte) *File {
	if contents == nil {
		contents = []byte{}
	}
	return &File{Base: base, Path: path, Contents: contents}
}

func (f *File) IsNull() bool {
	return f.Contents == nil && f.Stream == nil
}

func (f *File) IsStream() bool {
	return f.Stream != nil
}

func (f *File) IsBuffer() bool {
	return f.Stream == nil && f.Contents != nil
}

// Relative returns Path relative to Base. It is derived on every call,
// so it follows any rename of Path.
func (f *File) Relative() string {
	if f.Base == "" {
		return f.Path
	}
	rel, err := filepath.Rel(f.Base, f.Path)
	if err != nil {
		return f.Path
	}
	return rel
}
