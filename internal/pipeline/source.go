package pipeline

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/torfstack/bust/internal/util"
)

// Source lists and loads files below a directory.
type Source struct {
	dir string
	fs  fs.FS
}

func NewSource(dir string) *Source {
	return &Source{
		dir: filepath.Clean(dir),
		fs:  os.DirFS(dir),
	}
}

func (s *Source) Dir() string {
	return s.dir
}

// Match returns the slash-separated paths of all files matching any of
// globs, sorted and without duplicates.
func (s *Source) Match(globs []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	for _, glob := range globs {
		matches, err := doublestar.Glob(
			s.fs,
			glob,
			doublestar.WithFilesOnly(),
			doublestar.WithFailOnIOErrors(),
		)
		if err != nil {
			return nil, fmt.Errorf("could not read files with glob %v: %w", glob, err)
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

// Load reads the file at the slash-separated path rel into a buffered File.
func (s *Source) Load(rel string) (*File, error) {
	b, err := fs.ReadFile(s.fs, rel)
	if err != nil {
		return nil, fmt.Errorf("could not read file '%s': %w", rel, err)
	}
	return NewBufferFile(s.dir, filepath.Join(s.dir, filepath.FromSlash(rel)), b), nil
}

// LoadAll loads every file matching globs.
func (s *Source) LoadAll(globs []string) ([]*File, error) {
	paths, err := s.Match(globs)
	if err != nil {
		return nil, err
	}
	files := make([]*File, 0, len(paths))
	for _, p := range paths {
		f, err := s.Load(p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// WriteAll writes each file to dir joined with its relative path and
// returns the number of bytes written.
func WriteAll(dir string, files []*File) (int64, error) {
	var written int64
	for _, f := range files {
		if !f.IsBuffer() {
			continue
		}
		dst := filepath.Join(dir, f.Relative())
		if err := util.WriteFile(dst, f.Contents); err != nil {
			return written, fmt.Errorf("could not write output file '%s': %w", dst, err)
		}
		written += int64(len(f.Contents))
	}
	return written, nil
}
