package pipeline

import (
	"fmt"

	"github.com/KaramelBytes/churnguard-cli/internal/table"
)

// Source hands out the full contents of input files by index.
type Source interface {
	Load(i int) (*table.Table, error)
	Path(i int) string
	Len() int
}

// FileSource reads CSV files on first use and keeps them for the rest of the run.
type FileSource struct {
	paths []string
	opt   table.Options
	cache map[int]*table.Table
	errs  map[int]error
}

// NewFileSource returns a Source over the given paths.
func NewFileSource(paths []string, opt table.Options) *FileSource {
	return &FileSource{paths: paths, opt: opt, cache: map[int]*table.Table{}, errs: map[int]error{}}
}

func (s *FileSource) Len() int { return len(s.paths) }

func (s *FileSource) Path(i int) string {
	if i < 0 || i >= len(s.paths) {
		return fmt.Sprintf("#%d", i)
	}
	return s.paths[i]
}

// Load returns file i, reading it on the first call.
func (s *FileSource) Load(i int) (*table.Table, error) {
	if t, ok := s.cache[i]; ok {
		return t, nil
	}
	if err, ok := s.errs[i]; ok {
		return nil, err
	}
	if i < 0 || i >= len(s.paths) {
		return nil, fmt.Errorf("file index %d out of range", i)
	}
	t, err := table.ReadFile(s.paths[i], s.opt)
	if err != nil {
		s.errs[i] = err
		return nil, err
	}
	s.cache[i] = t
	return t, nil
}
