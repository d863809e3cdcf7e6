package filter

import (
	"context"

	"github.com/spf13/afero"
)

// RegularFileFilter drops paths that are directories.
type RegularFileFilter struct{}

func (f *RegularFileFilter) Name() string {
	return "regular_file_filter"
}

func (f *RegularFileFilter) Description() string {
	return "Drops paths that point to a directory"
}

func (f *RegularFileFilter) ReturnCodes() []string {
	return []string{"not_a_file"}
}

func (f *RegularFileFilter) ValidateConfig(settings map[string]any) error {
	return nil
}

func (f *RegularFileFilter) Check(ctx context.Context, fs afero.Fs, c Candidate) Result {
	isDir, err := afero.IsDir(fs, c.Path)
	if err != nil || isDir {
		return Reject("not_a_file")
	}
	return Accept()
}

func init() {
	Register("regular_file_filter", func() Filter {
		return &RegularFileFilter{}
	})
}
