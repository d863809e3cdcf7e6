package filter

import (
	"context"

	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// ExistsFilter drops videos whose path does not exist.
// The resolver always runs it first.
type ExistsFilter struct{}

func (f *ExistsFilter) Name() string {
	return "exists_filter"
}

func (f *ExistsFilter) Description() string {
	return "Drops videos that do not exist on disk (always enabled)"
}

func (f *ExistsFilter) ReturnCodes() []string {
	return []string{"not_found"}
}

func (f *ExistsFilter) ValidateConfig(settings map[string]any) error {
	return nil
}

func (f *ExistsFilter) Check(ctx context.Context, fs afero.Fs, c Candidate) Result {
	ok, err := afero.Exists(fs, c.Path)
	if err != nil {
		zlog.Debug().Err(err).Msgf("filter: stat failed: path=%s", c.Path)
	}
	if !ok {
		return Reject("not_found")
	}
	return Accept()
}

func init() {
	Register("exists_filter", func() Filter {
		return &ExistsFilter{}
	})
}
