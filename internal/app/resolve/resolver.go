// Package resolve turns requested video identifiers into playable paths.
package resolve

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/osa030/omxbox/internal/app/filter"
)

// ErrVideoNotFound is returned in strict mode when a video is rejected.
var ErrVideoNotFound = errors.New("video not found")

// Config holds resolver configuration.
type Config struct {
	Directory string // Prepended to relative identifiers
	Extension string // Appended to every identifier
	Strict    bool   // Fail instead of dropping rejected videos
}

// Resolver maps identifiers to absolute paths and filters out unplayable ones.
type Resolver struct {
	mu sync.RWMutex

	fs    afero.Fs
	chain *filter.Chain

	directory string
	extension string
	strict    bool
}

// New creates a resolver over fs. A nil chain only checks for existence.
func New(fs afero.Fs, chain *filter.Chain, cfg Config) *Resolver {
	if chain == nil {
		chain = filter.NewChain()
		chain.Add(&filter.ExistsFilter{})
	}
	if cfg.Directory == "" {
		cfg.Directory = "./"
	}
	return &Resolver{
		fs:        fs,
		chain:     chain,
		directory: cfg.Directory,
		extension: cfg.Extension,
		strict:    cfg.Strict,
	}
}

// SetDirectory sets the directory relative identifiers are resolved against.
func (r *Resolver) SetDirectory(dir string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.directory = dir
}

// SetExtension sets the suffix appended to every identifier.
func (r *Resolver) SetExtension(ext string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extension = ext
}

// Directory returns the current videos directory.
func (r *Resolver) Directory() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.directory
}

// Extension returns the current videos extension.
func (r *Resolver) Extension() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.extension
}

// Resolve returns the paths of the playable videos, in request order.
// Rejected videos are dropped silently unless the resolver is strict.
func (r *Resolver) Resolve(ctx context.Context, ids []string) ([]string, error) {
	r.mu.RLock()
	dir, ext, strict := r.directory, r.extension, r.strict
	r.mu.RUnlock()

	paths := make([]string, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path, err := buildPath(dir, ext, id)
		if err != nil {
			return nil, err
		}

		result := r.chain.Execute(ctx, r.fs, filter.Candidate{ID: id, Path: path})
		if !result.Accepted {
			if strict {
				return nil, errors.Wrapf(ErrVideoNotFound, "%s rejected by %s (%s)", path, result.Filter, result.Code)
			}
			zlog.Debug().Msgf("resolve: dropping video: id=%s path=%s filter=%s code=%s", id, path, result.Filter, result.Code)
			continue
		}
		paths = append(paths, path)
	}

	return paths, nil
}

func buildPath(dir, ext, id string) (string, error) {
	p := id + ext
	if !filepath.IsAbs(p) {
		p = filepath.Join(dir, p)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve %s", id)
	}
	return abs, nil
}
