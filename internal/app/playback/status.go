package playback

import (
	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"

	"github.com/osa030/omxbox/internal/domain/options"
)

// Status is a snapshot of the session.
type Status struct {
	Videos  []string        `mapstructure:"videos"`
	Current string          `mapstructure:"current"`
	Options options.Options `mapstructure:"config"`
	Playing bool            `mapstructure:"playing"`
	Loaded  bool            `mapstructure:"loaded"`
}

// Map returns the status as a plain map. An idle status is exactly {"loaded": false}.
func (s Status) Map() (map[string]any, error) {
	if !s.Loaded {
		return map[string]any{"loaded": false}, nil
	}

	out := make(map[string]any)
	if err := mapstructure.Decode(s, &out); err != nil {
		return nil, errors.Wrap(err, "failed to encode status")
	}
	return out, nil
}
