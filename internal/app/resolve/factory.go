package resolve

import (
	"sort"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/osa030/omxbox/internal/app/filter"
	"github.com/osa030/omxbox/internal/infra/config"
)

// NewChainFromConfig creates the filter chain from configuration.
// The exists filter always runs first; enabled filters follow in name order.
func NewChainFromConfig(filters map[string]config.FilterConfig) (*filter.Chain, error) {
	chain := filter.NewChain()
	chain.Add(&filter.ExistsFilter{})

	registry := filter.GetRegistered()

	enabled := lo.Filter(lo.Keys(filters), func(name string, _ int) bool {
		return filters[name].Enabled
	})
	sort.Strings(enabled)

	for _, name := range enabled {
		settings := filters[name].Settings

		var f filter.Filter
		var err error
		switch name {
		case "exists_filter":
			continue
		case "extension_filter":
			f, err = filter.NewExtensionFilter(settings)
		default:
			factory, ok := registry[name]
			if !ok {
				return nil, errors.Newf("unknown filter: %s", name)
			}
			f = factory()
			err = f.ValidateConfig(settings)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create filter %s", name)
		}

		chain.Add(f)
		zlog.Info().Msgf("registered filter: name=%s", name)
	}

	return chain, nil
}
