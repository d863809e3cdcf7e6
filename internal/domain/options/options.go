// Package options provides the playback options handed to the player process.
package options

import (
	"sort"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// LoopFlag is the player flag enabling its built-in loop.
const LoopFlag = "--loop"

// Errors
var (
	ErrNotMapping   = errors.New("options must be a mapping")
	ErrInvalidValue = errors.New("option value must be a string, number or boolean")
)

// Options maps an option name (e.g. "-o", "--vol") to its value.
// Boolean values mark flags, strings and numbers are passed as the following token.
// Options are never mutated once a session has started.
type Options map[string]any

// FromAny converts a decoded value (YAML, JSON, structpb) into Options.
// A nil value yields empty options.
func FromAny(v any) (Options, error) {
	switch m := v.(type) {
	case nil:
		return Options{}, nil
	case Options:
		return m.Clone(), nil
	case map[string]any:
		return Options(m).Clone(), nil
	case map[string]string:
		o := make(Options, len(m))
		for k, val := range m {
			o[k] = val
		}
		return o, nil
	default:
		return nil, errors.Wrapf(ErrNotMapping, "got %T", v)
	}
}

// Validate checks that every value has a supported type.
func (o Options) Validate() error {
	for _, k := range o.Keys() {
		switch o[k].(type) {
		case nil, bool, string,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64:
		default:
			return errors.Wrapf(ErrInvalidValue, "option %q has type %T", k, o[k])
		}
	}
	return nil
}

// Keys returns the option names in lexicographic order.
func (o Options) Keys() []string {
	keys := lo.Keys(o)
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy.
func (o Options) Clone() Options {
	c := make(Options, len(o))
	for k, v := range o {
		c[k] = v
	}
	return c
}

// IsTruthy reports whether v enables its option: true, a non-empty string or a non-zero number.
func IsTruthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	default:
		f, ok := toFloat(v)
		return ok && f != 0
	}
}

// FormatValue returns the token to place after an option key.
// Only strings and numbers produce a token.
func FormatValue(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case int:
		return strconv.Itoa(val), true
	case int8:
		return strconv.FormatInt(int64(val), 10), true
	case int16:
		return strconv.FormatInt(int64(val), 10), true
	case int32:
		return strconv.FormatInt(int64(val), 10), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case uint:
		return strconv.FormatUint(uint64(val), 10), true
	case uint8:
		return strconv.FormatUint(uint64(val), 10), true
	case uint16:
		return strconv.FormatUint(uint64(val), 10), true
	case uint32:
		return strconv.FormatUint(uint64(val), 10), true
	case uint64:
		return strconv.FormatUint(val, 10), true
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	default:
		return "", false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
