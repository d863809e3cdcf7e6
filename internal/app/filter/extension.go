package filter

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"github.com/spf13/afero"
)

// ExtensionFilter only lets through files with an allowed extension.
type ExtensionFilter struct {
	allowed []string // lower-case, with leading dot
}

// NewExtensionFilter creates an extension filter from its settings.
// settings: allowed ([]string) - extensions such as ".mp4" or "mkv"
func NewExtensionFilter(settings map[string]any) (*ExtensionFilter, error) {
	f := &ExtensionFilter{}
	if err := f.ValidateConfig(settings); err != nil {
		return nil, err
	}

	raw, _ := toStrings(settings["allowed"])
	f.allowed = lo.Map(raw, func(ext string, _ int) string {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		return ext
	})
	return f, nil
}

func (f *ExtensionFilter) Name() string {
	return "extension_filter"
}

func (f *ExtensionFilter) Description() string {
	return "Only accepts files whose extension is listed in settings.allowed"
}

func (f *ExtensionFilter) ReturnCodes() []string {
	return []string{"unsupported_extension"}
}

func (f *ExtensionFilter) ValidateConfig(settings map[string]any) error {
	raw, ok := settings["allowed"]
	if !ok {
		return errors.New("extension_filter: settings.allowed is required")
	}
	exts, ok := toStrings(raw)
	if !ok {
		return errors.Newf("extension_filter: settings.allowed must be a list of strings, got %T", raw)
	}
	if len(exts) == 0 {
		return errors.New("extension_filter: settings.allowed cannot be empty")
	}
	return nil
}

func (f *ExtensionFilter) Check(ctx context.Context, fs afero.Fs, c Candidate) Result {
	ext := strings.ToLower(filepath.Ext(c.Path))
	if !lo.Contains(f.allowed, ext) {
		return Reject("unsupported_extension")
	}
	return Accept()
}

func toStrings(v any) ([]string, bool) {
	switch list := v.(type) {
	case []string:
		return list, true
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

func init() {
	Register("extension_filter", func() Filter {
		return &ExtensionFilter{}
	})
}
