package render

import (
	"encoding/json"
	"os"
	"sort"
	"time"

	"github.com/plugindex/plugindex/pkg/errors"
	"github.com/plugindex/plugindex/pkg/registry"
)

// Index is the shape of plugins.json. The run ID is deliberately absent:
// two runs over identical input must produce identical bytes.
type Index struct {
	GeneratedAt time.Time                `json:"generated_at"`
	Partial     bool                     `json:"partial,omitempty"`
	Plugins     []*registry.PluginRecord `json:"plugins"`
}

func renderIndex(reg *registry.Registry) ([]byte, error) {
	plugins := make([]*registry.PluginRecord, len(reg.Records))
	copy(plugins, reg.Records)
	sort.Slice(plugins, func(i, j int) bool { return plugins[i].ID < plugins[j].ID })

	idx := Index{
		GeneratedAt: reg.GeneratedAt.UTC(),
		Partial:     reg.Partial,
		Plugins:     plugins,
	}

	data, err := json.MarshalIndent(idx, "", "    ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "encode index")
	}
	return append(data, '\n'), nil
}

// ReadIndex loads a previously written plugins.json. Used by pruning to
// classify entries without re-fetching.
func ReadIndex(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "read index %s", path)
	}
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "parse index %s", path)
	}
	return &idx, nil
}
