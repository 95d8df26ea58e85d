// Package render serializes a built registry into its output artifacts:
// a machine-readable index (plugins.json) and a human-readable summary
// (README.md). Rendering is deterministic: records are ordered by a stable
// key and fields are emitted in a fixed order, so identical registries
// produce byte-identical artifacts.
//
// Artifacts are produced fully in memory and committed to disk in a second
// step, all or nothing, so a failed run never leaves partial output behind.
package render

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/plugindex/plugindex/pkg/errors"
	"github.com/plugindex/plugindex/pkg/observability"
	"github.com/plugindex/plugindex/pkg/registry"
)

// Artifact filenames within the output directory.
const (
	IndexFile  = "plugins.json"
	ReadmeFile = "README.md"
)

// Options controls which artifacts are produced.
type Options struct {
	// SkipReadme omits the human-readable summary.
	SkipReadme bool
}

// Artifacts holds the rendered output before it is written.
type Artifacts struct {
	Index  []byte
	Readme []byte // nil when skipped
}

// Names lists the artifact filenames that will be written.
func (a *Artifacts) Names() []string {
	names := []string{IndexFile}
	if a.Readme != nil {
		names = append(names, ReadmeFile)
	}
	return names
}

// Render produces the artifacts for one registry.
func Render(ctx context.Context, reg *registry.Registry, opts Options) (*Artifacts, error) {
	start := time.Now()

	a := &Artifacts{}
	observability.Build().OnRenderStart(ctx, a.Names())

	index, err := renderIndex(reg)
	if err != nil {
		observability.Build().OnRenderComplete(ctx, a.Names(), time.Since(start), err)
		return nil, err
	}
	a.Index = index

	if !opts.SkipReadme {
		a.Readme = renderReadme(reg)
	}

	observability.Build().OnRenderComplete(ctx, a.Names(), time.Since(start), nil)
	return a, nil
}

// Write commits the artifacts to dir atomically: every file is written to
// a temporary name first and renamed into place only after all writes
// succeeded. A failure leaves no partial output.
func (a *Artifacts) Write(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeRender, err, "create output dir %s", dir)
	}

	files := map[string][]byte{IndexFile: a.Index}
	if a.Readme != nil {
		files[ReadmeFile] = a.Readme
	}

	var staged []string
	cleanup := func() {
		for _, tmp := range staged {
			_ = os.Remove(tmp)
		}
	}

	for _, name := range a.Names() {
		tmp := filepath.Join(dir, "."+name+".tmp")
		if err := os.WriteFile(tmp, files[name], 0644); err != nil {
			cleanup()
			return errors.Wrap(errors.ErrCodeRender, err, "stage %s", name)
		}
		staged = append(staged, tmp)
	}
	for i, name := range a.Names() {
		if err := os.Rename(staged[i], filepath.Join(dir, name)); err != nil {
			cleanup()
			return errors.Wrap(errors.ErrCodeRender, err, "commit %s", name)
		}
	}
	return nil
}
