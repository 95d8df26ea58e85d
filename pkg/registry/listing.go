package registry

import (
	"encoding/json"
	"os"
	"time"

	"github.com/plugindex/plugindex/pkg/errors"
)

// LoadListing reads and validates the curated listing file. A malformed
// listing is fatal: the build must not start with a bad configuration.
func LoadListing(path string) ([]CuratedEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidListing, err, "read listing %s", path)
	}

	var entries []CuratedEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidListing, err, "parse listing %s", path)
	}

	for i, e := range entries {
		if err := errors.ValidateRepoRef(e.Name); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidListing, err, "listing entry %d", i)
		}
		if err := errors.ValidateSubdir(e.Subdir); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidListing, err, "listing entry %d (%s)", i, e.Name)
		}
		if !e.ViewOnly && !e.AutoUpdate && e.Tag == "" {
			return nil, errors.New(errors.ErrCodeInvalidListing,
				"listing entry %d (%s): needs a tag, auto_update, or view_only", i, e.Name)
		}
	}
	return entries, nil
}

// SaveListing writes the curated listing back to path, keeping a timestamped
// backup of the previous file. Used by pruning.
func SaveListing(path string, entries []CuratedEntry) error {
	data, err := json.MarshalIndent(entries, "", "    ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode listing")
	}
	data = append(data, '\n')

	if prev, err := os.ReadFile(path); err == nil {
		backup := path + ".bak." + time.Now().UTC().Format("20060102T150405")
		if err := os.WriteFile(backup, prev, 0644); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "back up listing")
		}
	}
	return os.WriteFile(path, data, 0644)
}
