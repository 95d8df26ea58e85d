package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/plugindex/plugindex/pkg/registry"
)

// readme section order. Broken entries always come last so maintainers
// see everything needing triage in one place.
var categoryOrder = []registry.Category{
	registry.CategoryActive,
	registry.CategoryAging,
	registry.CategoryUnmaintained,
}

var categoryHeadings = map[registry.Category]string{
	registry.CategoryActive:       "Active",
	registry.CategoryAging:        "Aging",
	registry.CategoryUnmaintained: "Unmaintained",
}

func renderReadme(reg *registry.Registry) []byte {
	groups := make(map[registry.Category][]*registry.PluginRecord)
	var broken []*registry.PluginRecord
	for _, rec := range reg.Records {
		if rec.Status == registry.StatusBroken {
			broken = append(broken, rec)
			continue
		}
		groups[rec.Staleness] = append(groups[rec.Staleness], rec)
	}

	var b strings.Builder
	b.WriteString("# Plugin Registry\n\n")
	fmt.Fprintf(&b, "Generated %s.\n\n", reg.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC"))
	fmt.Fprintf(&b, "%d plugins", len(reg.Records))
	if len(broken) > 0 {
		fmt.Fprintf(&b, " (%d broken)", len(broken))
	}
	b.WriteString(".")
	if reg.Partial {
		b.WriteString(" This run was cut short by its deadline; some entries are missing.")
	}
	b.WriteString("\n")

	for _, cat := range categoryOrder {
		records := groups[cat]
		if len(records) == 0 {
			continue
		}
		sortByName(records)

		fmt.Fprintf(&b, "\n## %s (%d)\n\n", categoryHeadings[cat], len(records))
		b.WriteString("| Plugin | Author | Description | Last Updated | Type | API | License |\n")
		b.WriteString("|--------|--------|-------------|--------------|------|-----|--------|\n")
		for _, rec := range records {
			fmt.Fprintf(&b, "| [%s](https://github.com/%s) | %s | %s | %s | %s | %s | %s |\n",
				cell(rec.Name),
				rec.Repository,
				cell(rec.Author),
				cell(rec.Description),
				rec.LastUpdated.UTC().Format("2006-01-02"),
				cell(strings.Join(rec.Types, ", ")),
				cell(strings.Join(rec.APIVersions, ", ")),
				cell(rec.License),
			)
		}
	}

	if len(broken) > 0 {
		sortByName(broken)
		fmt.Fprintf(&b, "\n## Broken (%d)\n\n", len(broken))
		b.WriteString("These entries could not be fetched or validated and need manual review.\n\n")
		b.WriteString("| Entry | Error |\n")
		b.WriteString("|-------|-------|\n")
		for _, rec := range broken {
			msg := ""
			if rec.Error != nil {
				msg = rec.Error.Message
			}
			fmt.Fprintf(&b, "| %s | %s |\n", cell(rec.ID), cell(msg))
		}
	}

	return []byte(b.String())
}

// sortByName orders records case-insensitively by display name, falling
// back to ID so the order is total.
func sortByName(records []*registry.PluginRecord) {
	sort.Slice(records, func(i, j int) bool {
		a, b := strings.ToLower(records[i].Name), strings.ToLower(records[j].Name)
		if a != b {
			return a < b
		}
		return records[i].ID < records[j].ID
	})
}

// cell escapes characters that would break a markdown table row.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
