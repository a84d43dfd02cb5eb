// ABOUTME: Static coping-resource table keyed by predicted label
// ABOUTME: Loaded once from an embedded TOML file, consumed read-only

package resources

import (
	"embed"
	"fmt"

	"github.com/BurntSushi/toml"
)

//go:embed resources.toml
var resourceFS embed.FS

// Entry is the ordered list of coping tips for one label.
// Tips are markdown fragments rendered by the UI.
type Entry struct {
	Label string   `toml:"label"`
	Title string   `toml:"title"`
	Tips  []string `toml:"tips"`
}

type tableFile struct {
	Resources []Entry `toml:"resource"`
}

// Table maps each known label to its coping resources.
type Table struct {
	entries map[string]Entry
}

// Load parses the embedded resource table.
func Load() (*Table, error) {
	data, err := resourceFS.ReadFile("resources.toml")
	if err != nil {
		return nil, fmt.Errorf("reading resource table: %w", err)
	}

	var file tableFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing resource table: %w", err)
	}

	entries := make(map[string]Entry, len(file.Resources))
	for _, e := range file.Resources {
		if e.Label == "" {
			return nil, fmt.Errorf("resource entry missing label")
		}
		if _, dup := entries[e.Label]; dup {
			return nil, fmt.Errorf("duplicate resource entry for label %q", e.Label)
		}
		entries[e.Label] = e
	}

	return &Table{entries: entries}, nil
}

// Lookup returns the entry for label. Unknown labels get a generic entry so
// the UI always has something to show.
func (t *Table) Lookup(label string) Entry {
	if e, ok := t.entries[label]; ok {
		return e
	}
	return Entry{
		Label: label,
		Title: "General wellbeing",
		Tips: []string{
			"We couldn't match your text to a specific category.",
			"If you are struggling, consider reaching out to someone you trust or a professional.",
		},
	}
}

// Labels returns the labels present in the table.
func (t *Table) Labels() []string {
	labels := make([]string, 0, len(t.entries))
	for l := range t.entries {
		labels = append(labels, l)
	}
	return labels
}
