// ABOUTME: Tests for the embedded coping-resource table
// ABOUTME: Covers loading, label coverage, and the generic fallback

package resources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindlens/mindlens/internal/classify"
)

func TestLoad(t *testing.T) {
	table, err := Load()
	require.NoError(t, err)
	assert.NotEmpty(t, table.Labels())
}

func TestLoad_CoversAllKnownLabels(t *testing.T) {
	table, err := Load()
	require.NoError(t, err)

	for _, label := range classify.Labels {
		entry := table.Lookup(label)
		assert.Equal(t, label, entry.Label, "missing resource entry for %q", label)
		assert.NotEmpty(t, entry.Title)
		assert.NotEmpty(t, entry.Tips)
	}
}

func TestLookup_UnknownLabelFallsBack(t *testing.T) {
	table, err := Load()
	require.NoError(t, err)

	entry := table.Lookup("Unknown")
	assert.Equal(t, "General wellbeing", entry.Title)
	assert.NotEmpty(t, entry.Tips)
}
