package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectionFilters_Toggle(t *testing.T) {
	t.Parallel()

	var f SelectionFilters
	require.True(t, f.Toggle(FacetSkill, "Speaking"))
	require.True(t, f.Toggle(FacetSkill, "Grammar"))
	require.True(t, f.Toggle(FacetLevel, "A1"))
	assert.Equal(t, []string{"Speaking", "Grammar"}, f.Skill)
	assert.True(t, f.HasSkill(GrammarSkill))

	f.Toggle(FacetSkill, "Speaking")
	assert.Equal(t, []string{"Grammar"}, f.Skill)

	assert.False(t, f.Toggle(Facet("mood"), "happy"))
}

func TestSelectionFilters_ToggleDoesNotAlias(t *testing.T) {
	t.Parallel()

	f := SelectionFilters{Theme: []string{"Food", "Animals"}}
	snapshot := f
	f.Toggle(FacetTheme, "Food")

	assert.Equal(t, []string{"Food", "Animals"}, snapshot.Theme)
	assert.Equal(t, []string{"Animals"}, f.Theme)
}

func TestSelectionFilters_Normalize(t *testing.T) {
	t.Parallel()

	f := SelectionFilters{Level: []string{"A1", "A2", "A1"}}
	n := f.Normalize()
	assert.Equal(t, []string{"A1", "A2"}, n.Level)

	data, err := json.Marshal(n)
	require.NoError(t, err)
	assert.JSONEq(t, `{"skill":[],"level":["A1","A2"],"purpose":[],"classSize":[],"time":[],"theme":[]}`, string(data))
}
