package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllFiltersAndSorts(t *testing.T) {
	all := All(nil)
	seen := map[string]bool{}
	for i, cmd := range all {
		assert.False(t, seen[cmd.Name], "duplicate command %s", cmd.Name)
		seen[cmd.Name] = true
		assert.NotEmpty(t, cmd.Description, cmd.Name)
		if i > 0 {
			assert.Less(t, all[i-1].Name, cmd.Name)
		}
	}

	onlyMisc := All(func(c string) bool { return c == "misc" })
	assert.Len(t, onlyMisc, len(Commands["misc"]))
}

func TestFind(t *testing.T) {
	cmd, ok := Find("spawnrate")
	require.True(t, ok)
	assert.Len(t, cmd.Options, 2)

	_, ok = Find("nope")
	assert.False(t, ok)
}

func TestEmbedded(t *testing.T) {
	assert.NotEmpty(t, PokemonCSV)
	entries, err := Docs.ReadDir("docs")
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}
