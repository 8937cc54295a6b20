package cultural

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cultural.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"industries": ["Technology"],
		"seniority_levels": ["Senior", "VP"],
		"values": ["Sustainability"]
	}`), 0o644))

	v, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Technology"}, v.Industries)
	assert.Equal(t, []string{"Senior", "VP"}, v.SeniorityLevels)
	assert.Empty(t, v.Brands)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestConstraintsKeys(t *testing.T) {
	v := &Vocabularies{Industries: []string{"Technology"}}
	c := v.Constraints()

	assert.Equal(t, []string{"Technology"}, c["industries"])
	for _, key := range []string{"industries", "seniority_levels", "company_sizes", "music", "brands", "restaurants", "values"} {
		_, ok := c[key]
		assert.True(t, ok, key)
	}
}

func TestShippedDataFileParses(t *testing.T) {
	v, err := Load("../../data/cultural.json")
	require.NoError(t, err)
	assert.NotEmpty(t, v.Industries)
	assert.NotEmpty(t, v.SeniorityLevels)
	assert.NotEmpty(t, v.Values)
}
