package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupPath(t *testing.T) {
	persona := map[string]any{
		"name": "Ada",
		"demographics": map[string]any{
			"age": float64(34),
		},
		"company": map[string]any{
			"name": "Acme",
		},
	}

	v, ok := LookupPath(persona, "name")
	assert.True(t, ok)
	assert.Equal(t, "Ada", v)

	v, ok = LookupPath(persona, "demographics.age")
	assert.True(t, ok)
	assert.Equal(t, float64(34), v)

	_, ok = LookupPath(persona, "demographics.income")
	assert.False(t, ok)

	_, ok = LookupPath(persona, "name.first")
	assert.False(t, ok, "cannot descend into a scalar")

	v, ok = LookupPath(persona, "")
	assert.True(t, ok)
	assert.Equal(t, persona, v)
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, isEmpty(nil))
	assert.True(t, isEmpty(""))
	assert.True(t, isEmpty("   "))
	assert.True(t, isEmpty([]any{}))
	assert.True(t, isEmpty(map[string]any{}))

	assert.False(t, isEmpty("x"))
	assert.False(t, isEmpty(float64(0)))
	assert.False(t, isEmpty([]any{"a"}))
	assert.False(t, isEmpty(false))
}
