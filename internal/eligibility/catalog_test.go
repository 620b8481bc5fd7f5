package eligibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePosition(t *testing.T) {
	assert.Equal(t, "OPERATOR C", NormalizePosition("  operator c "))
	assert.Equal(t, "OPERATOR C", NormalizePosition("Operator C"))
	assert.Equal(t, "", NormalizePosition("   "))
}

func TestCatalogLookup(t *testing.T) {
	catalog := NewCatalog([]Rule{
		{CurrentPosition: "Operator C", Promotion: "Operator B", MinTenureMonths: 6},
		{CurrentPosition: "OPERATOR B", Promotion: "OPERATOR A", MinTenureMonths: 12},
	})
	assert.Equal(t, 2, catalog.Len())

	rule, ok := catalog.Lookup("  operator c ")
	require.True(t, ok)
	assert.Equal(t, "Operator B", rule.Promotion)

	// Exact normalized match only, no fuzzy lookups.
	_, ok = catalog.Lookup("OPERATOR")
	assert.False(t, ok)

	_, ok = catalog.Lookup("SUPERVISOR")
	assert.False(t, ok)
}

func TestCatalogDuplicatePositionKeepsLast(t *testing.T) {
	catalog := NewCatalog([]Rule{
		{CurrentPosition: "Operator C", MinTenureMonths: 6},
		{CurrentPosition: " operator c", MinTenureMonths: 9},
	})
	assert.Equal(t, 1, catalog.Len())

	rule, ok := catalog.Lookup("OPERATOR C")
	require.True(t, ok)
	assert.Equal(t, 9, rule.MinTenureMonths)
}

func TestCatalogLookupMutationSafe(t *testing.T) {
	catalog := NewCatalog([]Rule{{CurrentPosition: "OPERATOR C", MinTenureMonths: 6}})

	rule, ok := catalog.Lookup("OPERATOR C")
	require.True(t, ok)
	rule.MinTenureMonths = 99

	again, _ := catalog.Lookup("OPERATOR C")
	assert.Equal(t, 6, again.MinTenureMonths)
}

func TestNilCatalog(t *testing.T) {
	var catalog *Catalog
	_, ok := catalog.Lookup("OPERATOR C")
	assert.False(t, ok)
	assert.Equal(t, 0, catalog.Len())
}
