package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildIndexCaseInsensitive(t *testing.T) {
	idx := BuildIndex([]Entry{
		{ID: "1", Name: "Tomato", CostPerUnit: 0.005, BaseUnit: "g"},
		{ID: "2", Name: "Onion", CostPerUnit: 0.3, BaseUnit: "unit"},
	}, DuplicateLastWins)

	e, status := idx.Lookup("TOMATO")
	require.Equal(t, Found, status)
	assert.Equal(t, "1", e.ID)

	_, status = idx.Lookup("garlic")
	assert.Equal(t, Missing, status)

	byID, ok := idx.ByID("2")
	require.True(t, ok)
	assert.Equal(t, "Onion", byID.Name)
	assert.Empty(t, idx.Duplicates())
}

func TestBuildIndexEmptyCatalog(t *testing.T) {
	idx := BuildIndex(nil, "")
	_, status := idx.Lookup("Tomato")
	assert.Equal(t, Missing, status)
	_, ok := idx.ByID("1")
	assert.False(t, ok)
	assert.Empty(t, idx.Duplicates())
}

func TestDuplicatePolicies(t *testing.T) {
	entries := []Entry{
		{ID: "a", Name: "Salt", CostPerUnit: 0.01},
		{ID: "b", Name: "salt", CostPerUnit: 0.02},
	}

	t.Run("last wins", func(t *testing.T) {
		idx := BuildIndex(entries, DuplicateLastWins)
		e, status := idx.Lookup("SALT")
		require.Equal(t, Found, status)
		assert.Equal(t, "b", e.ID)
		assert.Equal(t, []string{"salt"}, idx.Duplicates())
	})

	t.Run("reject", func(t *testing.T) {
		idx := BuildIndex(entries, DuplicateReject)
		_, status := idx.Lookup("Salt")
		assert.Equal(t, Ambiguous, status)
		assert.Equal(t, 2, idx.Matches("Salt"))
	})
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, DuplicateLastWins, p)

	p, err = ParsePolicy(" Reject ")
	require.NoError(t, err)
	assert.Equal(t, DuplicateReject, p)

	_, err = ParsePolicy("first_wins")
	assert.Error(t, err)
}
