package acs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_AddKeepsEncounterOrder(t *testing.T) {
	idx := NewIndex()
	idx.Add(Variable{Table: "B02019", Number: 1, Sequence: 7})
	idx.Add(Variable{Table: "B01003", Number: 1, Sequence: 3})
	idx.Add(Variable{Table: "B02019", Number: 2, Sequence: 7})

	assert.Equal(t, []int{7, 3}, idx.Sequences)
	assert.Equal(t, 3, idx.Len())

	vars := idx.Variables()
	require.Len(t, vars, 3)
	assert.Equal(t, "B02019_001", vars[0].Key())
	assert.Equal(t, "B02019_002", vars[1].Key())
	assert.Equal(t, "B01003_001", vars[2].Key())

	sorted := idx.Sorted()
	assert.Equal(t, "B01003_001", sorted[0].Key())
}

func TestParseGeoType(t *testing.T) {
	for in, want := range map[string]GeoType{
		"tract":       GeoTract,
		"tracts":      GeoTract,
		"blockgroup":  GeoBlockGroup,
		"blockgroups": GeoBlockGroup,
	} {
		got, err := ParseGeoType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseGeoType("county")
	assert.ErrorIs(t, err, ErrConfig)
}

func TestOutputRow_Get(t *testing.T) {
	row := OutputRow{Geoid: "06001400100", Values: map[string]string{"B19001_003": "10"}}
	assert.Equal(t, "06001400100", row.Get(GeoidColumn))
	assert.Equal(t, "10", row.Get("B19001_003"))
	assert.Equal(t, "", row.Get("B19001_004"))
}
