package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeStateName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Baden_Württemberg", "Baden-Württemberg"},
		{"Mecklenburg_Vorpommern", "Mecklenburg-Vorpommern"},
		{"Berlin", "Berlin"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeStateName(tt.raw), "NormalizeStateName(%q)", tt.raw)
	}
}

func TestRecordCategoryNormalizesStateWithoutMutating(t *testing.T) {
	r := &Record{State: "Baden_Württemberg", City: "Stuttgart"}

	got, ok := r.Category(FieldState)
	require.True(t, ok)
	assert.Equal(t, "Baden-Württemberg", got)
	assert.Equal(t, "Baden_Württemberg", r.State)

	_, ok = r.Category(FieldTotalRent)
	assert.False(t, ok)
}

func TestNullFloatJSON(t *testing.T) {
	b, err := json.Marshal([]NullFloat{Float(1.5), NoData, Float(math.NaN())})
	require.NoError(t, err)
	assert.Equal(t, "[1.5,null,null]", string(b))

	var back []NullFloat
	require.NoError(t, json.Unmarshal([]byte("[2.25,null]"), &back))
	require.Len(t, back, 2)
	assert.Equal(t, Float(2.25), back[0])
	assert.False(t, back[1].Valid)
}

func TestRecordFieldsUsesNaNForMissing(t *testing.T) {
	r := &Record{State: "Berlin", TotalRent: Float(900), Balcony: true}
	m := r.Fields()

	assert.Equal(t, "Berlin", m["stateName"])
	assert.Equal(t, 900.0, m["totalRent"])
	assert.True(t, math.IsNaN(m["baseRent"].(float64)))
	assert.Equal(t, true, m["balcony"])
}

func TestAggregateTableSortBy(t *testing.T) {
	tbl := &AggregateTable{
		Keys:   []Field{FieldState},
		Values: []Field{FieldTotalRent},
		Groups: []Group{
			{Key: []string{"A"}, Count: 2, Means: []NullFloat{Float(150)}},
			{Key: []string{"B"}, Count: 1, Means: []NullFloat{NoData}},
			{Key: []string{"C"}, Count: 1, Means: []NullFloat{Float(300)}},
		},
	}

	desc := tbl.SortBy(FieldTotalRent, true)
	assert.Equal(t, []string{"C"}, desc.Groups[0].Key)
	assert.Equal(t, []string{"A"}, desc.Groups[1].Key)
	assert.Equal(t, []string{"B"}, desc.Groups[2].Key)

	// original order untouched
	assert.Equal(t, []string{"A"}, tbl.Groups[0].Key)

	assert.Equal(t, Float(150), tbl.Mean(FieldTotalRent, "A"))
	assert.False(t, tbl.Mean(FieldTotalRent, "B").Valid)
	assert.False(t, tbl.Mean(FieldTotalRent, "missing").Valid)
}
