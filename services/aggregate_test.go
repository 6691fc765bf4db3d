package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierr "rent-dashboard/errors"
	"rent-dashboard/models"
)

func TestGroupAverageByState(t *testing.T) {
	records := []*models.Record{
		listing("A", "x", "Feb20", 100),
		listing("A", "y", "Feb20", 200),
		listing("B", "z", "Feb20", 300),
	}

	tbl, err := GroupAverage(records, []models.Field{models.FieldState}, []models.Field{models.FieldTotalRent})
	require.NoError(t, err)
	require.Len(t, tbl.Groups, 2)

	assert.Equal(t, models.Float(150), tbl.Mean(models.FieldTotalRent, "A"))
	assert.Equal(t, models.Float(300), tbl.Mean(models.FieldTotalRent, "B"))

	g, ok := tbl.Lookup("A")
	require.True(t, ok)
	assert.Equal(t, 2, g.Count)
}

func TestGroupAverageNormalizesStateNames(t *testing.T) {
	records := []*models.Record{
		listing("Baden_Württemberg", "Stuttgart", "Feb20", 1000),
		listing("Baden-Württemberg", "Ulm", "Feb20", 500),
	}

	tbl, err := GroupAverage(records, []models.Field{models.FieldState}, []models.Field{models.FieldTotalRent})
	require.NoError(t, err)
	require.Len(t, tbl.Groups, 1)
	assert.Equal(t, []string{"Baden-Württemberg"}, tbl.Groups[0].Key)
	assert.Equal(t, models.Float(750), tbl.Groups[0].Means[0])

	// the dataset itself keeps its original spelling
	assert.Equal(t, "Baden_Württemberg", records[0].State)
}

func TestGroupAverageAllMissingIsNoData(t *testing.T) {
	records := []*models.Record{
		{State: "A", TotalRent: models.NoData, BaseRent: models.Float(10)},
		{State: "A", TotalRent: models.NoData, BaseRent: models.Float(20)},
	}

	tbl, err := GroupAverage(records, []models.Field{models.FieldState}, []models.Field{models.FieldTotalRent, models.FieldBaseRent})
	require.NoError(t, err)
	require.Len(t, tbl.Groups, 1)

	assert.False(t, tbl.Groups[0].Means[0].Valid, "all-missing mean must be NoData, not zero")
	assert.Equal(t, models.Float(15), tbl.Groups[0].Means[1])
}

func TestGroupAverageTwoKeysKeepsFirstAppearanceOrder(t *testing.T) {
	records := []*models.Record{
		listing("B", "b", "May19", 100),
		listing("A", "a", "Feb20", 200),
		listing("B", "b", "May19", 300),
		listing("B", "b", "Feb20", 400),
	}

	tbl, err := GroupAverage(records, []models.Field{models.FieldState, models.FieldDate}, []models.Field{models.FieldTotalRent})
	require.NoError(t, err)
	require.Len(t, tbl.Groups, 3)
	assert.Equal(t, []string{"B", "May19"}, tbl.Groups[0].Key)
	assert.Equal(t, []string{"A", "Feb20"}, tbl.Groups[1].Key)
	assert.Equal(t, []string{"B", "Feb20"}, tbl.Groups[2].Key)
	assert.Equal(t, models.Float(200), tbl.Groups[0].Means[0])
}

func TestGroupAverageSkipsEmptyKeys(t *testing.T) {
	records := []*models.Record{
		{FlatType: "", TotalRent: models.Float(100)},
		{FlatType: "loft", TotalRent: models.Float(200)},
	}

	tbl, err := GroupAverage(records, []models.Field{models.FieldFlatType}, []models.Field{models.FieldTotalRent})
	require.NoError(t, err)
	require.Len(t, tbl.Groups, 1)
	assert.Equal(t, []string{"loft"}, tbl.Groups[0].Key)
}

func TestGroupAverageValidation(t *testing.T) {
	tests := []struct {
		name   string
		keys   []models.Field
		values []models.Field
	}{
		{"no keys", nil, []models.Field{models.FieldTotalRent}},
		{"three keys", []models.Field{models.FieldState, models.FieldCity, models.FieldDate}, []models.Field{models.FieldTotalRent}},
		{"no values", []models.Field{models.FieldState}, nil},
		{"numeric key", []models.Field{models.FieldTotalRent}, []models.Field{models.FieldBaseRent}},
		{"categorical value", []models.Field{models.FieldState}, []models.Field{models.FieldCity}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GroupAverage(nil, tt.keys, tt.values)
			require.Error(t, err)
			assert.True(t, ierr.IsValidation(err))
		})
	}
}
