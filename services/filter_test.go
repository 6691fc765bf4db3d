package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierr "rent-dashboard/errors"
)

func TestRecordFilter(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want []string
	}{
		{"empty matches all", "  ", []string{"Berlin", "Berlin", "München", "Nürnberg", "Stuttgart", "Stuttgart"}},
		{"flag", "lift == true", []string{"Berlin", "Stuttgart"}},
		{"normalized state", `stateName == "Baden-Württemberg"`, []string{"Stuttgart", "Stuttgart"}},
		{"numeric equality", "noRooms == 3", []string{"Berlin", "München"}},
		{"combined", `typeOfFlat == "apartment" and cellar == false`, []string{"Berlin", "Berlin", "Stuttgart"}},
		{"negated", `not (cityName == "Berlin")`, []string{"München", "Nürnberg", "Stuttgart", "Stuttgart"}},
		{"no match", `cityName == "Hamburg"`, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewRecordFilter(tt.expr)
			require.NoError(t, err)

			got, err := f.Apply(sampleDataset())
			require.NoError(t, err)

			cities := make([]string, 0, len(got))
			for _, r := range got {
				cities = append(cities, r.City)
			}
			assert.Equal(t, tt.want, cities)
		})
	}
}

func TestRecordFilterInvalidExpression(t *testing.T) {
	_, err := NewRecordFilter("totalRent ==")
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}

func TestRecordFilterString(t *testing.T) {
	f, err := NewRecordFilter(" balcony == true ")
	require.NoError(t, err)
	assert.Equal(t, "balcony == true", f.String())
}
