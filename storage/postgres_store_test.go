package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"rent-dashboard/models"
)

func TestBuildInsertPlaceholders(t *testing.T) {
	batch := []*models.Record{
		{State: "Berlin", City: "Berlin", TotalRent: models.Float(1000), Balcony: true},
		{State: "Bayern", City: "München", TotalRent: models.NoData},
	}

	query, args := buildInsert(stagingTable, 100, batch)

	assert.Len(t, args, 2*columnsPerRow)
	assert.Contains(t, query, "INSERT INTO rent_listings_staging (")
	assert.Contains(t, query, "($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)")
	assert.Contains(t, query, "($17,")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(query), "ON CONFLICT (row_index) DO NOTHING"))

	assert.Equal(t, 100, args[0])
	assert.Equal(t, "Berlin", args[1])
	assert.Equal(t, 101, args[columnsPerRow])
	assert.Equal(t, models.NoData, args[columnsPerRow+4])
}

func TestBatches(t *testing.T) {
	assert.Nil(t, batches(0, 50))
	assert.Equal(t, [][2]int{{0, 50}}, batches(50, 50))
	assert.Equal(t, [][2]int{{0, 50}, {50, 100}, {100, 120}}, batches(120, 50))
}

func TestSwapStatementsReplaceLiveFromStaging(t *testing.T) {
	stmts := swapStatements()

	assert.Equal(t, []string{
		"DELETE FROM rent_listings",
		"INSERT INTO rent_listings SELECT * FROM rent_listings_staging",
		"TRUNCATE rent_listings_staging",
	}, stmts)
}

func TestRecordRowToRecord(t *testing.T) {
	row := recordRow{RowIndex: 3, State: "Sachsen", NoRooms: models.Float(2), Lift: true}
	rec := row.toRecord()

	assert.Equal(t, "Sachsen", rec.State)
	assert.Equal(t, models.Float(2), rec.NoRooms)
	assert.True(t, rec.Lift)
	assert.False(t, rec.TotalRent.Valid)
}
