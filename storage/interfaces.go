package storage

import (
	"context"

	"rent-dashboard/models"
)

// DatasetSource is anything that can produce the full Dataset. Load either
// returns every record or an error; never a partial dataset.
type DatasetSource interface {
	Load(ctx context.Context) ([]*models.Record, error)
}

// RowParser converts one raw row into a typed Record.
type RowParser interface {
	ParseRow(raw *models.RawRecord) (*models.Record, error)
}

// RecordWriter persists a Dataset.
type RecordWriter interface {
	Write(ctx context.Context, records []*models.Record) error
	Close() error
}

// Copy loads every record from src and writes them to dst.
func Copy(ctx context.Context, src DatasetSource, dst RecordWriter) (int, error) {
	records, err := src.Load(ctx)
	if err != nil {
		return 0, err
	}
	if err := dst.Write(ctx, records); err != nil {
		return 0, err
	}
	return len(records), nil
}
