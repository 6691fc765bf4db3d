package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	ierr "rent-dashboard/errors"
	"rent-dashboard/models"
	"rent-dashboard/utils"
)

const (
	insertBatchSize = 50
	columnsPerRow   = 16

	liveTable    = "rent_listings"
	stagingTable = "rent_listings_staging"
)

var (
	_ DatasetSource = (*PostgresStore)(nil)
	_ RecordWriter  = (*PostgresStore)(nil)
)

// PostgresStore keeps a Dataset in PostgreSQL. It can seed the table from
// another source and serve as a DatasetSource itself.
type PostgresStore struct {
	db          *sqlx.DB
	logger      *utils.Logger
	concurrency int
}

// recordRow mirrors one rent_listings row.
type recordRow struct {
	RowIndex      int              `db:"row_index"`
	State         string           `db:"state_name"`
	City          string           `db:"city_name"`
	Date          string           `db:"period"`
	TotalRent     models.NullFloat `db:"total_rent"`
	BaseRent      models.NullFloat `db:"base_rent"`
	ServiceCharge models.NullFloat `db:"service_charge"`
	LivingSpace   models.NullFloat `db:"living_space"`
	NoRooms       models.NullFloat `db:"no_rooms"`
	FlatType      string           `db:"type_of_flat"`
	YearCategory  string           `db:"year_constructed_category"`
	Balcony       bool             `db:"balcony"`
	Kitchen       bool             `db:"has_kitchen"`
	Cellar        bool             `db:"cellar"`
	Garden        bool             `db:"garden"`
	Lift          bool             `db:"lift"`
}

// NewPostgresStore opens a connection to PostgreSQL, retrying the initial
// ping, runs schema migrations, and returns a ready-to-use store.
func NewPostgresStore(ctx context.Context, dsn string, retry *utils.RetryConfig, concurrency int, logger *utils.Logger) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, ierr.Mark(err, ierr.ErrDatabase, "postgres: open")
	}

	err = retry.Do(ctx, "postgres-ping", func() error {
		return db.PingContext(ctx)
	})
	if err != nil {
		_ = db.Close()
		return nil, ierr.Mark(err, ierr.ErrDatabase, "postgres: ping")
	}

	ps := &PostgresStore{db: db, logger: logger, concurrency: concurrency}
	if err := ps.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, ierr.Mark(err, ierr.ErrDatabase, "postgres: migrate")
	}

	return ps, nil
}

func (ps *PostgresStore) migrate(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS rent_listings (
			row_index                 INTEGER PRIMARY KEY,
			state_name                TEXT    NOT NULL DEFAULT '',
			city_name                 TEXT    NOT NULL DEFAULT '',
			period                    TEXT    NOT NULL DEFAULT '',
			total_rent                DOUBLE PRECISION,
			base_rent                 DOUBLE PRECISION,
			service_charge            DOUBLE PRECISION,
			living_space              DOUBLE PRECISION,
			no_rooms                  DOUBLE PRECISION,
			type_of_flat              TEXT    NOT NULL DEFAULT '',
			year_constructed_category TEXT    NOT NULL DEFAULT '',
			balcony                   BOOLEAN NOT NULL DEFAULT FALSE,
			has_kitchen               BOOLEAN NOT NULL DEFAULT FALSE,
			cellar                    BOOLEAN NOT NULL DEFAULT FALSE,
			garden                    BOOLEAN NOT NULL DEFAULT FALSE,
			lift                      BOOLEAN NOT NULL DEFAULT FALSE
		);

		CREATE INDEX IF NOT EXISTS idx_rent_listings_state ON rent_listings(state_name);
		CREATE INDEX IF NOT EXISTS idx_rent_listings_city  ON rent_listings(city_name);

		CREATE TABLE IF NOT EXISTS rent_listings_staging (LIKE rent_listings INCLUDING DEFAULTS INCLUDING INDEXES);
	`)
	return err
}

// Write replaces the stored Dataset with records. Batches are loaded
// concurrently into a staging table, which then replaces rent_listings in
// one transaction, so a failed import leaves the previous Dataset intact.
func (ps *PostgresStore) Write(ctx context.Context, records []*models.Record) error {
	if _, err := ps.db.ExecContext(ctx, "TRUNCATE "+stagingTable); err != nil {
		return ierr.Mark(err, ierr.ErrDatabase, "postgres: truncate staging")
	}

	pool := utils.NewWorkerPool(ctx, ps.concurrency)
	for _, b := range batches(len(records), insertBatchSize) {
		offset, batch := b[0], records[b[0]:b[1]]
		pool.Submit(func(ctx context.Context) error {
			query, args := buildInsert(stagingTable, offset, batch)
			_, err := ps.db.ExecContext(ctx, query, args...)
			return err
		})
	}
	if err := pool.Wait(); err != nil {
		return ierr.Mark(err, ierr.ErrDatabase, "postgres: insert")
	}

	if err := ps.swap(ctx); err != nil {
		return ierr.Mark(err, ierr.ErrDatabase, "postgres: swap")
	}
	ps.logger.Info("[postgres] Stored %d records", len(records))
	return nil
}

// swap moves the staged rows into the live table atomically.
func (ps *PostgresStore) swap(ctx context.Context) error {
	tx, err := ps.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range swapStatements() {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func swapStatements() []string {
	return []string{
		"DELETE FROM " + liveTable,
		"INSERT INTO " + liveTable + " SELECT * FROM " + stagingTable,
		"TRUNCATE " + stagingTable,
	}
}

// batches splits n items into [start, end) ranges of at most size.
func batches(n, size int) [][2]int {
	var out [][2]int
	for start := 0; start < n; start += size {
		out = append(out, [2]int{start, min(start+size, n)})
	}
	return out
}

// buildInsert renders a multi-row INSERT into table for batch, numbering rows
// from offset.
func buildInsert(table string, offset int, batch []*models.Record) (string, []any) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*columnsPerRow)

	for idx, r := range batch {
		base := idx * columnsPerRow
		placeholders := make([]string, columnsPerRow)
		for i := range placeholders {
			placeholders[i] = fmt.Sprintf("$%d", base+i+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			offset+idx, r.State, r.City, r.Date,
			r.TotalRent, r.BaseRent, r.ServiceCharge, r.LivingSpace, r.NoRooms,
			r.FlatType, r.YearCategory,
			r.Balcony, r.Kitchen, r.Cellar, r.Garden, r.Lift)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (
			row_index, state_name, city_name, period,
			total_rent, base_rent, service_charge, living_space, no_rooms,
			type_of_flat, year_constructed_category,
			balcony, has_kitchen, cellar, garden, lift
		)
		VALUES %s
		ON CONFLICT (row_index) DO NOTHING
	`, table, strings.Join(valueStrings, ","))
	return query, valueArgs
}

// Load retrieves the stored Dataset in original row order.
func (ps *PostgresStore) Load(ctx context.Context) ([]*models.Record, error) {
	start := time.Now()

	var rows []recordRow
	err := ps.db.SelectContext(ctx, &rows, `
		SELECT row_index, state_name, city_name, period,
		       total_rent, base_rent, service_charge, living_space, no_rooms,
		       type_of_flat, year_constructed_category,
		       balcony, has_kitchen, cellar, garden, lift
		FROM rent_listings
		ORDER BY row_index
	`)
	if err != nil {
		return nil, ierr.Mark(err, ierr.ErrDatabase, "postgres: fetch all")
	}

	records := make([]*models.Record, len(rows))
	for i, r := range rows {
		records[i] = r.toRecord()
	}
	ps.logger.Debug("[postgres] Loaded %d records in %v", len(records), time.Since(start))
	return records, nil
}

func (r recordRow) toRecord() *models.Record {
	return &models.Record{
		State:         r.State,
		City:          r.City,
		Date:          r.Date,
		TotalRent:     r.TotalRent,
		BaseRent:      r.BaseRent,
		ServiceCharge: r.ServiceCharge,
		LivingSpace:   r.LivingSpace,
		NoRooms:       r.NoRooms,
		FlatType:      r.FlatType,
		YearCategory:  r.YearCategory,
		Balcony:       r.Balcony,
		Kitchen:       r.Kitchen,
		Cellar:        r.Cellar,
		Garden:        r.Garden,
		Lift:          r.Lift,
	}
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
