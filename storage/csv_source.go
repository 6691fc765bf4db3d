package storage

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samber/lo"

	ierr "rent-dashboard/errors"
	"rent-dashboard/models"
)

const utf8BOM = "\ufeff"

// CSVSource loads a Dataset from a delimited file with a header row.
type CSVSource struct {
	Path string
	// Delimiter between cells. If 0, sniffed from the header among ',', ';', '\t'.
	Delimiter rune
	Parser    RowParser
}

// NewCSVSource creates a CSVSource for path.
func NewCSVSource(path string, delimiter rune, parser RowParser) *CSVSource {
	return &CSVSource{Path: path, Delimiter: delimiter, Parser: parser}
}

// Load reads and parses every row. Any unreadable or unparsable row fails
// the whole load.
func (s *CSVSource) Load(ctx context.Context) ([]*models.Record, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ierr.Mark(err, ierr.ErrNotFound, "csv: open "+s.Path)
		}
		return nil, fmt.Errorf("csv: open %q: %w", s.Path, err)
	}
	defer f.Close()

	raw, err := ReadRaw(ctx, f, s.Delimiter)
	if err != nil {
		return nil, err
	}

	records := make([]*models.Record, 0, len(raw))
	for _, r := range raw {
		rec, err := s.Parser.ParseRow(r)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadRaw reads a header row followed by data rows. Columns not in the
// Record schema are ignored; a missing schema column is an error.
func ReadRaw(ctx context.Context, r io.Reader, delimiter rune) ([]*models.RawRecord, error) {
	br := bufio.NewReader(r)
	if delimiter == 0 {
		delimiter = sniffDelimiter(br)
	}

	cr := csv.NewReader(br)
	cr.Comma = delimiter
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ierr.Mark(errors.New("empty file"), ierr.ErrSchema, "csv: read header")
	}
	if err != nil {
		return nil, ierr.Mark(err, ierr.ErrSchema, "csv: read header")
	}

	index := make(map[models.Field]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, utf8BOM))
		index[models.Field(name)] = i
	}

	missing := lo.Filter(models.Columns(), func(f models.Field, _ int) bool {
		_, ok := index[f]
		return !ok
	})
	if len(missing) > 0 {
		names := lo.Map(missing, func(f models.Field, _ int) string { return string(f) })
		return nil, ierr.Mark(
			errors.New("missing columns: "+strings.Join(names, ", ")),
			ierr.ErrSchema, "csv: header",
		)
	}

	var rows []*models.RawRecord
	for n := 0; ; n++ {
		if n%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			line := 0
			if errors.As(err, &pe) {
				line = pe.Line
			}
			return nil, ierr.Mark(err, ierr.ErrMalformedRow, fmt.Sprintf("csv: line %d", line))
		}

		line, _ := cr.FieldPos(0)
		cells := make(map[models.Field]string, len(models.Columns()))
		for _, f := range models.Columns() {
			cells[f] = row[index[f]]
		}
		rows = append(rows, &models.RawRecord{Line: line, Cells: cells})
	}

	return rows, nil
}

// sniffDelimiter picks the most frequent candidate delimiter in the header line.
func sniffDelimiter(br *bufio.Reader) rune {
	peek, _ := br.Peek(4096)
	line := string(peek)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}

	best, bestCount := ',', 0
	for _, c := range []rune{',', ';', '\t'} {
		if n := strings.Count(line, string(c)); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}
