package services

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"

	ierr "rent-dashboard/errors"
	"rent-dashboard/models"
	"rent-dashboard/utils"
)

// missingTokens are numeric cells treated as absent rather than malformed.
var missingTokens = map[string]struct{}{
	"":     {},
	"na":   {},
	"n/a":  {},
	"nan":  {},
	"null": {},
	"none": {},
}

var errNotFinite = errors.New("value is not finite")

// Cleaner turns raw dataset rows into typed Records. Unlike a best-effort
// cleaner it rejects any cell it cannot interpret.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean parses every raw row. The first malformed row aborts with an error;
// no partial result is returned.
func (c *Cleaner) Clean(raw []*models.RawRecord) ([]*models.Record, error) {
	out := make([]*models.Record, 0, len(raw))
	for _, r := range raw {
		rec, err := c.ParseRow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	c.logger.Debug("[cleaner] Parsed %d rows", len(out))
	return out, nil
}

// ParseRow converts a single raw row into a Record.
func (c *Cleaner) ParseRow(raw *models.RawRecord) (*models.Record, error) {
	rec := &models.Record{
		State:        normaliseText(raw.Cells[models.FieldState]),
		City:         normaliseText(raw.Cells[models.FieldCity]),
		Date:         normaliseText(raw.Cells[models.FieldDate]),
		FlatType:     normaliseText(raw.Cells[models.FieldFlatType]),
		YearCategory: normaliseText(raw.Cells[models.FieldYearCategory]),
	}

	numbers := map[models.Field]*models.NullFloat{
		models.FieldTotalRent:     &rec.TotalRent,
		models.FieldBaseRent:      &rec.BaseRent,
		models.FieldServiceCharge: &rec.ServiceCharge,
		models.FieldLivingSpace:   &rec.LivingSpace,
		models.FieldNoRooms:       &rec.NoRooms,
	}
	for _, f := range models.NumericFields {
		v, err := parseNumber(raw.Cells[f])
		if err != nil {
			return nil, ierr.Malformed(raw.Line, string(f), raw.Cells[f], err)
		}
		*numbers[f] = v
	}

	flags := map[models.Field]*bool{
		models.FieldBalcony: &rec.Balcony,
		models.FieldKitchen: &rec.Kitchen,
		models.FieldCellar:  &rec.Cellar,
		models.FieldGarden:  &rec.Garden,
		models.FieldLift:    &rec.Lift,
	}
	for _, f := range models.FlagFields {
		v, err := parseFlag(raw.Cells[f])
		if err != nil {
			return nil, ierr.Malformed(raw.Line, string(f), raw.Cells[f], err)
		}
		*flags[f] = v
	}

	return rec, nil
}

// parseNumber reads a finite decimal number. Missing tokens yield NoData.
func parseNumber(raw string) (models.NullFloat, error) {
	s := strings.TrimSpace(raw)
	if _, missing := missingTokens[strings.ToLower(s)]; missing {
		return models.NoData, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return models.NoData, err
	}
	if math.IsInf(v, 0) {
		return models.NoData, errNotFinite
	}
	return models.Float(v), nil
}

// parseFlag reads a boolean feature flag. Empty means false.
func parseFlag(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "false", "0", "0.0", "no", "f", "n":
		return false, nil
	case "true", "1", "1.0", "yes", "t", "y":
		return true, nil
	}
	return false, strconv.ErrSyntax
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
