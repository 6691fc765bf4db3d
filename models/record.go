package models

import (
	"database/sql"
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Field names a Record column. Values match the dataset header.
type Field string

const (
	FieldState         Field = "stateName"
	FieldCity          Field = "cityName"
	FieldDate          Field = "date"
	FieldTotalRent     Field = "totalRent"
	FieldBaseRent      Field = "baseRent"
	FieldServiceCharge Field = "serviceCharge"
	FieldLivingSpace   Field = "livingSpace"
	FieldNoRooms       Field = "noRooms"
	FieldFlatType      Field = "typeOfFlat"
	FieldYearCategory  Field = "yearConstructed_category"
	FieldBalcony       Field = "balcony"
	FieldKitchen       Field = "hasKitchen"
	FieldCellar        Field = "cellar"
	FieldGarden        Field = "garden"
	FieldLift          Field = "lift"
)

var (
	CategoricalFields = []Field{FieldState, FieldCity, FieldDate, FieldFlatType, FieldYearCategory}
	NumericFields     = []Field{FieldTotalRent, FieldBaseRent, FieldServiceCharge, FieldLivingSpace, FieldNoRooms}
	FlagFields        = []Field{FieldBalcony, FieldKitchen, FieldCellar, FieldGarden, FieldLift}
)

// Columns returns every column a dataset must provide.
func Columns() []Field {
	cols := make([]Field, 0, len(CategoricalFields)+len(NumericFields)+len(FlagFields))
	cols = append(cols, CategoricalFields...)
	cols = append(cols, NumericFields...)
	cols = append(cols, FlagFields...)
	return cols
}

// NullFloat is a float that may be absent. An invalid NullFloat is the
// "no data" value; it is never coerced to zero.
type NullFloat struct {
	sql.NullFloat64
}

// NoData is the distinguished missing value.
var NoData = NullFloat{}

// Float returns a valid NullFloat holding v.
func Float(v float64) NullFloat {
	return NullFloat{sql.NullFloat64{Float64: v, Valid: true}}
}

// OrNaN returns the value, or NaN when missing.
func (n NullFloat) OrNaN() float64 {
	if !n.Valid {
		return math.NaN()
	}
	return n.Float64
}

func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid || math.IsNaN(n.Float64) || math.IsInf(n.Float64, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(n.Float64, 'f', -1, 64)), nil
}

func (n *NullFloat) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*n = NoData
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*n = Float(v)
	return nil
}

func (n NullFloat) String() string {
	if !n.Valid {
		return "n/a"
	}
	return strconv.FormatFloat(n.Float64, 'f', 2, 64)
}

// Record is one rental listing.
type Record struct {
	State         string
	City          string
	Date          string
	TotalRent     NullFloat
	BaseRent      NullFloat
	ServiceCharge NullFloat
	LivingSpace   NullFloat
	NoRooms       NullFloat
	FlatType      string
	YearCategory  string
	Balcony       bool
	Kitchen       bool
	Cellar        bool
	Garden        bool
	Lift          bool
}

// Category returns the categorical value of f. State names are returned in
// their normalized form. ok is false when f is not categorical.
func (r *Record) Category(f Field) (string, bool) {
	switch f {
	case FieldState:
		return NormalizeStateName(r.State), true
	case FieldCity:
		return r.City, true
	case FieldDate:
		return r.Date, true
	case FieldFlatType:
		return r.FlatType, true
	case FieldYearCategory:
		return r.YearCategory, true
	}
	return "", false
}

// Number returns the numeric value of f. ok is false when f is not numeric.
func (r *Record) Number(f Field) (NullFloat, bool) {
	switch f {
	case FieldTotalRent:
		return r.TotalRent, true
	case FieldBaseRent:
		return r.BaseRent, true
	case FieldServiceCharge:
		return r.ServiceCharge, true
	case FieldLivingSpace:
		return r.LivingSpace, true
	case FieldNoRooms:
		return r.NoRooms, true
	}
	return NoData, false
}

// Flag returns the boolean feature f. ok is false when f is not a flag.
func (r *Record) Flag(f Field) (bool, bool) {
	switch f {
	case FieldBalcony:
		return r.Balcony, true
	case FieldKitchen:
		return r.Kitchen, true
	case FieldCellar:
		return r.Cellar, true
	case FieldGarden:
		return r.Garden, true
	case FieldLift:
		return r.Lift, true
	}
	return false, false
}

// Fields flattens the record into a column-keyed map. Missing numbers are
// NaN so comparisons against them are false.
func (r *Record) Fields() map[string]any {
	m := make(map[string]any, len(CategoricalFields)+len(NumericFields)+len(FlagFields))
	for _, f := range CategoricalFields {
		v, _ := r.Category(f)
		m[string(f)] = v
	}
	for _, f := range NumericFields {
		v, _ := r.Number(f)
		m[string(f)] = v.OrNaN()
	}
	for _, f := range FlagFields {
		v, _ := r.Flag(f)
		m[string(f)] = v
	}
	return m
}

// NormalizeStateName reconciles dataset state names with the names used by
// the geographic boundary reference ("Baden_Württemberg" -> "Baden-Württemberg").
func NormalizeStateName(s string) string {
	return strings.ReplaceAll(s, "_", "-")
}

// IsCategorical reports whether f is a categorical column.
func IsCategorical(f Field) bool {
	return lo.Contains(CategoricalFields, f)
}

// IsNumeric reports whether f is a numeric column.
func IsNumeric(f Field) bool {
	return lo.Contains(NumericFields, f)
}

// RawRecord holds one unparsed dataset row, keyed by column.
type RawRecord struct {
	Line  int
	Cells map[Field]string
}
