package services

import (
	"strings"

	"github.com/hashicorp/go-bexpr"

	ierr "rent-dashboard/errors"
	"rent-dashboard/models"
)

// RecordFilter matches records against a boolean expression over column
// names, e.g. `typeOfFlat == "loft" and balcony == true`.
type RecordFilter struct {
	expr      string
	evaluator *bexpr.Evaluator
}

// NewRecordFilter compiles expr. An empty expression matches everything.
func NewRecordFilter(expr string) (*RecordFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return &RecordFilter{}, nil
	}
	evaluator, err := bexpr.CreateEvaluator(expr)
	if err != nil {
		return nil, ierr.Mark(err, ierr.ErrValidation, "error parsing filter '"+expr+"'")
	}
	return &RecordFilter{expr: expr, evaluator: evaluator}, nil
}

func (f *RecordFilter) String() string {
	return f.expr
}

// Match reports whether r satisfies the expression.
func (f *RecordFilter) Match(r *models.Record) (bool, error) {
	if f.evaluator == nil {
		return true, nil
	}
	ok, err := f.evaluator.Evaluate(r.Fields())
	if err != nil {
		return false, ierr.Mark(err, ierr.ErrValidation, "error evaluating filter '"+f.expr+"'")
	}
	return ok, nil
}

// Apply returns the records that match, in order.
func (f *RecordFilter) Apply(records []*models.Record) ([]*models.Record, error) {
	if f.evaluator == nil {
		return records, nil
	}
	out := make([]*models.Record, 0, len(records))
	for _, r := range records {
		ok, err := f.Match(r)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}
