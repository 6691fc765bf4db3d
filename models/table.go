package models

import (
	"slices"
	"sort"
)

// All is the selection value that passes every record.
const All = "all"

// Scope chooses which categorical column a Selection filters on.
type Scope string

const (
	ScopeState Scope = "state"
	ScopeCity  Scope = "city"
)

// Field returns the column the scope filters on.
func (s Scope) Field() (Field, bool) {
	switch s {
	case ScopeState:
		return FieldState, true
	case ScopeCity:
		return FieldCity, true
	}
	return "", false
}

// Selection is the user's current filter choice.
type Selection struct {
	Scope Scope  `json:"scope"`
	Value string `json:"value"`
}

// IsAll reports whether the selection passes every record.
func (s Selection) IsAll() bool {
	return s.Value == "" || s.Value == All
}

// MetricKind identifies one chart-feeding computation.
type MetricKind string

const (
	MetricDistribution  MetricKind = "distribution"
	MetricRankedBar     MetricKind = "ranked-bar"
	MetricTrend         MetricKind = "trend"
	MetricCorrelation   MetricKind = "correlation"
	MetricFeatureImpact MetricKind = "feature-impact"
	MetricGroupedBar    MetricKind = "grouped-bar"
	MetricSummary       MetricKind = "summary"
)

// MetricKinds lists every metric in display order.
var MetricKinds = []MetricKind{
	MetricDistribution,
	MetricRankedBar,
	MetricTrend,
	MetricCorrelation,
	MetricFeatureImpact,
	MetricGroupedBar,
	MetricSummary,
}

// Group is one row of an AggregateTable.
type Group struct {
	Key   []string
	Count int
	Means []NullFloat
}

// AggregateTable maps a grouping key to the mean of each value field.
// Groups are kept in order of first appearance, which carries no meaning.
type AggregateTable struct {
	Keys   []Field
	Values []Field
	Groups []Group
}

// Lookup returns the group with the given key.
func (t *AggregateTable) Lookup(key ...string) (Group, bool) {
	for _, g := range t.Groups {
		if slices.Equal(g.Key, key) {
			return g, true
		}
	}
	return Group{}, false
}

// Mean returns the mean of value field f for the group with key.
func (t *AggregateTable) Mean(f Field, key ...string) NullFloat {
	idx := t.valueIndex(f)
	if idx < 0 {
		return NoData
	}
	g, ok := t.Lookup(key...)
	if !ok {
		return NoData
	}
	return g.Means[idx]
}

// SortBy returns a copy ordered by value field f. Groups without data sort
// last; ties keep their current order.
func (t *AggregateTable) SortBy(f Field, desc bool) *AggregateTable {
	out := &AggregateTable{
		Keys:   t.Keys,
		Values: t.Values,
		Groups: make([]Group, len(t.Groups)),
	}
	copy(out.Groups, t.Groups)

	idx := t.valueIndex(f)
	if idx < 0 {
		return out
	}
	sort.SliceStable(out.Groups, func(i, j int) bool {
		a, b := out.Groups[i].Means[idx], out.Groups[j].Means[idx]
		if a.Valid != b.Valid {
			return a.Valid
		}
		if !a.Valid {
			return false
		}
		if desc {
			return a.Float64 > b.Float64
		}
		return a.Float64 < b.Float64
	})
	return out
}

// SortByKey returns a copy ordered by the key tuples using less.
func (t *AggregateTable) SortByKey(less func(a, b []string) bool) *AggregateTable {
	out := &AggregateTable{
		Keys:   t.Keys,
		Values: t.Values,
		Groups: make([]Group, len(t.Groups)),
	}
	copy(out.Groups, t.Groups)
	sort.SliceStable(out.Groups, func(i, j int) bool {
		return less(out.Groups[i].Key, out.Groups[j].Key)
	})
	return out
}

func (t *AggregateTable) valueIndex(f Field) int {
	for i, v := range t.Values {
		if v == f {
			return i
		}
	}
	return -1
}

// Row is one line of a result Table.
type Row struct {
	Keys      []string    `json:"keys"`
	Values    []NullFloat `json:"values"`
	Highlight bool        `json:"highlight,omitempty"`
}

// Table is what a query returns for one metric. NoData marks an empty
// result: the filtered input was empty (or too small for the metric).
type Table struct {
	Metric     MetricKind `json:"metric"`
	KeyColumns []string   `json:"keyColumns"`
	Columns    []string   `json:"columns"`
	Rows       []Row      `json:"rows"`
	NoData     bool       `json:"noData"`
}

// EmptyTable returns the empty-result marker for metric.
func EmptyTable(metric MetricKind, keyColumns, columns []string) *Table {
	return &Table{Metric: metric, KeyColumns: keyColumns, Columns: columns, NoData: true}
}

// Value returns the cell for the row with the given keys and column name.
func (t *Table) Value(column string, keys ...string) (NullFloat, bool) {
	ci := -1
	for i, c := range t.Columns {
		if c == column {
			ci = i
			break
		}
	}
	if ci < 0 {
		return NoData, false
	}
	for _, r := range t.Rows {
		if slices.Equal(r.Keys, keys) {
			return r.Values[ci], true
		}
	}
	return NoData, false
}
