package services

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"rent-dashboard/models"
)

// scopeProfile describes which columns each metric uses for a scope. The
// two profiles reproduce the state and city dashboards.
type scopeProfile struct {
	key            models.Field
	distributionBy models.Field
	rankedValues   []models.Field
	rankedSortBy   models.Field
	rankedLimit    int
	summary        []models.Field
}

var profiles = map[models.Scope]scopeProfile{
	models.ScopeState: {
		key:            models.FieldState,
		distributionBy: models.FieldState,
		rankedValues:   []models.Field{models.FieldTotalRent},
		rankedSortBy:   models.FieldTotalRent,
		summary:        []models.Field{models.FieldTotalRent, models.FieldLivingSpace, models.FieldNoRooms},
	},
	models.ScopeCity: {
		key:            models.FieldCity,
		distributionBy: models.FieldYearCategory,
		rankedValues:   []models.Field{models.FieldBaseRent, models.FieldServiceCharge, models.FieldTotalRent},
		rankedSortBy:   models.FieldTotalRent,
		rankedLimit:    15,
		summary:        []models.Field{models.FieldTotalRent, models.FieldServiceCharge, models.FieldLivingSpace},
	},
}

// correlationFields is the fixed numeric subset of the correlation matrix.
var correlationFields = []models.Field{
	models.FieldTotalRent,
	models.FieldBaseRent,
	models.FieldServiceCharge,
	models.FieldLivingSpace,
	models.FieldNoRooms,
}

var distributionColumns = []string{"count", "min", "q1", "median", "q3", "max"}

// periodLayouts are tried in order when ordering trend periods.
var periodLayouts = []string{"Jan06", "Jan2006", "2006-01-02", "2006-01", "2006"}

func fieldNames(fields []models.Field) []string {
	return lo.Map(fields, func(f models.Field, _ int) string { return string(f) })
}

// finish marks tables without rows as empty results.
func finish(t *models.Table) *models.Table {
	if len(t.Rows) == 0 {
		t.NoData = true
		t.Rows = nil
	}
	return t
}

// distribution returns box statistics of total rent per category.
func distribution(records []*models.Record, by models.Field) *models.Table {
	t := &models.Table{
		Metric:     models.MetricDistribution,
		KeyColumns: []string{string(by)},
		Columns:    distributionColumns,
	}

	values := make(map[string][]float64)
	var order []string
	for _, r := range records {
		k, _ := r.Category(by)
		if k == "" {
			continue
		}
		if _, seen := values[k]; !seen {
			order = append(order, k)
			values[k] = nil
		}
		if r.TotalRent.Valid {
			values[k] = append(values[k], r.TotalRent.Float64)
		}
	}

	for _, k := range order {
		t.Rows = append(t.Rows, models.Row{Keys: []string{k}, Values: boxStats(values[k])})
	}
	return finish(t)
}

// boxStats returns count, min, q1, median, q3 and max of xs.
func boxStats(xs []float64) []models.NullFloat {
	out := []models.NullFloat{models.Float(float64(len(xs)))}
	if len(xs) == 0 {
		return append(out, models.NoData, models.NoData, models.NoData, models.NoData, models.NoData)
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	return append(out,
		models.Float(sorted[0]),
		models.Float(quantile(sorted, 0.25)),
		models.Float(quantile(sorted, 0.5)),
		models.Float(quantile(sorted, 0.75)),
		models.Float(sorted[len(sorted)-1]),
	)
}

// quantile interpolates linearly between closest ranks of sorted data, the
// default estimator of common dataframe libraries.
func quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	h := float64(len(sorted)-1) * p
	floor := math.Floor(h)
	i := int(floor)
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[i] + (h-floor)*(sorted[i+1]-sorted[i])
}

// rankedBar averages the profile's value fields per scope key, sorted
// descending by the profile's sort field.
func rankedBar(records []*models.Record, p scopeProfile) *models.Table {
	t := &models.Table{
		Metric:     models.MetricRankedBar,
		KeyColumns: []string{string(p.key)},
		Columns:    fieldNames(p.rankedValues),
	}
	agg, err := GroupAverage(records, []models.Field{p.key}, p.rankedValues)
	if err != nil {
		return finish(t)
	}
	ranked := agg.SortBy(p.rankedSortBy, true)
	groups := ranked.Groups
	if p.rankedLimit > 0 && len(groups) > p.rankedLimit {
		groups = groups[:p.rankedLimit]
	}
	for _, g := range groups {
		t.Rows = append(t.Rows, models.Row{Keys: g.Key, Values: g.Means})
	}
	return finish(t)
}

// trend averages total rent per (period, scope key), ordered by period.
func trend(records []*models.Record, p scopeProfile) *models.Table {
	t := &models.Table{
		Metric:     models.MetricTrend,
		KeyColumns: []string{string(models.FieldDate), string(p.key)},
		Columns:    []string{string(models.FieldTotalRent)},
	}
	agg, err := GroupAverage(records, []models.Field{models.FieldDate, p.key}, []models.Field{models.FieldTotalRent})
	if err != nil {
		return finish(t)
	}
	periods := lo.Uniq(lo.Map(agg.Groups, func(g models.Group, _ int) string { return g.Key[0] }))
	periodLess := periodOrder(periods)
	sorted := agg.SortByKey(func(a, b []string) bool {
		if a[0] != b[0] {
			return periodLess(a[0], b[0])
		}
		return a[1] < b[1]
	})
	for _, g := range sorted.Groups {
		t.Rows = append(t.Rows, models.Row{Keys: g.Key, Values: g.Means})
	}
	return finish(t)
}

// periodOrder returns a comparison for period labels. All labels are
// compared chronologically under the first layout that parses every one of
// them, and lexically when no layout does.
func periodOrder(labels []string) func(a, b string) bool {
	for _, layout := range periodLayouts {
		times := make(map[string]time.Time, len(labels))
		parsed := true
		for _, l := range labels {
			t, err := time.Parse(layout, l)
			if err != nil {
				parsed = false
				break
			}
			times[l] = t
		}
		if parsed {
			return func(a, b string) bool {
				if ta, tb := times[a], times[b]; !ta.Equal(tb) {
					return ta.Before(tb)
				}
				return a < b
			}
		}
	}
	return func(a, b string) bool { return a < b }
}

// correlation returns the pairwise Pearson matrix over correlationFields.
// Each pair uses rows where both values are present.
func correlation(records []*models.Record) *models.Table {
	names := fieldNames(correlationFields)
	t := &models.Table{
		Metric:     models.MetricCorrelation,
		KeyColumns: []string{"field"},
		Columns:    names,
	}
	if len(records) < 2 {
		return finish(t)
	}

	n := len(correlationFields)
	matrix := make([][]models.NullFloat, n)
	for i := range matrix {
		matrix[i] = make([]models.NullFloat, n)
		matrix[i][i] = models.Float(1)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			r := pearson(records, correlationFields[i], correlationFields[j])
			matrix[i][j] = r
			matrix[j][i] = r
		}
	}

	for i, name := range names {
		t.Rows = append(t.Rows, models.Row{Keys: []string{name}, Values: matrix[i]})
	}
	return finish(t)
}

func pearson(records []*models.Record, a, b models.Field) models.NullFloat {
	var xs, ys []float64
	for _, r := range records {
		x, _ := r.Number(a)
		y, _ := r.Number(b)
		if x.Valid && y.Valid {
			xs = append(xs, x.Float64)
			ys = append(ys, y.Float64)
		}
	}
	if len(xs) < 2 {
		return models.NoData
	}
	c := stat.Correlation(xs, ys, nil)
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return models.NoData
	}
	return models.Float(math.Max(-1, math.Min(1, c)))
}

// featureImpact compares mean total rent of listings with and without each
// feature flag.
func featureImpact(records []*models.Record) *models.Table {
	t := &models.Table{
		Metric:     models.MetricFeatureImpact,
		KeyColumns: []string{"feature"},
		Columns:    []string{"with_feature", "without_feature"},
	}
	if len(records) == 0 {
		return finish(t)
	}
	for _, f := range models.FlagFields {
		with := lo.Filter(records, func(r *models.Record, _ int) bool {
			v, _ := r.Flag(f)
			return v
		})
		without := lo.Filter(records, func(r *models.Record, _ int) bool {
			v, _ := r.Flag(f)
			return !v
		})
		t.Rows = append(t.Rows, models.Row{
			Keys:   []string{string(f)},
			Values: []models.NullFloat{meanOf(with, models.FieldTotalRent), meanOf(without, models.FieldTotalRent)},
		})
	}
	return finish(t)
}

// groupedBar averages total rent per flat type, ordered by flat type.
func groupedBar(records []*models.Record) *models.Table {
	t := &models.Table{
		Metric:     models.MetricGroupedBar,
		KeyColumns: []string{string(models.FieldFlatType)},
		Columns:    []string{string(models.FieldTotalRent)},
	}
	agg, err := GroupAverage(records, []models.Field{models.FieldFlatType}, []models.Field{models.FieldTotalRent})
	if err != nil {
		return finish(t)
	}
	sorted := agg.SortByKey(func(a, b []string) bool {
		return strings.Compare(a[0], b[0]) < 0
	})
	for _, g := range sorted.Groups {
		t.Rows = append(t.Rows, models.Row{Keys: g.Key, Values: g.Means})
	}
	return finish(t)
}

// summary returns headline averages rounded to cents.
func summary(records []*models.Record, p scopeProfile) *models.Table {
	t := &models.Table{
		Metric:     models.MetricSummary,
		KeyColumns: []string{"metric"},
		Columns:    []string{"mean"},
	}
	if len(records) == 0 {
		return finish(t)
	}
	for _, f := range p.summary {
		m := meanOf(records, f)
		switch {
		case !m.Valid:
		case !isFinite(m.Float64):
			m = models.NoData
		default:
			m = models.Float(decimal.NewFromFloat(m.Float64).Round(2).InexactFloat64())
		}
		t.Rows = append(t.Rows, models.Row{Keys: []string{string(f)}, Values: []models.NullFloat{m}})
	}
	return finish(t)
}

// meanOf averages the present values of f; NoData if none are present or
// the mean is not finite.
func meanOf(records []*models.Record, f models.Field) models.NullFloat {
	xs := make([]float64, 0, len(records))
	for _, r := range records {
		if v, _ := r.Number(f); v.Valid {
			xs = append(xs, v.Float64)
		}
	}
	if len(xs) == 0 {
		return models.NoData
	}
	m := stat.Mean(xs, nil)
	if !isFinite(m) {
		return models.NoData
	}
	return models.Float(m)
}

func isFinite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}
