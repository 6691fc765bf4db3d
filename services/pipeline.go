package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/samber/lo"

	ierr "rent-dashboard/errors"
	"rent-dashboard/models"
	"rent-dashboard/storage"
	"rent-dashboard/utils"
)

const cachePrefixQuery = "query:v1"

// PipelineOptions tunes construction of a Pipeline.
type PipelineOptions struct {
	// SampleSize keeps a seeded sample of the dataset; 0 keeps everything.
	SampleSize int
	SampleSeed int64
	// CacheEnabled memoizes query results.
	CacheEnabled bool
}

// Pipeline holds an immutable Dataset plus the aggregates that do not depend
// on a selection, and answers queries over it.
type Pipeline struct {
	records []*models.Record
	logger  *utils.Logger
	cache   *gocache.Cache

	overview map[models.Scope]*models.Table
	options  map[models.Scope][]string
}

// NewPipeline builds a ready Pipeline over records. The slice must not be
// modified afterwards.
func NewPipeline(records []*models.Record, opts PipelineOptions, logger *utils.Logger) *Pipeline {
	records = Sample(records, opts.SampleSize, opts.SampleSeed)

	p := &Pipeline{
		records:  records,
		logger:   logger,
		overview: make(map[models.Scope]*models.Table, len(profiles)),
		options:  make(map[models.Scope][]string, len(profiles)),
	}
	if opts.CacheEnabled {
		p.cache = gocache.New(gocache.NoExpiration, 0)
	}

	for scope, prof := range profiles {
		p.overview[scope] = rankedBar(records, prof)

		values := lo.Uniq(lo.FilterMap(records, func(r *models.Record, _ int) (string, bool) {
			v, _ := r.Category(prof.key)
			return v, v != ""
		}))
		p.options[scope] = append([]string{models.All}, values...)
	}

	logger.Info("[pipeline] Ready with %d records", len(records))
	return p
}

// LoadPipeline loads the Dataset from src and builds a Pipeline. A load
// failure is returned as is; no pipeline is built over partial data.
func LoadPipeline(ctx context.Context, src storage.DatasetSource, opts PipelineOptions, logger *utils.Logger) (*Pipeline, error) {
	start := time.Now()
	records, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("[pipeline] Loaded %d records in %v", len(records), time.Since(start))
	return NewPipeline(records, opts, logger), nil
}

// NewPipelineFromFile loads a delimited file at path and builds a Pipeline.
func NewPipelineFromFile(ctx context.Context, path string, opts PipelineOptions, logger *utils.Logger) (*Pipeline, error) {
	src := storage.NewCSVSource(path, 0, NewCleaner(logger))
	return LoadPipeline(ctx, src, opts, logger)
}

// Len returns the number of records in the Dataset.
func (p *Pipeline) Len() int {
	return len(p.records)
}

// Options returns the selectable values for scope, "all" first.
func (p *Pipeline) Options(scope models.Scope) ([]string, error) {
	opts, ok := p.options[scope]
	if !ok {
		return nil, ierr.Validationf("unknown scope %q", scope)
	}
	return append([]string(nil), opts...), nil
}

// Overview returns the whole-dataset ranking for the selection's scope with
// the selected entry highlighted. It does not depend on the selection's rows.
func (p *Pipeline) Overview(sel models.Selection) (*models.Table, error) {
	base, ok := p.overview[sel.Scope]
	if !ok {
		return nil, ierr.Validationf("unknown scope %q", sel.Scope)
	}

	out := *base
	out.Rows = make([]models.Row, len(base.Rows))
	want := selectionKey(sel)
	for i, r := range base.Rows {
		out.Rows[i] = models.Row{
			Keys:      r.Keys,
			Values:    r.Values,
			Highlight: !sel.IsAll() && r.Keys[0] == want,
		}
	}
	return &out, nil
}

// Query returns one table per requested metric for the rows matching sel.
// With no metrics requested every metric is computed. A selection matching
// no rows yields NoData tables, not an error.
func (p *Pipeline) Query(sel models.Selection, metrics ...models.MetricKind) (map[models.MetricKind]*models.Table, error) {
	return p.QueryWhere(sel, "", metrics...)
}

// QueryWhere is Query with an additional filter expression applied after
// the selection.
func (p *Pipeline) QueryWhere(sel models.Selection, where string, metrics ...models.MetricKind) (map[models.MetricKind]*models.Table, error) {
	prof, ok := profiles[sel.Scope]
	if !ok {
		return nil, ierr.Validationf("unknown scope %q", sel.Scope)
	}
	if len(metrics) == 0 {
		metrics = models.MetricKinds
	}
	metrics = lo.Uniq(metrics)
	for _, m := range metrics {
		if !lo.Contains(models.MetricKinds, m) {
			return nil, ierr.Validationf("unknown metric %q", m)
		}
	}

	filter, err := NewRecordFilter(where)
	if err != nil {
		return nil, err
	}

	key := queryCacheKey(sel, filter, metrics)
	if p.cache != nil {
		if cached, found := p.cache.Get(key); found {
			p.logger.Debug("[pipeline] Cache hit %s", key)
			return lo.Assign(cached.(map[models.MetricKind]*models.Table)), nil
		}
	}

	rows := p.selectRows(sel)
	rows, err = filter.Apply(rows)
	if err != nil {
		return nil, err
	}

	result := make(map[models.MetricKind]*models.Table, len(metrics))
	for _, m := range metrics {
		result[m] = compute(m, rows, prof)
	}
	p.logger.Debug("[pipeline] Query %s matched %d rows", key, len(rows))

	if p.cache != nil {
		p.cache.Set(key, result, gocache.NoExpiration)
	}
	return lo.Assign(result), nil
}

func compute(m models.MetricKind, rows []*models.Record, prof scopeProfile) *models.Table {
	switch m {
	case models.MetricDistribution:
		return distribution(rows, prof.distributionBy)
	case models.MetricRankedBar:
		return rankedBar(rows, prof)
	case models.MetricTrend:
		return trend(rows, prof)
	case models.MetricCorrelation:
		return correlation(rows)
	case models.MetricFeatureImpact:
		return featureImpact(rows)
	case models.MetricGroupedBar:
		return groupedBar(rows)
	case models.MetricSummary:
		return summary(rows, prof)
	}
	return models.EmptyTable(m, nil, nil)
}

// selectRows returns the records matching sel, or the whole Dataset for "all".
func (p *Pipeline) selectRows(sel models.Selection) []*models.Record {
	if sel.IsAll() {
		return p.records
	}
	field, _ := sel.Scope.Field()
	want := selectionKey(sel)
	return lo.Filter(p.records, func(r *models.Record, _ int) bool {
		v, _ := r.Category(field)
		return v == want
	})
}

// selectionKey returns the selection value in the form Record.Category
// reports it.
func selectionKey(sel models.Selection) string {
	v := normaliseText(sel.Value)
	if sel.Scope == models.ScopeState {
		v = models.NormalizeStateName(v)
	}
	return v
}

// queryCacheKey quotes every free-text part so distinct requests never share
// a key.
func queryCacheKey(sel models.Selection, filter *RecordFilter, metrics []models.MetricKind) string {
	names := lo.Map(metrics, func(m models.MetricKind, _ int) string { return string(m) })
	sort.Strings(names)
	value := selectionKey(sel)
	if sel.IsAll() {
		value = models.All
	}
	return fmt.Sprintf("%s:%s:%q:%q:%q", cachePrefixQuery, sel.Scope, value, strings.Join(names, ","), filter.String())
}
