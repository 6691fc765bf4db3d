package services

import (
	"strings"

	"github.com/samber/lo"

	ierr "rent-dashboard/errors"
	"rent-dashboard/models"
)

// GroupAverage groups records by the distinct combinations of 1-2
// categorical keys and averages each value field per group. State names
// are grouped in normalized form. Missing values are skipped; a group with
// no valid value for a field gets NoData for it. Groups are returned in
// order of first appearance; sort explicitly when order matters.
func GroupAverage(records []*models.Record, keys []models.Field, values []models.Field) (*models.AggregateTable, error) {
	if len(keys) < 1 || len(keys) > 2 {
		return nil, ierr.Validationf("group average: need 1 or 2 group keys, got %d", len(keys))
	}
	if len(values) == 0 {
		return nil, ierr.Validationf("group average: no value fields")
	}
	for _, k := range keys {
		if !models.IsCategorical(k) {
			return nil, ierr.Validationf("group average: %q is not a categorical field", k)
		}
	}
	for _, v := range values {
		if !models.IsNumeric(v) {
			return nil, ierr.Validationf("group average: %q is not a numeric field", v)
		}
	}

	type acc struct {
		key    []string
		count  int
		sums   []float64
		counts []int
	}

	index := make(map[string]*acc)
	var order []*acc

	for _, r := range records {
		key := make([]string, len(keys))
		skip := false
		for i, k := range keys {
			v, _ := r.Category(k)
			if v == "" {
				skip = true
				break
			}
			key[i] = v
		}
		if skip {
			continue
		}

		id := strings.Join(key, "\x00")
		a, ok := index[id]
		if !ok {
			a = &acc{key: key, sums: make([]float64, len(values)), counts: make([]int, len(values))}
			index[id] = a
			order = append(order, a)
		}
		a.count++
		for i, f := range values {
			if n, _ := r.Number(f); n.Valid {
				a.sums[i] += n.Float64
				a.counts[i]++
			}
		}
	}

	groups := lo.Map(order, func(a *acc, _ int) models.Group {
		means := make([]models.NullFloat, len(values))
		for i := range values {
			mean := a.sums[i] / float64(max(a.counts[i], 1))
			if a.counts[i] == 0 || !isFinite(mean) {
				means[i] = models.NoData
				continue
			}
			means[i] = models.Float(mean)
		}
		return models.Group{Key: a.key, Count: a.count, Means: means}
	})

	return &models.AggregateTable{Keys: keys, Values: values, Groups: groups}, nil
}
