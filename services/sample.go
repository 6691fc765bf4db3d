package services

import (
	"math/rand"
	"sort"

	"rent-dashboard/models"
)

// Sample picks n records with a seeded generator, keeping their original
// relative order. The same seed always yields the same sample. n <= 0 or
// n >= len(records) returns records unchanged.
func Sample(records []*models.Record, n int, seed int64) []*models.Record {
	if n <= 0 || n >= len(records) {
		return records
	}
	rng := rand.New(rand.NewSource(seed))
	idx := rng.Perm(len(records))[:n]
	sort.Ints(idx)

	out := make([]*models.Record, n)
	for i, j := range idx {
		out[i] = records[j]
	}
	return out
}
