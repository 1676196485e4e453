package search

import (
	"math/rand"

	"byproduct-catalog/internal/model"
)

// DefaultRecommendations is the size of the recommendation strip on a
// product page.
const DefaultRecommendations = 3

// Recommend picks up to n products at random, never the one being viewed.
func Recommend(products []model.ProductSummary, excludeID string, n int, rng *rand.Rand) []model.ProductSummary {
	if n <= 0 {
		return nil
	}
	pool := make([]model.ProductSummary, 0, len(products))
	for _, p := range products {
		if p.ID != excludeID {
			pool = append(pool, p)
		}
	}
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if len(pool) > n {
		pool = pool[:n]
	}
	return pool
}
