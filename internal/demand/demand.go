// Package demand turns scheduled dishes into per-ingredient requirement
// totals. It is a pure computation over a snapshot of recipe lines; all
// I/O happens in the RecipeResolver handed to the Aggregator.
package demand

import (
	"context"
	"fmt"
	"math"

	"pantry-planner/internal/catalog"
)

// Entry is one scheduled dish with its servings multiplier. Several
// entries may reference the same dish; their contributions add up.
type Entry struct {
	DishID   string
	Servings float64
}

// Record is the aggregated requirement for a single ingredient.
// Values are raw sums; call Rounded before exposing them externally so
// intermediate summation never compounds rounding error.
type Record struct {
	IngredientID  string  `json:"ingredient_id"`
	NeedQuantity  float64 `json:"need_quantity"`
	NeedWeight    float64 `json:"need_weight"`
	TotalCalories float64 `json:"total_calories"`
}

// Rounded returns a copy with quantities and weight at 2 decimal places
// and calories rounded to the nearest whole number.
func (r Record) Rounded() Record {
	return Record{
		IngredientID:  r.IngredientID,
		NeedQuantity:  Round2(r.NeedQuantity),
		NeedWeight:    Round2(r.NeedWeight),
		TotalCalories: math.Round(r.TotalCalories),
	}
}

// Result holds the aggregation output. When recipe resolution failed for
// some dishes, Partial is set and FailedDishes lists them; the records
// cover every dish that could be resolved.
type Result struct {
	Records      map[string]Record
	Partial      bool
	FailedDishes []string
}

// Aggregator computes per-ingredient demand from menu entries.
type Aggregator struct {
	resolver catalog.RecipeResolver
}

// NewAggregator creates an Aggregator backed by the given resolver.
func NewAggregator(resolver catalog.RecipeResolver) *Aggregator {
	return &Aggregator{resolver: resolver}
}

// Aggregate resolves the recipes of every entry in one batch and sums each
// recipe line's contribution, keyed by ingredient id.
//
// Per line: factor = servings / max(baseServingCount, 1). Lines with an
// empty ingredient id are skipped; non-finite or negative per-base values
// are coerced to 0 for that line only. Ingredients whose net quantity and
// weight are both zero are omitted from the result.
//
// When the batch resolution fails, resolution is retried per dish so a
// single unreachable dish degrades to a partial result instead of a hard
// failure. Only when every dish fails is the error returned, wrapped so
// callers can detect catalog.ErrUnavailable.
func (a *Aggregator) Aggregate(ctx context.Context, entries []Entry) (*Result, error) {
	dishIDs := distinctDishIDs(entries)

	recipes, err := a.resolver.ResolveRecipes(ctx, dishIDs)
	var failed []string
	if err != nil {
		recipes, failed = a.resolvePerDish(ctx, dishIDs)
		if len(failed) == len(dishIDs) && len(dishIDs) > 0 {
			return nil, fmt.Errorf("failed to resolve any recipe: %w", err)
		}
	}

	result := &Result{
		Records:      make(map[string]Record),
		Partial:      len(failed) > 0,
		FailedDishes: failed,
	}

	failedSet := make(map[string]bool, len(failed))
	for _, id := range failed {
		failedSet[id] = true
	}

	for _, entry := range entries {
		if failedSet[entry.DishID] {
			continue
		}
		servings := sanitize(entry.Servings)
		for _, line := range recipes[entry.DishID] {
			if line.IngredientID == "" {
				continue
			}

			base := line.BaseServingCount
			if base < 1 {
				base = 1
			}
			factor := servings / base

			rec := result.Records[line.IngredientID]
			rec.IngredientID = line.IngredientID
			rec.NeedQuantity += sanitize(line.QuantityPerBase * factor)
			rec.NeedWeight += sanitize(line.WeightPerBase * factor)
			rec.TotalCalories += sanitize(line.CaloriesPerBase * factor)
			result.Records[line.IngredientID] = rec
		}
	}

	for id, rec := range result.Records {
		if rec.NeedQuantity == 0 && rec.NeedWeight == 0 {
			delete(result.Records, id)
		}
	}

	return result, nil
}

// resolvePerDish is the degraded path after a failed batch resolution.
func (a *Aggregator) resolvePerDish(ctx context.Context, dishIDs []string) (map[string][]catalog.RecipeLine, []string) {
	recipes := make(map[string][]catalog.RecipeLine)
	var failed []string
	for _, id := range dishIDs {
		res, err := a.resolver.ResolveRecipes(ctx, []string{id})
		if err != nil {
			failed = append(failed, id)
			continue
		}
		if lines, ok := res[id]; ok {
			recipes[id] = lines
		}
	}
	return recipes, failed
}

func distinctDishIDs(entries []Entry) []string {
	seen := make(map[string]bool, len(entries))
	var ids []string
	for _, e := range entries {
		if e.DishID == "" || seen[e.DishID] {
			continue
		}
		seen[e.DishID] = true
		ids = append(ids, e.DishID)
	}
	return ids
}

// sanitize coerces non-finite and negative values to 0 so one corrupt
// field cannot poison the whole sum.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Round2 rounds to 2 decimal places. Used at the external reporting edge
// only, never during intermediate summation.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
