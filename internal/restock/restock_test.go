package restock

import (
	"context"
	"math"
	"testing"
	"time"

	"pantry-planner/internal/catalog"
	"pantry-planner/internal/demand"
	"pantry-planner/internal/menu"
	"pantry-planner/internal/shopping"
)

type staticResolver struct {
	recipes map[string][]catalog.RecipeLine
}

func (r *staticResolver) ResolveRecipes(ctx context.Context, dishIDs []string) (map[string][]catalog.RecipeLine, error) {
	out := make(map[string][]catalog.RecipeLine)
	for _, id := range dishIDs {
		if lines, ok := r.recipes[id]; ok {
			out[id] = lines
		}
	}
	return out, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func newPlanner(resolver catalog.RecipeResolver) (*Planner, *demand.Aggregator) {
	agg := demand.NewAggregator(resolver)
	builder := shopping.NewBuilder(shopping.NewNormalizer(nil))
	return NewPlanner(agg, builder), agg
}

// Dish D has one line: rice, base 2 servings, 0.3kg per base. Scheduled for
// 4 and 6 servings on two days: daily demand 0.6kg and 0.9kg, monthly 1.5kg.
func TestPlanMonthRiceScenario(t *testing.T) {
	resolver := &staticResolver{recipes: map[string][]catalog.RecipeLine{
		"d": {{DishID: "d", IngredientID: "rice", BaseServingCount: 2, WeightPerBase: 0.3}},
	}}
	planner, agg := newPlanner(resolver)
	ctx := context.Background()

	entries := []menu.Entry{
		{ID: "1", DishID: "d", Date: day(2025, time.March, 3), Servings: 4},
		{ID: "2", DishID: "d", Date: day(2025, time.March, 18), Servings: 6},
	}

	// Daily checks first.
	day1, err := agg.Aggregate(ctx, []demand.Entry{{DishID: "d", Servings: 4}})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if !almostEqual(day1.Records["rice"].NeedWeight, 0.6) {
		t.Errorf("Expected 0.6kg rice on day 1, got %v", day1.Records["rice"].NeedWeight)
	}
	day2, err := agg.Aggregate(ctx, []demand.Entry{{DishID: "d", Servings: 6}})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if !almostEqual(day2.Records["rice"].NeedWeight, 0.9) {
		t.Errorf("Expected 0.9kg rice on day 2, got %v", day2.Records["rice"].NeedWeight)
	}

	ingredients := map[string]catalog.Ingredient{
		"rice": {ID: "rice", Name: "Rice", Source: "Coopmart", UnitPrice: 20000},
	}
	plan, err := planner.PlanMonth(ctx, 2025, time.March, entries, ingredients)
	if err != nil {
		t.Fatalf("PlanMonth failed: %v", err)
	}
	if len(plan.Groups) != 1 {
		t.Fatalf("Expected 1 group, got %d", len(plan.Groups))
	}
	item := plan.Groups[0].Items[0]
	if !almostEqual(item.NeedWeight, 1.5) {
		t.Errorf("Expected monthly rice demand 1.5kg, got %v", item.NeedWeight)
	}
	if !almostEqual(plan.TotalCost, 30000) {
		t.Errorf("Expected monthly cost 30000, got %v", plan.TotalCost)
	}
}

func TestPlanMonthEqualsSumOfDaily(t *testing.T) {
	resolver := &staticResolver{recipes: map[string][]catalog.RecipeLine{
		"pho":    {{DishID: "pho", IngredientID: "beef", BaseServingCount: 2, WeightPerBase: 0.25}, {DishID: "pho", IngredientID: "onion", BaseServingCount: 2, QuantityPerBase: 1}},
		"bun-bo": {{DishID: "bun-bo", IngredientID: "beef", BaseServingCount: 4, WeightPerBase: 0.5}},
	}}
	planner, agg := newPlanner(resolver)
	ctx := context.Background()

	entries := []menu.Entry{
		{ID: "1", DishID: "pho", Date: day(2025, time.May, 1), Servings: 2},
		{ID: "2", DishID: "pho", Date: day(2025, time.May, 1), Servings: 3},
		{ID: "3", DishID: "bun-bo", Date: day(2025, time.May, 12), Servings: 8},
		{ID: "4", DishID: "pho", Date: day(2025, time.May, 30), Servings: 4},
		// Outside the window: must be ignored.
		{ID: "5", DishID: "pho", Date: day(2025, time.June, 1), Servings: 100},
	}

	// Sum per-day aggregations over the month.
	byDay := map[string][]demand.Entry{}
	for _, e := range entries {
		if e.Date.Month() != time.May {
			continue
		}
		k := e.Date.Format(menu.DateFormat)
		byDay[k] = append(byDay[k], demand.Entry{DishID: e.DishID, Servings: e.Servings})
	}
	dailySums := map[string]float64{}
	for _, dayEntries := range byDay {
		res, err := agg.Aggregate(ctx, dayEntries)
		if err != nil {
			t.Fatalf("Aggregate failed: %v", err)
		}
		for id, rec := range res.Records {
			dailySums[id+"/w"] += rec.NeedWeight
			dailySums[id+"/q"] += rec.NeedQuantity
		}
	}

	plan, err := planner.PlanMonth(ctx, 2025, time.May, entries, map[string]catalog.Ingredient{})
	if err != nil {
		t.Fatalf("PlanMonth failed: %v", err)
	}

	monthly := map[string]float64{}
	for _, g := range plan.Groups {
		for _, item := range g.Items {
			monthly[item.IngredientID+"/w"] = item.NeedWeight
			monthly[item.IngredientID+"/q"] = item.NeedQuantity
		}
	}

	for key, want := range dailySums {
		if got := monthly[key]; math.Abs(got-demand.Round2(want)) > 0.01 {
			t.Errorf("Monthly total for %s = %v, want sum of daily %v", key, got, want)
		}
	}
}
