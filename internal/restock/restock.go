// Package restock projects a calendar month of scheduled dishes into a
// supplier-grouped procurement cost report.
package restock

import (
	"context"
	"fmt"
	"time"

	"pantry-planner/internal/catalog"
	"pantry-planner/internal/demand"
	"pantry-planner/internal/menu"
	"pantry-planner/internal/shopping"
)

// Plan is the monthly restock report. No stock classification is applied:
// the plan states total projected need and cost, not shortage alerts.
type Plan struct {
	Year         int              `json:"year"`
	Month        time.Month       `json:"month"`
	Groups       []shopping.Group `json:"groups"`
	TotalCost    float64          `json:"total_cost"`
	Partial      bool             `json:"partial,omitempty"`
	FailedDishes []string         `json:"failed_dishes,omitempty"`
}

// Planner aggregates a month of menu entries in a single pass.
type Planner struct {
	aggregator *demand.Aggregator
	builder    *shopping.Builder
}

// NewPlanner creates a monthly restock planner.
func NewPlanner(aggregator *demand.Aggregator, builder *shopping.Builder) *Planner {
	return &Planner{aggregator: aggregator, builder: builder}
}

// PlanMonth collapses the month's entries into one cumulative servings
// total per dish, then aggregates once. By additivity this equals summing
// the per-day aggregations, at a fraction of the resolver traffic.
// Entries outside the requested month are ignored.
func (p *Planner) PlanMonth(ctx context.Context, year int, month time.Month, entries []menu.Entry, ingredients map[string]catalog.Ingredient) (*Plan, error) {
	totals := make(map[string]float64)
	var order []string
	for _, e := range entries {
		if e.Date.Year() != year || e.Date.Month() != month {
			continue
		}
		if e.Servings <= 0 {
			continue
		}
		if _, seen := totals[e.DishID]; !seen {
			order = append(order, e.DishID)
		}
		totals[e.DishID] += e.Servings
	}

	collapsed := make([]demand.Entry, 0, len(order))
	for _, dishID := range order {
		collapsed = append(collapsed, demand.Entry{DishID: dishID, Servings: totals[dishID]})
	}

	result, err := p.aggregator.Aggregate(ctx, collapsed)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate monthly demand: %w", err)
	}

	groups := p.builder.BuildFromDemand(result.Records, ingredients)

	var total float64
	for _, g := range groups {
		total += g.TotalCost
	}

	return &Plan{
		Year:         year,
		Month:        month,
		Groups:       groups,
		TotalCost:    demand.Round2(total),
		Partial:      result.Partial,
		FailedDishes: result.FailedDishes,
	}, nil
}
