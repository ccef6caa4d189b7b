// Package planner is the derived-views façade over the aggregation
// engine: it fetches a consistent snapshot from the repositories, runs
// the pure computation, and hands typed views to the UI layers. Any
// change to menu entries, recipes or stock requires a fresh call; there
// is no incremental recomputation.
package planner

import (
	"context"
	"fmt"
	"log"
	"time"

	"pantry-planner/internal/catalog"
	"pantry-planner/internal/demand"
	"pantry-planner/internal/inventory"
	"pantry-planner/internal/menu"
	"pantry-planner/internal/restock"
	"pantry-planner/internal/shopping"
)

// Planner wires the repositories to the aggregation pipeline.
type Planner struct {
	catalog    *catalog.Repository
	menu       *menu.Repository
	aggregator *demand.Aggregator
	classifier *inventory.Classifier
	builder    *shopping.Builder
	restock    *restock.Planner
	consumer   *inventory.Consumer
	lists      *shopping.Repository
}

// New creates a Planner over the given repositories.
func New(catalogRepo *catalog.Repository, menuRepo *menu.Repository, consumer *inventory.Consumer, lists *shopping.Repository) *Planner {
	aggregator := demand.NewAggregator(catalogRepo)
	builder := shopping.NewBuilder(shopping.NewNormalizer(nil))
	return &Planner{
		catalog:    catalogRepo,
		menu:       menuRepo,
		aggregator: aggregator,
		classifier: inventory.NewClassifier(),
		builder:    builder,
		restock:    restock.NewPlanner(aggregator, builder),
		consumer:   consumer,
		lists:      lists,
	}
}

// DayBoard is the daily inventory view: the day's entries plus a status
// row per ingredient in demand.
type DayBoard struct {
	Date         time.Time             `json:"date"`
	Entries      []menu.Entry          `json:"entries"`
	Rows         []inventory.StatusRow `json:"rows"`
	Partial      bool                  `json:"partial,omitempty"`
	FailedDishes []string              `json:"failed_dishes,omitempty"`
}

// DayBoard computes the inventory status view for one day.
func (p *Planner) DayBoard(ctx context.Context, date time.Time) (*DayBoard, error) {
	entries, err := p.menu.ByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load menu entries: %w", err)
	}

	result, ingredients, err := p.aggregateEntries(ctx, entries)
	if err != nil {
		return nil, err
	}

	return &DayBoard{
		Date:         date,
		Entries:      entries,
		Rows:         p.classifier.Report(result.Records, ingredients),
		Partial:      result.Partial,
		FailedDishes: result.FailedDishes,
	}, nil
}

// ShoppingView is the day's purchase list, grouped by supplier.
type ShoppingView struct {
	Date         time.Time        `json:"date"`
	Groups       []shopping.Group `json:"groups"`
	TotalCost    float64          `json:"total_cost"`
	Partial      bool             `json:"partial,omitempty"`
	FailedDishes []string         `json:"failed_dishes,omitempty"`
}

// ShoppingList builds the supplier-grouped purchase list for one day and
// persists it for later viewing.
func (p *Planner) ShoppingList(ctx context.Context, date time.Time) (*ShoppingView, error) {
	entries, err := p.menu.ByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load menu entries: %w", err)
	}

	result, ingredients, err := p.aggregateEntries(ctx, entries)
	if err != nil {
		return nil, err
	}

	rows := p.classifier.Report(result.Records, ingredients)
	groups := p.builder.Build(rows)

	var total float64
	for _, g := range groups {
		total += g.TotalCost
	}

	view := &ShoppingView{
		Date:         date,
		Groups:       groups,
		TotalCost:    demand.Round2(total),
		Partial:      result.Partial,
		FailedDishes: result.FailedDishes,
	}

	if _, err := p.lists.Save(ctx, shopping.KindDay, date.Format(menu.DateFormat), groups); err != nil {
		// The computed view is still valid; persistence is best effort.
		log.Printf("Warning: failed to persist shopping list for %s: %v", date.Format(menu.DateFormat), err)
	}

	return view, nil
}

// MonthlyRestock builds the month's procurement plan and persists it.
func (p *Planner) MonthlyRestock(ctx context.Context, year int, month time.Month) (*restock.Plan, error) {
	entries, err := p.menu.ByMonth(ctx, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to load month entries: %w", err)
	}

	ingredients, err := p.allIngredientsByID(ctx)
	if err != nil {
		return nil, err
	}

	plan, err := p.restock.PlanMonth(ctx, year, month, entries, ingredients)
	if err != nil {
		return nil, err
	}

	refDate := fmt.Sprintf("%04d-%02d", year, month)
	if _, err := p.lists.Save(ctx, shopping.KindMonth, refDate, plan.Groups); err != nil {
		log.Printf("Warning: failed to persist restock plan for %s: %v", refDate, err)
	}

	return plan, nil
}

// LowStock is the demand-independent quick view of ingredients running
// out, regardless of what is scheduled.
func (p *Planner) LowStock(ctx context.Context) ([]catalog.Ingredient, error) {
	ingredients, err := p.catalog.ListIngredients(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	return inventory.LowStockOnly(ingredients, inventory.DefaultLowStockThreshold), nil
}

// ScheduleDish adds a dish to a day and consumes its scaled ingredients
// from stock in one transaction. The entry is created even when the dish
// has no recipe; consumption is then a no-op.
func (p *Planner) ScheduleDish(ctx context.Context, dishID string, date time.Time, servings float64, note string) (*menu.Entry, *inventory.ConsumptionResult, error) {
	dish, err := p.catalog.GetDish(ctx, dishID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up dish: %w", err)
	}
	if dish == nil {
		return nil, nil, fmt.Errorf("dish %s not found", dishID)
	}

	entry, err := p.menu.Add(ctx, menu.Entry{DishID: dishID, Date: date, Servings: servings, Note: note})
	if err != nil {
		return nil, nil, err
	}

	recipes, err := p.catalog.ResolveRecipes(ctx, []string{dishID})
	if err != nil {
		// Entry exists; stock was not touched. Report that explicitly.
		return entry, &inventory.ConsumptionResult{}, fmt.Errorf("entry added but stock not consumed: %w", err)
	}

	consumption, err := p.consumer.ConsumeForDish(ctx, recipes[dishID], entry.Servings)
	if err != nil {
		return entry, consumption, fmt.Errorf("entry added but stock consumption failed: %w", err)
	}
	return entry, consumption, nil
}

// RemoveEntry deletes a menu entry. Stock already consumed for it is not
// restored; the household corrects stock levels by editing ingredients.
func (p *Planner) RemoveEntry(ctx context.Context, id string) error {
	return p.menu.Delete(ctx, id)
}

// UpdateEntry edits an entry's servings multiplier and note.
func (p *Planner) UpdateEntry(ctx context.Context, id string, servings float64, note string) error {
	return p.menu.Update(ctx, id, servings, note)
}

func (p *Planner) aggregateEntries(ctx context.Context, entries []menu.Entry) (*demand.Result, map[string]catalog.Ingredient, error) {
	demandEntries := make([]demand.Entry, 0, len(entries))
	for _, e := range entries {
		demandEntries = append(demandEntries, demand.Entry{DishID: e.DishID, Servings: e.Servings})
	}

	result, err := p.aggregator.Aggregate(ctx, demandEntries)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to aggregate demand: %w", err)
	}

	ids := make([]string, 0, len(result.Records))
	for id := range result.Records {
		ids = append(ids, id)
	}
	ingredients, err := p.catalog.IngredientsByIDs(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load ingredients: %w", err)
	}
	return result, ingredients, nil
}

func (p *Planner) allIngredientsByID(ctx context.Context) (map[string]catalog.Ingredient, error) {
	list, err := p.catalog.ListIngredients(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	byID := make(map[string]catalog.Ingredient, len(list))
	for _, ing := range list {
		byID[ing.ID] = ing
	}
	return byID, nil
}
