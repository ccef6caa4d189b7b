package shopping

import (
	"pantry-planner/internal/catalog"
	"pantry-planner/internal/demand"
	"pantry-planner/internal/inventory"
)

// Item is one ingredient needing purchase, with its demand and the money
// it will cost at the known unit price.
type Item struct {
	catalog.Ingredient
	demand.Record
	LineCost float64 `json:"line_cost"`
}

// Group buckets items by normalized supplier label and carries the summed
// cost. A group whose items all lack a unit price still reports a zero
// cost, never an error.
type Group struct {
	SourceLabel string  `json:"source_label"`
	Items       []Item  `json:"items"`
	TotalCost   float64 `json:"total_cost"`
}

// Builder turns inventory status rows into supplier-grouped shopping
// lists. Group order is unspecified; callers needing a stable order must
// sort explicitly.
type Builder struct {
	normalizer *Normalizer
}

// NewBuilder creates a Builder with the given normalizer.
func NewBuilder(normalizer *Normalizer) *Builder {
	return &Builder{normalizer: normalizer}
}

// Build filters to rows whose status is not sufficient and groups them by
// normalized supplier label. This demand-aware filter is the single
// "needs restocking" semantics of the system.
func (b *Builder) Build(rows []inventory.StatusRow) []Group {
	groups := make(map[string]*Group)
	for _, row := range rows {
		if row.Status == inventory.StatusSufficient {
			continue
		}
		b.add(groups, row.Ingredient, row.Record)
	}
	return flatten(groups)
}

// BuildFromDemand groups every ingredient carrying demand without any
// stock filtering; the monthly restock plan projects total need and cost,
// not shortage alerts. Demand values are rounded at this reporting edge.
func (b *Builder) BuildFromDemand(records map[string]demand.Record, ingredients map[string]catalog.Ingredient) []Group {
	groups := make(map[string]*Group)
	for id, rec := range records {
		ing, ok := ingredients[id]
		if !ok {
			ing = catalog.Ingredient{ID: id}
		}
		b.add(groups, ing, rec.Rounded())
	}
	return flatten(groups)
}

func (b *Builder) add(groups map[string]*Group, ing catalog.Ingredient, rec demand.Record) {
	key := b.normalizer.Key(ing.Source)
	group, ok := groups[key]
	if !ok {
		group = &Group{SourceLabel: b.normalizer.Display(key)}
		groups[key] = group
	}

	cost := lineCost(ing.UnitPrice, rec)
	group.Items = append(group.Items, Item{Ingredient: ing, Record: rec, LineCost: cost})
	group.TotalCost = demand.Round2(group.TotalCost + cost)
}

// lineCost prices the demand at the ingredient's unit price; weight takes
// precedence over count when both are present and weight is nonzero.
func lineCost(unitPrice float64, rec demand.Record) float64 {
	amount := rec.NeedQuantity
	if rec.NeedWeight > 0 {
		amount = rec.NeedWeight
	}
	return demand.Round2(unitPrice * amount)
}

func flatten(groups map[string]*Group) []Group {
	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	return out
}
