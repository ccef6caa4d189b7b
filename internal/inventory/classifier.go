// Package inventory classifies ingredient stock against aggregated demand
// and applies stock consumption when dishes are scheduled.
package inventory

import (
	"sort"

	"pantry-planner/internal/catalog"
	"pantry-planner/internal/demand"
)

// Status describes how an ingredient's stock compares to its demand.
type Status string

const (
	StatusSufficient Status = "sufficient"
	StatusLow        Status = "low"
	StatusDepleted   Status = "depleted"
)

// Default margins for the "low" band. These are fixed absolute thresholds
// independent of the ingredient's unit scale (kg vs. piece); an ingredient
// counted in tons and one counted in grams share the same margin.
const (
	DefaultLowQuantityMargin = 1.0
	DefaultLowWeightMargin   = 0.1
)

// DefaultLowStockThreshold is the cut-off for the demand-independent
// LowStockOnly quick filter: raw stock quantity at or below this level.
const DefaultLowStockThreshold = 5.0

// Classifier assigns a shortage status from stock and demand. The zero
// value is not usable; use NewClassifier.
type Classifier struct {
	lowQuantityMargin float64
	lowWeightMargin   float64
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLowMargins overrides the "low" band margins for this classifier.
func WithLowMargins(quantity, weight float64) Option {
	return func(c *Classifier) {
		c.lowQuantityMargin = quantity
		c.lowWeightMargin = weight
	}
}

// NewClassifier creates a Classifier with the default margins.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		lowQuantityMargin: DefaultLowQuantityMargin,
		lowWeightMargin:   DefaultLowWeightMargin,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify compares one ingredient's demand against its stock:
// depleted when either dimension falls short, low when both dimensions are
// within their fixed margin of running out, sufficient otherwise.
func (c *Classifier) Classify(rec demand.Record, stockQuantity, stockWeight float64) Status {
	quantitySlack := stockQuantity - rec.NeedQuantity
	weightSlack := stockWeight - rec.NeedWeight

	if quantitySlack < 0 || weightSlack < 0 {
		return StatusDepleted
	}
	if quantitySlack < c.lowQuantityMargin && weightSlack < c.lowWeightMargin {
		return StatusLow
	}
	return StatusSufficient
}

// StatusRow joins an ingredient with its demand record and shortage status.
type StatusRow struct {
	catalog.Ingredient
	demand.Record
	Status Status `json:"status"`
}

// Report builds a status row for every ingredient carrying demand, sorted
// by ingredient name for stable rendering. Demand values are rounded at
// this reporting edge. An ingredient id missing from the catalog still
// produces a row (with zero stock) rather than being silently dropped.
func (c *Classifier) Report(records map[string]demand.Record, ingredients map[string]catalog.Ingredient) []StatusRow {
	rows := make([]StatusRow, 0, len(records))
	for id, rec := range records {
		ing, ok := ingredients[id]
		if !ok {
			ing = catalog.Ingredient{ID: id}
		}
		rows = append(rows, StatusRow{
			Ingredient: ing,
			Record:     rec.Rounded(),
			Status:     c.Classify(rec, ing.StockQuantity, ing.StockWeight),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Name == rows[j].Name {
			return rows[i].Ingredient.ID < rows[j].Ingredient.ID
		}
		return rows[i].Name < rows[j].Name
	})
	return rows
}

// LowStockOnly is the demand-independent quick filter: ingredients whose
// raw stock quantity sits at or below the threshold, regardless of what is
// currently scheduled. It deliberately stays separate from Classify; the
// shopping list builder never uses it.
func LowStockOnly(ingredients []catalog.Ingredient, threshold float64) []catalog.Ingredient {
	var out []catalog.Ingredient
	for _, ing := range ingredients {
		if ing.StockQuantity <= threshold {
			out = append(out, ing)
		}
	}
	return out
}
