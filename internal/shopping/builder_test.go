package shopping

import (
	"testing"

	"pantry-planner/internal/catalog"
	"pantry-planner/internal/demand"
	"pantry-planner/internal/inventory"
)

func statusRow(id, name, source string, status inventory.Status, rec demand.Record, unitPrice float64) inventory.StatusRow {
	rec.IngredientID = id
	return inventory.StatusRow{
		Ingredient: catalog.Ingredient{ID: id, Name: name, Source: source, UnitPrice: unitPrice},
		Record:     rec,
		Status:     status,
	}
}

func groupByLabel(groups []Group) map[string]Group {
	out := make(map[string]Group, len(groups))
	for _, g := range groups {
		out[g.SourceLabel] = g
	}
	return out
}

func TestBuildFiltersAndGroups(t *testing.T) {
	b := NewBuilder(NewNormalizer(nil))

	rows := []inventory.StatusRow{
		statusRow("rice", "Rice", "Coopmart", inventory.StatusDepleted, demand.Record{NeedWeight: 1.5}, 20000),
		statusRow("beef", "Beef", "Co.op mart", inventory.StatusLow, demand.Record{NeedWeight: 0.5}, 300000),
		statusRow("salt", "Salt", "", inventory.StatusLow, demand.Record{NeedQuantity: 1}, 5000),
		statusRow("oil", "Oil", "Coopmart", inventory.StatusSufficient, demand.Record{NeedWeight: 0.2}, 40000),
	}

	groups := groupByLabel(b.Build(rows))
	if len(groups) != 2 {
		t.Fatalf("Expected 2 groups, got %d: %v", len(groups), groups)
	}

	coop, ok := groups["Co.op Mart"]
	if !ok {
		t.Fatal("Expected a Co.op Mart group (spelling variants folded together)")
	}
	if len(coop.Items) != 2 {
		t.Fatalf("Expected 2 Co.op Mart items, got %d", len(coop.Items))
	}
	// 20000*1.5 + 300000*0.5
	if coop.TotalCost != 180000 {
		t.Errorf("Expected Co.op Mart total 180000, got %v", coop.TotalCost)
	}

	unknown, ok := groups[UnknownSource]
	if !ok {
		t.Fatal("Expected an unknown-source group for the unlabeled ingredient")
	}
	if unknown.TotalCost != 5000 {
		t.Errorf("Expected unknown-source total 5000, got %v", unknown.TotalCost)
	}
}

func TestLineCostWeightPrecedence(t *testing.T) {
	b := NewBuilder(NewNormalizer(nil))

	t.Run("WeightWins", func(t *testing.T) {
		rows := []inventory.StatusRow{
			statusRow("rice", "Rice", "", inventory.StatusDepleted,
				demand.Record{NeedWeight: 1.5, NeedQuantity: 0}, 20000),
		}
		groups := b.Build(rows)
		if groups[0].Items[0].LineCost != 30000 {
			t.Errorf("Expected line cost 30000, got %v", groups[0].Items[0].LineCost)
		}
	})

	t.Run("QuantityFallback", func(t *testing.T) {
		rows := []inventory.StatusRow{
			statusRow("egg", "Egg", "", inventory.StatusDepleted,
				demand.Record{NeedWeight: 0, NeedQuantity: 3}, 20000),
		}
		groups := b.Build(rows)
		if groups[0].Items[0].LineCost != 60000 {
			t.Errorf("Expected line cost 60000, got %v", groups[0].Items[0].LineCost)
		}
	})

	t.Run("BothPresentWeightWins", func(t *testing.T) {
		rows := []inventory.StatusRow{
			statusRow("flour", "Flour", "", inventory.StatusDepleted,
				demand.Record{NeedWeight: 2, NeedQuantity: 10}, 1000),
		}
		groups := b.Build(rows)
		if groups[0].Items[0].LineCost != 2000 {
			t.Errorf("Expected line cost 2000, got %v", groups[0].Items[0].LineCost)
		}
	})
}

func TestBuildUnknownPricesStillReport(t *testing.T) {
	b := NewBuilder(NewNormalizer(nil))
	rows := []inventory.StatusRow{
		statusRow("herb", "Herb", "market", inventory.StatusLow, demand.Record{NeedQuantity: 2}, 0),
	}
	groups := b.Build(rows)
	if len(groups) != 1 {
		t.Fatalf("Expected 1 group, got %d", len(groups))
	}
	if groups[0].TotalCost != 0 {
		t.Errorf("Expected zero cost, not an error, got %v", groups[0].TotalCost)
	}
}

func TestBuildFromDemandSkipsNoFiltering(t *testing.T) {
	b := NewBuilder(NewNormalizer(nil))

	records := map[string]demand.Record{
		"rice": {IngredientID: "rice", NeedWeight: 1.005},
		"odd":  {IngredientID: "odd", NeedQuantity: 1},
	}
	ingredients := map[string]catalog.Ingredient{
		"rice": {ID: "rice", Name: "Rice", Source: "coopmart", UnitPrice: 20000, StockWeight: 100},
	}

	groups := groupByLabel(b.BuildFromDemand(records, ingredients))
	if len(groups) != 2 {
		t.Fatalf("Expected 2 groups (no stock filtering), got %d", len(groups))
	}
	if _, ok := groups["Co.op Mart"]; !ok {
		t.Error("Expected rice grouped under Co.op Mart despite ample stock")
	}
	// Unknown catalog id still gets a row in the unknown bucket.
	if _, ok := groups[UnknownSource]; !ok {
		t.Error("Expected unknown ingredient reported under the unknown-source bucket")
	}
}
