package inventory

import (
	"context"
	"database/sql"
	"fmt"

	"pantry-planner/internal/catalog"
)

// Consumer decrements ingredient stock when a dish is scheduled. All
// decrements for one dish run in a single transaction, so a mid-way
// failure never leaves some ingredients decremented and others not.
type Consumer struct {
	db *sql.DB
}

// NewConsumer creates a Consumer on an existing database connection.
func NewConsumer(db *sql.DB) *Consumer {
	return &Consumer{db: db}
}

// ConsumptionResult reports which ingredient decrements were applied.
// Because decrements are transactional, Failed is either empty or lists
// every ingredient of the dish.
type ConsumptionResult struct {
	Applied []string `json:"applied"`
	Failed  []string `json:"failed"`
}

// ConsumeForDish subtracts servings-scaled recipe requirements from stock.
// Stock never goes below zero. Lines with an empty ingredient id are
// skipped, matching the aggregation rules.
func (c *Consumer) ConsumeForDish(ctx context.Context, lines []catalog.RecipeLine, servings float64) (*ConsumptionResult, error) {
	result := &ConsumptionResult{}

	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		if line.IngredientID != "" {
			ids = append(ids, line.IngredientID)
		}
	}
	if len(ids) == 0 {
		return result, nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		result.Failed = ids
		return result, fmt.Errorf("failed to begin stock transaction: %w", err)
	}
	defer tx.Rollback()

	for _, line := range lines {
		if line.IngredientID == "" {
			continue
		}
		base := line.BaseServingCount
		if base < 1 {
			base = 1
		}
		factor := servings / base

		_, err := tx.ExecContext(ctx, `
			UPDATE ingredients
			SET stock_quantity = MAX(stock_quantity - ?, 0),
			    stock_weight = MAX(stock_weight - ?, 0)
			WHERE id = ?
		`, line.QuantityPerBase*factor, line.WeightPerBase*factor, line.IngredientID)
		if err != nil {
			result.Failed = ids
			return result, fmt.Errorf("failed to decrement stock for %s: %w", line.IngredientID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		result.Failed = ids
		return result, fmt.Errorf("failed to commit stock decrements: %w", err)
	}

	result.Applied = ids
	return result, nil
}
