package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// RecipeResolver resolves dishes to their recipe lines in a single batch,
// returning a mapping keyed by dish id. A dish without a stored recipe is
// simply absent from the map.
type RecipeResolver interface {
	ResolveRecipes(ctx context.Context, dishIDs []string) (map[string][]RecipeLine, error)
}

// Repository is a database-backed repository for dishes, recipe lines and
// ingredients. It implements RecipeResolver.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// SaveDish inserts or updates a dish.
func (r *Repository) SaveDish(ctx context.Context, d Dish) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO dishes (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`, d.ID, d.Name)
	if err != nil {
		return fmt.Errorf("failed to save dish %s: %w", d.ID, err)
	}
	return nil
}

// GetDish retrieves a dish by id. Returns nil when the dish does not exist.
func (r *Repository) GetDish(ctx context.Context, id string) (*Dish, error) {
	var d Dish
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM dishes WHERE id = ?`, id).
		Scan(&d.ID, &d.Name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get dish %s: %w", id, err)
	}
	return &d, nil
}

// FindDishByName retrieves a dish by case-insensitive name match.
// Returns nil when no dish matches.
func (r *Repository) FindDishByName(ctx context.Context, name string) (*Dish, error) {
	var d Dish
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name FROM dishes WHERE LOWER(name) = LOWER(?) LIMIT 1
	`, strings.TrimSpace(name)).Scan(&d.ID, &d.Name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find dish by name %q: %w", name, err)
	}
	return &d, nil
}

// ListDishes returns every dish in the catalog.
func (r *Repository) ListDishes(ctx context.Context) ([]Dish, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM dishes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list dishes: %w", err)
	}
	defer rows.Close()

	var dishes []Dish
	for rows.Next() {
		var d Dish
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, fmt.Errorf("failed to scan dish: %w", err)
		}
		dishes = append(dishes, d)
	}
	return dishes, rows.Err()
}

// ReplaceRecipe replaces the full recipe of a dish with the given lines.
func (r *Repository) ReplaceRecipe(ctx context.Context, dishID string, lines []RecipeLine) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_lines WHERE dish_id = ?`, dishID); err != nil {
		return fmt.Errorf("failed to clear recipe for dish %s: %w", dishID, err)
	}

	for _, line := range lines {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO recipe_lines
				(dish_id, ingredient_id, base_serving_count, quantity_per_base, weight_per_base, calories_per_base)
			VALUES (?, ?, ?, ?, ?, ?)
		`, dishID, line.IngredientID, line.BaseServingCount, line.QuantityPerBase, line.WeightPerBase, line.CaloriesPerBase)
		if err != nil {
			return fmt.Errorf("failed to insert recipe line for dish %s: %w", dishID, err)
		}
	}

	return tx.Commit()
}

// ResolveRecipes resolves recipe lines for a batch of dish ids in one query.
// Dishes without a stored recipe are absent from the returned map. A driver
// failure is wrapped in ErrUnavailable so callers can distinguish an outage
// from an empty recipe.
func (r *Repository) ResolveRecipes(ctx context.Context, dishIDs []string) (map[string][]RecipeLine, error) {
	result := make(map[string][]RecipeLine)
	if len(dishIDs) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?,", len(dishIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(dishIDs))
	for i, id := range dishIDs {
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT dish_id, ingredient_id, base_serving_count, quantity_per_base, weight_per_base, calories_per_base
		FROM recipe_lines
		WHERE dish_id IN (%s)
	`, placeholders)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve recipes: %w: %w", ErrUnavailable, err)
	}
	defer rows.Close()

	for rows.Next() {
		var line RecipeLine
		if err := rows.Scan(&line.DishID, &line.IngredientID, &line.BaseServingCount,
			&line.QuantityPerBase, &line.WeightPerBase, &line.CaloriesPerBase); err != nil {
			return nil, fmt.Errorf("failed to scan recipe line: %w: %w", ErrUnavailable, err)
		}
		result[line.DishID] = append(result[line.DishID], line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read recipe lines: %w: %w", ErrUnavailable, err)
	}

	return result, nil
}

// SaveIngredient inserts or updates an ingredient.
func (r *Repository) SaveIngredient(ctx context.Context, ing Ingredient) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ingredients (id, name, source, stock_quantity, stock_weight, unit_price)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			source = excluded.source,
			stock_quantity = excluded.stock_quantity,
			stock_weight = excluded.stock_weight,
			unit_price = excluded.unit_price
	`, ing.ID, ing.Name, ing.Source, ing.StockQuantity, ing.StockWeight, ing.UnitPrice)
	if err != nil {
		return fmt.Errorf("failed to save ingredient %s: %w", ing.ID, err)
	}
	return nil
}

// FindIngredientByName retrieves an ingredient by case-insensitive name
// match. Returns nil when no ingredient matches.
func (r *Repository) FindIngredientByName(ctx context.Context, name string) (*Ingredient, error) {
	var ing Ingredient
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, source, stock_quantity, stock_weight, unit_price
		FROM ingredients WHERE LOWER(name) = LOWER(?) LIMIT 1
	`, strings.TrimSpace(name)).Scan(&ing.ID, &ing.Name, &ing.Source,
		&ing.StockQuantity, &ing.StockWeight, &ing.UnitPrice)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find ingredient by name %q: %w", name, err)
	}
	return &ing, nil
}

// ListIngredients returns every ingredient in the catalog.
func (r *Repository) ListIngredients(ctx context.Context) ([]Ingredient, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, source, stock_quantity, stock_weight, unit_price
		FROM ingredients ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	defer rows.Close()

	var ingredients []Ingredient
	for rows.Next() {
		var ing Ingredient
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.Source,
			&ing.StockQuantity, &ing.StockWeight, &ing.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		ingredients = append(ingredients, ing)
	}
	return ingredients, rows.Err()
}

// IngredientsByIDs returns the ingredients for the given ids, keyed by id.
// Unknown ids are absent from the map.
func (r *Repository) IngredientsByIDs(ctx context.Context, ids []string) (map[string]Ingredient, error) {
	result := make(map[string]Ingredient)
	if len(ids) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT id, name, source, stock_quantity, stock_weight, unit_price
		FROM ingredients WHERE id IN (%s)
	`, placeholders)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get ingredients by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ing Ingredient
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.Source,
			&ing.StockQuantity, &ing.StockWeight, &ing.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		result[ing.ID] = ing
	}
	return result, rows.Err()
}
