package catalog

import "errors"

// ErrUnavailable signals that the underlying store could not be reached.
// Callers must not conflate it with "dish has no recipe", which is an
// empty result, not an error.
var ErrUnavailable = errors.New("catalog unavailable")

// Dish is a named, recipe-bearing menu item.
type Dish struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RecipeLine holds one ingredient's requirement for one base serving
// count of a dish. Quantity covers count-based units, weight covers
// mass/volume units; absent values are stored as 0.
type RecipeLine struct {
	DishID           string  `json:"dish_id"`
	IngredientID     string  `json:"ingredient_id"`
	BaseServingCount float64 `json:"base_serving_count"`
	QuantityPerBase  float64 `json:"quantity_per_base"`
	WeightPerBase    float64 `json:"weight_per_base"`
	CaloriesPerBase  float64 `json:"calories_per_base"`
}

// Ingredient is a raw ingredient with its current stock levels.
// UnitPrice is the cost per weight-or-quantity unit; 0 means the price
// is unknown.
type Ingredient struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Source        string  `json:"source"`
	StockQuantity float64 `json:"stock_quantity"`
	StockWeight   float64 `json:"stock_weight"`
	UnitPrice     float64 `json:"unit_price"`
}
