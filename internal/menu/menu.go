package menu

import "time"

// DateFormat is the ISO-8601 date layout used for menu entry dates.
const DateFormat = "2006-01-02"

// Entry schedules a dish on a specific date. Servings is the multiplier
// applied to the dish's base recipe; it defaults to 1 and must be positive.
type Entry struct {
	ID       string    `json:"id"`
	DishID   string    `json:"dish_id"`
	Date     time.Time `json:"date"`
	Servings float64   `json:"servings"`
	Note     string    `json:"note,omitempty"`
}
