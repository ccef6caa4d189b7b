package menu

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository handles persistence of menu entries.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new menu entry repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Add inserts a new menu entry and returns it with its generated id.
// A non-positive servings multiplier defaults to 1.
func (r *Repository) Add(ctx context.Context, e Entry) (*Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Servings <= 0 {
		e.Servings = 1
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO menu_entries (id, dish_id, entry_date, servings, note)
		VALUES (?, ?, ?, ?, ?)
	`, e.ID, e.DishID, e.Date.Format(DateFormat), e.Servings, e.Note)
	if err != nil {
		return nil, fmt.Errorf("failed to add menu entry: %w", err)
	}
	return &e, nil
}

// Update edits the servings multiplier and note of an existing entry.
func (r *Repository) Update(ctx context.Context, id string, servings float64, note string) error {
	if servings <= 0 {
		servings = 1
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE menu_entries SET servings = ?, note = ? WHERE id = ?
	`, servings, note, id)
	if err != nil {
		return fmt.Errorf("failed to update menu entry %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("menu entry %s not found", id)
	}
	return nil
}

// Delete removes a menu entry.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM menu_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete menu entry %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("menu entry %s not found", id)
	}
	return nil
}

// Get retrieves a single entry by id. Returns nil when it does not exist.
func (r *Repository) Get(ctx context.Context, id string) (*Entry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, dish_id, entry_date, servings, note FROM menu_entries WHERE id = ?
	`, id)
	e, err := scanEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get menu entry %s: %w", id, err)
	}
	return e, nil
}

// ByDate returns all entries scheduled on the given day.
func (r *Repository) ByDate(ctx context.Context, date time.Time) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, dish_id, entry_date, servings, note
		FROM menu_entries WHERE entry_date = ?
	`, date.Format(DateFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to list menu entries for %s: %w", date.Format(DateFormat), err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

// ByMonth returns all entries scheduled within the given calendar month.
func (r *Repository) ByMonth(ctx context.Context, year int, month time.Month) ([]Entry, error) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	next := first.AddDate(0, 1, 0)

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, dish_id, entry_date, servings, note
		FROM menu_entries WHERE entry_date >= ? AND entry_date < ?
		ORDER BY entry_date
	`, first.Format(DateFormat), next.Format(DateFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to list menu entries for %d-%02d: %w", year, month, err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*Entry, error) {
	var e Entry
	var rawDate string
	if err := s.Scan(&e.ID, &e.DishID, &rawDate, &e.Servings, &e.Note); err != nil {
		return nil, err
	}
	date, err := time.Parse(DateFormat, rawDate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse entry date %q: %w", rawDate, err)
	}
	e.Date = date
	return &e, nil
}

func collectEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan menu entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}
