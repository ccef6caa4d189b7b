package shopping

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// List kinds for persisted reports.
const (
	KindDay   = "day"
	KindMonth = "month"
)

// SavedList is a generated shopping report persisted for later viewing.
// RefDate is the ISO day for daily lists and "YYYY-MM" for monthly plans.
type SavedList struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`
	RefDate   string    `json:"ref_date"`
	Groups    []Group   `json:"groups"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository handles persistence of generated shopping lists.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new shopping list repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Save stores a generated list, replacing any earlier list for the same
// kind and reference date.
func (r *Repository) Save(ctx context.Context, kind, refDate string, groups []Group) (int64, error) {
	groupsJSON, err := json.Marshal(groups)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal shopping groups: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM shopping_lists WHERE kind = ? AND ref_date = ?
	`, kind, refDate); err != nil {
		return 0, fmt.Errorf("failed to clear previous shopping list: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO shopping_lists (kind, ref_date, groups, created_at)
		VALUES (?, ?, ?, ?)
	`, kind, refDate, string(groupsJSON), time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert shopping list: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read shopping list id: %w", err)
	}
	return id, tx.Commit()
}

// Get retrieves the stored list for a kind and reference date. Returns
// nil when no list has been generated yet.
func (r *Repository) Get(ctx context.Context, kind, refDate string) (*SavedList, error) {
	var list SavedList
	var groupsJSON string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, kind, ref_date, groups, created_at
		FROM shopping_lists WHERE kind = ? AND ref_date = ?
	`, kind, refDate).Scan(&list.ID, &list.Kind, &list.RefDate, &groupsJSON, &list.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get shopping list: %w", err)
	}

	if err := json.Unmarshal([]byte(groupsJSON), &list.Groups); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shopping groups: %w", err)
	}
	return &list, nil
}
