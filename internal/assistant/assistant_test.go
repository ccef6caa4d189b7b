package assistant

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pantry-planner/internal/catalog"
	"pantry-planner/internal/database"
	"pantry-planner/internal/inventory"
	"pantry-planner/internal/menu"
	"pantry-planner/internal/planner"
	"pantry-planner/internal/shopping"
)

type MockTextGenerator struct {
	Response    string
	ShouldError bool
}

func (m *MockTextGenerator) GenerateContent(ctx context.Context, prompt string) (ContentResponse, error) {
	if m.ShouldError {
		return ContentResponse{}, context.DeadlineExceeded
	}
	return ContentResponse{Content: m.Response}, nil
}

func setupAssistant(t *testing.T, gen TextGenerator) (*Assistant, *catalog.Repository, *menu.Repository) {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "pantry.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	catalogRepo := catalog.NewRepository(db.SQL)
	menuRepo := menu.NewRepository(db.SQL)
	p := planner.New(catalogRepo, menuRepo, inventory.NewConsumer(db.SQL), shopping.NewRepository(db.SQL))

	return New(gen, p, catalogRepo, menuRepo, nil, "test-model"), catalogRepo, menuRepo
}

func TestParse(t *testing.T) {
	today := time.Date(2025, time.June, 9, 0, 0, 0, 0, time.UTC)

	t.Run("PlainJSON", func(t *testing.T) {
		gen := &MockTextGenerator{Response: `{"action": "add", "dish": "Phở Bò", "date": "2025-06-10", "servings": 4}`}
		a, _, _ := setupAssistant(t, gen)

		cmd, err := a.Parse(context.Background(), "add pho for 4 tomorrow", today)
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if cmd.Action != "add" || cmd.Dish != "Phở Bò" || cmd.Date != "2025-06-10" || cmd.Servings != 4 {
			t.Errorf("Unexpected command: %+v", cmd)
		}
	})

	t.Run("FencedJSON", func(t *testing.T) {
		gen := &MockTextGenerator{Response: "```json\n{\"action\": \"remove\", \"dish\": \"Pho\", \"date\": \"2025-06-09\"}\n```"}
		a, _, _ := setupAssistant(t, gen)

		cmd, err := a.Parse(context.Background(), "drop the pho today", today)
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if cmd.Action != "remove" {
			t.Errorf("Expected remove, got %q", cmd.Action)
		}
		if cmd.Servings != 1 {
			t.Errorf("Expected servings to default to 1, got %v", cmd.Servings)
		}
	})

	t.Run("BadAction", func(t *testing.T) {
		gen := &MockTextGenerator{Response: `{"action": "eat", "dish": "Pho", "date": "2025-06-09"}`}
		a, _, _ := setupAssistant(t, gen)

		if _, err := a.Parse(context.Background(), "eat pho", today); err == nil {
			t.Fatal("Expected an error for unsupported action")
		}
	})

	t.Run("BadDate", func(t *testing.T) {
		gen := &MockTextGenerator{Response: `{"action": "add", "dish": "Pho", "date": "next week"}`}
		a, _, _ := setupAssistant(t, gen)

		if _, err := a.Parse(context.Background(), "add pho next week", today); err == nil {
			t.Fatal("Expected an error for invalid date")
		}
	})
}

func TestHandleMessageAddAndRemove(t *testing.T) {
	ctx := context.Background()
	today := time.Date(2025, time.June, 9, 0, 0, 0, 0, time.UTC)

	gen := &MockTextGenerator{Response: `{"action": "add", "dish": "pho bo", "date": "2025-06-10", "servings": 2}`}
	a, catalogRepo, menuRepo := setupAssistant(t, gen)

	if err := catalogRepo.SaveDish(ctx, catalog.Dish{ID: "pho-bo", Name: "Pho Bo"}); err != nil {
		t.Fatalf("Failed to seed dish: %v", err)
	}

	reply, err := a.HandleMessage(ctx, "add pho bo for 2 tomorrow", today)
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if !strings.Contains(reply, "Scheduled Pho Bo") {
		t.Errorf("Unexpected reply: %q", reply)
	}

	date := time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)
	entries, err := menuRepo.ByDate(ctx, date)
	if err != nil {
		t.Fatalf("ByDate failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Servings != 2 {
		t.Fatalf("Expected 1 entry with 2 servings, got %+v", entries)
	}

	gen.Response = `{"action": "remove", "dish": "pho bo", "date": "2025-06-10"}`
	reply, err = a.HandleMessage(ctx, "remove pho bo tomorrow", today)
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if !strings.Contains(reply, "Removed Pho Bo") {
		t.Errorf("Unexpected reply: %q", reply)
	}

	entries, _ = menuRepo.ByDate(ctx, date)
	if len(entries) != 0 {
		t.Errorf("Expected no entries after removal, got %+v", entries)
	}
}

func TestHandleMessageUnknownDish(t *testing.T) {
	today := time.Date(2025, time.June, 9, 0, 0, 0, 0, time.UTC)
	gen := &MockTextGenerator{Response: `{"action": "add", "dish": "mystery stew", "date": "2025-06-09"}`}
	a, _, _ := setupAssistant(t, gen)

	reply, err := a.HandleMessage(context.Background(), "add mystery stew", today)
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if !strings.Contains(reply, "couldn't find a dish") {
		t.Errorf("Unexpected reply: %q", reply)
	}
}
