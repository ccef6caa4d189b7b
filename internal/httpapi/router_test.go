package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"pantry-planner/internal/catalog"
	"pantry-planner/internal/database"
	"pantry-planner/internal/inventory"
	"pantry-planner/internal/menu"
	"pantry-planner/internal/planner"
	"pantry-planner/internal/shopping"
)

const testSecret = "test-secret"

func setupRouter(t *testing.T) (*gin.Engine, *catalog.Repository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewDB(filepath.Join(t.TempDir(), "pantry.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	catalogRepo := catalog.NewRepository(db.SQL)
	menuRepo := menu.NewRepository(db.SQL)
	p := planner.New(catalogRepo, menuRepo, inventory.NewConsumer(db.SQL), shopping.NewRepository(db.SQL))

	server := NewServer(p, catalogRepo, nil, nil)
	return server.Router(testSecret, []string{"*"}), catalogRepo
}

func signToken(t *testing.T) string {
	t.Helper()
	token := jwt.New(jwt.SigningMethodHS256)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return signed
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func seedDish(t *testing.T, repo *catalog.Repository) {
	t.Helper()
	ctx := context.Background()
	if err := repo.SaveIngredient(ctx, catalog.Ingredient{ID: "rice", Name: "Rice", Source: "Coopmart", StockWeight: 1, UnitPrice: 20000}); err != nil {
		t.Fatalf("Failed to seed ingredient: %v", err)
	}
	if err := repo.SaveDish(ctx, catalog.Dish{ID: "com-tam", Name: "Cơm Tấm"}); err != nil {
		t.Fatalf("Failed to seed dish: %v", err)
	}
	lines := []catalog.RecipeLine{
		{DishID: "com-tam", IngredientID: "rice", BaseServingCount: 2, WeightPerBase: 0.3},
	}
	if err := repo.ReplaceRecipe(ctx, "com-tam", lines); err != nil {
		t.Fatalf("Failed to seed recipe: %v", err)
	}
}

func TestHealthEndpointIsOpen(t *testing.T) {
	router, _ := setupRouter(t)

	w := doRequest(t, router, http.MethodGet, "/health", nil, "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	router, _ := setupRouter(t)

	w := doRequest(t, router, http.MethodGet, "/api/board", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", w.Code)
	}

	w = doRequest(t, router, http.MethodGet, "/api/board", nil, "not-a-jwt")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with garbage token, got %d", w.Code)
	}
}

func TestEntryAndBoardFlow(t *testing.T) {
	router, repo := setupRouter(t)
	seedDish(t, repo)
	token := signToken(t)

	w := doRequest(t, router, http.MethodPost, "/api/entries", gin.H{
		"dish_id":  "com-tam",
		"date":     "2025-03-03",
		"servings": 4,
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(t, router, http.MethodGet, "/api/board?date=2025-03-03", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var board planner.DayBoard
	if err := json.Unmarshal(w.Body.Bytes(), &board); err != nil {
		t.Fatalf("Failed to decode board: %v", err)
	}
	if len(board.Entries) != 1 {
		t.Errorf("Expected 1 entry on board, got %d", len(board.Entries))
	}
	if len(board.Rows) != 1 || board.Rows[0].NeedWeight != 0.6 {
		t.Errorf("Expected rice demand 0.6 on board, got %+v", board.Rows)
	}
}

func TestBadDateRejected(t *testing.T) {
	router, _ := setupRouter(t)
	token := signToken(t)

	w := doRequest(t, router, http.MethodGet, "/api/board?date=03-03-2025", nil, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad date, got %d", w.Code)
	}
}

func TestUnknownDishRejected(t *testing.T) {
	router, _ := setupRouter(t)
	token := signToken(t)

	w := doRequest(t, router, http.MethodPost, "/api/entries", gin.H{
		"dish_id": "no-such-dish",
		"date":    "2025-03-03",
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown dish, got %d: %s", w.Code, w.Body.String())
	}
}

func TestImportUnavailableWithoutLLM(t *testing.T) {
	router, _ := setupRouter(t)
	token := signToken(t)

	w := doRequest(t, router, http.MethodPost, "/api/import", gin.H{"url": "http://example.com"}, token)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 when importer not configured, got %d", w.Code)
	}
}
