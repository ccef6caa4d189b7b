// Package importer pulls recipes from web pages into the catalog: it
// fetches and strips the page, asks the LLM for a structured recipe, and
// lands the result as a dish with recipe lines.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"pantry-planner/internal/assistant"
	"pantry-planner/internal/catalog"
)

// ExtractedRecipe is the structure the LLM returns for a recipe page.
type ExtractedRecipe struct {
	Name     string          `json:"name"`
	Servings float64         `json:"servings"`
	Lines    []ExtractedLine `json:"lines"`
}

// ExtractedLine is one ingredient requirement as extracted from the page.
type ExtractedLine struct {
	Ingredient string  `json:"ingredient"`
	Quantity   float64 `json:"quantity"`
	WeightKg   float64 `json:"weight_kg"`
	Calories   float64 `json:"calories"`
}

// Importer fetches recipe pages and lands them in the catalog.
type Importer struct {
	textGen assistant.TextGenerator
	catalog *catalog.Repository
	client  *http.Client
}

// New creates an Importer.
func New(textGen assistant.TextGenerator, catalogRepo *catalog.Repository) *Importer {
	return &Importer{
		textGen: textGen,
		catalog: catalogRepo,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// ImportURL fetches the URL, extracts the recipe, and saves a new dish
// with its recipe lines. Ingredients are matched by name case-insensitively
// and created when missing.
func (i *Importer) ImportURL(ctx context.Context, url string) (*catalog.Dish, error) {
	content, err := i.fetchAndCleanHTML(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content: %w", err)
	}

	prompt := fmt.Sprintf(`
You are a recipe extraction expert. Extract the recipe from the following page text.
Return the result strictly as a JSON object with this structure:
{
  "name": "Dish name",
  "servings": number of servings the recipe is written for (default 1),
  "lines": [
    {"ingredient": "name", "quantity": count-based amount or 0, "weight_kg": weight in kg or 0, "calories": estimated calories for the full line or 0},
    ...
  ]
}

Use quantity for piece-counted ingredients (eggs, onions) and weight_kg for
weighed or measured ones. Return ONLY the raw JSON object, without markdown.

Page text:
%s
`, content)

	resp, err := i.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("ai extraction failed: %w", err)
	}

	var extracted ExtractedRecipe
	if err := json.Unmarshal([]byte(cleanJSON(resp.Content)), &extracted); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w. Response: %s", err, resp.Content)
	}
	if strings.TrimSpace(extracted.Name) == "" {
		return nil, fmt.Errorf("extracted recipe has no name")
	}
	if extracted.Servings < 1 {
		extracted.Servings = 1
	}

	dish := catalog.Dish{ID: uuid.NewString(), Name: strings.TrimSpace(extracted.Name)}
	if err := i.catalog.SaveDish(ctx, dish); err != nil {
		return nil, err
	}

	lines := make([]catalog.RecipeLine, 0, len(extracted.Lines))
	for _, raw := range extracted.Lines {
		name := strings.TrimSpace(raw.Ingredient)
		if name == "" {
			continue
		}
		ingredientID, err := i.ensureIngredient(ctx, name)
		if err != nil {
			return nil, err
		}
		lines = append(lines, catalog.RecipeLine{
			DishID:           dish.ID,
			IngredientID:     ingredientID,
			BaseServingCount: extracted.Servings,
			QuantityPerBase:  raw.Quantity,
			WeightPerBase:    raw.WeightKg,
			CaloriesPerBase:  raw.Calories,
		})
	}

	if err := i.catalog.ReplaceRecipe(ctx, dish.ID, lines); err != nil {
		return nil, err
	}
	return &dish, nil
}

func (i *Importer) ensureIngredient(ctx context.Context, name string) (string, error) {
	existing, err := i.catalog.FindIngredientByName(ctx, name)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return existing.ID, nil
	}

	ing := catalog.Ingredient{ID: uuid.NewString(), Name: name}
	if err := i.catalog.SaveIngredient(ctx, ing); err != nil {
		return "", err
	}
	return ing.ID, nil
}

func (i *Importer) fetchAndCleanHTML(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := i.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	// Remove noise to save LLM tokens
	doc.Find("script, style, nav, footer, iframe, ads, .ads, #ads").Each(func(_ int, s *goquery.Selection) {
		s.Remove()
	})

	return doc.Find("body").Text(), nil
}

func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
