// Package assistant turns free-text household requests ("add pho on
// tuesday for 4") into menu operations executed against the planner.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"pantry-planner/internal/catalog"
	"pantry-planner/internal/menu"
	"pantry-planner/internal/metrics"
	"pantry-planner/internal/planner"
)

// Command is the typed form of a parsed request.
type Command struct {
	Action   string  `json:"action"` // "add" or "remove"
	Dish     string  `json:"dish"`
	Date     string  `json:"date"` // YYYY-MM-DD
	Servings float64 `json:"servings"`
}

// Assistant parses natural-language requests and executes them.
type Assistant struct {
	textGen TextGenerator
	planner *planner.Planner
	catalog *catalog.Repository
	menu    *menu.Repository
	metrics *metrics.Store
	model   string
}

// New creates an Assistant. The metrics store may be nil.
func New(textGen TextGenerator, p *planner.Planner, catalogRepo *catalog.Repository, menuRepo *menu.Repository, store *metrics.Store, model string) *Assistant {
	return &Assistant{
		textGen: textGen,
		planner: p,
		catalog: catalogRepo,
		menu:    menuRepo,
		metrics: store,
		model:   model,
	}
}

// Parse extracts a Command from free text. today anchors relative dates
// like "tomorrow" or weekday names.
func (a *Assistant) Parse(ctx context.Context, text string, today time.Time) (*Command, error) {
	prompt := fmt.Sprintf(`
You are the scheduling assistant of a household meal planner. Today is %s (%s).
Parse the user's request into a single JSON object with this structure:
{
  "action": "add" or "remove",
  "dish": "dish name as the user said it",
  "date": "YYYY-MM-DD",
  "servings": number of servings (default 1, only meaningful for "add")
}

Resolve relative dates ("today", "tomorrow", weekday names) against today's date.
Return ONLY the raw JSON object. Do not wrap the response in markdown code blocks.

User request: "%s"
`, today.Format(menu.DateFormat), today.Weekday(), text)

	start := time.Now()
	resp, err := a.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to get LLM response: %w", err)
	}
	a.record(ctx, resp.Usage, time.Since(start))

	var cmd Command
	if err := json.Unmarshal([]byte(cleanJSON(resp.Content)), &cmd); err != nil {
		return nil, fmt.Errorf("failed to parse assistant response: %w. Response: %s", err, resp.Content)
	}

	cmd.Action = strings.ToLower(strings.TrimSpace(cmd.Action))
	if cmd.Action != "add" && cmd.Action != "remove" {
		return nil, fmt.Errorf("unsupported action %q", cmd.Action)
	}
	if strings.TrimSpace(cmd.Dish) == "" {
		return nil, fmt.Errorf("assistant response has no dish name")
	}
	if _, err := time.Parse(menu.DateFormat, cmd.Date); err != nil {
		return nil, fmt.Errorf("assistant response has invalid date %q: %w", cmd.Date, err)
	}
	if cmd.Servings <= 0 {
		cmd.Servings = 1
	}
	return &cmd, nil
}

// HandleMessage parses and executes a request, returning a human-readable
// confirmation.
func (a *Assistant) HandleMessage(ctx context.Context, text string, today time.Time) (string, error) {
	cmd, err := a.Parse(ctx, text, today)
	if err != nil {
		return "", err
	}

	dish, err := a.catalog.FindDishByName(ctx, cmd.Dish)
	if err != nil {
		return "", err
	}
	if dish == nil {
		return fmt.Sprintf("I couldn't find a dish called %q in the catalog.", cmd.Dish), nil
	}

	date, _ := time.Parse(menu.DateFormat, cmd.Date)

	switch cmd.Action {
	case "add":
		entry, consumption, err := a.planner.ScheduleDish(ctx, dish.ID, date, cmd.Servings, "added via assistant")
		if err != nil {
			if entry != nil {
				// Entry exists but stock is untouched or partially reported.
				return fmt.Sprintf("Scheduled %s on %s, but stock could not be updated (%d decrements failed).",
					dish.Name, cmd.Date, len(consumption.Failed)), nil
			}
			return "", err
		}
		return fmt.Sprintf("Scheduled %s on %s for %g servings.", dish.Name, cmd.Date, entry.Servings), nil

	case "remove":
		entries, err := a.menu.ByDate(ctx, date)
		if err != nil {
			return "", err
		}
		for _, e := range entries {
			if e.DishID == dish.ID {
				if err := a.planner.RemoveEntry(ctx, e.ID); err != nil {
					return "", err
				}
				return fmt.Sprintf("Removed %s from %s.", dish.Name, cmd.Date), nil
			}
		}
		return fmt.Sprintf("%s was not scheduled on %s.", dish.Name, cmd.Date), nil
	}

	return "", fmt.Errorf("unsupported action %q", cmd.Action)
}

func (a *Assistant) record(ctx context.Context, usage TokenUsage, latency time.Duration) {
	if a.metrics == nil {
		return
	}
	err := a.metrics.Record(ctx, metrics.ExecutionMetric{
		AgentName:        "assistant",
		Model:            a.model,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		LatencyMS:        latency.Milliseconds(),
	})
	if err != nil {
		log.Printf("Warning: failed to record assistant metric: %v", err)
	}
}

// cleanJSON strips markdown code fences some models insist on adding.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
