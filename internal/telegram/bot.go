// Package telegram runs the household chat interface: commands for the
// daily board and shopping views, URLs are clipped into the dish catalog,
// and anything else goes to the planning assistant.
package telegram

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"pantry-planner/internal/assistant"
	"pantry-planner/internal/config"
	"pantry-planner/internal/importer"
	"pantry-planner/internal/inventory"
	"pantry-planner/internal/metrics"
	"pantry-planner/internal/planner"
	"pantry-planner/internal/restock"
)

// Bot wraps the Telegram API around the planner, importer and assistant.
type Bot struct {
	api          *tgbotapi.BotAPI
	planner      *planner.Planner
	assistant    *assistant.Assistant
	importer     *importer.Importer
	metricsStore *metrics.Store
	cfg          *config.Config
}

// NewBot initializes the Telegram Bot and sets the webhook.
func NewBot(
	cfg *config.Config,
	p *planner.Planner,
	a *assistant.Assistant,
	imp *importer.Importer,
	metricsStore *metrics.Store,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", api.Self.UserName)

	wh, _ := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	return &Bot{
		api:          api,
		planner:      p,
		assistant:    a,
		importer:     imp,
		metricsStore: metricsStore,
		cfg:          cfg,
	}, nil
}

// RegisterHandlers registers the webhook handler with the default HTTP mux.
func (b *Bot) RegisterHandlers() {
	http.HandleFunc("/webhook", b.handleWebhook)
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		log.Printf("Error parsing update: %v", err)
		return
	}

	if update.Message == nil {
		return
	}

	isAllowed := false
	for _, id := range b.cfg.TelegramAllowedUserIDs {
		if update.Message.From.ID == id {
			isAllowed = true
			break
		}
	}
	if !isAllowed {
		log.Printf("⚠️ Unauthorized access attempt from UserID: %d (@%s)", update.Message.From.ID, update.Message.From.UserName)
		return
	}

	go b.processMessage(update.Message)
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)
	today := time.Now()

	switch {
	case text == "/today":
		b.handleTodayCommand(msg.Chat.ID, today)
	case text == "/shopping":
		b.handleShoppingCommand(msg.Chat.ID, today)
	case text == "/month":
		b.handleMonthCommand(msg.Chat.ID, today)
	case text == "/low":
		b.handleLowStockCommand(msg.Chat.ID)
	case text == "/usage":
		b.handleUsageCommand(msg.Chat.ID)
	case strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://"):
		b.handleImportRequest(msg)
	default:
		b.handleAssistantRequest(msg, today)
	}
}

func (b *Bot) handleTodayCommand(chatID int64, today time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	board, err := b.planner.DayBoard(ctx, today)
	if err != nil {
		b.sendError(chatID, "Error building today's board", err)
		return
	}
	b.sendMarkdown(chatID, formatDayBoard(board))
}

func (b *Bot) handleShoppingCommand(chatID int64, today time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	view, err := b.planner.ShoppingList(ctx, today)
	if err != nil {
		b.sendError(chatID, "Error building shopping list", err)
		return
	}
	b.sendMarkdown(chatID, formatShoppingList(view))
}

func (b *Bot) handleMonthCommand(chatID int64, today time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	plan, err := b.planner.MonthlyRestock(ctx, today.Year(), today.Month())
	if err != nil {
		b.sendError(chatID, "Error building restock plan", err)
		return
	}
	b.sendMarkdown(chatID, formatRestockPlan(plan))
}

func (b *Bot) handleLowStockCommand(chatID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ingredients, err := b.planner.LowStock(ctx)
	if err != nil {
		b.sendError(chatID, "Error checking stock", err)
		return
	}

	var sb strings.Builder
	sb.WriteString("📉 *Running Low*\n\n")
	if len(ingredients) == 0 {
		sb.WriteString("_Everything is stocked up._\n")
	}
	for _, ing := range ingredients {
		sb.WriteString(fmt.Sprintf("• %s — qty %.2f, %.2fkg\n", ing.Name, ing.StockQuantity, ing.StockWeight))
	}
	b.sendMarkdown(chatID, sb.String())
}

func (b *Bot) handleUsageCommand(chatID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	usage, err := b.metricsStore.GetDailyUsage(ctx, 7)
	if err != nil {
		b.sendError(chatID, "Error fetching usage", err)
		return
	}

	var sb strings.Builder
	sb.WriteString("📊 *LLM Usage (last 7 days)*\n\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens (%d calls)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution))
	}
	b.sendMarkdown(chatID, sb.String())
}

func (b *Bot) handleImportRequest(msg *tgbotapi.Message) {
	if b.importer == nil {
		b.sendMarkdown(msg.Chat.ID, "Recipe import is not configured.")
		return
	}

	statusText := "✂️ *Importing recipe...*"
	replyMsg := tgbotapi.NewMessage(msg.Chat.ID, statusText)
	replyMsg.ParseMode = "Markdown"
	sentMsg, err := b.api.Send(replyMsg)
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	dish, err := b.importer.ImportURL(ctx, msg.Text)
	var finalText string
	if err != nil {
		log.Printf("Error importing recipe: %v", err)
		safeErr := strings.ReplaceAll(err.Error(), "`", "'")
		finalText = fmt.Sprintf("❌ *Error importing recipe:*\n```\n%v\n```", safeErr)
	} else {
		finalText = fmt.Sprintf("✅ *Recipe saved!*\n\n*Dish:* %s\nSchedule it by name whenever you like.", dish.Name)
	}
	edit := tgbotapi.NewEditMessageText(msg.Chat.ID, sentMsg.MessageID, finalText)
	edit.ParseMode = "Markdown"
	b.api.Send(edit)
}

func (b *Bot) handleAssistantRequest(msg *tgbotapi.Message, today time.Time) {
	if b.assistant == nil {
		b.sendMarkdown(msg.Chat.ID, "The assistant is not configured. Use /today, /shopping, /month or /low.")
		return
	}

	statusText := "🧑‍🍳 *Thinking...*"
	replyMsg := tgbotapi.NewMessage(msg.Chat.ID, statusText)
	replyMsg.ParseMode = "Markdown"
	sentMsg, err := b.api.Send(replyMsg)
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	reply, err := b.assistant.HandleMessage(ctx, msg.Text, today)
	if err != nil {
		log.Printf("Assistant error: %v", err)
		safeErr := strings.ReplaceAll(err.Error(), "`", "'")
		reply = fmt.Sprintf("❌ *Sorry, that didn't work:*\n```\n%v\n```", safeErr)
	}

	edit := tgbotapi.NewEditMessageText(msg.Chat.ID, sentMsg.MessageID, reply)
	edit.ParseMode = "Markdown"
	b.api.Send(edit)
}

func (b *Bot) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Failed to send message: %v", err)
	}
}

func (b *Bot) sendError(chatID int64, prefix string, err error) {
	log.Printf("%s: %v", prefix, err)
	safeErr := strings.ReplaceAll(err.Error(), "`", "'")
	b.sendMarkdown(chatID, fmt.Sprintf("❌ *%s:*\n```\n%v\n```", prefix, safeErr))
}

func statusEmoji(status inventory.Status) string {
	switch status {
	case inventory.StatusDepleted:
		return "🔴"
	case inventory.StatusLow:
		return "🟡"
	default:
		return "🟢"
	}
}

func formatDayBoard(board *planner.DayBoard) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📅 *Board for %s*\n\n", board.Date.Format("2006-01-02")))

	if len(board.Entries) == 0 {
		sb.WriteString("_Nothing scheduled._\n")
		return sb.String()
	}

	sb.WriteString("*Dishes*\n")
	for _, e := range board.Entries {
		sb.WriteString(fmt.Sprintf("• %s × %.0f", e.DishID, e.Servings))
		if e.Note != "" {
			sb.WriteString(fmt.Sprintf(" _(%s)_", e.Note))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n*Ingredients*\n")
	for _, row := range board.Rows {
		name := row.Ingredient.Name
		if name == "" {
			name = row.Ingredient.ID
		}
		sb.WriteString(fmt.Sprintf("%s %s — ", statusEmoji(row.Status), name))
		if row.NeedWeight > 0 {
			sb.WriteString(fmt.Sprintf("need %.2fkg, have %.2fkg", row.NeedWeight, row.Ingredient.StockWeight))
		} else {
			sb.WriteString(fmt.Sprintf("need %.2f, have %.2f", row.NeedQuantity, row.Ingredient.StockQuantity))
		}
		sb.WriteString("\n")
	}

	if board.Partial {
		sb.WriteString(fmt.Sprintf("\n⚠️ _Recipes unavailable for: %s_\n", strings.Join(board.FailedDishes, ", ")))
	}
	return sb.String()
}

func formatShoppingList(view *planner.ShoppingView) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🛒 *Shopping List — %s*\n\n", view.Date.Format("2006-01-02")))

	if len(view.Groups) == 0 {
		sb.WriteString("_Nothing to buy._\n")
		return sb.String()
	}

	for _, g := range view.Groups {
		sb.WriteString(fmt.Sprintf("*%s*\n", g.SourceLabel))
		for _, item := range g.Items {
			name := item.Name
			if name == "" {
				name = item.IngredientID
			}
			if item.NeedWeight > 0 {
				sb.WriteString(fmt.Sprintf("• %s — %.2fkg", name, item.NeedWeight))
			} else {
				sb.WriteString(fmt.Sprintf("• %s — %.2f", name, item.NeedQuantity))
			}
			if item.LineCost > 0 {
				sb.WriteString(fmt.Sprintf(" (%.0f₫)", item.LineCost))
			}
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("_Subtotal: %.0f₫_\n\n", g.TotalCost))
	}

	sb.WriteString(fmt.Sprintf("*Total: %.0f₫*\n", view.TotalCost))
	if view.Partial {
		sb.WriteString(fmt.Sprintf("\n⚠️ _Recipes unavailable for: %s_\n", strings.Join(view.FailedDishes, ", ")))
	}
	return sb.String()
}

func formatRestockPlan(plan *restock.Plan) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📦 *Restock Plan — %04d-%02d*\n\n", plan.Year, plan.Month))

	if len(plan.Groups) == 0 {
		sb.WriteString("_Nothing scheduled this month._\n")
		return sb.String()
	}

	for _, g := range plan.Groups {
		sb.WriteString(fmt.Sprintf("*%s*\n", g.SourceLabel))
		for _, item := range g.Items {
			name := item.Name
			if name == "" {
				name = item.IngredientID
			}
			if item.NeedWeight > 0 {
				sb.WriteString(fmt.Sprintf("• %s — %.2fkg\n", name, item.NeedWeight))
			} else {
				sb.WriteString(fmt.Sprintf("• %s — %.2f\n", name, item.NeedQuantity))
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("*Estimated total: %.0f₫*\n", plan.TotalCost))
	if plan.Partial {
		sb.WriteString(fmt.Sprintf("\n⚠️ _Recipes unavailable for: %s_\n", strings.Join(plan.FailedDishes, ", ")))
	}
	return sb.String()
}
