package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"pantry-planner/internal/assistant"
	"pantry-planner/internal/catalog"
	"pantry-planner/internal/config"
	"pantry-planner/internal/database"
	"pantry-planner/internal/importer"
	"pantry-planner/internal/inventory"
	"pantry-planner/internal/menu"
	"pantry-planner/internal/metrics"
	"pantry-planner/internal/planner"
	"pantry-planner/internal/shopping"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading environment")
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	catalogRepo := catalog.NewRepository(db.SQL)
	menuRepo := menu.NewRepository(db.SQL)
	p := planner.New(catalogRepo, menuRepo, inventory.NewConsumer(db.SQL), shopping.NewRepository(db.SQL))

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "board":
		boardCmd := flag.NewFlagSet("board", flag.ExitOnError)
		date := boardCmd.String("date", time.Now().Format(menu.DateFormat), "Day to report on (YYYY-MM-DD)")
		boardCmd.Parse(os.Args[2:])
		runBoard(ctx, p, *date)
	case "shopping":
		shoppingCmd := flag.NewFlagSet("shopping", flag.ExitOnError)
		date := shoppingCmd.String("date", time.Now().Format(menu.DateFormat), "Day to shop for (YYYY-MM-DD)")
		shoppingCmd.Parse(os.Args[2:])
		runShopping(ctx, p, *date)
	case "restock":
		restockCmd := flag.NewFlagSet("restock", flag.ExitOnError)
		month := restockCmd.String("month", time.Now().Format("2006-01"), "Month to plan for (YYYY-MM)")
		restockCmd.Parse(os.Args[2:])
		runRestock(ctx, p, *month)
	case "low-stock":
		runLowStock(ctx, p)
	case "import":
		if len(os.Args) < 3 {
			log.Fatal("Usage: pantry-planner import <url>")
		}
		runImport(ctx, cfg, catalogRepo, os.Args[2])
	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		cleanupCmd.Parse(os.Args[2:])

		affected, err := metrics.NewStore(db.SQL).Cleanup(ctx, *days)
		if err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
		fmt.Printf("Successfully removed %d old metric records.\n", affected)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runBoard(ctx context.Context, p *planner.Planner, rawDate string) {
	date, err := time.Parse(menu.DateFormat, rawDate)
	if err != nil {
		log.Fatalf("Invalid date %q: %v", rawDate, err)
	}

	board, err := p.DayBoard(ctx, date)
	if err != nil {
		log.Fatalf("Failed to build day board: %v", err)
	}

	fmt.Printf("Board for %s\n\n", rawDate)
	if len(board.Entries) == 0 {
		fmt.Println("Nothing scheduled.")
		return
	}
	for _, e := range board.Entries {
		fmt.Printf("  %s x %.0f %s\n", e.DishID, e.Servings, e.Note)
	}
	fmt.Println()
	for _, row := range board.Rows {
		name := row.Ingredient.Name
		if name == "" {
			name = row.Ingredient.ID
		}
		fmt.Printf("  [%s] %s: need qty %.2f / %.2fkg, have qty %.2f / %.2fkg\n",
			row.Status, name, row.NeedQuantity, row.NeedWeight, row.Ingredient.StockQuantity, row.Ingredient.StockWeight)
	}
	if board.Partial {
		fmt.Printf("\nWarning: recipes unavailable for %s\n", strings.Join(board.FailedDishes, ", "))
	}
}

func runShopping(ctx context.Context, p *planner.Planner, rawDate string) {
	date, err := time.Parse(menu.DateFormat, rawDate)
	if err != nil {
		log.Fatalf("Invalid date %q: %v", rawDate, err)
	}

	view, err := p.ShoppingList(ctx, date)
	if err != nil {
		log.Fatalf("Failed to build shopping list: %v", err)
	}

	fmt.Printf("Shopping list for %s\n\n", rawDate)
	printGroups(view.Groups)
	fmt.Printf("Total: %.0f\n", view.TotalCost)
	if view.Partial {
		fmt.Printf("\nWarning: recipes unavailable for %s\n", strings.Join(view.FailedDishes, ", "))
	}
}

func runRestock(ctx context.Context, p *planner.Planner, rawMonth string) {
	ref, err := time.Parse("2006-01", rawMonth)
	if err != nil {
		log.Fatalf("Invalid month %q: %v", rawMonth, err)
	}

	plan, err := p.MonthlyRestock(ctx, ref.Year(), ref.Month())
	if err != nil {
		log.Fatalf("Failed to build restock plan: %v", err)
	}

	fmt.Printf("Restock plan for %s\n\n", rawMonth)
	printGroups(plan.Groups)
	fmt.Printf("Estimated total: %.0f\n", plan.TotalCost)
	if plan.Partial {
		fmt.Printf("\nWarning: recipes unavailable for %s\n", strings.Join(plan.FailedDishes, ", "))
	}
}

func printGroups(groups []shopping.Group) {
	if len(groups) == 0 {
		fmt.Println("Nothing to buy.")
		return
	}
	for _, g := range groups {
		fmt.Printf("%s:\n", g.SourceLabel)
		for _, item := range g.Items {
			name := item.Name
			if name == "" {
				name = item.IngredientID
			}
			fmt.Printf("  %s: qty %.2f, %.2fkg", name, item.NeedQuantity, item.NeedWeight)
			if item.LineCost > 0 {
				fmt.Printf(" (%.0f)", item.LineCost)
			}
			fmt.Println()
		}
		fmt.Printf("  subtotal: %.0f\n\n", g.TotalCost)
	}
}

func runLowStock(ctx context.Context, p *planner.Planner) {
	ingredients, err := p.LowStock(ctx)
	if err != nil {
		log.Fatalf("Failed to check stock: %v", err)
	}
	if len(ingredients) == 0 {
		fmt.Println("Everything is stocked up.")
		return
	}
	for _, ing := range ingredients {
		fmt.Printf("  %s: qty %.2f, %.2fkg\n", ing.Name, ing.StockQuantity, ing.StockWeight)
	}
}

func runImport(ctx context.Context, cfg *config.Config, catalogRepo *catalog.Repository, url string) {
	textGen, closeClient, err := assistant.NewGeminiClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create Gemini client: %v", err)
	}
	defer closeClient()

	dish, err := importer.New(textGen, catalogRepo).ImportURL(ctx, url)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}
	fmt.Printf("Imported dish %q (%s)\n", dish.Name, dish.ID)
}

func printUsage() {
	fmt.Println("Usage: pantry-planner <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  board            Show the day's dishes and ingredient status")
	fmt.Println("  shopping         Build the day's supplier-grouped shopping list")
	fmt.Println("  restock          Build the monthly restock plan")
	fmt.Println("  low-stock        List ingredients running low regardless of the menu")
	fmt.Println("  import <url>     Import a recipe page into the dish catalog")
	fmt.Println("  metrics-cleanup  Remove old LLM metric records")
}
