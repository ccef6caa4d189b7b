package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"pantry-planner/internal/assistant"
	"pantry-planner/internal/catalog"
	"pantry-planner/internal/config"
	"pantry-planner/internal/database"
	"pantry-planner/internal/httpapi"
	"pantry-planner/internal/importer"
	"pantry-planner/internal/inventory"
	"pantry-planner/internal/menu"
	"pantry-planner/internal/metrics"
	"pantry-planner/internal/planner"
	"pantry-planner/internal/shopping"
	"pantry-planner/internal/telegram"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading environment")
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	catalogRepo := catalog.NewRepository(db.SQL)
	menuRepo := menu.NewRepository(db.SQL)
	consumer := inventory.NewConsumer(db.SQL)
	lists := shopping.NewRepository(db.SQL)
	metricsStore := metrics.NewStore(db.SQL)

	p := planner.New(catalogRepo, menuRepo, consumer, lists)

	// The LLM surfaces are optional: without an API key the server still
	// serves all report and menu endpoints.
	var (
		asst *assistant.Assistant
		imp  *importer.Importer
	)
	if cfg.GeminiAPIKey != "" {
		textGen, closeClient, err := assistant.NewGeminiClient(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to create Gemini client: %v", err)
		}
		defer closeClient()

		asst = assistant.New(textGen, p, catalogRepo, menuRepo, metricsStore, cfg.GeminiModel)
		imp = importer.New(textGen, catalogRepo)
	} else {
		log.Println("GEMINI_API_KEY not set; assistant and recipe import disabled")
	}

	server := httpapi.NewServer(p, catalogRepo, asst, imp)
	router := server.Router(cfg.APIJWTSecret, cfg.AllowedOrigins)

	if cfg.TelegramBotToken != "" {
		bot, err := telegram.NewBot(cfg, p, asst, imp, metricsStore)
		if err != nil {
			log.Fatalf("Failed to initialize Telegram Bot: %v", err)
		}
		bot.RegisterHandlers()
		// The bot registers on the default mux; serve it alongside gin.
		router.POST("/webhook", gin.WrapH(http.DefaultServeMux))
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Pantry server listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
