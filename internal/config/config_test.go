package config

import (
	"os"
	"testing"
)

func TestNewFromEnv(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		os.Unsetenv("PANTRY_DB_PATH")
		os.Unsetenv("GEMINI_MODEL")
		os.Unsetenv("PORT")
		os.Unsetenv("TELEGRAM_BOT_TOKEN")
		os.Unsetenv("TELEGRAM_ALLOWED_USER_IDS")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.DatabasePath != "data/pantry.db" {
			t.Errorf("Expected default DatabasePath, got '%s'", cfg.DatabasePath)
		}
		if cfg.GeminiModel != "gemini-2.0-flash" {
			t.Errorf("Expected default GeminiModel, got '%s'", cfg.GeminiModel)
		}
		if cfg.Port != "8080" {
			t.Errorf("Expected default Port 8080, got '%s'", cfg.Port)
		}
		if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
			t.Errorf("Expected wildcard origins, got %v", cfg.AllowedOrigins)
		}
	})

	t.Run("ExplicitValues", func(t *testing.T) {
		t.Setenv("PANTRY_DB_PATH", "/tmp/test.db")
		t.Setenv("PORT", "9090")
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test")
		t.Setenv("TELEGRAM_BOT_TOKEN", "bot_token")
		t.Setenv("TELEGRAM_WEBHOOK_URL", "https://hook.test/webhook")
		t.Setenv("TELEGRAM_ALLOWED_USER_IDS", "123, 456")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.DatabasePath != "/tmp/test.db" {
			t.Errorf("Expected DatabasePath '/tmp/test.db', got '%s'", cfg.DatabasePath)
		}
		if cfg.GeminiAPIKey != "gemini_key" {
			t.Errorf("Expected GeminiAPIKey 'gemini_key', got '%s'", cfg.GeminiAPIKey)
		}
		if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
			t.Errorf("Unexpected AllowedOrigins: %v", cfg.AllowedOrigins)
		}
		if len(cfg.TelegramAllowedUserIDs) != 2 || cfg.TelegramAllowedUserIDs[0] != 123 {
			t.Errorf("Unexpected TelegramAllowedUserIDs: %v", cfg.TelegramAllowedUserIDs)
		}
	})

	t.Run("BotTokenWithoutWebhook", func(t *testing.T) {
		t.Setenv("TELEGRAM_BOT_TOKEN", "bot_token")
		os.Unsetenv("TELEGRAM_WEBHOOK_URL")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing TELEGRAM_WEBHOOK_URL, got nil")
		}
	})

	t.Run("BadUserIDList", func(t *testing.T) {
		t.Setenv("TELEGRAM_ALLOWED_USER_IDS", "123,abc")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for non-numeric user id, got nil")
		}
	})
}
