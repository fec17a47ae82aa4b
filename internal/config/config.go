package config

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	infisical "github.com/infisical/go-sdk"
)

type Config struct {
	Port           string
	FrontendOrigin string
	LogLevel       slog.Level

	RedisURL      string
	RedisPassword string
	DatabaseURL   string

	CatalogPath     string
	DefaultWindow   string
	HTTPTimeout     time.Duration
	RefreshInterval time.Duration

	FredAPIKey  string
	FredBaseURL string
	FredTTL     time.Duration

	CoinGeckoAPIKey  string
	CoinGeckoBaseURL string
	DefiLlamaBaseURL string
	RWAGraphQLURL    string
	FearGreedBaseURL string
	MarketTTL        time.Duration

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	SummaryTTL    time.Duration

	TelegramToken  string
	TelegramChatID int64
	DigestCron     string
}

func Load() Config {
	cfg := Config{
		Port:           envOr("PORT", "8080"),
		FrontendOrigin: envOr("FRONTEND_ORIGIN", "*"),
		LogLevel:       parseLevel(os.Getenv("LOG_LEVEL")),

		RedisURL:      os.Getenv("REDIS_URL"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),

		CatalogPath:     os.Getenv("CATALOG_PATH"),
		DefaultWindow:   envOr("DEFAULT_WINDOW", "1y"),
		HTTPTimeout:     envDuration("HTTP_TIMEOUT", 15*time.Second),
		RefreshInterval: envDuration("REFRESH_INTERVAL", 5*time.Minute),

		FredAPIKey:  os.Getenv("FRED_API_KEY"),
		FredBaseURL: envOr("FRED_BASE_URL", "https://api.stlouisfed.org/fred"),
		FredTTL:     envDuration("FRED_TTL", 6*time.Hour),

		CoinGeckoAPIKey:  os.Getenv("COINGECKO_API_KEY"),
		CoinGeckoBaseURL: envOr("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
		DefiLlamaBaseURL: envOr("DEFILLAMA_BASE_URL", "https://stablecoins.llama.fi"),
		RWAGraphQLURL:    os.Getenv("RWA_GRAPHQL_URL"),
		FearGreedBaseURL: envOr("FEAR_GREED_BASE_URL", "https://api.alternative.me/fng/"),
		MarketTTL:        envDuration("MARKET_TTL", 10*time.Minute),

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: envOr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   envOr("OPENAI_MODEL", "gpt-4o-mini"),
		SummaryTTL:    envDuration("SUMMARY_TTL", 3*time.Hour),

		TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID: envInt64("TELEGRAM_CHAT_ID", 0),
		DigestCron:     envOr("DIGEST_CRON", "0 0 8 * * *"),
	}

	// If Infisical credentials are available, fetch secrets from Infisical
	clientID := os.Getenv("INFISICAL_CLIENT_ID")
	clientSecret := os.Getenv("INFISICAL_CLIENT_SECRET")
	if clientID != "" && clientSecret != "" {
		loadFromInfisical(&cfg, clientID, clientSecret)
	}

	return cfg
}

// DigestEnabled reports whether the scheduled Telegram digest can run.
func (c Config) DigestEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0 && c.DigestCron != ""
}

func loadFromInfisical(cfg *Config, clientID, clientSecret string) {
	siteURL := envOr("INFISICAL_SITE_URL",
		"http://infisical-infisical-standalone-infisical.infisical.svc.cluster.local:8080")
	projectID := os.Getenv("INFISICAL_PROJECT_ID")
	envSlug := envOr("INFISICAL_ENV", "prod")

	if projectID == "" {
		slog.Warn("INFISICAL_PROJECT_ID not set, skipping Infisical")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := infisical.NewInfisicalClient(ctx, infisical.Config{
		SiteUrl:          siteURL,
		AutoTokenRefresh: false,
	})

	_, err := client.Auth().UniversalAuthLogin(clientID, clientSecret)
	if err != nil {
		slog.Error("infisical auth failed", "error", err)
		return
	}

	for key, target := range secretTargets(cfg) {
		if *target != "" {
			continue // env var already set, skip
		}
		secret, err := client.Secrets().Retrieve(infisical.RetrieveSecretOptions{
			SecretKey:   key,
			Environment: envSlug,
			ProjectID:   projectID,
			SecretPath:  "/",
		})
		if err != nil {
			slog.Warn("failed to retrieve secret from infisical", "key", key, "error", err)
			continue
		}
		*target = secret.SecretValue
		slog.Info("loaded secret from infisical", "key", key)
	}
}

// secretTargets lists the config fields that may be filled from Infisical.
func secretTargets(cfg *Config) map[string]*string {
	return map[string]*string{
		"FRED_API_KEY":       &cfg.FredAPIKey,
		"COINGECKO_API_KEY":  &cfg.CoinGeckoAPIKey,
		"OPENAI_API_KEY":     &cfg.OpenAIAPIKey,
		"REDIS_PASSWORD":     &cfg.RedisPassword,
		"TELEGRAM_BOT_TOKEN": &cfg.TelegramToken,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		slog.Warn("invalid duration, using default", "key", key, "value", v, "default", fallback.String())
		return fallback
	}
	return d
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		slog.Warn("invalid integer, using default", "key", key, "value", v)
		return fallback
	}
	return n
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
