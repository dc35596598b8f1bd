package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config carries everything the service needs at construction time.
// Components never read the environment themselves; main loads this once
// and injects it.
type Config struct {
	Port        string
	Development bool
	LogLevel    string

	// Static credentials the calling service must present in every request body.
	OnboardClientID     string
	OnboardClientSecret string

	// Plaid API access.
	PlaidClientID string
	PlaidSecret   string
	PlaidEnv      string

	// Link token parameters.
	ClientName     string
	WebhookURL     string
	RedirectURI    string
	BankIncomeDays int32

	// Income decision parameters. The defaults match the values the
	// product team signed off on; deployments may override them.
	IncomeThreshold   float64
	IncomePeriodCount int32

	MongoURI      string
	MongoDatabase string

	// Optional integrations. Empty values disable the audit trail and
	// the event stream respectively.
	PostgresURL           string
	KafkaBootstrapServers string
	KafkaAPIKey           string
	KafkaAPISecret        string
	KafkaTopic            string
}

const (
	DefaultIncomeThreshold   = 500
	DefaultIncomePeriodCount = 1
	DefaultBankIncomeDays    = 15
)

// Load reads configuration from the environment and validates the
// required fields.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        os.Getenv("PORT"),
		Development: os.Getenv("APP_ENV") != "production",
		LogLevel:    os.Getenv("LOG_LEVEL"),

		OnboardClientID:     os.Getenv("ONBOARD_CLIENT_ID"),
		OnboardClientSecret: os.Getenv("ONBOARD_CLIENT_SECRET"),

		PlaidClientID: os.Getenv("PLAID_CLIENT_ID"),
		PlaidSecret:   os.Getenv("PLAID_SECRET"),
		PlaidEnv:      os.Getenv("PLAID_ENV"),

		ClientName:  os.Getenv("ONBOARD_CLIENT_NAME"),
		WebhookURL:  os.Getenv("PLAID_WEBHOOK_URL"),
		RedirectURI: os.Getenv("PLAID_REDIRECT_URI"),

		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDatabase: os.Getenv("MONGO_DATABASE"),

		PostgresURL:           os.Getenv("POSTGRES_URL"),
		KafkaBootstrapServers: os.Getenv("KAFKA_BOOTSTRAP_SERVERS"),
		KafkaAPIKey:           os.Getenv("KAFKA_API_KEY"),
		KafkaAPISecret:        os.Getenv("KAFKA_API_SECRET"),
		KafkaTopic:            os.Getenv("KAFKA_TOPIC"),
	}

	if cfg.OnboardClientID == "" || cfg.OnboardClientSecret == "" {
		return nil, fmt.Errorf("ONBOARD_CLIENT_ID and ONBOARD_CLIENT_SECRET must be set")
	}
	if cfg.PlaidClientID == "" || cfg.PlaidSecret == "" {
		return nil, fmt.Errorf("PLAID_CLIENT_ID and PLAID_SECRET must be set")
	}
	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI environment variable not set")
	}

	if cfg.ClientName == "" {
		cfg.ClientName = "Income Onboarding"
	}
	if cfg.MongoDatabase == "" {
		cfg.MongoDatabase = "onboarding"
	}
	if cfg.KafkaTopic == "" {
		cfg.KafkaTopic = "onboarding_events"
	}

	var err error
	cfg.IncomeThreshold, err = floatEnv("INCOME_THRESHOLD", DefaultIncomeThreshold)
	if err != nil {
		return nil, err
	}
	count, err := intEnv("INCOME_PERIOD_COUNT", DefaultIncomePeriodCount)
	if err != nil {
		return nil, err
	}
	cfg.IncomePeriodCount = int32(count)
	days, err := intEnv("BANK_INCOME_DAYS_REQUESTED", DefaultBankIncomeDays)
	if err != nil {
		return nil, err
	}
	cfg.BankIncomeDays = int32(days)

	return cfg, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %v", key, err)
	}
	return v, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %v", key, err)
	}
	return v, nil
}
