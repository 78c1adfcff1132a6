package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage backends for the batch writer
const (
	BackendWarehouse = "warehouse"
	BackendFirestore = "firestore"
	BackendFirebase  = "firebase"
)

// Signature schemes for inbound notifications
const (
	SchemeNotification = "adyen"
	SchemeHeader       = "header"
)

// Config holds application configuration
type Config struct {
	WebhookSecret   string
	SignatureScheme string
	Port            string
	Environment     string

	BufferWatermark int
	FlushInterval   time.Duration
	EventTimezone   string
	StorageBackend  string

	Snowflake SnowflakeConfig
	Tables    TablesConfig

	FirebaseProjectID     string
	FirebaseDatabaseURL   string
	GoogleCredentialsFile string

	RateLimitRPS   int
	RateLimitBurst int
}

// SnowflakeConfig holds warehouse connection parameters
type SnowflakeConfig struct {
	Account   string
	User      string
	Password  string
	Warehouse string
	Database  string
	Schema    string
	Host      string
	Port      int
	TokenFile string
}

// TablesConfig names the warehouse tables
type TablesConfig struct {
	Transactions string
	Orders       string
	Emails       string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	interval, err := parseInterval(v.GetString("FLUSH_INTERVAL"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		WebhookSecret:   v.GetString("WEBHOOK_SECRET"),
		SignatureScheme: strings.ToLower(v.GetString("SIGNATURE_SCHEME")),
		Port:            v.GetString("PORT"),
		Environment:     v.GetString("ENVIRONMENT"),
		BufferWatermark: v.GetInt("BUFFER_WATERMARK"),
		FlushInterval:   interval,
		EventTimezone:   v.GetString("EVENT_TIMEZONE"),
		StorageBackend:  strings.ToLower(v.GetString("STORAGE_BACKEND")),
		Snowflake: SnowflakeConfig{
			Account:   v.GetString("SNOWFLAKE_ACCOUNT"),
			User:      v.GetString("SNOWFLAKE_USER"),
			Password:  v.GetString("SNOWFLAKE_PASSWORD"),
			Warehouse: v.GetString("SNOWFLAKE_WAREHOUSE"),
			Database:  v.GetString("SNOWFLAKE_DATABASE"),
			Schema:    v.GetString("SNOWFLAKE_SCHEMA"),
			Host:      v.GetString("SNOWFLAKE_HOST"),
			Port:      v.GetInt("SNOWFLAKE_PORT"),
			TokenFile: v.GetString("SNOWFLAKE_TOKEN_FILE"),
		},
		Tables: TablesConfig{
			Transactions: v.GetString("TRANSACTIONS_TABLE"),
			Orders:       v.GetString("ORDERS_TABLE"),
			Emails:       v.GetString("EMAIL_TABLE"),
		},
		FirebaseProjectID:     v.GetString("FIREBASE_PROJECT_ID"),
		FirebaseDatabaseURL:   v.GetString("FIREBASE_DATABASE_URL"),
		GoogleCredentialsFile: v.GetString("GOOGLE_CREDENTIALS_FILE"),
		RateLimitRPS:          v.GetInt("RATE_LIMIT_RPS"),
		RateLimitBurst:        v.GetInt("RATE_LIMIT_BURST"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SIGNATURE_SCHEME", SchemeNotification)
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("BUFFER_WATERMARK", 100)
	v.SetDefault("FLUSH_INTERVAL", "3600")
	v.SetDefault("EVENT_TIMEZONE", "Australia/Sydney")
	v.SetDefault("STORAGE_BACKEND", BackendWarehouse)
	v.SetDefault("SNOWFLAKE_TOKEN_FILE", "/snowflake/session/token")
	v.SetDefault("TRANSACTIONS_TABLE", "ADYEN_API.PUBLIC.TRANSACTIONS")
	v.SetDefault("ORDERS_TABLE", "SNOWFLAKE_SAMPLE_DATA.TPCH_SF10.ORDERS")
	v.SetDefault("EMAIL_TABLE", "SALESFORCE.PUBLIC.EMAILMESSAGE")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 20)
}

// Validate checks required fields and value ranges
func (c *Config) Validate() error {
	if c.WebhookSecret == "" {
		return fmt.Errorf("WEBHOOK_SECRET environment variable is required")
	}
	if c.SignatureScheme != SchemeNotification && c.SignatureScheme != SchemeHeader {
		return fmt.Errorf("SIGNATURE_SCHEME must be %q or %q, got %q", SchemeNotification, SchemeHeader, c.SignatureScheme)
	}
	if c.BufferWatermark <= 0 {
		return fmt.Errorf("BUFFER_WATERMARK must be positive, got %d", c.BufferWatermark)
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("FLUSH_INTERVAL must be positive, got %s", c.FlushInterval)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	switch c.StorageBackend {
	case BackendWarehouse:
	case BackendFirestore:
		if c.FirebaseProjectID == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID environment variable is required for the firestore backend")
		}
	case BackendFirebase:
		if c.FirebaseDatabaseURL == "" {
			return fmt.Errorf("FIREBASE_DATABASE_URL environment variable is required for the firebase backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	return nil
}

// parseInterval accepts a Go duration ("90s", "1h") or a number of seconds
func parseInterval(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("FLUSH_INTERVAL %q is neither seconds nor a duration: %w", raw, err)
	}
	return d, nil
}
