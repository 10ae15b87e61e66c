package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment constants
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// ConfigPaths defines the paths to look for config files
var ConfigPaths = []string{
	"./configs",
	"../configs",
	"../../configs",
}

// DotEnvPaths defines the paths to look for .env files
var DotEnvPaths = []string{
	".env",
	"./.env",
	"../.env",
	"../../.env",
	"./configs/.env",
	"../configs/.env",
	"../../configs/.env",
}

// LoadConfig loads configuration from file based on the environment
func LoadConfig() (*Config, error) {
	// Load environment variables from .env file first
	if err := loadDotEnvFile(); err != nil {
		fmt.Println("Warning: Could not load .env file:", err)
	}

	env := getEnvironment()

	v := viper.New()
	v.SetConfigName(env)
	v.SetConfigType("yaml")

	for _, path := range ConfigPaths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	// A missing config file is fine; defaults plus environment variables
	// carry a full configuration.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Set environment variables to override config
	v.SetEnvPrefix("EP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	processEnvOverrides(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.Environment = env

	processDurations(&config)

	return &config, nil
}

// loadDotEnvFile attempts to load environment variables from .env files
func loadDotEnvFile() error {
	var lastError error

	for _, path := range DotEnvPaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return nil
			} else {
				lastError = err
			}
		}
	}

	if lastError != nil {
		return fmt.Errorf("could not load any .env file: %w", lastError)
	}

	return fmt.Errorf("no .env file found in search paths")
}

// setDefaults sets default values for non-critical configuration
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 15)       // seconds
	v.SetDefault("server.writeTimeout", 15)      // seconds
	v.SetDefault("server.idleTimeout", 60)       // seconds
	v.SetDefault("server.readHeaderTimeout", 10) // seconds
	v.SetDefault("server.shutdownTimeout", 10)   // seconds

	// Database defaults for non-sensitive settings
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 50)
	v.SetDefault("database.maxIdleConns", 25)
	v.SetDefault("database.connMaxLifetime", 30) // minutes
	v.SetDefault("database.connMaxIdleTime", 15) // minutes
	v.SetDefault("database.queryTimeout", 5)     // seconds
	v.SetDefault("database.retryAttempts", 3)
	v.SetDefault("database.retryDelay", 1) // seconds

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.callerInfo", true)

	// Escrow timing defaults
	v.SetDefault("escrow.releaseDelay", 120)      // minutes
	v.SetDefault("escrow.autoReleaseAfter", 24)   // hours
	v.SetDefault("escrow.sellerReleaseWindow", 7) // days
	v.SetDefault("escrow.sweepInterval", 60)      // seconds
	v.SetDefault("escrow.staleClaimAfter", 15)    // minutes
	v.SetDefault("escrow.sweepBatchSize", 50)

	// Rail defaults
	v.SetDefault("rails.bankTransfer.feeMinor", 20)
	v.SetDefault("rails.bankTransfer.timeout", 30) // seconds
	v.SetDefault("rails.wallet.feeMinor", 35)
	v.SetDefault("rails.wallet.timeout", 30) // seconds

	// Notification defaults
	v.SetDefault("notification.timeout", 10) // seconds
}

// getEnvironment determines the environment to use based on EP_ENV environment variable
func getEnvironment() string {
	env := os.Getenv("EP_ENV")
	if env == "" {
		env = Development
	}
	return strings.ToLower(env)
}

// processEnvOverrides ensures environment variables override config values
func processEnvOverrides(v *viper.Viper) {
	// Database sensitive information
	if dbHost := os.Getenv("EP_DB_HOST"); dbHost != "" {
		v.Set("database.host", dbHost)
	}
	if dbPort := os.Getenv("EP_DB_PORT"); dbPort != "" {
		v.Set("database.port", dbPort)
	}
	if dbUser := os.Getenv("EP_DB_USERNAME"); dbUser != "" {
		v.Set("database.username", dbUser)
	}
	if dbPass := os.Getenv("EP_DB_PASSWORD"); dbPass != "" {
		v.Set("database.password", dbPass)
	}
	if dbName := os.Getenv("EP_DB_NAME"); dbName != "" {
		v.Set("database.database", dbName)
	}
	if sslMode := os.Getenv("EP_DB_SSL_MODE"); sslMode != "" {
		v.Set("database.sslMode", sslMode)
	}

	// Server settings
	if serverHost := os.Getenv("EP_SERVER_HOST"); serverHost != "" {
		v.Set("server.host", serverHost)
	}
	if serverPort := os.Getenv("EP_SERVER_PORT"); serverPort != "" {
		v.Set("server.port", serverPort)
	}

	// Logger settings
	if logLevel := os.Getenv("EP_LOGGER_LEVEL"); logLevel != "" {
		v.Set("logger.level", logLevel)
	}

	// Webhook and provider credentials
	if secret := os.Getenv("EP_WEBHOOK_SECRET"); secret != "" {
		v.Set("webhook.secret", secret)
	}
	if url := os.Getenv("EP_BANK_RAIL_BASE_URL"); url != "" {
		v.Set("rails.bankTransfer.baseUrl", url)
	}
	if key := os.Getenv("EP_BANK_RAIL_API_KEY"); key != "" {
		v.Set("rails.bankTransfer.apiKey", key)
	}
	if url := os.Getenv("EP_WALLET_RAIL_BASE_URL"); url != "" {
		v.Set("rails.wallet.baseUrl", url)
	}
	if key := os.Getenv("EP_WALLET_RAIL_API_KEY"); key != "" {
		v.Set("rails.wallet.apiKey", key)
	}
	if url := os.Getenv("EP_NOTIFICATION_BASE_URL"); url != "" {
		v.Set("notification.baseUrl", url)
	}
	if key := os.Getenv("EP_NOTIFICATION_API_KEY"); key != "" {
		v.Set("notification.apiKey", key)
	}

	// Escrow timing settings
	if minutes := getEnvInt("EP_ESCROW_RELEASE_DELAY_MINUTES", 0); minutes > 0 {
		v.Set("escrow.releaseDelay", minutes)
	}
	if hours := getEnvInt("EP_ESCROW_AUTO_RELEASE_HOURS", 0); hours > 0 {
		v.Set("escrow.autoReleaseAfter", hours)
	}
	if days := getEnvInt("EP_ESCROW_SELLER_RELEASE_WINDOW_DAYS", 0); days > 0 {
		v.Set("escrow.sellerReleaseWindow", days)
	}
	if seconds := getEnvInt("EP_ESCROW_SWEEP_INTERVAL_SECONDS", 0); seconds > 0 {
		v.Set("escrow.sweepInterval", seconds)
	}
	if minutes := getEnvInt("EP_ESCROW_STALE_CLAIM_MINUTES", 0); minutes > 0 {
		v.Set("escrow.staleClaimAfter", minutes)
	}
	if size := getEnvInt("EP_ESCROW_SWEEP_BATCH_SIZE", 0); size > 0 {
		v.Set("escrow.sweepBatchSize", size)
	}
}

// Helper function to get environment variable as int
func getEnvInt(name string, defaultVal int) int {
	valStr := os.Getenv(name)
	if valStr == "" {
		return defaultVal
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultVal
	}
	return val
}

// processDurations converts time.Duration fields from their raw values to actual durations
func processDurations(config *Config) {
	config.Server.ReadTimeout = time.Duration(config.Server.ReadTimeout) * time.Second
	config.Server.WriteTimeout = time.Duration(config.Server.WriteTimeout) * time.Second
	config.Server.IdleTimeout = time.Duration(config.Server.IdleTimeout) * time.Second
	config.Server.ReadHeaderTimeout = time.Duration(config.Server.ReadHeaderTimeout) * time.Second
	config.Server.ShutdownTimeout = time.Duration(config.Server.ShutdownTimeout) * time.Second

	config.Database.ConnMaxLifetime = time.Duration(config.Database.ConnMaxLifetime) * time.Minute
	config.Database.ConnMaxIdleTime = time.Duration(config.Database.ConnMaxIdleTime) * time.Minute
	config.Database.QueryTimeout = time.Duration(config.Database.QueryTimeout) * time.Second
	config.Database.RetryDelay = time.Duration(config.Database.RetryDelay) * time.Second

	config.Escrow.ReleaseDelay = time.Duration(config.Escrow.ReleaseDelay) * time.Minute
	config.Escrow.AutoReleaseAfter = time.Duration(config.Escrow.AutoReleaseAfter) * time.Hour
	config.Escrow.SellerReleaseWindow = time.Duration(config.Escrow.SellerReleaseWindow) * 24 * time.Hour
	config.Escrow.SweepInterval = time.Duration(config.Escrow.SweepInterval) * time.Second
	config.Escrow.StaleClaimAfter = time.Duration(config.Escrow.StaleClaimAfter) * time.Minute

	config.Rails.BankTransfer.Timeout = time.Duration(config.Rails.BankTransfer.Timeout) * time.Second
	config.Rails.Wallet.Timeout = time.Duration(config.Rails.Wallet.Timeout) * time.Second
	config.Notification.Timeout = time.Duration(config.Notification.Timeout) * time.Second
}
