package config

import "time"

// Config holds all configuration for the application
type Config struct {
	Environment  string             `mapstructure:"environment"`
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Logger       LoggerConfig       `mapstructure:"logger"`
	Escrow       EscrowConfig       `mapstructure:"escrow"`
	Webhook      WebhookConfig      `mapstructure:"webhook"`
	Rails        RailsConfig        `mapstructure:"rails"`
	Notification NotificationConfig `mapstructure:"notification"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"readTimeout"`       // seconds
	WriteTimeout      time.Duration `mapstructure:"writeTimeout"`      // seconds
	IdleTimeout       time.Duration `mapstructure:"idleTimeout"`       // seconds
	ReadHeaderTimeout time.Duration `mapstructure:"readHeaderTimeout"` // seconds
	ShutdownTimeout   time.Duration `mapstructure:"shutdownTimeout"`   // seconds
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"sslMode"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"` // minutes
	ConnMaxIdleTime time.Duration `mapstructure:"connMaxIdleTime"` // minutes
	QueryTimeout    time.Duration `mapstructure:"queryTimeout"`    // seconds
	RetryAttempts   int           `mapstructure:"retryAttempts"`
	RetryDelay      time.Duration `mapstructure:"retryDelay"` // seconds
}

// LoggerConfig contains logger settings
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	TimeFormat string `mapstructure:"timeFormat"`
	CallerInfo bool   `mapstructure:"callerInfo"`
}

// EscrowConfig contains the engine's timing and sweep settings. All windows
// become persisted deadlines on the rows they govern.
type EscrowConfig struct {
	ReleaseDelay        time.Duration `mapstructure:"releaseDelay"`        // minutes
	AutoReleaseAfter    time.Duration `mapstructure:"autoReleaseAfter"`    // hours
	SellerReleaseWindow time.Duration `mapstructure:"sellerReleaseWindow"` // days
	SweepInterval       time.Duration `mapstructure:"sweepInterval"`       // seconds
	StaleClaimAfter     time.Duration `mapstructure:"staleClaimAfter"`     // minutes
	SweepBatchSize      int           `mapstructure:"sweepBatchSize"`
}

// WebhookConfig contains the payment-provider webhook settings
type WebhookConfig struct {
	Secret string `mapstructure:"secret"`
}

// RailConfig contains the settings for one payout rail
type RailConfig struct {
	BaseURL  string        `mapstructure:"baseUrl"`
	APIKey   string        `mapstructure:"apiKey"`
	FeeMinor int64         `mapstructure:"feeMinor"`
	Timeout  time.Duration `mapstructure:"timeout"` // seconds
}

// RailsConfig contains the settings for all payout rails
type RailsConfig struct {
	BankTransfer RailConfig `mapstructure:"bankTransfer"`
	Wallet       RailConfig `mapstructure:"wallet"`
}

// NotificationConfig contains the notification-service client settings
type NotificationConfig struct {
	BaseURL string        `mapstructure:"baseUrl"`
	APIKey  string        `mapstructure:"apiKey"`
	Timeout time.Duration `mapstructure:"timeout"` // seconds
}
