package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	S3        S3Config        `mapstructure:"s3"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Session   SessionConfig   `mapstructure:"session"`
	Sheets    SheetsConfig    `mapstructure:"sheets"`
	Relay     RelayConfig     `mapstructure:"relay"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Admin     AdminConfig     `mapstructure:"admin"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Log       LogConfig       `mapstructure:"log"`
	Sinks     SinksConfig     `mapstructure:"sinks"`
}

type ServerConfig struct {
	Address        string        `mapstructure:"address"`
	PublicBaseURL  string        `mapstructure:"public_base_url"` // Used to build absolute file links
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
}

// StorageConfig controls where intake uploads are kept and how big they may be.
type StorageConfig struct {
	Root                 string `mapstructure:"root"`
	PublicPrefix         string `mapstructure:"public_prefix"`
	MaxFileSize          int64  `mapstructure:"max_file_size"`
	MaxInspirationImages int    `mapstructure:"max_inspiration_images"`
}

// S3Config configures the optional object-store mirror of uploads. Empty BucketName disables it.
type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	Prefix          string `mapstructure:"prefix"`
}

// DatabaseConfig configures MongoDB. Empty URI disables persistence and the admin API.
type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

// RedisConfig configures the session store. Empty Addr falls back to process memory.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SessionConfig struct {
	CookieName string        `mapstructure:"cookie_name"`
	TTL        time.Duration `mapstructure:"ttl"`
	Secure     bool          `mapstructure:"secure"`
}

// SheetsConfig configures the spreadsheet sink. Credentials may be inline JSON or a file path.
type SheetsConfig struct {
	CredentialsJSON string `mapstructure:"credentials_json"`
	CredentialsFile string `mapstructure:"credentials_file"`
	SpreadsheetID   string `mapstructure:"spreadsheet_id"`
	IntakeRange     string `mapstructure:"intake_range"`
	LeadRange       string `mapstructure:"lead_range"`
	BaseURL         string `mapstructure:"base_url"`
}

// Credentials returns the service-account JSON, reading CredentialsFile when no inline value is set.
func (c SheetsConfig) Credentials() ([]byte, error) {
	if strings.TrimSpace(c.CredentialsJSON) != "" {
		return []byte(c.CredentialsJSON), nil
	}
	if c.CredentialsFile == "" {
		return nil, nil
	}
	return os.ReadFile(c.CredentialsFile)
}

// Configured reports whether enough is set to attempt appends.
func (c SheetsConfig) Configured() bool {
	return c.SpreadsheetID != "" && (strings.TrimSpace(c.CredentialsJSON) != "" || c.CredentialsFile != "")
}

// RelayConfig configures the form-relay notification endpoint (a Formspree form URL).
type RelayConfig struct {
	Endpoint   string        `mapstructure:"endpoint"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

type NotifyConfig struct {
	JournalPath        string        `mapstructure:"journal_path"`
	IntakeTemplateFile string        `mapstructure:"intake_template_file"`
	LeadTemplateFile   string        `mapstructure:"lead_template_file"`
	DispatchTimeout    time.Duration `mapstructure:"dispatch_timeout"`
}

// TelemetryConfig holds the public tag ids handed to the frontend and the server-side pixel credentials.
type TelemetryConfig struct {
	MetaPixelID     string `mapstructure:"meta_pixel_id"`
	MetaAccessToken string `mapstructure:"meta_access_token"`
	GTMID           string `mapstructure:"gtm_id"`
	CrispWebsiteID  string `mapstructure:"crisp_website_id"`
}

type AdminConfig struct {
	PasswordHash string `mapstructure:"password_hash"` // bcrypt hash
}

// JWTConfig defines JWT specific configuration for admin tokens.
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// SinksConfig decides what happens at startup when an external sink is not configured.
type SinksConfig struct {
	RequireConfigured bool `mapstructure:"require_configured"`
}

// ErrSinksNotConfigured is returned by Validate when sinks.require_configured is set and a sink is missing.
var ErrSinksNotConfigured = errors.New("required sinks are not configured")

// MissingSinks lists the external sinks that will only degrade to logging.
func (c Config) MissingSinks() []string {
	var missing []string
	if !c.Sheets.Configured() {
		missing = append(missing, "sheets")
	}
	if c.Relay.Endpoint == "" {
		missing = append(missing, "relay")
	}
	if c.Server.PublicBaseURL == "" {
		missing = append(missing, "public_base_url")
	}
	return missing
}

// Validate enforces the fail-fast policy for sinks.
func (c Config) Validate() error {
	if c.Sinks.RequireConfigured && len(c.MissingSinks()) > 0 {
		return ErrSinksNotConfigured
	}
	if c.Storage.Root == "" {
		return errors.New("storage.root must not be empty")
	}
	if c.Storage.MaxFileSize <= 0 {
		return errors.New("storage.max_file_size must be positive")
	}
	return nil
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// server.address -> SERVER_ADDRESS
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	setDefaults(v)

	err = v.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil // env vars and defaults are enough
	} else if err != nil {
		return
	}

	if err = v.Unmarshal(&config); err != nil {
		return
	}
	return config, nil
}

// setDefaults registers every key so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.public_base_url", "")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")

	v.SetDefault("storage.root", "./data/uploads/intake")
	v.SetDefault("storage.public_prefix", "/api/uploads/intake")
	v.SetDefault("storage.max_file_size", 10<<20)
	v.SetDefault("storage.max_inspiration_images", 20)

	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.bucket_name", "")
	v.SetDefault("s3.prefix", "intake/")

	v.SetDefault("database.uri", "")
	v.SetDefault("database.name", "photobooth")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("session.cookie_name", "booth_sid")
	v.SetDefault("session.ttl", "24h")
	v.SetDefault("session.secure", false)

	v.SetDefault("sheets.credentials_json", "")
	v.SetDefault("sheets.credentials_file", "")
	v.SetDefault("sheets.spreadsheet_id", "")
	v.SetDefault("sheets.intake_range", "Intake!A:K")
	v.SetDefault("sheets.lead_range", "Leads!A:L")
	v.SetDefault("sheets.base_url", "https://sheets.googleapis.com")

	v.SetDefault("relay.endpoint", "")
	v.SetDefault("relay.timeout", "10s")
	v.SetDefault("relay.max_retries", 2)

	v.SetDefault("notify.journal_path", "./data/notifications.log")
	v.SetDefault("notify.intake_template_file", "")
	v.SetDefault("notify.lead_template_file", "")
	v.SetDefault("notify.dispatch_timeout", "30s")

	v.SetDefault("telemetry.meta_pixel_id", "")
	v.SetDefault("telemetry.meta_access_token", "")
	v.SetDefault("telemetry.gtm_id", "")
	v.SetDefault("telemetry.crisp_website_id", "")

	v.SetDefault("admin.password_hash", "")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", "12h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("sinks.require_configured", false)
}
