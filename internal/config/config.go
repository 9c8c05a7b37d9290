package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds everything the panel needs at startup.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Remote  RemoteConfig  `yaml:"remote"`
	Session SessionConfig `yaml:"session"`
	Store   StoreConfig   `yaml:"store"`
	Webhook WebhookConfig `yaml:"webhook"`
	Health  HealthConfig  `yaml:"health"`
	Notify  NotifyConfig  `yaml:"notify"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Port               string   `yaml:"port"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

// RemoteConfig points at the Django backend.
type RemoteConfig struct {
	BaseURL        string        `yaml:"base_url"`
	PanelID        string        `yaml:"panel_id"`
	OwnerID        int64         `yaml:"owner_id"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
}

type SessionConfig struct {
	Secret       string        `yaml:"secret"`
	TTL          time.Duration `yaml:"ttl"`
	CookieSecure bool          `yaml:"cookie_secure"`
}

type StoreConfig struct {
	Driver      string `yaml:"driver"` // "memory" or "postgres"
	DatabaseURL string `yaml:"database_url"`
}

type WebhookConfig struct {
	Secret string `yaml:"secret"`
}

type HealthConfig struct {
	Schedule string `yaml:"schedule"`
}

type NotifyConfig struct {
	SendGridAPIKey    string `yaml:"sendgrid_api_key"`
	SendGridFromEmail string `yaml:"sendgrid_from_email"`
	SendGridFromName  string `yaml:"sendgrid_from_name"`
	TwilioAccountSID  string `yaml:"twilio_account_sid"`
	TwilioAuthToken   string `yaml:"twilio_auth_token"`
	TwilioFromNumber  string `yaml:"twilio_from_number"`
	OwnerEmail        string `yaml:"owner_email"`
	OwnerName         string `yaml:"owner_name"`
	OwnerPhone        string `yaml:"owner_phone"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const (
	defaultPort           = "8080"
	defaultBaseURL        = "http://localhost:8000/api"
	defaultPanelID        = "PANEL_LOCAL_001"
	defaultConnectTimeout = 5 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultSessionTTL     = time.Hour
	defaultHealthSchedule = "@every 1m"
	minSecretLength       = 32
)

// Load reads .env (if present), then the optional YAML file at path, then
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	godotenv.Load()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.overrideWithEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) overrideWithEnv() error {
	setString(&c.Server.Port, "PORT")
	if val := os.Getenv("CORS_ALLOWED_ORIGINS"); val != "" {
		c.Server.CORSAllowedOrigins = splitList(val)
	}

	setString(&c.Remote.BaseURL, "DJANGO_API_BASE_URL")
	setString(&c.Remote.PanelID, "PANEL_LOCAL_ID")
	if val := os.Getenv("PANEL_OWNER_ID"); val != "" {
		id, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid PANEL_OWNER_ID %q: %w", val, err)
		}
		c.Remote.OwnerID = id
	}
	if err := setDuration(&c.Remote.ConnectTimeout, "REMOTE_CONNECT_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&c.Remote.ReadTimeout, "REMOTE_READ_TIMEOUT"); err != nil {
		return err
	}

	setString(&c.Session.Secret, "SESSION_SECRET")
	if err := setDuration(&c.Session.TTL, "SESSION_TTL"); err != nil {
		return err
	}
	if val := os.Getenv("SESSION_COOKIE_SECURE"); val != "" {
		secure, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid SESSION_COOKIE_SECURE %q: %w", val, err)
		}
		c.Session.CookieSecure = secure
	}

	setString(&c.Store.Driver, "STORE_DRIVER")
	setString(&c.Store.DatabaseURL, "DATABASE_URL")
	setString(&c.Webhook.Secret, "WEBHOOK_SECRET")
	if val, ok := os.LookupEnv("HEALTH_CHECK_SCHEDULE"); ok {
		c.Health.Schedule = val
	}

	setString(&c.Notify.SendGridAPIKey, "SENDGRID_API_KEY")
	setString(&c.Notify.SendGridFromEmail, "SENDGRID_FROM_EMAIL")
	setString(&c.Notify.SendGridFromName, "SENDGRID_FROM_NAME")
	setString(&c.Notify.TwilioAccountSID, "TWILIO_ACCOUNT_SID")
	setString(&c.Notify.TwilioAuthToken, "TWILIO_AUTH_TOKEN")
	setString(&c.Notify.TwilioFromNumber, "TWILIO_FROM_NUMBER")
	setString(&c.Notify.OwnerEmail, "OWNER_EMAIL")
	setString(&c.Notify.OwnerName, "OWNER_NAME")
	setString(&c.Notify.OwnerPhone, "OWNER_PHONE")

	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = defaultPort
	}
	if c.Remote.BaseURL == "" {
		c.Remote.BaseURL = defaultBaseURL
	}
	c.Remote.BaseURL = strings.TrimRight(c.Remote.BaseURL, "/")
	if c.Remote.PanelID == "" {
		c.Remote.PanelID = defaultPanelID
	}
	if c.Remote.ConnectTimeout == 0 {
		c.Remote.ConnectTimeout = defaultConnectTimeout
	}
	if c.Remote.ReadTimeout == 0 {
		c.Remote.ReadTimeout = defaultReadTimeout
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = defaultSessionTTL
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "memory"
	}
	if _, ok := os.LookupEnv("HEALTH_CHECK_SCHEDULE"); !ok && c.Health.Schedule == "" {
		c.Health.Schedule = defaultHealthSchedule
	}
	if c.Notify.SendGridFromName == "" {
		c.Notify.SendGridFromName = "Parkea Panel"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is usable.
func (c *Config) Validate() error {
	if port, err := strconv.Atoi(c.Server.Port); err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid server port: %q", c.Server.Port)
	}
	if !strings.HasPrefix(c.Remote.BaseURL, "http://") && !strings.HasPrefix(c.Remote.BaseURL, "https://") {
		return fmt.Errorf("remote base url must be http(s): %q", c.Remote.BaseURL)
	}
	if c.Session.Secret == "" {
		return fmt.Errorf("session secret is required")
	}
	if len(c.Session.Secret) < minSecretLength {
		return fmt.Errorf("session secret must be at least %d characters", minSecretLength)
	}
	switch c.Store.Driver {
	case "memory":
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unsupported store driver: %q", c.Store.Driver)
	}
	return nil
}

// Address returns the listen address for the HTTP server.
func (c *Config) Address() string {
	return ":" + c.Server.Port
}

func setString(dst *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func setDuration(dst *time.Duration, key string) error {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(val))
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	*dst = d
	return nil
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
