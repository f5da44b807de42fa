package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`

	JWT struct {
		Secret  string `yaml:"secret"`
		TTLDays int    `yaml:"ttl_days"`
	} `yaml:"jwt"`

	Google struct {
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
		CallbackURL  string `yaml:"callback_url"`
	} `yaml:"google"`

	// FrontendURL is used for CORS and OAuth redirects.
	FrontendURL string `yaml:"frontend_url"`

	// AdminEmails get the admin role on first Google login.
	AdminEmails []string `yaml:"admin_emails"`

	Storage struct {
		Type      string `yaml:"type"` // local, s3
		BasePath  string `yaml:"base_path"`
		BaseURL   string `yaml:"base_url"`
		Bucket    string `yaml:"bucket"`
		Region    string `yaml:"region"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		Endpoint  string `yaml:"endpoint"`
	} `yaml:"storage"`

	Upload struct {
		MaxSize      int64    `yaml:"max_size"`      // bytes
		AllowedExts  []string `yaml:"allowed_exts"`  // e.g. .jpg, .pdf
	} `yaml:"upload"`

	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
	} `yaml:"email"`

	FirstAdminEmail    string `yaml:"first_admin_email"`
	FirstAdminPassword string `yaml:"first_admin_password"`
}

var AppConfig *Config

// LoadConfig reads config.yaml, then lets environment variables override
// the sensitive values. When DATABASE_URL is set the file is skipped
// entirely (test mode). Missing secrets abort startup: there are no
// built-in fallbacks.
func LoadConfig() error {
	var cfg Config

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.DSN = dbURL
		cfg.Server.Env = envOr("SERVER_ENV", "test")
		cfg.Server.Port, _ = strconv.Atoi(envOr("SERVER_PORT", "4000"))
		cfg.JWT.Secret = os.Getenv("JWT_SECRET")
		cfg.JWT.TTLDays = 7
		cfg.FrontendURL = envOr("FRONTEND_URL", "http://localhost:5173")
		cfg.Storage.Type = "local"
		cfg.Storage.BasePath = envOr("STORAGE_PATH", "./uploads")
		cfg.Upload.MaxSize = 5 * 1024 * 1024
		cfg.FirstAdminEmail = os.Getenv("FIRST_ADMIN_EMAIL")
		cfg.FirstAdminPassword = os.Getenv("FIRST_ADMIN_PASSWORD")
		if emails := os.Getenv("ADMIN_EMAILS"); emails != "" {
			cfg.AdminEmails = strings.Split(emails, ",")
		}
	} else {
		configPath := envOr("CONFIG_PATH", "config/config.yaml")
		f, err := os.Open(configPath)
		if err != nil {
			return fmt.Errorf("failed to open config file at %s: %w", configPath, err)
		}
		defer f.Close()

		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return fmt.Errorf("failed to parse config file at %s: %w", configPath, err)
		}

		applyEnvOverrides(&cfg)
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	AppConfig = &cfg
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" {
		cfg.Google.ClientID = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_SECRET"); v != "" {
		cfg.Google.ClientSecret = v
	}
	if v := os.Getenv("GOOGLE_CALLBACK_URL"); v != "" {
		cfg.Google.CallbackURL = v
	}
	if v := os.Getenv("FRONTEND_URL"); v != "" {
		cfg.FrontendURL = v
	}
	if v := os.Getenv("ADMIN_EMAILS"); v != "" {
		cfg.AdminEmails = strings.Split(v, ",")
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 4000
	}
	if cfg.Server.Env == "" {
		cfg.Server.Env = "development"
	}
	if cfg.JWT.TTLDays == 0 {
		cfg.JWT.TTLDays = 7
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "local"
	}
	if cfg.Storage.BasePath == "" {
		cfg.Storage.BasePath = "./uploads"
	}
	if cfg.Upload.MaxSize == 0 {
		cfg.Upload.MaxSize = 5 * 1024 * 1024
	}
	if len(cfg.Upload.AllowedExts) == 0 {
		cfg.Upload.AllowedExts = []string{".jpeg", ".jpg", ".png", ".gif", ".pdf"}
	}
}

// Validate rejects configurations that would otherwise run with insecure
// or missing secrets.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("database.url is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required and has no default")
	}
	if c.IsProduction() {
		if c.Google.ClientID == "" || c.Google.ClientSecret == "" {
			return fmt.Errorf("google.client_id and google.client_secret are required in production")
		}
		if c.FrontendURL == "" {
			return fmt.Errorf("frontend_url is required in production")
		}
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// IsAdminEmail reports whether email is on the configured allow-list.
func (c *Config) IsAdminEmail(email string) bool {
	for _, e := range c.AdminEmails {
		if strings.EqualFold(strings.TrimSpace(e), email) {
			return true
		}
	}
	return false
}

func GetConfig() *Config {
	if AppConfig == nil {
		if err := LoadConfig(); err != nil {
			panic(err)
		}
	}
	return AppConfig
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
